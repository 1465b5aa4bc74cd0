package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/dvc-uploads/internal/activities"
	"github.com/yourorg/dvc-uploads/internal/types"
)

func TestRunUploadsContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	acts := activities.New(activities.Config{RepoDir: root}, nil, nil)
	params := types.UploadParams{Sources: []types.SourceSpec{
		{Kind: types.KindLiteral, Destination: "a.txt", Content: "A"},
		{Kind: types.KindPath, Destination: "b.txt", LocalPath: filepath.Join(t.TempDir(), "missing")},
		{Kind: types.KindLiteral, Destination: "c/d.txt", Content: "D"},
	}}

	err := runUploads(context.Background(), zap.NewNop(), acts, params, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")

	for dest, want := range map[string]string{"a.txt": "A", "c/d.txt": "D"} {
		b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(dest)))
		require.NoError(t, err)
		require.Equal(t, want, string(b))
	}
}

func TestDescribeCommand(t *testing.T) {
	dir := t.TempDir()
	m := filepath.Join(dir, "m.yaml")
	require.NoError(t, os.WriteFile(m, []byte(`sources:
  - kind: literal
    destination: data/VERSION
    content: "1"
  - kind: objectstore
    destination: data/x.bin
    uri: s3://bkt/path/x.bin
`), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"describe", "-f", m, "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "String (m.yaml#0)")
	require.Contains(t, lines[2], "ObjectStore bkt/path/x.bin")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	repoDir := filepath.Join(dir, "repo")
	m := filepath.Join(dir, "m.yaml")
	require.NoError(t, os.WriteFile(m, []byte("sources:\n  - kind: literal\n    destination: data/out.csv\n    content: \"a,b\\n\"\n"), 0o644))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "-f", m, "--repo", repoDir, "--ledger", "", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	b, err := os.ReadFile(filepath.Join(repoDir, "data", "out.csv"))
	require.NoError(t, err)
	require.Equal(t, "a,b\n", string(b))
}
