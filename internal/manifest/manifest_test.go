package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/dvc-uploads/internal/types"
)

const sample = `run_label: nightly
sources:
  - kind: path
    destination: data/raw.csv
    local_path: /scratch/raw.csv
  - kind: objectstore
    destination: data/model.bin
    connection_id: minio
    uri: s3://models/latest/model.bin
  - kind: literal
    destination: data/VERSION
    origin: release.go:12
    content: "42\n"
`

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "uploads.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o644))

	params, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "nightly", params.RunLabel)
	require.Len(t, params.Sources, 3)

	require.Equal(t, types.SourceSpec{
		Kind:        types.KindPath,
		Destination: "data/raw.csv",
		Origin:      "uploads.yaml#0",
		LocalPath:   "/scratch/raw.csv",
	}, params.Sources[0])

	obj := params.Sources[1]
	require.Equal(t, "models", obj.Bucket)
	require.Equal(t, "latest/model.bin", obj.Key)
	require.Equal(t, "minio", obj.ConnectionID)

	require.Equal(t, "release.go:12", params.Sources[2].Origin)
	require.Equal(t, "42\n", params.Sources[2].Content)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "sources:\n  - kind: literal\n    destination: a\n    colour: red\n",
		"duplicate":     "sources:\n  - kind: literal\n    destination: a\n  - kind: literal\n    destination: ./a\n",
		"bad uri":       "sources:\n  - kind: objectstore\n    destination: a\n    uri: http://x/y\n",
		"callback":      "sources:\n  - kind: callback\n    destination: a\n",
		"empty":         "sources: []\n",
	}
	for name, body := range cases {
		_, err := Decode(strings.NewReader(body), "m.yaml")
		require.Error(t, err, name)
	}
}
