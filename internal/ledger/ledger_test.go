package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPutGetList(t *testing.T) {
	l, err := Open("")
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Get("data/a.csv")
	require.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, l.Put(Record{Destination: "data/b.csv", Source: "Path /tmp/b.csv", Bytes: 3, UploadedAt: at}))
	require.NoError(t, l.Put(Record{Destination: "data/a.csv", Source: "String (x)", Bytes: 1}))
	require.NoError(t, l.Put(Record{Destination: "data/a.csv", Source: "String (y)", Bytes: 2, RunLabel: "run-2"}))

	r, err := l.Get("data/a.csv")
	require.NoError(t, err)
	require.Equal(t, "String (y)", r.Source)
	require.Equal(t, int64(2), r.Bytes)
	require.Equal(t, "run-2", r.RunLabel)
	require.False(t, r.UploadedAt.IsZero())

	all, err := l.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "data/a.csv", all[0].Destination)
	require.Equal(t, "data/b.csv", all[1].Destination)
	require.True(t, all[1].UploadedAt.Equal(at))
}

func TestEquivalentDestinationsShareRecord(t *testing.T) {
	l, err := Open("")
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Put(Record{Destination: "data/./a.csv", Source: "String (x)", Bytes: 1}))
	require.NoError(t, l.Put(Record{Destination: "data/a.csv", Source: "String (y)", Bytes: 2}))

	r, err := l.Get("data//a.csv")
	require.NoError(t, err)
	require.Equal(t, "String (y)", r.Source)
	require.Equal(t, "data/a.csv", r.Destination)

	all, err := l.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestReopenOnDisk(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, l.Put(Record{Destination: "x", Source: "String (x)"}))
	require.NoError(t, l.Close())

	l, err = Open(dir)
	require.NoError(t, err)
	defer l.Close()
	r, err := l.Get("x")
	require.NoError(t, err)
	require.Equal(t, "String (x)", r.Source)
}
