// Package repo writes upload content into the working tree of a DVC repository.
// Tracking (dvc add), commit and push happen outside this package.
package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/yourorg/dvc-uploads/internal/types"
)

// tempMarker is part of the name of every in-progress write.
const tempMarker = ".dvcupload-tmp-"

// Workdir is a repository checkout rooted at Root.
type Workdir struct {
	Root string
}

func New(root string) *Workdir { return &Workdir{Root: root} }

// Path resolves a destination to a filesystem path under Root.
func (w *Workdir) Path(destination string) (string, error) {
	if err := types.ValidateDestination(destination); err != nil {
		return "", err
	}
	return filepath.Join(w.Root, filepath.FromSlash(destination)), nil
}

// Write copies r to destination atomically: readers of the tree see either the
// previous file or the complete new one.
func (w *Workdir) Write(ctx context.Context, destination string, r io.Reader) (n int64, err error) {
	p, err := w.Path(destination)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+tempMarker+"*")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err = io.Copy(tmp, ctxReader{ctx: ctx, r: r})
	if err != nil {
		return 0, multierr.Append(fmt.Errorf("write %s: %w", destination, err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return 0, err
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return 0, err
	}
	return n, nil
}

// PruneTemp removes in-progress files left by interrupted writes and reports
// how many were removed. A missing Root is not an error.
func (w *Workdir) PruneTemp() (int, error) {
	n := 0
	err := filepath.WalkDir(w.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".dvc" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && strings.Contains(d.Name(), tempMarker) {
			if err := os.Remove(p); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
