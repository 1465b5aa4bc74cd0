package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"syscall"
)

// Callback produces content by calling a function at acquisition time.
type Callback struct {
	Base
	producer func() string
}

func NewCallback(destination string, producer func() string, opts ...Option) *Callback {
	return &Callback{Base: newBase(destination, opts), producer: producer}
}

func (c *Callback) Describe() string { return fmt.Sprintf("Callback (%s)", c.origin) }

func (c *Callback) Open(context.Context) (io.Reader, error) {
	if c.producer == nil {
		return nil, errors.New("callback has no producer")
	}
	return strings.NewReader(c.producer()), nil
}

func (c *Callback) Close(io.Reader) error { return nil }

// Path reads a file from the local filesystem.
type Path struct {
	Base
	localPath string
}

func NewPath(destination, localPath string, opts ...Option) *Path {
	return &Path{Base: newBase(destination, opts), localPath: localPath}
}

func (p *Path) LocalPath() string { return p.localPath }

func (p *Path) Describe() string { return "Path " + p.localPath }

func (p *Path) Open(context.Context) (io.Reader, error) {
	f, err := os.Open(p.localPath)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err == nil && fi.IsDir() {
		err = &fs.PathError{Op: "open", Path: p.localPath, Err: syscall.EISDIR}
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (p *Path) Close(r io.Reader) error {
	c, ok := r.(io.Closer)
	if !ok {
		return fmt.Errorf("resource %T is not closable", r)
	}
	return c.Close()
}

// ObjectReader fetches the full content of an object. connID selects the
// configured store connection.
type ObjectReader interface {
	ReadKey(ctx context.Context, connID, bucket, key string) ([]byte, error)
}

// ObjectStore reads one object from a bucket through an ObjectReader.
type ObjectStore struct {
	Base
	objects ObjectReader
	connID  string
	bucket  string
	key     string
}

func NewObjectStore(destination string, objects ObjectReader, connID, bucket, key string, opts ...Option) *ObjectStore {
	return &ObjectStore{
		Base:    newBase(destination, opts),
		objects: objects,
		connID:  connID,
		bucket:  bucket,
		key:     key,
	}
}

func (o *ObjectStore) Describe() string { return "ObjectStore " + o.bucket + "/" + o.key }

func (o *ObjectStore) Open(ctx context.Context) (io.Reader, error) {
	if o.objects == nil {
		return nil, errors.New("no object reader configured")
	}
	b, err := o.objects.ReadKey(ctx, o.connID, o.bucket, o.key)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func (o *ObjectStore) Close(io.Reader) error { return nil }

// Literal uploads a string held in memory.
type Literal struct {
	Base
	content string
}

func NewLiteral(destination, content string, opts ...Option) *Literal {
	return &Literal{Base: newBase(destination, opts), content: content}
}

func (l *Literal) Describe() string { return fmt.Sprintf("String (%s)", l.origin) }

func (l *Literal) Open(context.Context) (io.Reader, error) {
	return strings.NewReader(l.content), nil
}

func (l *Literal) Close(io.Reader) error { return nil }
