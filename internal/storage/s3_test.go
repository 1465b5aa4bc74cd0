package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects    map[string][]byte
	getErr     error
	lastBucket string
	lastKey    string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.lastBucket = aws.ToString(in.Bucket)
	f.lastKey = aws.ToString(in.Key)
	b, ok := f.objects[f.lastBucket+"/"+f.lastKey]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	cl := int64(len(b))
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b)), ContentLength: &cl}, nil
}

func withFakeS3(t *testing.T, f *fakeS3, seen *[]Connection) func() {
	old := newS3Client
	newS3Client = func(ctx context.Context, conn Connection) (s3iface, error) {
		if seen != nil {
			*seen = append(*seen, conn)
		}
		return f, nil
	}
	return func() { newS3Client = old }
}

func TestReadKey(t *testing.T) {
	f := &fakeS3{objects: map[string][]byte{"bucket/key/path.csv": []byte("a,b\n")}}
	var seen []Connection
	defer withFakeS3(t, f, &seen)()

	s := NewS3(map[string]Connection{"minio": {Endpoint: "http://localhost:9000", PathStyle: true}})
	b, err := s.ReadKey(context.Background(), "minio", "bucket", "key/path.csv")
	if err != nil {
		t.Fatalf("ReadKey err: %v", err)
	}
	if string(b) != "a,b\n" {
		t.Fatalf("content mismatch: %q", string(b))
	}
	if _, err := s.ReadKey(context.Background(), "minio", "bucket", "key/path.csv"); err != nil {
		t.Fatalf("second ReadKey err: %v", err)
	}
	if len(seen) != 1 || seen[0].Endpoint != "http://localhost:9000" || !seen[0].PathStyle {
		t.Fatalf("client not created once with connection config: %+v", seen)
	}
}

func TestReadKeyMissing(t *testing.T) {
	f := &fakeS3{objects: map[string][]byte{}}
	defer withFakeS3(t, f, nil)()

	s := NewS3(nil)
	b, err := s.ReadKey(context.Background(), "", "bucket", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if b != nil {
		t.Fatalf("partial content returned: %q", b)
	}
}

func TestReadKeyUnknownConnection(t *testing.T) {
	defer withFakeS3(t, &fakeS3{}, nil)()
	_, err := NewS3(nil).ReadKey(context.Background(), "nope", "b", "k")
	if !errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("want ErrUnknownConnection, got %v", err)
	}
}

func TestReadKeyTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	defer withFakeS3(t, &fakeS3{getErr: boom}, nil)()
	_, err := NewS3(nil).ReadKey(context.Background(), DefaultConnection, "b", "k")
	if !errors.Is(err, boom) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestLoadConnections(t *testing.T) {
	p := filepath.Join(t.TempDir(), "conns.yaml")
	body := "connections:\n  minio:\n    endpoint: http://minio:9000\n    region: us-east-1\n    access_key_id: ak\n    secret_access_key: sk\n    path_style: true\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	conns, err := LoadConnections(p)
	if err != nil {
		t.Fatalf("LoadConnections err: %v", err)
	}
	c, ok := conns["minio"]
	if !ok || c.Endpoint != "http://minio:9000" || c.AccessKeyID != "ak" || !c.PathStyle {
		t.Fatalf("unexpected connections: %+v", conns)
	}
	empty, err := LoadConnections("")
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty path: %v %v", empty, err)
	}
}

func TestParseURI(t *testing.T) {
	b, k, err := ParseURI("s3://mybucket/dir/name.txt")
	if err != nil || b != "mybucket" || k != "dir/name.txt" {
		t.Fatalf("got %q %q %v", b, k, err)
	}
	for _, bad := range []string{"file:///tmp/x", "s3://bucket", "s3:///key"} {
		if _, _, err := ParseURI(bad); err == nil {
			t.Fatalf("ParseURI(%q) accepted", bad)
		}
	}
}
