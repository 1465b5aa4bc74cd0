package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/multierr"
)

// s3iface is the subset of the s3 client we use; allows test fakes.
type s3iface interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// newS3Client constructs a client for one connection; overridden in tests.
// Env support for unset fields: AWS_REGION, AWS_ENDPOINT_URL_S3, AWS_S3_FORCE_PATH_STYLE.
var newS3Client = func(ctx context.Context, conn Connection) (s3iface, error) {
	var opts []func(*config.LoadOptions) error
	if conn.Region != "" {
		opts = append(opts, config.WithRegion(conn.Region))
	}
	if conn.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conn.AccessKeyID, conn.SecretAccessKey, conn.SessionToken),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load S3 config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		ep := conn.Endpoint
		if ep == "" {
			ep = os.Getenv("AWS_ENDPOINT_URL_S3")
		}
		if ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if conn.PathStyle || strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	}), nil
}

// S3 reads objects through named connections. Clients are created lazily and
// reused; S3 is safe for concurrent use.
type S3 struct {
	conns map[string]Connection

	mu      sync.Mutex
	clients map[string]s3iface
}

func NewS3(conns map[string]Connection) *S3 {
	if conns == nil {
		conns = map[string]Connection{}
	}
	return &S3{conns: conns, clients: map[string]s3iface{}}
}

func (s *S3) client(ctx context.Context, connID string) (s3iface, error) {
	if connID == "" {
		connID = DefaultConnection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[connID]; ok {
		return c, nil
	}
	conn, ok := s.conns[connID]
	if !ok && connID != DefaultConnection {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, connID)
	}
	c, err := newS3Client(ctx, conn)
	if err != nil {
		return nil, err
	}
	s.clients[connID] = c
	return c, nil
}

// ReadKey returns the full content of bucket/key. Nothing is returned unless
// the whole body was read.
func (s *S3) ReadKey(ctx context.Context, connID, bucket, key string) (b []byte, err error) {
	cl, err := s.client(ctx, connID)
	if err != nil {
		return nil, err
	}
	out, err := cl.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3: %s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("s3: cannot get %s/%s: %w", bucket, key, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(out.Body))

	b, err = io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: cannot read body of %s/%s: %w", bucket, key, err)
	}
	return b, nil
}
