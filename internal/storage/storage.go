package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrUnknownConnection indicates a connection ID with no configuration.
	ErrUnknownConnection = errors.New("unknown connection")
)

// DefaultConnection is used when a source names no connection. Unless
// configured explicitly it resolves to the AWS default chain.
const DefaultConnection = "default"

// Connection configures one S3-compatible endpoint.
type Connection struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	PathStyle       bool   `yaml:"path_style"`
}

type connectionsFile struct {
	Connections map[string]Connection `yaml:"connections"`
}

// LoadConnections reads a YAML file of the form
//
//	connections:
//	  minio:
//	    endpoint: http://localhost:9000
//	    path_style: true
//
// An empty path yields no connections.
func LoadConnections(path string) (map[string]Connection, error) {
	if path == "" {
		return map[string]Connection{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f connectionsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Connections == nil {
		f.Connections = map[string]Connection{}
	}
	return f.Connections, nil
}

// ParseURI splits s3://bucket/key into its bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("invalid s3 uri")
	}
	return
}
