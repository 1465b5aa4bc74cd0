package types

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Source kinds accepted in a SourceSpec.
const (
	KindCallback    = "callback" // process-local only; cannot cross a workflow boundary
	KindPath        = "path"
	KindObjectStore = "objectstore"
	KindLiteral     = "literal"
)

// SourceSpec is the serializable description of an upload source. Only the
// fields relevant to Kind are used.
type SourceSpec struct {
	Kind        string `json:"kind" yaml:"kind"`
	Destination string `json:"destination" yaml:"destination"` // path inside the DVC repository
	Origin      string `json:"origin,omitempty" yaml:"origin,omitempty"`

	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`

	ConnectionID string `json:"connection_id,omitempty" yaml:"connection_id,omitempty"`
	Bucket       string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Key          string `json:"key,omitempty" yaml:"key,omitempty"`

	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// UploadParams is the input of UploadWorkflow.
type UploadParams struct {
	Sources []SourceSpec `json:"sources" yaml:"sources"`
	// Optional label recorded with each ledger entry, e.g. the pipeline run.
	RunLabel string `json:"run_label,omitempty" yaml:"run_label,omitempty"`
}

// UploadRequest is the input of the UploadSource activity.
type UploadRequest struct {
	Source   SourceSpec `json:"source"`
	RunLabel string     `json:"run_label,omitempty"`
}

// UploadResult describes one completed upload.
type UploadResult struct {
	Destination string `json:"destination"`
	Source      string `json:"source"` // Describe() of the source
	Bytes       int64  `json:"bytes"`
}

// UploadSummary is the result of UploadWorkflow.
type UploadSummary struct {
	Uploaded []UploadResult `json:"uploaded"`
	Bytes    int64          `json:"bytes"`
}

// Validate checks the per-kind required fields of s.
func (s SourceSpec) Validate() error {
	if err := ValidateDestination(s.Destination); err != nil {
		return err
	}
	switch s.Kind {
	case KindPath:
		if s.LocalPath == "" {
			return fmt.Errorf("%s: local_path is required", s.Destination)
		}
	case KindObjectStore:
		if s.Bucket == "" || s.Key == "" {
			return fmt.Errorf("%s: bucket and key are required", s.Destination)
		}
	case KindLiteral:
	case KindCallback:
		return fmt.Errorf("%s: callback sources cannot be described declaratively", s.Destination)
	default:
		return fmt.Errorf("%s: unknown source kind %q", s.Destination, s.Kind)
	}
	return nil
}

// Validate checks every source and rejects duplicate destinations, since two
// uploads of the same path in one run would race.
func (p UploadParams) Validate() error {
	if len(p.Sources) == 0 {
		return errors.New("no sources")
	}
	seen := make(map[string]bool, len(p.Sources))
	for _, s := range p.Sources {
		if err := s.Validate(); err != nil {
			return err
		}
		d := path.Clean(s.Destination)
		if seen[d] {
			return fmt.Errorf("duplicate destination %q", s.Destination)
		}
		seen[d] = true
	}
	return nil
}

// ValidateDestination requires a relative slash path that stays inside the repository.
func ValidateDestination(dest string) error {
	if strings.TrimSpace(dest) == "" {
		return errors.New("empty destination")
	}
	if strings.HasPrefix(dest, "/") {
		return fmt.Errorf("destination %q must be relative", dest)
	}
	c := path.Clean(dest)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return fmt.Errorf("destination %q escapes the repository", dest)
	}
	return nil
}
