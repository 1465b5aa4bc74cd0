// Package manifest loads upload declarations from YAML.
//
//	run_label: nightly
//	sources:
//	  - kind: path
//	    destination: data/raw.csv
//	    local_path: /scratch/raw.csv
//	  - kind: objectstore
//	    destination: data/model.bin
//	    connection_id: minio
//	    uri: s3://models/latest/model.bin
//	  - kind: literal
//	    destination: data/VERSION
//	    content: "42\n"
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/dvc-uploads/internal/storage"
	"github.com/yourorg/dvc-uploads/internal/types"
)

type entry struct {
	types.SourceSpec `yaml:",inline"`
	// URI is shorthand for bucket and key of an objectstore source.
	URI string `yaml:"uri,omitempty"`
}

type document struct {
	RunLabel string  `yaml:"run_label"`
	Sources  []entry `yaml:"sources"`
}

// Load reads and validates the manifest at path. Sources without an explicit
// origin get "<file>#<index>".
func Load(path string) (types.UploadParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.UploadParams{}, err
	}
	defer f.Close()
	return Decode(f, filepath.Base(path))
}

// Decode is Load for an already open reader; name is used for origins.
func Decode(r io.Reader, name string) (types.UploadParams, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return types.UploadParams{}, fmt.Errorf("parse %s: %w", name, err)
	}
	p := types.UploadParams{RunLabel: doc.RunLabel, Sources: make([]types.SourceSpec, 0, len(doc.Sources))}
	for i, e := range doc.Sources {
		s := e.SourceSpec
		if e.URI != "" {
			b, k, err := storage.ParseURI(e.URI)
			if err != nil {
				return types.UploadParams{}, fmt.Errorf("%s: source %d: %w", name, i, err)
			}
			s.Bucket, s.Key = b, k
		}
		if s.Origin == "" {
			s.Origin = fmt.Sprintf("%s#%d", name, i)
		}
		p.Sources = append(p.Sources, s)
	}
	if err := p.Validate(); err != nil {
		return types.UploadParams{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}
