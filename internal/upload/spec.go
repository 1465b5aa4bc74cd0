package upload

import (
	"fmt"

	"github.com/yourorg/dvc-uploads/internal/types"
)

// FromSpec builds a Source from its serializable description. objects may be
// nil when no object-store sources are expected.
func FromSpec(s types.SourceSpec, objects ObjectReader) (Source, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var opts []Option
	if s.Origin != "" {
		opts = append(opts, WithOrigin(s.Origin))
	}
	switch s.Kind {
	case types.KindPath:
		return NewPath(s.Destination, s.LocalPath, opts...), nil
	case types.KindObjectStore:
		if objects == nil {
			return nil, fmt.Errorf("%s: no object store configured", s.Destination)
		}
		return NewObjectStore(s.Destination, objects, s.ConnectionID, s.Bucket, s.Key, opts...), nil
	case types.KindLiteral:
		return NewLiteral(s.Destination, s.Content, opts...), nil
	}
	return nil, fmt.Errorf("%s: unsupported source kind %q", s.Destination, s.Kind)
}
