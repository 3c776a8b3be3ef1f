package schema

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// SupportedVersion is the schema description version this package reads.
const SupportedVersion = 1

type jsonSchema struct {
	Version int                 `json:"version"`
	Types   map[string]jsonType `json:"types"`
}

type jsonType struct {
	Kind   string      `json:"kind"`
	Width  int         `json:"width,omitempty"`
	Fields []jsonField `json:"fields,omitempty"`
}

type jsonField struct {
	Name string   `json:"name"`
	Type jsonType `json:"type"`
}

// Load reads a versioned leaf-type description, as emitted by the elaboration
// toolchain, into a Lookup.
func Load(r io.Reader) (MapLookup, error) {
	var s jsonSchema

	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "decoding leaf-type schema")
	}

	if s.Version != SupportedVersion {
		return nil, errors.Errorf(
			"leaf-type schema version %d is not supported, want %d",
			s.Version, SupportedVersion)
	}

	lookup := make(MapLookup, len(s.Types))
	for ref, t := range s.Types {
		lookup[ref] = decodeType(t)
	}

	return lookup, nil
}

func decodeType(t jsonType) TypeDef {
	switch t.Kind {
	case "uint", "sint":
		return IntType{WidthBits: t.Width}
	case "bundle":
		fields := make([]Field, 0, len(t.Fields))
		for _, f := range t.Fields {
			fields = append(fields, Field{
				Name: f.Name,
				Type: decodeType(f.Type),
			})
		}

		return RecordType{Fields: fields}
	default:
		// Clocks, analog wires, and whatever future elaborators emit. The
		// reconstructor rejects them with a SchemaError if a descriptor
		// actually references one.
		return OpaqueType{Kind: t.Kind}
	}
}
