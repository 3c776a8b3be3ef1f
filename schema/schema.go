// Package schema describes the leaf-signal types of a target design and
// reconstructs channel payload types from them.
//
// The elaboration toolchain emits, next to the connection descriptors, a
// versioned description of every leaf signal's type. This package consumes
// that description with a pure recursive-descent flattening. No runtime type
// introspection is involved.
package schema

import (
	"fmt"
)

// A TypeDef is the declared type of a signal. It is a closed set: a signal is
// either a fixed-width integer, an aggregate of named sub-signals, or an
// opaque type we cannot tokenize.
type TypeDef interface {
	isTypeDef()
}

// IntType is a fixed-width integer signal type.
type IntType struct {
	WidthBits int
}

// RecordType is an aggregate of named, ordered sub-signals.
type RecordType struct {
	Fields []Field
}

// A Field is one named member of a RecordType. Declaration order matters and
// is preserved through flattening.
type Field struct {
	Name string
	Type TypeDef
}

// OpaqueType is any leaf type the elaborator emitted that is neither an
// aggregate nor a fixed-width integer. Flattening an OpaqueType fails.
type OpaqueType struct {
	Kind string
}

func (IntType) isTypeDef()    {}
func (RecordType) isTypeDef() {}
func (OpaqueType) isTypeDef() {}

// A SchemaError reports a signal whose declared type cannot be turned into
// token payload bits.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %s: %s", e.Path, e.Reason)
}

// A LeafField is one flattened scalar signal: its full hierarchical path and
// its width in bits.
type LeafField struct {
	Path      string
	WidthBits int
}

// A Lookup resolves a leaf signal reference to its declared type. It is
// provided by the external elaboration step.
type Lookup interface {
	TypeOf(ref string) (TypeDef, error)
}

// MapLookup is a Lookup backed by a plain map.
type MapLookup map[string]TypeDef

// TypeOf returns the type declared for ref.
func (m MapLookup) TypeOf(ref string) (TypeDef, error) {
	t, ok := m[ref]
	if ok {
		return t, nil
	}

	return nil, &SchemaError{Path: ref, Reason: "no type declared"}
}

// Flatten expands a (possibly nested) type into its scalar leaves, in
// declaration order. Paths of nested fields are joined with dots.
func Flatten(path string, t TypeDef) ([]LeafField, error) {
	switch t := t.(type) {
	case IntType:
		if t.WidthBits <= 0 {
			return nil, &SchemaError{
				Path:   path,
				Reason: fmt.Sprintf("width must be positive, got %d", t.WidthBits),
			}
		}

		return []LeafField{{Path: path, WidthBits: t.WidthBits}}, nil
	case RecordType:
		var leaves []LeafField
		for _, f := range t.Fields {
			sub, err := Flatten(path+"."+f.Name, f.Type)
			if err != nil {
				return nil, err
			}

			leaves = append(leaves, sub...)
		}

		return leaves, nil
	case OpaqueType:
		return nil, &SchemaError{
			Path:   path,
			Reason: fmt.Sprintf("%s type cannot carry token payload", t.Kind),
		}
	default:
		panic(fmt.Sprintf("unknown type def %T", t))
	}
}

// A PayloadType is the reconstructed data layout of one channel's tokens. A
// single leaf degenerates to a scalar; multiple leaves form a record that
// preserves declaration order.
type PayloadType struct {
	Fields []LeafField
}

// IsScalar tells if the payload is a single leaf.
func (p PayloadType) IsScalar() bool {
	return len(p.Fields) == 1
}

// WidthBits returns the total payload width.
func (p PayloadType) WidthBits() int {
	total := 0
	for _, f := range p.Fields {
		total += f.WidthBits
	}

	return total
}

// Payload reconstructs a channel's payload type. Every descriptor ref is
// resolved through the lookup and flattened; leaves that are named in control
// are protocol state (valid/ready bits), not payload, and are dropped. The
// result is deterministic for a given ref list and lookup.
func Payload(
	refs []string,
	control []string,
	lookup Lookup,
) (PayloadType, error) {
	controlSet := make(map[string]bool, len(control))
	for _, c := range control {
		controlSet[c] = true
	}

	var fields []LeafField
	for _, ref := range refs {
		t, err := lookup.TypeOf(ref)
		if err != nil {
			return PayloadType{}, err
		}

		leaves, err := Flatten(ref, t)
		if err != nil {
			return PayloadType{}, err
		}

		for _, l := range leaves {
			if controlSet[l.Path] {
				continue
			}

			fields = append(fields, l)
		}
	}

	return PayloadType{Fields: fields}, nil
}
