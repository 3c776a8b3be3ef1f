// Package naming provides naming conventions for simulation objects.
package naming

import "strings"

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// NamedBase is a base implementation of Named.
type NamedBase struct {
	name string
}

func (b *NamedBase) Name() string {
	return b.name
}

// MakeNamedBase creates a new NamedBase
func MakeNamedBase(name string) NamedBase {
	return NamedBase{name: name}
}

// MustBeValid panics if the name cannot identify a simulation object. Channel
// and port names originate from the elaboration toolchain and are used as map
// keys, so they must be non-empty and must not contain white spaces.
func MustBeValid(name string) {
	if name == "" {
		panic("name must not be empty")
	}

	if strings.ContainsAny(name, " \t\n") {
		panic("name " + name + " must not contain white spaces")
	}
}
