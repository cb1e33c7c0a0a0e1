package theme

import (
	"fmt"
	"regexp"
	"strings"
)

var descriptorPartPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Descriptor is the globally unique namespaced name of a definition, written
// "namespace:name".
type Descriptor struct {
	Namespace string
	Name      string
}

// NewDescriptor returns the descriptor for namespace and name without
// validating either part.
func NewDescriptor(namespace, name string) Descriptor {
	return Descriptor{Namespace: namespace, Name: name}
}

// ParseDescriptor parses the "namespace:name" form.
func ParseDescriptor(raw string) (Descriptor, error) {
	raw = strings.TrimSpace(raw)
	namespace, name, ok := strings.Cut(raw, ":")
	if !ok {
		return Descriptor{}, fmt.Errorf("descriptor %q must have the form namespace:name", raw)
	}
	if !descriptorPartPattern.MatchString(namespace) {
		return Descriptor{}, fmt.Errorf("descriptor %q has invalid namespace %q", raw, namespace)
	}
	if !descriptorPartPattern.MatchString(name) {
		return Descriptor{}, fmt.Errorf("descriptor %q has invalid name %q", raw, name)
	}
	return Descriptor{Namespace: namespace, Name: name}, nil
}

// MustParseDescriptor is ParseDescriptor for literals known to be valid.
func MustParseDescriptor(raw string) Descriptor {
	d, err := ParseDescriptor(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the descriptor is unset.
func (d Descriptor) IsZero() bool {
	return d.Namespace == "" && d.Name == ""
}

func (d Descriptor) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Namespace + ":" + d.Name
}

// Location points at the source of a definition or one of its entries.
type Location struct {
	File   string
	Line   int
	Column int
}

// IsZero reports whether no location information is available.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

func (l Location) String() string {
	switch {
	case l.IsZero():
		return ""
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}
