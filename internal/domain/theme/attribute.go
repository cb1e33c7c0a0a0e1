package theme

import (
	"bytes"
	"encoding/json"
)

// AttributeEntry is a named style variable declared directly on a definition.
// The default value is required, but its presence is only enforced by
// structural validation.
type AttributeEntry struct {
	name       string
	value      string
	hasDefault bool
	location   Location
}

// NewAttribute declares an attribute with a default value. An empty default
// is valid.
func NewAttribute(name, defaultValue string, loc Location) AttributeEntry {
	return AttributeEntry{name: name, value: defaultValue, hasDefault: true, location: loc}
}

// NewAttributeWithoutDefault declares an attribute whose default was never
// supplied.
func NewAttributeWithoutDefault(name string, loc Location) AttributeEntry {
	return AttributeEntry{name: name, location: loc}
}

func (a AttributeEntry) Name() string { return a.name }

// Default returns the default value and whether one was supplied.
func (a AttributeEntry) Default() (string, bool) {
	return a.value, a.hasDefault
}

func (a AttributeEntry) Location() Location { return a.location }

// Equal compares entries by value; locations are diagnostic only.
func (a AttributeEntry) Equal(other AttributeEntry) bool {
	return a.name == other.name && a.hasDefault == other.hasDefault && a.value == other.value
}

func (a AttributeEntry) validateDefinition(owner *Definition, v ValueValidator) error {
	if err := v.ValidateValue(a.value); err != nil {
		return owner.entryError(ErrCodeInvalidValue, "invalid default value for attribute", a.name, a.location, err)
	}
	if !a.hasDefault {
		return owner.entryError(ErrCodeMissingDefault, "attribute requires a default value", a.name, a.location, nil)
	}
	return nil
}

func (a AttributeEntry) validateReferences(owner *Definition, v ValueValidator, scope Attributes) error {
	if err := v.ValidateValueReferences(a.name, a.value, scope); err != nil {
		return owner.entryError(ErrCodeInvalidReference, "attribute default references an invalid attribute", a.name, a.location, err)
	}
	return nil
}

type attributeJSON struct {
	Name    string  `json:"name"`
	Default *string `json:"default,omitempty"`
}

// MarshalJSON emits {"name": ..., "default": ...}; the default is omitted
// when it was never supplied.
func (a AttributeEntry) MarshalJSON() ([]byte, error) {
	out := attributeJSON{Name: a.name}
	if a.hasDefault {
		value := a.value
		out.Default = &value
	}
	return json.Marshal(out)
}

// Attributes is an insertion-ordered mapping from attribute name to entry.
// The zero value is an empty set. Values handed out by definitions must be
// treated as read-only.
type Attributes struct {
	names   []string
	entries map[string]AttributeEntry
}

// NewAttributes builds an ordered set; later entries with a repeated name
// replace earlier ones in place.
func NewAttributes(entries ...AttributeEntry) Attributes {
	var attrs Attributes
	for _, entry := range entries {
		attrs.put(entry)
	}
	return attrs
}

func (a *Attributes) put(entry AttributeEntry) {
	if a.entries == nil {
		a.entries = make(map[string]AttributeEntry)
	}
	if _, exists := a.entries[entry.name]; !exists {
		a.names = append(a.names, entry.name)
	}
	a.entries[entry.name] = entry
}

func (a Attributes) Len() int { return len(a.names) }

// Get returns the entry named name.
func (a Attributes) Get(name string) (AttributeEntry, bool) {
	entry, ok := a.entries[name]
	return entry, ok
}

// Has reports whether name is declared.
func (a Attributes) Has(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// Names returns attribute names in order.
func (a Attributes) Names() []string {
	return append([]string(nil), a.names...)
}

// Entries returns the entries in order.
func (a Attributes) Entries() []AttributeEntry {
	out := make([]AttributeEntry, 0, len(a.names))
	for _, name := range a.names {
		out = append(out, a.entries[name])
	}
	return out
}

// Overlay returns a new set holding a's entries with local's entries on top.
// Shadowed names keep their inherited position; new names are appended in
// local's order. Neither input is modified.
func (a Attributes) Overlay(local Attributes) Attributes {
	merged := Attributes{
		names:   make([]string, 0, len(a.names)+len(local.names)),
		entries: make(map[string]AttributeEntry, len(a.names)+len(local.names)),
	}
	for _, name := range a.names {
		merged.put(a.entries[name])
	}
	for _, name := range local.names {
		merged.put(local.entries[name])
	}
	return merged
}

// Equal compares two sets entry by entry, including order.
func (a Attributes) Equal(other Attributes) bool {
	if len(a.names) != len(other.names) {
		return false
	}
	for i, name := range a.names {
		if other.names[i] != name {
			return false
		}
		if !a.entries[name].Equal(other.entries[name]) {
			return false
		}
	}
	return true
}

// MarshalJSON emits an object keyed by attribute name in declaration order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range a.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(a.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
