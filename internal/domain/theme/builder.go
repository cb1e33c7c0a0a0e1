package theme

import "errors"

// ErrBuilderUsed is returned when Build is called more than once.
var ErrBuilderUsed = errors.New("theme builder already produced a definition")

// Builder accumulates parsed attributes, overrides and the extends reference
// and produces a single immutable Definition. A Builder is not safe for
// concurrent use.
type Builder struct {
	descriptor Descriptor
	location   Location
	attributes Attributes
	overrides  overrideSet
	extends    Descriptor
	hasExtends bool
	validator  ValueValidator
	built      bool
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) SetDescriptor(d Descriptor) *Builder {
	b.descriptor = d
	return b
}

func (b *Builder) SetLocation(loc Location) *Builder {
	b.location = loc
	return b
}

// AddAttribute declares entry. Redeclaring a name replaces the earlier entry
// and keeps its position.
func (b *Builder) AddAttribute(entry AttributeEntry) *Builder {
	b.attributes.put(entry)
	return b
}

// AddOverride records entry unless an equal override was already added.
func (b *Builder) AddOverride(entry OverrideEntry) *Builder {
	if !b.overrides.contains(entry) {
		b.overrides = append(b.overrides, entry)
	}
	return b
}

// SetExtends sets the descriptor of the definition being extended.
func (b *Builder) SetExtends(d Descriptor) *Builder {
	b.extends = d
	b.hasExtends = true
	return b
}

// ClearExtends removes a previously set extends reference.
func (b *Builder) ClearExtends() *Builder {
	b.extends = Descriptor{}
	b.hasExtends = false
	return b
}

// SetValueValidator replaces the default expression validator.
func (b *Builder) SetValueValidator(v ValueValidator) *Builder {
	b.validator = v
	return b
}

// HasAttribute reports whether name was already declared.
func (b *Builder) HasAttribute(name string) bool {
	return b.attributes.Has(name)
}

// Build snapshots the accumulated state into a Definition.
func (b *Builder) Build() (*Definition, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	if b.descriptor.IsZero() {
		return nil, &DomainError{
			Code:     ErrCodeMissingDescriptor,
			Message:  "definition requires a descriptor",
			Location: b.location,
		}
	}
	b.built = true

	return &Definition{
		descriptor: b.descriptor,
		location:   b.location,
		attributes: Attributes{}.Overlay(b.attributes),
		overrides:  append(overrideSet(nil), b.overrides...),
		extends:    b.extends,
		hasExtends: b.hasExtends,
		validator:  b.validator,
	}, nil
}
