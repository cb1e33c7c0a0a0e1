// Package theme models theme definitions: named bundles of style attributes
// with defaults, an optional single-parent extends chain, and overrides that
// customize inherited defaults.
//
// A Definition is immutable once built. Validation runs in two phases:
// ValidateDefinition checks the definition in isolation, ValidateReferences
// resolves the extends chain through a Resolver and checks everything that
// depends on other definitions. Both fail fast with a *DomainError.
package theme

import (
	"github.com/alexisbeaulieu97/themekit/internal/expression"
)

// Resolver fetches a loaded definition by descriptor. Implementations must be
// safe for concurrent use and must only expose fully built definitions.
type Resolver interface {
	Resolve(Descriptor) (*Definition, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(Descriptor) (*Definition, error)

// Resolve calls f(d).
func (f ResolverFunc) Resolve(d Descriptor) (*Definition, error) {
	return f(d)
}

// ValueValidator checks the default and override value expressions of a
// definition. ValidateValue checks syntax; ValidateValueReferences checks the
// value's references against the merged attribute namespace.
type ValueValidator interface {
	ValidateValue(value string) error
	ValidateValueReferences(owner, value string, scope expression.Scope) error
}

// DependencySet collects the descriptors a definition depends on.
type DependencySet interface {
	Add(Descriptor)
}

// Record is the serialized form of a definition. It carries only the
// attributes the definition declares itself.
type Record struct {
	Attributes Attributes `json:"attributes"`
}

// Definition is an immutable theme definition. Construct it with a Builder.
type Definition struct {
	descriptor Descriptor
	location   Location
	attributes Attributes
	overrides  overrideSet
	extends    Descriptor
	hasExtends bool
	validator  ValueValidator
}

func (d *Definition) Descriptor() Descriptor { return d.descriptor }
func (d *Definition) Location() Location     { return d.location }

// OwnAttributes returns the attributes declared directly on d, ignoring the
// extends chain. The result must be treated as read-only.
func (d *Definition) OwnAttributes() Attributes { return d.attributes }

// Overrides returns a copy of the declared overrides in declaration order.
func (d *Definition) Overrides() []OverrideEntry {
	return append([]OverrideEntry(nil), d.overrides...)
}

// Extends returns the descriptor of the extended definition, if any.
func (d *Definition) Extends() (Descriptor, bool) {
	return d.extends, d.hasExtends
}

// AttributeDefs returns the merged attribute namespace of d: the parent's
// merged attributes with d's own attributes overlaid. Without an extends
// reference it returns d's own attributes. Resolution failures of any
// ancestor are returned unchanged and no partial result is produced. An
// extends chain that revisits a definition fails with ErrCodeCyclicExtension.
func (d *Definition) AttributeDefs(r Resolver) (Attributes, error) {
	return d.attributeDefs(r, nil)
}

func (d *Definition) attributeDefs(r Resolver, trail []Descriptor) (Attributes, error) {
	for i, seen := range trail {
		if seen == d.descriptor {
			path := append(append([]Descriptor(nil), trail[i:]...), d.descriptor)
			return Attributes{}, newCycleError(path, d.location)
		}
	}

	if !d.hasExtends {
		return d.attributes, nil
	}

	parent, err := d.resolveParent(r)
	if err != nil {
		return Attributes{}, err
	}

	next := append(append(make([]Descriptor, 0, len(trail)+1), trail...), d.descriptor)
	inherited, err := parent.attributeDefs(r, next)
	if err != nil {
		return Attributes{}, err
	}

	return inherited.Overlay(d.attributes), nil
}

func (d *Definition) resolveParent(r Resolver) (*Definition, error) {
	if r == nil {
		return nil, NewNotFoundError(d.extends, nil)
	}
	parent, err := r.Resolve(d.extends)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, NewNotFoundError(d.extends, nil)
	}
	return parent, nil
}

// Variable returns the default value of the named attribute from the merged
// namespace. A missing attribute is reported with ok=false and no error. Only
// meaningful once d has passed ValidateDefinition.
func (d *Definition) Variable(r Resolver, name string) (value string, ok bool, err error) {
	attrs, err := d.AttributeDefs(r)
	if err != nil {
		return "", false, err
	}
	entry, ok := attrs.Get(name)
	if !ok {
		return "", false, nil
	}
	value, _ = entry.Default()
	return value, true, nil
}

// ValidateDefinition performs the structural pass: every own attribute must
// have a syntactically valid default and every override a syntactically valid
// value. The extends reference is not consulted.
func (d *Definition) ValidateDefinition() error {
	v := d.valueValidator()

	for _, entry := range d.attributes.Entries() {
		if err := entry.validateDefinition(d, v); err != nil {
			return err
		}
	}

	for _, override := range d.overrides {
		if err := override.validateDefinition(d, v); err != nil {
			return err
		}
	}

	return nil
}

// ValidateReferences performs the referential pass. The extends reference
// must not point at d itself and must resolve; value references must name
// attributes of the merged namespace; and every override must target an
// attribute inherited from the extends chain. Attributes declared on d itself
// do not make an override legitimate.
func (d *Definition) ValidateReferences(r Resolver) error {
	v := d.valueValidator()

	var inherited Attributes
	if d.hasExtends {
		if d.extends == d.descriptor {
			return d.newError(ErrCodeSelfExtension, "definition cannot extend itself", d.extends.String(), nil)
		}

		parent, err := d.resolveParent(r)
		if err != nil {
			return d.newError(ErrCodeNotFound, "extended definition not found", d.extends.String(), err)
		}

		inherited, err = parent.attributeDefs(r, []Descriptor{d.descriptor})
		if err != nil {
			return err
		}
	}

	scope := inherited.Overlay(d.attributes)

	for _, entry := range d.attributes.Entries() {
		if err := entry.validateReferences(d, v, scope); err != nil {
			return err
		}
	}

	for _, override := range d.overrides {
		if err := override.validateReferences(d, v, scope); err != nil {
			return err
		}
		if !d.hasExtends || !inherited.Has(override.target) {
			return d.entryError(ErrCodeOverrideNotInherited, "override target is not inherited", override.target, override.location, nil)
		}
	}

	return nil
}

// AppendDependencies adds the extended descriptor, if any, to set.
func (d *Definition) AppendDependencies(set DependencySet) {
	if d.hasExtends {
		set.Add(d.extends)
	}
}

// Serialize returns the record emitted for d. It contains d's own attributes
// only; the merged namespace is available through AttributeDefs.
func (d *Definition) Serialize() Record {
	return Record{Attributes: d.attributes}
}

// Equal reports structural equality over descriptor, location, own
// attributes, extends reference and overrides.
func (d *Definition) Equal(other *Definition) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.descriptor == other.descriptor &&
		d.location == other.location &&
		d.hasExtends == other.hasExtends &&
		d.extends == other.extends &&
		d.attributes.Equal(other.attributes) &&
		d.overrides.equal(other.overrides)
}

func (d *Definition) valueValidator() ValueValidator {
	if d.validator == nil {
		return expression.NewValidator()
	}
	return d.validator
}

func (d *Definition) entryError(code ErrorCode, message, subject string, loc Location, cause error) *DomainError {
	err := d.newError(code, message, subject, cause)
	if !loc.IsZero() {
		err.Location = loc
	}
	return err
}
