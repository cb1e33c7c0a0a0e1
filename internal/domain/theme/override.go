package theme

// OverrideEntry declares a replacement default for an attribute inherited
// through the extends chain. Overrides are stored and validated here; applying
// them is left to consumers.
type OverrideEntry struct {
	target   string
	value    string
	location Location
}

// NewOverride declares an override of target with value.
func NewOverride(target, value string, loc Location) OverrideEntry {
	return OverrideEntry{target: target, value: value, location: loc}
}

func (o OverrideEntry) Target() string     { return o.target }
func (o OverrideEntry) Value() string      { return o.value }
func (o OverrideEntry) Location() Location { return o.location }

// Equal compares overrides by value. Two overrides with the same target and
// value are the same override regardless of where they were declared.
func (o OverrideEntry) Equal(other OverrideEntry) bool {
	return o.target == other.target && o.value == other.value
}

func (o OverrideEntry) validateDefinition(owner *Definition, v ValueValidator) error {
	if err := v.ValidateValue(o.value); err != nil {
		return owner.entryError(ErrCodeInvalidValue, "invalid override value", o.target, o.location, err)
	}
	return nil
}

func (o OverrideEntry) validateReferences(owner *Definition, v ValueValidator, scope Attributes) error {
	if err := v.ValidateValueReferences(o.target, o.value, scope); err != nil {
		return owner.entryError(ErrCodeInvalidReference, "override value references an invalid attribute", o.target, o.location, err)
	}
	return nil
}

type overrideSet []OverrideEntry

func (s overrideSet) contains(entry OverrideEntry) bool {
	for _, existing := range s {
		if existing.Equal(entry) {
			return true
		}
	}
	return false
}

// equal compares as sets.
func (s overrideSet) equal(other overrideSet) bool {
	if len(s) != len(other) {
		return false
	}
	for _, entry := range s {
		if !other.contains(entry) {
			return false
		}
	}
	return true
}
