package expression

import "fmt"

// Scope answers whether a name is defined in the namespace a value is checked
// against.
type Scope interface {
	Has(name string) bool
}

// ReferenceError reports a reference that cannot be satisfied by the scope.
type ReferenceError struct {
	Owner string
	Name  string
	Self  bool
}

func (e *ReferenceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Self {
		return fmt.Sprintf("attribute %q cannot reference itself", e.Owner)
	}
	return fmt.Sprintf("attribute %q references unknown attribute %q", e.Owner, e.Name)
}

// Validator is the default value validator used by theme definitions.
type Validator struct{}

// NewValidator returns the default expression validator.
func NewValidator() Validator {
	return Validator{}
}

// ValidateValue checks the syntax of value.
func (Validator) ValidateValue(value string) error {
	_, err := Parse(value)
	return err
}

// ValidateValueReferences checks that every reference in value names an
// attribute in scope other than owner.
func (Validator) ValidateValueReferences(owner, value string, scope Scope) error {
	tokens, err := Parse(value)
	if err != nil {
		return err
	}

	for _, tok := range tokens {
		if tok.Kind != TokenReference {
			continue
		}
		if tok.Text == owner {
			return &ReferenceError{Owner: owner, Name: tok.Text, Self: true}
		}
		if scope == nil || !scope.Has(tok.Text) {
			return &ReferenceError{Owner: owner, Name: tok.Text}
		}
	}

	return nil
}
