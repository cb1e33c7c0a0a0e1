package config

import (
	"gopkg.in/yaml.v3"
)

// Source is one theme definition document as written on disk.
type Source struct {
	Descriptor string            `yaml:"descriptor" validate:"required,descriptor"`
	Extends    string            `yaml:"extends,omitempty" validate:"omitempty,descriptor"`
	Attributes []AttributeSource `yaml:"attributes,omitempty" validate:"omitempty,dive"`
	Overrides  []OverrideSource  `yaml:"overrides,omitempty" validate:"omitempty,dive"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// AttributeSource declares an attribute. A nil Default means the key was
// absent or null; an empty string is a valid default.
type AttributeSource struct {
	Name    string  `yaml:"name" validate:"required,attr_name"`
	Default *string `yaml:"default"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// OverrideSource replaces the default of an inherited attribute.
type OverrideSource struct {
	Target string  `yaml:"target" validate:"required,attr_name"`
	Value  *string `yaml:"value" validate:"required"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// UnmarshalYAML records the document position alongside the decoded fields.
func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	type rawSource Source
	var temp rawSource
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*s = Source(temp)
	s.Line, s.Column = value.Line, value.Column
	return nil
}

// UnmarshalYAML records the entry position alongside the decoded fields.
func (a *AttributeSource) UnmarshalYAML(value *yaml.Node) error {
	type rawAttribute AttributeSource
	var temp rawAttribute
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*a = AttributeSource(temp)
	a.Line, a.Column = value.Line, value.Column
	return nil
}

// UnmarshalYAML records the entry position alongside the decoded fields.
func (o *OverrideSource) UnmarshalYAML(value *yaml.Node) error {
	type rawOverride OverrideSource
	var temp rawOverride
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*o = OverrideSource(temp)
	o.Line, o.Column = value.Line, value.Column
	return nil
}
