package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
	themeerrors "github.com/alexisbeaulieu97/themekit/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Warning reports a questionable but accepted construct in a source file.
type Warning struct {
	Location theme.Location
	Message  string
}

func (w Warning) String() string {
	if loc := w.Location.String(); loc != "" {
		return loc + ": " + w.Message
	}
	return w.Message
}

// Result holds the definitions loaded from one or more source files.
type Result struct {
	Definitions []*theme.Definition
	Warnings    []Warning
}

func (r *Result) merge(other *Result) {
	r.Definitions = append(r.Definitions, other.Definitions...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ParseFile loads every definition document in the file at path.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, themeerrors.NewParseError(path, 0, err)
	}
	return Parse(data, path)
}

// Parse decodes data, which may hold several YAML documents, into
// definitions. path is only used for locations and error messages.
func Parse(data []byte, path string) (*Result, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	result := &Result{}
	for {
		var src Source
		err := decoder.Decode(&src)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, themeerrors.NewParseError(path, extractLine(err), err)
		}

		def, warnings, err := buildDefinition(path, &src)
		if err != nil {
			return nil, err
		}
		result.Definitions = append(result.Definitions, def)
		result.Warnings = append(result.Warnings, warnings...)
	}

	return result, nil
}

// ParseDir loads every *.yaml and *.yml file directly inside dir in lexical
// order. The first failing file aborts the load.
func ParseDir(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, themeerrors.NewParseError(dir, 0, err)
	}

	result := &Result{}
	for _, entry := range entries {
		if entry.IsDir() || !isThemeSource(entry.Name()) {
			continue
		}
		fileResult, err := ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		result.merge(fileResult)
	}

	return result, nil
}

func isThemeSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func buildDefinition(path string, src *Source) (*theme.Definition, []Warning, error) {
	if err := validatorInstance().Struct(src); err != nil {
		return nil, nil, convertValidationError(path, src, err)
	}

	descriptor, err := theme.ParseDescriptor(src.Descriptor)
	if err != nil {
		return nil, nil, themeerrors.NewSourceValidationError(path, src.Line, "descriptor", err.Error(), err)
	}

	builder := theme.NewBuilder().
		SetDescriptor(descriptor).
		SetLocation(theme.Location{File: path, Line: src.Line, Column: src.Column})

	if src.Extends != "" {
		parent, err := theme.ParseDescriptor(src.Extends)
		if err != nil {
			return nil, nil, themeerrors.NewSourceValidationError(path, src.Line, "extends", err.Error(), err)
		}
		builder.SetExtends(parent)
	}

	var warnings []Warning
	for _, attr := range src.Attributes {
		loc := theme.Location{File: path, Line: attr.Line, Column: attr.Column}
		if builder.HasAttribute(attr.Name) {
			warnings = append(warnings, Warning{
				Location: loc,
				Message:  fmt.Sprintf("attribute %q redeclared in %s; the later declaration wins", attr.Name, descriptor),
			})
		}
		if attr.Default == nil {
			builder.AddAttribute(theme.NewAttributeWithoutDefault(attr.Name, loc))
			continue
		}
		builder.AddAttribute(theme.NewAttribute(attr.Name, *attr.Default, loc))
	}

	for _, override := range src.Overrides {
		loc := theme.Location{File: path, Line: override.Line, Column: override.Column}
		builder.AddOverride(theme.NewOverride(override.Target, *override.Value, loc))
	}

	def, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}
	return def, warnings, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
