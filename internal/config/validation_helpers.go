package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	themeerrors "github.com/alexisbeaulieu97/themekit/pkg/errors"
)

var entryIndexPattern = regexp.MustCompile(`^(attributes|overrides)\[(\d+)\]`)

// convertValidationError normalizes validator errors into source validation errors.
func convertValidationError(path string, src *Source, err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return themeerrors.NewSourceValidationError(path, lineForField(src, field), field, msg, err)
	}

	return themeerrors.NewSourceValidationError(path, src.Line, "", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

// lineForField maps a field path such as "attributes[2].name" back to the
// line of the offending entry.
func lineForField(src *Source, field string) int {
	matches := entryIndexPattern.FindStringSubmatch(field)
	if len(matches) != 3 {
		return src.Line
	}
	index, err := strconv.Atoi(matches[2])
	if err != nil {
		return src.Line
	}

	switch matches[1] {
	case "attributes":
		if index < len(src.Attributes) {
			return src.Attributes[index].Line
		}
	case "overrides":
		if index < len(src.Overrides) {
			return src.Overrides[index].Line
		}
	}
	return src.Line
}
