package config

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
	"github.com/alexisbeaulieu97/themekit/internal/expression"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("descriptor", func(fl validator.FieldLevel) bool {
			_, err := theme.ParseDescriptor(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("attr_name", func(fl validator.FieldLevel) bool {
			return expression.IsValidName(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}
