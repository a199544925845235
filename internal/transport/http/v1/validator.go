package v1

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// MaxPromptBytes bounds the size of a single prompt.
const MaxPromptBytes = 32 * 1024

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom tags used by request
// types in this package.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", validateMaxBytes)
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// validateMaxBytes checks byte length rather than rune count.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPromptBytes
}

var _ echo.Validator = (*Validator)(nil)

// bind fills i from the query string and then the body, so parameters may
// arrive either way regardless of method.
func bind(c echo.Context, i interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, i); err != nil {
		return err
	}
	if err := c.Bind(i); err != nil {
		return err
	}
	return c.Validate(i)
}
