package validators

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validate is a type alias for validator.Validate.
type Validate = validator.Validate

// ValidationErrors is a type alias for validator.ValidationErrors.
type ValidationErrors = validator.ValidationErrors

// FieldError is a type alias for validator.FieldError.
type FieldError = validator.FieldError

// TagUintString names the rule accepting base-10 non-negative integers held in strings.
const TagUintString = "uintstr"

// TagClock names the rule accepting 24h "HH:MM" wall clock times.
const TagClock = "hhmm"

// New creates a new validator instance with the project rules registered.
func New() *Validate {
	v := validator.New()
	_ = v.RegisterValidation(TagUintString, func(fl validator.FieldLevel) bool {
		_, err := ParseUint(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation(TagClock, func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
	return v
}

// ParseUint parses s as a non-negative int64. Surrounding whitespace is ignored.
func ParseUint(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 10, 64)
}
