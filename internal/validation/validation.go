package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError describes one rejected field of a request.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Message renders the failure for the user submitting the mutation.
func (e FieldError) Message() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "max":
		return fmt.Sprintf("%s exceeds the maximum length of %s", e.Field, e.Param)
	default:
		return fmt.Sprintf("%s failed the %s rule", e.Field, e.Rule)
	}
}

// Errors is the full set of field failures for one request.
type Errors []FieldError

// Error implements the error interface
func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Message())
	}
	return strings.Join(msgs, "; ")
}

// ValidateStruct checks a request struct against its validator tags and
// returns Errors on failure. Requests are validated before any optimistic
// mutation is applied, so failures never enter the rollback path.
func ValidateStruct(s interface{}) error {
	if s == nil {
		return nil
	}

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := make(Errors, 0, len(ve))
	for _, e := range ve {
		out = append(out, FieldError{Field: e.Field(), Rule: e.Tag(), Param: e.Param()})
	}
	return out
}
