package blogs

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries a friendly message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator and reports errors keyed by the
// form or JSON field name.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator that names fields by their form tag,
// then their json tag, then the Go field name.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return &Validator{v: v}
}

// Validate validates a struct and returns a *ValidationError on failure.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fieldPath(fe)] = friendlyMessage(fe)
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace so nested
// items read as "related_links[0].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
