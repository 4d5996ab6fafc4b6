// Package validation exposes a shared go-playground/validator instance.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the process-wide validator. Field names in errors follow json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FieldError describes the first failed rule of a struct.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s failed %s validation", e.Field, e.Tag)
}

// ValidateStruct validates s and returns a *FieldError for the first failing field.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
	}
	return err
}
