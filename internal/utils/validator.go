// internal/utils/validator.go
package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationError names the failing field by its JSON name and the tag
// that rejected it.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field: e.Field(),
				Tag:   e.Tag(),
			})
		}
	}

	return validationErrors
}

// FirstValidationError picks the error to report when only one is shown.
// Missing fields win over malformed ones; otherwise struct order decides.
func FirstValidationError(errs []ValidationError) *ValidationError {
	if len(errs) == 0 {
		return nil
	}
	for i := range errs {
		if errs[i].Tag == "required" {
			return &errs[i]
		}
	}
	return &errs[0]
}
