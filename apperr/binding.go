package apperr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonName)
	}
}

// jsonName reports struct fields by their JSON key so field errors match the
// request body.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// Binding converts a ShouldBind* failure into a validation error. Tag
// violations are itemized per field; malformed bodies are reported as is.
func Binding(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation("invalid input: " + err.Error())
	}
	fields := fieldErrors(verrs)
	return Validation(fields[0].Field+" "+fields[0].Message, fields...)
}

// Violations runs the binding tags of obj outside a request and returns the
// offending fields, nil when obj is valid.
func Violations(obj any) []FieldError {
	err := binding.Validator.ValidateStruct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}
	return fieldErrors(verrs)
}

// Check is Violations as an error.
func Check(obj any) error {
	fields := Violations(obj)
	if len(fields) == 0 {
		return nil
	}
	return Validation(fields[0].Field+" "+fields[0].Message, fields...)
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return fields
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "min":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		case reflect.String:
			return fmt.Sprintf("must be at least %s character(s)", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		switch fe.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		case reflect.String:
			return fmt.Sprintf("must be at most %s character(s)", fe.Param())
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}
