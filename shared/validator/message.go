package validator

import (
	"errors"
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"required":         "{field} is required",
	"required_without": "{field} is required when {param} is not given",
	"gt":               "{field} must be greater than {param}",
	"gte":              "{field} must be at least {param}",
	"lte":              "{field} must be at most {param}",
	"max":              "{field} must be at most {param}",
	"min":              "{field} must be at least {param}",
	"oneof":            "{field} must be one of {param}",
	"uuid":             "{field} must be a valid UUID",
	"vehicle":          "{field} must be a valid vehicle number",
	"empty":            "{field} must be empty",
}

// jsonName reports fields by their wire name so messages match the request body.
func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

// message describes the first failed rule.
func message(err error) string {
	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) || len(valErrors) == 0 {
		return err.Error()
	}

	first := valErrors[0]

	field := first.Field()
	if field == "" {
		field = "value"
	}

	template, ok := messages[first.Tag()]
	if !ok {
		return field + " is invalid"
	}

	return strings.NewReplacer("{field}", field, "{param}", first.Param()).Replace(template)
}
