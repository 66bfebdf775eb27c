// Package validator decodes JSON request bodies and checks them against
// go-playground struct tags, turning the first failed rule into a 400.
package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	val "github.com/go-playground/validator/v10"

	"parking/shared/failure"
)

const (
	vehicleNumberMinLength = 2
	vehicleNumberMaxLength = 16

	// Bodies are small JSON commands; anything larger is rejected.
	maxBodyBytes = 1 << 16
)

// Plates are letters and digits, optionally split by single spaces or dashes.
var vehicleNumberPattern = regexp.MustCompile(`^[A-Z0-9]+(?:[ -][A-Z0-9]+)*$`)

var validate = newValidate()

func newValidate() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]val.Func{
		"empty":   func(fl val.FieldLevel) bool { return fl.Field().IsZero() },
		"vehicle": vehicleNumber,
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return v
}

// vehicleNumber accepts plates case-insensitively and ignores surrounding
// whitespace, matching how bookings store them.
func vehicleNumber(field val.FieldLevel) bool {
	plate := strings.ToUpper(strings.TrimSpace(field.Field().String()))
	if len(plate) < vehicleNumberMinLength || len(plate) > vehicleNumberMaxLength {
		return false
	}

	return vehicleNumberPattern.MatchString(plate)
}

// Validate decodes r into data and validates it. Unknown fields are rejected
// so typos in optional fields do not pass silently.
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err))
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err))
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err))
	}

	return nil
}
