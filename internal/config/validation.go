package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxNameLen bounds component and component type names.
const maxNameLen = 100

// ValidationError is one problem with one settings field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors collects every problem found in one Validate pass.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "no validation errors"
	case 1:
		return ve[0].Error()
	}
	messages := make([]string, 0, len(ve))
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends a problem. value is optional.
func (ve *ValidationErrors) Add(field, message string, value ...any) {
	var val any
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{Field: field, Value: val, Message: message})
}

// ValidateRequired rejects empty and blank values.
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("is required for %s", entityType)}
	}
	return nil
}

// ValidateOneOf rejects values outside allowed.
func ValidateOneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateEntityName checks a component or type name. Dots are reserved as
// the separator of "component.port" paths and whitespace cannot appear in
// a document key without quoting.
func ValidateEntityName(name, entityType string) error {
	if err := ValidateRequired("name", name, entityType); err != nil {
		return err
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return ValidationError{Field: "name", Value: name, Message: fmt.Sprintf("must not exceed %d characters", maxNameLen)}
	}
	if strings.ContainsAny(name, " \t\n.") {
		return ValidationError{Field: "name", Value: name, Message: "cannot contain whitespace or dots"}
	}
	return nil
}

// FormatValidationError prefixes err with what was being validated.
func FormatValidationError(entityType, entityName string, err error) error {
	if err == nil {
		return nil
	}
	if entityName != "" {
		return fmt.Errorf("validation failed for %s '%s': %w", entityType, entityName, err)
	}
	return fmt.Errorf("validation failed for %s: %w", entityType, err)
}

// ValidateListenAddress checks a host:port listen address. Empty is
// allowed and means disabled; port 0 picks a free port.
func ValidateListenAddress(field, value string) error {
	if value == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("must be a host:port address: %v", err)}
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return ValidationError{Field: field, Value: value, Message: "port must be a number between 0 and 65535"}
	}
	return nil
}
