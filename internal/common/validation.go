package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Validator collects field errors across a request
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns the combined failures wrapped in ErrValidation, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
}

// ValidationRule is a function that validates a field
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required rejects empty strings, nil values and empty byte slices.
func Required() ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		empty := false
		switch v := value.(type) {
		case nil:
			empty = true
		case string:
			empty = strings.TrimSpace(v) == ""
		case []byte:
			empty = len(v) == 0
		case []string:
			empty = len(v) == 0
		}
		if empty {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
		return nil
	}
}

// MaxRunes limits a string to max Unicode code points.
func MaxRunes(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}
