// Package validate collects per-field validation failures so that a
// request can report every bad field at once.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a list of field failures. The zero value is empty and
// reports no error through Err.
type Errors struct {
	Fields []FieldError `json:"detail"`
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failure for field.
func (e *Errors) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether field already has a recorded failure.
func (e *Errors) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Err returns e as an error when at least one failure was recorded,
// otherwise nil.
func (e *Errors) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Required records "field required" when present is false.
func (e *Errors) Required(field string, present bool) bool {
	if !present {
		e.Add(field, "field required")
	}
	return present
}

// NonEmpty records a failure when s is blank.
func (e *Errors) NonEmpty(field, s string) {
	if strings.TrimSpace(s) == "" {
		e.Add(field, "must not be empty")
	}
}

// IntBetween records a failure unless min < v < max.
func (e *Errors) IntBetween(field string, v, min, max int) {
	if v <= min || v >= max {
		e.Add(field, "must be greater than %d and less than %d", min, max)
	}
}

// Positive records a failure unless v > 0.
func (e *Errors) Positive(field string, v float64) {
	if !(v > 0) {
		e.Add(field, "must be greater than 0")
	}
}

// OneOf records a failure unless v is one of allowed.
func (e *Errors) OneOf(field, v string, allowed ...string) {
	for _, a := range allowed {
		if v == a {
			return
		}
	}
	e.Add(field, "must be one of: %s", strings.Join(allowed, ", "))
}

// Single builds an Errors holding one failure.
func Single(field, format string, args ...interface{}) *Errors {
	e := &Errors{}
	e.Add(field, format, args...)
	return e
}

// As extracts *Errors from err.
func As(err error) (*Errors, bool) {
	var ve *Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
