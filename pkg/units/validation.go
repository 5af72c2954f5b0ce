package units

import "fmt"

// ValidationError describes a single field that failed a domain invariant.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s",
		ve.Field, ve.Value, ve.Message)
}

// ValidationErrors aggregates ValidationError values raised while checking
// one entity (Workload, Container, or Node construction parameters).
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", ve[0].Error(), len(ve)-1)
}

// HasErrors reports whether any validation errors were recorded.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends a validation error unconditionally.
func (ve *ValidationErrors) Add(field string, value interface{}, message string) {
	*ve = append(*ve, ValidationError{Field: field, Value: value, Message: message})
}

// AddIf appends a validation error only if condition is true.
func (ve *ValidationErrors) AddIf(condition bool, field string, value interface{}, message string) {
	if condition {
		ve.Add(field, value, message)
	}
}
