package common

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries the per-field messages produced by a rule set.
// It matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// MissingFieldsError lists required fields absent from a payload.
type MissingFieldsError struct {
	Names []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("Missing fields: %s", strings.Join(e.Names, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }
