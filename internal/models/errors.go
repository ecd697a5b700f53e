package models

import "fmt"

// ValidationError is returned when a marker field is rejected at the boundary:
// a coordinate out of range or an empty required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
