package ir

import "fmt"

// ValidationError is one field-level problem. Validators return every
// problem they find rather than stopping at the first.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
