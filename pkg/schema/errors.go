package schema

import "fmt"

// FieldError represents a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// Errors aggregates multiple field validation failures.
type Errors []*FieldError

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e))
	for i, err := range e {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ByField returns the first error for the given field, or nil.
func (e Errors) ByField(name string) *FieldError {
	for _, err := range e {
		if err.Field == name {
			return err
		}
	}
	return nil
}

// FieldErrors returns the aggregated field errors if err is an Errors
// value. Otherwise returns nil.
func FieldErrors(err error) Errors {
	if errs, ok := err.(Errors); ok {
		return errs
	}
	return nil
}
