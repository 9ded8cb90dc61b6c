package schema

import (
	"fmt"
	"strings"
)

// Field declares one form field and its validation rules.
type Field struct {
	// Name is the field key in submitted values and collected state.
	Name string

	// Rules run in order against the normalized (trimmed) value.
	Rules []Rule

	// Optional fields produce no "required" error when absent or empty.
	Optional bool

	// SuppressedWhen names a boolean companion flag. When the flag is
	// true in the submitted values, this field is cleared to the empty
	// string and every error on it is suppressed.
	SuppressedWhen string
}

// Schema is the ordered field list of a single wizard step.
type Schema []Field

// Names returns the field names declared by the schema, in order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// Validate checks submitted values against the schema and returns the
// normalized value set. String values are trimmed; suppressed fields are
// cleared rather than validated. On failure it returns a schema.Errors
// aggregate carrying one entry per failing field.
func Validate(s Schema, values map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(s))
	var errs Errors

	for _, f := range s {
		raw, exists := values[f.Name]

		// Conditional clear: the companion flag wins over any value.
		if f.SuppressedWhen != "" && boolValue(values[f.SuppressedWhen]) {
			normalized[f.Name] = ""
			normalized[f.SuppressedWhen] = true
			continue
		}
		if f.SuppressedWhen != "" {
			normalized[f.SuppressedWhen] = boolValue(values[f.SuppressedWhen])
		}

		val, err := stringValue(raw, exists)
		if err != nil {
			errs = append(errs, &FieldError{Field: f.Name, Message: err.Error()})
			continue
		}
		val = strings.TrimSpace(val)

		if val == "" {
			if !f.Optional {
				errs = append(errs, &FieldError{Field: f.Name, Message: "required"})
			} else {
				normalized[f.Name] = ""
			}
			continue
		}

		failed := false
		for _, rule := range f.Rules {
			if rerr := rule.Validate(val); rerr != nil {
				errs = append(errs, &FieldError{Field: f.Name, Message: rerr.Error()})
				failed = true
				break
			}
		}
		if !failed {
			normalized[f.Name] = val
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return normalized, nil
}

// stringValue coerces a submitted value to string. Non-string scalars are
// rejected rather than formatted: the transport layer submits strings.
func stringValue(raw any, exists bool) (string, error) {
	if !exists || raw == nil {
		return "", nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		// Booleans belong to skip flags, handled before coercion.
		return "", fmt.Errorf("expected text, got bool")
	default:
		return "", fmt.Errorf("expected text, got %T", raw)
	}
}

// boolValue reads a flag value leniently ("true"/"1" count as set).
func boolValue(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}
