// Package schema provides declarative field validation for wizard steps.
//
// A Schema is an ordered list of Fields, each carrying validation Rules.
// Validation normalizes submitted values (trimming, conditional clearing)
// and reports failures as field-level errors that aggregate into a single
// error value, so a step either yields a clean value set or a list of
// {field, message} pairs for inline display.
package schema
