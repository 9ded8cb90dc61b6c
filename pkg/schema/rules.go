package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Rule defines the contract for validating a single field value.
type Rule interface {
	// Name returns the human-readable name of the rule (e.g. "min_len").
	Name() string
	// Validate checks the value and returns a display-ready reason on failure.
	Validate(value string) error
}

// --- Built-in Rule Implementations ---

// MinLenRule enforces a minimum character count.
type MinLenRule struct{ n int }

func (r *MinLenRule) Name() string { return "min_len" }

func (r *MinLenRule) Validate(value string) error {
	if len([]rune(value)) < r.n {
		return fmt.Errorf("must be at least %d characters", r.n)
	}
	return nil
}

// MaxLenRule enforces a maximum character count.
type MaxLenRule struct{ n int }

func (r *MaxLenRule) Name() string { return "max_len" }

func (r *MaxLenRule) Validate(value string) error {
	if len([]rune(value)) > r.n {
		return fmt.Errorf("must be at most %d characters", r.n)
	}
	return nil
}

// PatternRule matches the value against a regular expression.
type PatternRule struct {
	re     *regexp.Regexp
	reason string
}

func (r *PatternRule) Name() string { return "pattern" }

func (r *PatternRule) Validate(value string) error {
	if !r.re.MatchString(value) {
		return fmt.Errorf("%s", r.reason)
	}
	return nil
}

// EnumRule restricts the value to a fixed set.
type EnumRule struct{ allowed []string }

func (r *EnumRule) Name() string { return "enum" }

// Options returns the allowed values, for interactive surfaces that
// render choices.
func (r *EnumRule) Options() []string {
	out := make([]string, len(r.allowed))
	copy(out, r.allowed)
	return out
}

func (r *EnumRule) Validate(value string) error {
	for _, a := range r.allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(r.allowed, ", "))
}

// DigitsRule requires the value to be exactly n decimal digits.
type DigitsRule struct{ n int }

func (r *DigitsRule) Name() string { return "digits" }

func (r *DigitsRule) Validate(value string) error {
	if len(value) != r.n {
		return fmt.Errorf("must be exactly %d digits", r.n)
	}
	for _, c := range value {
		if !unicode.IsDigit(c) {
			return fmt.Errorf("must contain only digits")
		}
	}
	return nil
}

// RangeRule requires an integer value within [min, max].
type RangeRule struct{ min, max int }

func (r *RangeRule) Name() string { return "range" }

func (r *RangeRule) Validate(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < r.min || n > r.max {
		return fmt.Errorf("must be between %d and %d", r.min, r.max)
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// EmailRule validates a plausible email address shape.
type EmailRule struct{}

func (r *EmailRule) Name() string { return "email" }

func (r *EmailRule) Validate(value string) error {
	if !emailRe.MatchString(value) {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

// DateRule parses the value as an ISO date and optionally enforces a
// minimum age in whole years at validation time.
type DateRule struct {
	minAgeYears int
	now         func() time.Time
}

// DateLayout is the wire format for date fields.
const DateLayout = "2006-01-02"

func (r *DateRule) Name() string { return "date" }

func (r *DateRule) Validate(value string) error {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return fmt.Errorf("must be a date in YYYY-MM-DD format")
	}
	if r.minAgeYears > 0 {
		now := time.Now()
		if r.now != nil {
			now = r.now()
		}
		cutoff := now.AddDate(-r.minAgeYears, 0, 0)
		if d.After(cutoff) {
			return fmt.Errorf("must be at least %d years old", r.minAgeYears)
		}
	}
	return nil
}

// CustomRule applies a user-defined validation function.
type CustomRule struct {
	name     string
	validate func(string) error
}

func (r *CustomRule) Name() string { return r.name }

func (r *CustomRule) Validate(value string) error { return r.validate(value) }

// --- Factory Functions ---

// MinLen creates a minimum-length rule.
func MinLen(n int) Rule { return &MinLenRule{n: n} }

// MaxLen creates a maximum-length rule.
func MaxLen(n int) Rule { return &MaxLenRule{n: n} }

// Pattern creates a regexp rule with a display reason.
// The expression must compile; Pattern panics otherwise (step schemas
// are static declarations, so a bad expression is a programming error).
func Pattern(expr, reason string) Rule {
	return &PatternRule{re: regexp.MustCompile(expr), reason: reason}
}

// Enum creates a membership rule over a fixed value set.
func Enum(allowed ...string) Rule { return &EnumRule{allowed: allowed} }

// Digits creates a rule requiring exactly n decimal digits.
func Digits(n int) Rule { return &DigitsRule{n: n} }

// Range creates an integer range rule over [min, max].
func Range(min, max int) Rule { return &RangeRule{min: min, max: max} }

// Email creates an email shape rule.
func Email() Rule { return &EmailRule{} }

// Date creates a YYYY-MM-DD date rule.
func Date() Rule { return &DateRule{} }

// MinAge creates a date rule that additionally requires the subject to be
// at least years old today.
func MinAge(years int) Rule { return &DateRule{minAgeYears: years} }

// MinAgeAt is MinAge with an injected clock, for deterministic tests.
func MinAgeAt(years int, now func() time.Time) Rule {
	return &DateRule{minAgeYears: years, now: now}
}

// Custom creates a rule with a user-defined validation function.
func Custom(name string, validate func(string) error) Rule {
	return &CustomRule{name: name, validate: validate}
}
