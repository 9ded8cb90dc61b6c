package registry

import (
	"context"
	"fmt"

	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
	"github.com/sangamhq/vivah/pkg/schema"
)

// Effect executes the remote side effect of a step after validation
// succeeds. It receives the normalized values of the submission and the
// fields collected in earlier steps, and may return extra fields to
// merge into the collected set (e.g. the created account ID).
type Effect func(ctx context.Context, backend *ports.Backend, values, prior map[string]any) (map[string]any, error)

// Normalizer adjusts submitted values before validation. Used for the
// cascading selection rule: changing an ancestor selection clears stale
// descendant selections.
type Normalizer func(values, prior map[string]any)

// Refiner runs cross-field and cross-step checks on already normalized
// values. It returns field errors, or nil when the step is valid.
type Refiner func(values, prior map[string]any) schema.Errors

// Step describes one page of the wizard.
type Step struct {
	// Name identifies the step (stable, used in logs and metrics).
	Name string

	// Title and Description are shown by interactive surfaces.
	// Description is markdown.
	Title       string
	Description string

	// DependsOn lists earlier field names whose values affect this
	// step's schema or validity.
	DependsOn []string

	// Schema builds the field rules for this step given the fields
	// collected so far. Must be a pure function.
	Schema func(prior map[string]any) schema.Schema

	// Normalize, if set, runs before schema validation on a copy of the
	// submitted values.
	Normalize Normalizer

	// Refine, if set, runs after schema validation.
	Refine Refiner

	// Effect, if set, is the remote call executed exactly once per
	// successful step submission. EffectOp labels it in errors.
	Effect   Effect
	EffectOp string

	// Sensitive lists fields that must never be merged into the
	// persisted collected set (credentials, raw upload payloads).
	Sensitive []string
}

// Registry is the ordered, immutable list of wizard steps.
type Registry struct {
	steps []Step
}

// New creates a registry from an ordered step list.
func New(steps ...Step) *Registry {
	return &Registry{steps: steps}
}

// TotalSteps returns the number of steps.
func (r *Registry) TotalSteps() int { return len(r.steps) }

// Step returns the descriptor at the 1-based index.
// Returns domain.ErrStepOutOfRange for indices outside [1, TotalSteps].
func (r *Registry) Step(index int) (*Step, error) {
	if index < 1 || index > len(r.steps) {
		return nil, fmt.Errorf("step %d of %d: %w", index, len(r.steps), domain.ErrStepOutOfRange)
	}
	return &r.steps[index-1], nil
}

// ClampIndex forces an index into [1, TotalSteps+1]. Out-of-range
// indices are a programming error; production surfaces clamp instead of
// crashing the flow.
func (r *Registry) ClampIndex(index int) int {
	if index < 1 {
		return 1
	}
	if index > len(r.steps)+1 {
		return len(r.steps) + 1
	}
	return index
}

// SchemaFor recomputes the schema of a step against the fields collected
// so far.
func (r *Registry) SchemaFor(index int, prior map[string]any) (schema.Schema, error) {
	step, err := r.Step(index)
	if err != nil {
		return nil, err
	}
	return step.Schema(prior), nil
}

// NormalizeStep applies the step's pre-validation normalization to a
// copy of the submitted values and returns it. Steps without a
// Normalizer get a plain copy.
func (r *Registry) NormalizeStep(index int, values, prior map[string]any) (map[string]any, error) {
	step, err := r.Step(index)
	if err != nil {
		return nil, err
	}
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	if step.Normalize != nil {
		step.Normalize(copied, prior)
	}
	return copied, nil
}

// ValidateStep runs the full validation pipeline for one submission:
// normalization, declarative schema rules, then refinements. On success
// it returns the normalized value set; on failure a schema.Errors
// aggregate with one entry per failing field.
func (r *Registry) ValidateStep(index int, values, prior map[string]any) (map[string]any, error) {
	step, err := r.Step(index)
	if err != nil {
		return nil, err
	}

	prepared, err := r.NormalizeStep(index, values, prior)
	if err != nil {
		return nil, err
	}

	normalized, err := schema.Validate(step.Schema(prior), prepared)
	if err != nil {
		return nil, err
	}

	if step.Refine != nil {
		if errs := step.Refine(normalized, prior); len(errs) > 0 {
			return nil, errs
		}
	}
	return normalized, nil
}
