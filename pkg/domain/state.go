package domain

// State represents the current snapshot of one in-progress registration.
type State struct {
	// WizardID identifies the registration attempt (one per client).
	WizardID string `json:"wizard_id"`

	// StepIndex is the 1-based index of the active step.
	// Invariant: 1 <= StepIndex <= totalSteps+1, where totalSteps+1
	// means the wizard has completed.
	StepIndex int `json:"step_index"`

	// Fields holds every value collected so far, keyed by field name.
	// Keys accumulate across forward transitions and are only removed
	// by Reset (or deliberately nulled by a skip flag).
	Fields map[string]any `json:"fields"`
}

// NewState creates a clean state positioned at the first step.
func NewState(wizardID string) *State {
	return &State{
		WizardID:  wizardID,
		StepIndex: 1,
		Fields:    make(map[string]any),
	}
}

// Clone returns a deep copy of the state. Field values are copied
// shallowly; the engine only stores scalars in Fields.
func (s *State) Clone() *State {
	cp := *s
	cp.Fields = make(map[string]any, len(s.Fields))
	for k, v := range s.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

// CompletedAll reports whether the index has advanced past the last step.
func (s *State) CompletedAll(totalSteps int) bool {
	return s.StepIndex > totalSteps
}
