// Package wizard implements the transition controller: it owns one
// WizardState per in-progress registration, gates advancement on
// validation and side-effect success, and persists progress through a
// ProgressStore after every transition.
//
// State machine: step indices 1..N plus the terminal "complete" index
// N+1. SubmitStep moves forward (conditional on validation and the
// step's side effect), GoBack moves backward unconditionally, Reset
// returns to step 1 with empty fields. Steps cannot be skipped.
package wizard
