package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter  EventType = "step_enter"
	EventStepSubmit EventType = "step_submit"
	EventEffect     EventType = "effect"
)

// StepEvent represents entry into or submission of a step.
type StepEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	WizardID  string    `json:"wizard_id"`
	StepIndex int       `json:"step_index"`
	StepName  string    `json:"step_name"`
}

// EffectEvent represents a remote side effect executed for a step.
type EffectEvent struct {
	StepEvent
	Op       string        `json:"op"`
	Duration time.Duration `json:"duration"`
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// All hooks are optional; nil hooks are skipped.
type LifecycleHooks struct {
	OnStepEnter  func(context.Context, *StepEvent)
	OnStepSubmit func(context.Context, *StepEvent)
	OnEffect     func(context.Context, *EffectEvent)
}
