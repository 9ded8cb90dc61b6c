// Package domain contains the core types of the wizard engine: the
// mutable wizard state, the error taxonomy, and lifecycle events.
//
// The domain layer has no dependencies on adapters or transport. It is
// consumed by the registry (step definitions), the controller (state
// transitions) and the ports (persistence and backend contracts).
package domain
