// Package vivah implements a multi-step registration wizard engine for
// a matrimonial matching platform.
//
// # Architecture
//
// The engine is composed of four parts:
//
//   - Step Registry (pkg/registry): the ordered step declarations, each
//     with a schema that may depend on earlier answers, cross-field
//     refinements, and a remote side effect.
//   - Validator (pkg/schema + registry): declarative field rules plus
//     refinements, producing either normalized values or field errors.
//   - Progress Store (pkg/ports + pkg/adapters): durable snapshots of
//     {step index, collected fields} surviving reloads. Persistence is
//     best-effort and never blocks the user flow.
//   - Transition Controller (pkg/wizard): validation-gated advancement,
//     one-shot side effects with reuse-or-fail idempotency, back
//     navigation and reset.
//
// All remote concerns (accounts, documents, files) are driven ports;
// pkg/adapters provides in-memory, Redis, filesystem and REST-backed
// implementations.
//
// # Usage
//
//	engine, err := vivah.New()
//	if err != nil { ... }
//	wiz := engine.Wizard(ctx, "wizard-123")
//	err = wiz.SubmitStep(ctx, 1, map[string]any{...})
package vivah
