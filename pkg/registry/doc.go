// Package registry declares the ordered steps of a wizard: each step's
// schema (possibly dependent on previously collected fields), its
// cross-field refinements, and its remote side effect.
//
// A Registry is a pure, stateless lookup. Schemas are recomputed on
// demand via SchemaFor rather than mutated in place, so a step whose
// rules depend on an earlier answer (e.g. minimum age keyed by gender)
// always validates against the current collected fields.
package registry
