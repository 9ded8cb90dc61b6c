// Package refdata holds the static reference data consumed by step
// schemas: the hierarchical location tree (state -> district -> city)
// and the flat enumerations used by dropdown fields.
//
// All lookups are pure, synchronous, and read-only.
package refdata
