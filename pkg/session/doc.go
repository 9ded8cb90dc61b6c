// Package session manages concurrent access to wizard controllers.
//
// A Manager memoizes one controller per wizard ID and serializes
// mutating operations per wizard, optionally coordinating across
// replicas through a DistributedLocker. Reference counting garbage
// collects per-wizard locks once the last holder releases them.
package session
