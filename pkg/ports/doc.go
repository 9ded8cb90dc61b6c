/*
Package ports defines the driven ports (interfaces) for the wizard engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various snapshot stores and hosted
backend services.

# Key Interfaces

  - ProgressStore: persists and restores wizard snapshots across reloads.
  - AccountService, DocumentService, FileService: the hosted backend the
    step side effects call.
  - DistributedLocker: distributed locking for concurrent wizard access
    across replicas.
*/
package ports
