// Package service provides the domain services for bankmesh.
//
// Services hold the process-wide state shared by every session:
//
//   - CredentialService: read-only (id, secret) validation
//   - LedgerService: the shared balance store with serialized transfers
//
// Storage is reached only through the repository interfaces declared
// here, so the on-disk format can be swapped without touching callers.
package service
