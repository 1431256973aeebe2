// Package domain defines the core domain models for bankmesh.
//
// Domain models are pure value objects without any IO dependencies.
// This package contains:
//
//   - Account: a user's savings/checking balance pair
//   - AccountClass: the protocol code selecting savings or checking
//   - Credential: an (id, secret) record checked at login
//   - Errors: domain error codes shared by every layer
package domain
