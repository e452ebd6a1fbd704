// Package internal holds the Mingle server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, pagination, and routing
// - domain: business logic and domain models per aggregate
// - storage: PostgreSQL repositories and migrations
// - auth, authz, config, metrics, sanitize, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
