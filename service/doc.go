// Package service defines the contracts kazisync consumes from the
// KaziBuddy backend: jobs, applications, profiles, and admin approvals.
//
// The engine is a pure consumer of a JSON-over-HTTP API; these interfaces
// are the narrow boundary to it. The rest subpackage provides the default
// HTTP binding; tests substitute in-memory fakes.
package service
