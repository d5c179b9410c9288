// Package engine wires the sync subsystems into a working client engine
// and exposes the high-level operations a frontend calls: loading
// projections, mutating jobs and applications, the gated apply flow
// with deferred intent, login completion, and the admin approval
// queues.
//
// Build() composes the pieces in dependency order: the event broker is
// the store's change notifier, the middleware chain wraps the mutation
// runner, and the intent resolver feeds resolved worker profiles back
// into the store. Callers construct the backend service.Bundle
// themselves (usually with service/rest) so tests can substitute
// fakes.
package engine
