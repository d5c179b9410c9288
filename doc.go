// Package kazisync provides the client-side entity synchronization and
// workflow engine for the KaziBuddy job marketplace. It keeps multiple
// overlapping projections of the same mutable entities (jobs, applications,
// profiles, admin approval queues) consistent as asynchronous mutations
// race against each other.
//
// Kazisync is designed as a library, not a service. Import it, wire the
// four backend service contracts, and drive every read or write through
// the async mutation pipeline.
//
// # Quick Start
//
//	eng, err := engine.Build(
//	    kazisync.WithServices(jobs, apps, profiles, admin),
//	    kazisync.WithSession(session.NewMemory()),
//	)
//
// # Architecture
//
// Kazisync follows a composable subsystem pattern: the entity store owns
// the canonical client-side records and their named projections, the
// pipeline wraps every network call in a uniform requested/settled
// lifecycle, and the propagator applies each settled change to every
// projection holding the entity so no view is left stale.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package kazisync
