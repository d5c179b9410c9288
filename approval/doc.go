// Package approval implements the admin approval queues: pending users,
// pending jobs, and pending applications, each fetched independently and
// held as a queue projection in the entity store.
//
// Every item supports exactly two terminal actions, approve and reject.
// Actions run through the async pipeline with a per-item busy guard so
// approving two different items never blocks, while a second action on
// the same item during flight is rejected with ErrActionInFlight.
// Application decisions are ordinary status transitions and propagate to
// every projection holding the application; job rejection is modeled as
// a status transition to cancelled through the generic job update, since
// no dedicated reject endpoint exists.
package approval
