// Package entity defines the domain records held by the kazisync store:
// jobs, job applications, worker and employer profiles, categories, and
// admin approval queue items.
//
// Status enums carry their own transition tables. All status changes go
// through SetStatus so that lifecycle invariants (timestamps set exactly
// once, no transitions out of terminal states) are enforced in one place.
package entity
