// Package pipeline wraps every network-backed read or write in a uniform
// requested → settled-ok | settled-error lifecycle. Each operation owns an
// OpState carrying the UI-facing flags (loading, error, field errors,
// success message); failures are normalized into state and never escape
// the pipeline boundary unhandled.
//
// Batch mutations run through a bounded fan-out window and report a
// partial-success summary instead of failing the whole batch on one
// item's error.
package pipeline
