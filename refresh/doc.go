// Package refresh runs scheduled background re-syncs. Each entry pairs
// a cron-style schedule ("*/5 * * * *" or "@every 30s") with a task,
// typically a projection reload, so long-lived screens pick up
// server-side changes without user interaction.
//
// The scheduler is single-process: it ticks, finds due entries, runs
// their tasks, and advances their next-run times. A failing task logs
// and stays scheduled.
package refresh
