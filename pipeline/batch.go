package pipeline

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the partial-success summary of a batch mutation.
type BatchResult struct {
	UpdatedCount int      `json:"updated_count"`
	Errors       []string `json:"errors,omitempty"`
}

// Batch runs fn for every item id with a bounded concurrency window.
// Per-item failures are isolated: one bad item never aborts the batch.
// Items already busy (another action in flight) are reported as errors
// without invoking fn. Errors are ordered by item id for deterministic
// output.
func (r *Runner) Batch(ctx context.Context, itemIDs []string, limit int, busy *BusyTracker, fn func(ctx context.Context, itemID string) error) BatchResult {
	if limit <= 0 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		updated int
		failed  = make(map[string]string)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, itemID := range itemIDs {
		if busy != nil && !busy.Begin(itemID) {
			mu.Lock()
			failed[itemID] = itemID + ": action already in flight"
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			defer func() {
				if busy != nil {
					busy.End(itemID)
				}
			}()

			if err := fn(ctx, itemID); err != nil {
				msg, _ := Normalize(err)
				mu.Lock()
				failed[itemID] = itemID + ": " + msg
				mu.Unlock()
				return nil // isolate the failure
			}

			mu.Lock()
			updated++
			mu.Unlock()
			return nil
		})
	}

	// Goroutines always return nil; Wait only synchronizes.
	_ = g.Wait()

	ids := make([]string, 0, len(failed))
	for itemID := range failed {
		ids = append(ids, itemID)
	}
	sort.Strings(ids)

	result := BatchResult{UpdatedCount: updated}
	for _, itemID := range ids {
		result.Errors = append(result.Errors, failed[itemID])
	}
	return result
}
