package store

import "github.com/Tafakari-Ltd/kazibuddy-sync/entity"

// projection is a named, ordered window over entities of one type.
// Access is guarded by the owning Store's lock.
type projection[T any] struct {
	name  string
	items []T
	page  entity.Page

	// issued is the latest fetch generation handed out for this
	// projection; applied is the generation of the data currently held.
	// A settle whose generation is older than issued is stale and must
	// be discarded.
	issued  uint64
	applied uint64
}

func newProjection[T any](name string) *projection[T] {
	return &projection[T]{name: name}
}

// begin issues the next fetch generation.
func (p *projection[T]) begin() uint64 {
	p.issued++
	return p.issued
}

// replace swaps the projection contents wholesale if gen is still the
// latest issued generation. Returns false for a stale settle. A zero
// page envelope preserves the prior window.
func (p *projection[T]) replace(gen uint64, items []T, page entity.Page) bool {
	if gen != p.issued || gen <= p.applied {
		return false
	}
	p.applied = gen
	p.items = append([]T(nil), items...)
	if !page.IsZero() {
		p.page = page
	} else if p.page.IsZero() {
		// No envelope on either side: infer what we can from the payload.
		p.page = entity.Page{Page: 1, Limit: len(items), TotalItems: len(items), TotalPages: 1}
	}
	return true
}

// prepend inserts an item at the head. Pagination totals are left for
// the next authoritative refetch.
func (p *projection[T]) prepend(item T) {
	p.items = append([]T{item}, p.items...)
}

// snapshot returns a copy of the item slice.
func (p *projection[T]) snapshot() []T {
	return append([]T(nil), p.items...)
}

// removeWhere deletes items matching the predicate, returning how many
// were removed.
func (p *projection[T]) removeWhere(match func(T) bool) int {
	kept := p.items[:0]
	removed := 0
	for _, item := range p.items {
		if match(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	p.items = kept
	return removed
}
