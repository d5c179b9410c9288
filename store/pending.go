package store

import (
	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// BeginPendingFetch issues a fetch generation for an approval queue.
func (s *Store) BeginPendingFetch(queue string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[queue]
	if !ok {
		return 0, kazisync.ErrProjectionNotFound
	}
	return p.begin(), nil
}

// ReplacePending swaps an approval queue wholesale, discarding stale
// generations. Approval queues carry no pagination envelope.
func (s *Store) ReplacePending(queue string, gen uint64, items []*entity.PendingItem) error {
	s.mu.Lock()
	p, ok := s.pending[queue]
	if !ok {
		s.mu.Unlock()
		return kazisync.ErrProjectionNotFound
	}
	copies := make([]*entity.PendingItem, len(items))
	for i, item := range items {
		cp := *item
		copies[i] = &cp
	}
	applied := p.replace(gen, copies, entity.Page{})
	s.mu.Unlock()

	if !applied {
		return kazisync.ErrStaleGeneration
	}
	s.notify(Change{Projection: queue, Kind: ChangeReplaced})
	return nil
}

// Pending returns a copy of the named approval queue.
func (s *Store) Pending(queue string) ([]*entity.PendingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pending[queue]
	if !ok {
		return nil, kazisync.ErrProjectionNotFound
	}
	out := make([]*entity.PendingItem, len(p.items))
	for i, item := range p.items {
		cp := *item
		out[i] = &cp
	}
	return out, nil
}

// RemovePending evicts exactly the given item from its queue once an
// approve or reject settles, leaving the other items untouched. The
// underlying entity's record elsewhere in the store is unaffected.
func (s *Store) RemovePending(queue string, itemID id.AnyID) error {
	key := itemID.String()

	s.mu.Lock()
	p, ok := s.pending[queue]
	if !ok {
		s.mu.Unlock()
		return kazisync.ErrProjectionNotFound
	}
	removed := p.removeWhere(func(item *entity.PendingItem) bool { return item.ID.String() == key })
	s.mu.Unlock()

	if removed == 0 {
		return kazisync.ErrPendingNotFound
	}
	s.notify(Change{Projection: queue, EntityID: key, Kind: ChangeRemoved})
	return nil
}
