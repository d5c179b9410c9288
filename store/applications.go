package store

import (
	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// BeginApplicationFetch issues a fetch generation for an application
// projection.
func (s *Store) BeginApplicationFetch(name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.apps[name]
	if !ok {
		return 0, kazisync.ErrProjectionNotFound
	}
	return p.begin(), nil
}

// ReplaceApplications swaps the projection wholesale with a server page,
// discarding stale generations.
func (s *Store) ReplaceApplications(name string, gen uint64, apps []*entity.Application, page entity.Page) error {
	s.mu.Lock()
	p, ok := s.apps[name]
	if !ok {
		s.mu.Unlock()
		return kazisync.ErrProjectionNotFound
	}
	items := make([]*entity.Application, len(apps))
	for i, a := range apps {
		cp := *a
		items[i] = &cp
	}
	applied := p.replace(gen, items, page)
	s.mu.Unlock()

	if !applied {
		return kazisync.ErrStaleGeneration
	}
	s.notify(Change{Projection: name, Kind: ChangeReplaced})
	return nil
}

// PrependApplication inserts a freshly submitted application at the head
// of the named projections.
func (s *Store) PrependApplication(a *entity.Application, names ...string) {
	s.mu.Lock()
	var changes []Change
	for _, name := range names {
		p, ok := s.apps[name]
		if !ok {
			continue
		}
		cp := *a
		p.prepend(&cp)
		changes = append(changes, Change{Projection: name, EntityID: a.ID.String(), Kind: ChangePrepended})
	}
	s.mu.Unlock()
	s.notify(changes...)
}

// Applications returns a copy of the named application projection and
// its pagination window.
func (s *Store) Applications(name string) ([]*entity.Application, entity.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.apps[name]
	if !ok {
		return nil, entity.Page{}, kazisync.ErrProjectionNotFound
	}
	out := make([]*entity.Application, len(p.items))
	for i, a := range p.items {
		cp := *a
		out[i] = &cp
	}
	return out, p.page, nil
}

// RemoveApplication evicts the application from every projection and
// clears the current slot if it matches.
func (s *Store) RemoveApplication(appID id.ApplicationID) {
	key := appID.String()

	s.mu.Lock()
	var changes []Change
	for name, p := range s.apps {
		if p.removeWhere(func(a *entity.Application) bool { return a.ID.String() == key }) > 0 {
			changes = append(changes, Change{Projection: name, EntityID: key, Kind: ChangeRemoved})
		}
	}
	if s.currentApp != nil && s.currentApp.ID.String() == key {
		s.currentApp = nil
		changes = append(changes, Change{Projection: "applications.current", EntityID: key, Kind: ChangeRemoved})
	}
	s.mu.Unlock()
	s.notify(changes...)
}

// SetCurrentApplication stores the currently viewed application.
func (s *Store) SetCurrentApplication(a *entity.Application) {
	s.mu.Lock()
	if a == nil {
		s.currentApp = nil
	} else {
		cp := *a
		s.currentApp = &cp
	}
	s.mu.Unlock()
	s.notify(Change{Projection: "applications.current", Kind: ChangeReplaced})
}

// CurrentApplication returns the currently viewed application, or nil.
func (s *Store) CurrentApplication() *entity.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentApp == nil {
		return nil
	}
	cp := *s.currentApp
	return &cp
}

// PropagateApplication applies the patch to every projection holding the
// application id, and to the current-application slot, in one locked
// step. This is what keeps "my applications", "this job's applications"
// and "all applications" showing the same status after an accept or
// reject without a refetch.
func (s *Store) PropagateApplication(appID id.ApplicationID, patch entity.ApplicationPatch) int {
	key := appID.String()

	s.mu.Lock()
	var changes []Change
	touched := 0
	for name, p := range s.apps {
		for i, a := range p.items {
			if a.ID.String() != key {
				continue
			}
			cp := *a
			patch.Apply(&cp)
			p.items[i] = &cp
			touched++
			changes = append(changes, Change{Projection: name, EntityID: key, Kind: ChangePropagated})
		}
	}
	if s.currentApp != nil && s.currentApp.ID.String() == key {
		cp := *s.currentApp
		patch.Apply(&cp)
		s.currentApp = &cp
		touched++
		changes = append(changes, Change{Projection: "applications.current", EntityID: key, Kind: ChangePropagated})
	}
	s.mu.Unlock()
	s.notify(changes...)
	return touched
}
