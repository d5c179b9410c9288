package store

import "github.com/Tafakari-Ltd/kazibuddy-sync/entity"

// SetWorkerProfile stores the session user's worker profile. Passing nil
// clears it (e.g. after the profile-not-found outcome of a prerequisite
// check).
func (s *Store) SetWorkerProfile(p *entity.WorkerProfile) {
	s.mu.Lock()
	if p == nil {
		s.workerProfile = nil
	} else {
		cp := *p
		s.workerProfile = &cp
	}
	s.mu.Unlock()
	s.notify(Change{Projection: "profiles.worker", Kind: ChangeReplaced})
}

// WorkerProfile returns the cached worker profile, or nil.
func (s *Store) WorkerProfile() *entity.WorkerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workerProfile == nil {
		return nil
	}
	cp := *s.workerProfile
	return &cp
}

// SetEmployerProfile stores the session user's employer profile.
func (s *Store) SetEmployerProfile(p *entity.EmployerProfile) {
	s.mu.Lock()
	if p == nil {
		s.employerProfile = nil
	} else {
		cp := *p
		s.employerProfile = &cp
	}
	s.mu.Unlock()
	s.notify(Change{Projection: "profiles.employer", Kind: ChangeReplaced})
}

// EmployerProfile returns the cached employer profile, or nil.
func (s *Store) EmployerProfile() *entity.EmployerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.employerProfile == nil {
		return nil
	}
	cp := *s.employerProfile
	return &cp
}

// SetCategories replaces the category list.
func (s *Store) SetCategories(cats []*entity.Category) {
	s.mu.Lock()
	copies := make([]*entity.Category, len(cats))
	for i, c := range cats {
		cp := *c
		copies[i] = &cp
	}
	s.categories = copies
	s.mu.Unlock()
	s.notify(Change{Projection: "categories", Kind: ChangeReplaced})
}

// Categories returns a copy of the category list.
func (s *Store) Categories() []*entity.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Category, len(s.categories))
	for i, c := range s.categories {
		cp := *c
		out[i] = &cp
	}
	return out
}
