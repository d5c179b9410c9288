package store

import (
	kazisync "github.com/Tafakari-Ltd/kazibuddy-sync"
	"github.com/Tafakari-Ltd/kazibuddy-sync/entity"
	"github.com/Tafakari-Ltd/kazibuddy-sync/id"
)

// BeginJobFetch issues a fetch generation for a job projection. The
// settle must pass the same generation to ReplaceJobs; an older
// generation is discarded there.
func (s *Store) BeginJobFetch(name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.jobs[name]
	if !ok {
		return 0, kazisync.ErrProjectionNotFound
	}
	return p.begin(), nil
}

// ReplaceJobs swaps the projection wholesale with a server page.
// A settle carrying a stale generation returns ErrStaleGeneration and
// leaves the projection untouched.
func (s *Store) ReplaceJobs(name string, gen uint64, jobs []*entity.Job, page entity.Page) error {
	s.mu.Lock()
	p, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return kazisync.ErrProjectionNotFound
	}
	items := make([]*entity.Job, len(jobs))
	for i, j := range jobs {
		cp := *j
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

// PrependJob inserts a freshly created job at the head of the named
// projections. Pagination totals are not adjusted optimistically; the
// next refetch is authoritative.
func (s *Store) PrependJob(j *entity.Job, names ...string) {
	s.mu.Lock()
	var changes []Change
	for _, name := range names {
		p, ok := s.jobs[name]
		if !ok {
			continue
		}
		cp := *j
		p.prepend(&cp)
		changes = append(changes, Change{Projection: name, EntityID: j.ID.String(), Kind: ChangePrepended})
	}
	s.mu.Unlock()
	s.notify(changes...)
}

// Jobs returns a copy of the named job projection and its pagination
// window.
func (s *Store) Jobs(name string) ([]*entity.Job, entity.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.jobs[name]
	if !ok {
		return nil, entity.Page{}, kazisync.ErrProjectionNotFound
	}
	out := make([]*entity.Job, len(p.items))
	for i, j := range p.items {
		cp := *j
		out[i] = &cp
	}
	return out, p.page, nil
}

// RemoveJob evicts the job from every projection. If it is the currently
// viewed job, that slot is cleared too.
func (s *Store) RemoveJob(jobID id.JobID) {
	key := jobID.String()

	s.mu.Lock()
	var changes []Change
	for name, p := range s.jobs {
		if p.removeWhere(func(j *entity.Job) bool { return j.ID.String() == key }) > 0 {
			changes = append(changes, Change{Projection: name, EntityID: key, Kind: ChangeRemoved})
		}
	}
	if s.currentJob != nil && s.currentJob.ID.String() == key {
		s.currentJob = nil
		changes = append(changes, Change{Projection: "jobs.current", EntityID: key, Kind: ChangeRemoved})
	}
	s.mu.Unlock()
	s.notify(changes...)
}

// SetCurrentJob stores the currently viewed job.
func (s *Store) SetCurrentJob(j *entity.Job) {
	s.mu.Lock()
	if j == nil {
		s.currentJob = nil
	} else {
		cp := *j
		s.currentJob = &cp
	}
	s.mu.Unlock()
	s.notify(Change{Projection: "jobs.current", Kind: ChangeReplaced})
}

// CurrentJob returns the currently viewed job, or nil.
func (s *Store) CurrentJob() *entity.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentJob == nil {
		return nil
	}
	cp := *s.currentJob
	return &cp
}

// PropagateJob applies the patch to every projection holding the job id,
// and to the current-job slot, in one locked step. It returns the number
// of copies updated. Nested sub-objects inside other entity types keep
// their last-fetched values; they refresh when their owning entity moves
// through the same path.
func (s *Store) PropagateJob(jobID id.JobID, patch entity.JobPatch) int {
	key := jobID.String()

	s.mu.Lock()
	var changes []Change
	touched := 0
	for name, p := range s.jobs {
		for i, j := range p.items {
			if j.ID.String() != key {
				continue
			}
			cp := *j
			patch.Apply(&cp)
			p.items[i] = &cp
			touched++
			changes = append(changes, Change{Projection: name, EntityID: key, Kind: ChangePropagated})
		}
	}
	if s.currentJob != nil && s.currentJob.ID.String() == key {
		cp := *s.currentJob
		patch.Apply(&cp)
		s.currentJob = &cp
		touched++
		changes = append(changes, Change{Projection: "jobs.current", EntityID: key, Kind: ChangePropagated})
	}
	s.mu.Unlock()
	s.notify(changes...)
	return touched
}
