package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Task is the work an entry performs when due.
type Task func(ctx context.Context) error

// cronParser supports standard 5-field cron and descriptors like
// "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a schedule expression.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// entry is one registered re-sync.
type entry struct {
	name      string
	expr      string
	schedule  cronlib.Schedule
	task      Task
	enabled   bool
	lastRunAt *time.Time
	nextRunAt time.Time
}

// EntrySnapshot is the read-only view of a registered entry.
type EntrySnapshot struct {
	Name      string
	Schedule  string
	Enabled   bool
	LastRunAt *time.Time
	NextRunAt time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.tickInterval = d }
}

// WithTaskTimeout bounds each task run.
func WithTaskTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.taskTimeout = d }
}

// Scheduler runs refresh entries on a tick loop.
type Scheduler struct {
	logger       *slog.Logger
	tickInterval time.Duration
	taskTimeout  time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		logger:       logger,
		tickInterval: 1 * time.Second,
		taskTimeout:  30 * time.Second,
		entries:      make(map[string]*entry),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers (or replaces) an entry. The first run happens when the
// schedule next matches, not immediately.
func (s *Scheduler) Add(name, expr string, task Task) error {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return fmt.Errorf("refresh: parse schedule %q: %w", expr, err)
	}
	s.mu.Lock()
	s.entries[name] = &entry{
		name:      name,
		expr:      expr,
		schedule:  sched,
		task:      task,
		enabled:   true,
		nextRunAt: sched.Next(time.Now().UTC()),
	}
	s.mu.Unlock()
	return nil
}

// Remove unregisters an entry.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	delete(s.entries, name)
	s.mu.Unlock()
}

// SetEnabled pauses or resumes an entry without losing its schedule.
func (s *Scheduler) SetEnabled(name string, enabled bool) {
	s.mu.Lock()
	if e, ok := s.entries[name]; ok {
		e.enabled = enabled
		if enabled {
			e.nextRunAt = e.schedule.Next(time.Now().UTC())
		}
	}
	s.mu.Unlock()
}

// Entries returns snapshots of all registered entries, sorted by name.
func (s *Scheduler) Entries() []EntrySnapshot {
	s.mu.Lock()
	out := make([]EntrySnapshot, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, EntrySnapshot{
			Name:      e.name,
			Schedule:  e.expr,
			Enabled:   e.enabled,
			LastRunAt: e.lastRunAt,
			NextRunAt: e.nextRunAt,
		})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start launches the tick loop.
func (s *Scheduler) Start(_ context.Context) error {
	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("refresh scheduler started", slog.Duration("tick_interval", s.tickInterval))
	return nil
}

// Stop signals the loop to stop and waits for it to finish. Safe to
// call more than once.
func (s *Scheduler) Stop(_ context.Context) error {
	s.stopped.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.logger.Info("refresh scheduler stopped")
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if e.enabled && !e.nextRunAt.After(now) {
			due = append(due, e)
			ran := now
			e.lastRunAt = &ran
			e.nextRunAt = e.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.run(e)
	}
}

func (s *Scheduler) run(e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
	defer cancel()

	if err := e.task(ctx); err != nil {
		s.logger.Error("refresh task failed",
			slog.String("entry", e.name),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("refresh task ran", slog.String("entry", e.name))
}
