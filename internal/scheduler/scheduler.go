// Package scheduler runs catalog sync passes on a fixed delay and on demand,
// never more than one at a time.
package scheduler

import (
	"context"
	"errors"
	"expvar"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/usecases/sync_catalog"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// ErrAlreadyRunning is returned by Trigger while another pass holds the run guard.
var ErrAlreadyRunning = errors.New("sync already running")

const defaultHistorySize = 20

// Counters published under /debug/vars. They are process-wide because expvar
// names can only be registered once.
var metrics = expvar.NewMap("catalog_sync")

// Syncer performs one sync pass.
type Syncer interface {
	Execute(ctx context.Context, req *sync_catalog.Request) (*domain.SyncReport, error)
}

// Options configures a Scheduler.
type Options struct {
	Interval    time.Duration
	Capacity    int
	Logger      *slog.Logger
	HistorySize int
	Clock       clock.Clock
}

// RunRecord is one entry of the run history. Report is nil when the pass
// failed before reconciling.
type RunRecord struct {
	Trigger    domain.Trigger     `json:"trigger"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Success    bool               `json:"success"`
	Error      string             `json:"error,omitempty"`
	Report     *domain.SyncReport `json:"report,omitempty"`
}

// Scheduler owns the run guard shared by timed and manual passes.
type Scheduler struct {
	syncer Syncer
	opts   Options
	logger *slog.Logger
	clock  clock.Clock

	guard   sync.Mutex
	running atomic.Bool

	histMu  sync.Mutex
	history []RunRecord
	next    int
	filled  bool

	lifeMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

// New creates a scheduler. Nothing runs until Start or Trigger is called.
func New(syncer Syncer, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	return &Scheduler{
		syncer:  syncer,
		opts:    opts,
		logger:  opts.Logger,
		clock:   opts.Clock,
		history: make([]RunRecord, opts.HistorySize),
	}
}

// Start runs a pass immediately and then again Interval after each pass
// finishes, until ctx is done or Stop is called. Calling Start on a running
// scheduler is a no-op; once the loop has ended it may be started again.
func (s *Scheduler) Start(ctx context.Context) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.done != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, s.stop, s.done)
}

func (s *Scheduler) loop(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		s.lifeMu.Lock()
		if s.done == done {
			s.stop = nil
			s.done = nil
		}
		s.lifeMu.Unlock()
		close(done)
	}()
	s.logger.Info("scheduler_started", "interval", s.opts.Interval.String(), "capacity", s.opts.Capacity)

	for {
		if _, err := s.run(ctx, domain.TriggerScheduled); errors.Is(err, ErrAlreadyRunning) {
			s.logger.Info("scheduled_sync_skipped", "reason", "manual pass in progress")
		}

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler_stopped", "reason", ctx.Err())
			return
		case <-stop:
			timer.Stop()
			s.logger.Info("scheduler_stopped", "reason", "stop requested")
			return
		case <-timer.C:
		}
	}
}

// Stop ends the timed loop and waits for an in-flight scheduled pass.
func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.lifeMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Trigger runs a manual pass in the caller's goroutine.
func (s *Scheduler) Trigger(ctx context.Context) (*domain.SyncReport, error) {
	return s.run(ctx, domain.TriggerManual)
}

// Run is Trigger with an explicit trigger label.
func (s *Scheduler) Run(ctx context.Context, trigger domain.Trigger) (*domain.SyncReport, error) {
	return s.run(ctx, trigger)
}

// Running reports whether a pass holds the run guard.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// History returns the recorded passes, oldest first.
func (s *Scheduler) History() []RunRecord {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	if !s.filled {
		return append([]RunRecord(nil), s.history[:s.next]...)
	}
	out := make([]RunRecord, 0, len(s.history))
	out = append(out, s.history[s.next:]...)
	return append(out, s.history[:s.next]...)
}

func (s *Scheduler) run(ctx context.Context, trigger domain.Trigger) (*domain.SyncReport, error) {
	if !s.guard.TryLock() {
		metrics.Add("rejected_concurrent", 1)
		return nil, ErrAlreadyRunning
	}
	defer s.guard.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	rec := RunRecord{Trigger: trigger, StartedAt: s.clock.Now()}
	report, err := s.syncer.Execute(ctx, &sync_catalog.Request{Trigger: trigger})
	rec.FinishedAt = s.clock.Now()
	rec.Report = report

	metrics.Add("passes", 1)
	if err != nil {
		rec.Error = err.Error()
		metrics.Add("failures", 1)
		s.logger.Error("sync_pass_failed", "trigger", string(trigger), "error", err)
	} else {
		rec.Success = true
		metrics.Add("inserted", int64(report.Inserted))
		metrics.Add("updated", int64(report.Updated))
		metrics.Add("skipped_invalid", int64(report.SkippedInvalid))
		metrics.Add("skipped_at_capacity", int64(report.SkippedAtCapacity))
		metrics.Add("pruned", int64(report.Pruned))
	}
	s.record(rec)
	return report, err
}

func (s *Scheduler) record(rec RunRecord) {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	s.history[s.next] = rec
	s.next++
	if s.next == len(s.history) {
		s.next = 0
		s.filled = true
	}
}
