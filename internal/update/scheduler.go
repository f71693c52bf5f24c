package update

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"

	"github.com/simblock-app/simblock/internal/release"
	"github.com/simblock-app/simblock/pkg/logger"
)

// defaultCycleTimeout bounds one automatic check cycle.
const defaultCycleTimeout = 2 * time.Minute

// Scheduler drives the pipeline periodically and guarantees single-flight
// execution: manual triggers and timer fires funnel through one guard, so
// no two runs ever race on the backup slot or the live binary path.
type Scheduler struct {
	pipeline *Pipeline
	current  string
	onResult ResultFunc
	log      logger.Logger
	timeout  time.Duration

	flight *semaphore.Weighted

	mu         sync.Mutex
	timer      *time.Timer
	interval   time.Duration
	generation uint64
	running    bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the logger for scheduler events.
func WithSchedulerLogger(log logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithResultFunc sets the callback receiving terminal outcomes.
func WithResultFunc(onResult ResultFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.onResult = onResult
	}
}

// WithCycleTimeout bounds each automatic check cycle.
func WithCycleTimeout(timeout time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.timeout = timeout
	}
}

// NewScheduler creates a Scheduler checking on behalf of the given current
// version string.
func NewScheduler(pipeline *Pipeline, current string, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pipeline: pipeline,
		current:  current,
		log:      logger.NewNoOpLogger(),
		timeout:  defaultCycleTimeout,
		flight:   semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start installs a recurring trigger that fires immediately once and then
// every interval. Calling Start while already running atomically replaces
// the previous trigger; two timers never coexist.
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	s.generation++
	gen := s.generation

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.interval = interval
	s.running = true
	s.mu.Unlock()

	s.log.Info("update scheduler started", "interval", interval)

	go s.fire(gen)
}

// Stop cancels the pending trigger. An in-flight cycle runs to completion
// (aborting mid-replace is unsafe), but no new cycle starts afterward.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Invalidate the re-arm of any fire currently executing.
	s.generation++
	s.running = false

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.log.Info("update scheduler stopped")
}

// fire runs one cycle, then re-arms the timer unless the scheduler was
// stopped or the trigger was replaced meanwhile.
func (s *Scheduler) fire(gen uint64) {
	s.runCycle()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || gen != s.generation {
		return
	}

	s.timer = time.AfterFunc(s.interval, func() { s.fire(gen) })
}

// runCycle performs one automatic check. A fire arriving while another
// check or install is in flight is skipped, not queued.
func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.CheckNow(ctx, false); errors.Is(err, ErrBusy) {
		s.log.Debug("scheduled check skipped, another cycle in flight")
	}
}

// CheckNow is the entry point for both manual action and the recurring
// trigger; both funnel through the same single-flight guard. When
// notifyIfNone is true a no-update result is still delivered through the
// result callback.
func (s *Scheduler) CheckNow(ctx context.Context, notifyIfNone bool) (*UpdateInfo, error) {
	if !s.flight.TryAcquire(1) {
		return nil, ErrBusy
	}

	info, err := s.pipeline.Check(ctx, s.current)

	// Release before delivering: a result callback may immediately trigger
	// an install, which funnels through the same guard.
	s.flight.Release(1)

	outcome := checkOutcome(info, err)
	if outcome.Kind != OutcomeNoUpdate || notifyIfNone {
		s.deliver(outcome)
	}

	return info, err
}

// Install funnels an explicit install decision through the same
// single-flight guard, so a download never races a concurrent check.
func (s *Scheduler) Install(
	ctx context.Context,
	info *UpdateInfo,
	progress ProgressFunc,
) error {
	if !s.flight.TryAcquire(1) {
		return ErrBusy
	}

	err := s.pipeline.DownloadAndInstall(ctx, info, progress)
	s.flight.Release(1)
	s.deliver(installOutcome(err))

	return err
}

// deliver hands a terminal outcome to the presentation layer. A cycle's
// fault never prevents the next scheduled cycle from running.
func (s *Scheduler) deliver(outcome Outcome) {
	if outcome.Err != nil {
		s.log.Error("update cycle finished",
			"outcome", outcome.Kind,
			"error", outcome.Err,
		)
	} else {
		s.log.Info("update cycle finished", "outcome", outcome.Kind)
	}

	if s.onResult != nil {
		s.onResult(outcome)
	}
}

// checkOutcome converts a check result into the terminal outcome surface.
// An empty channel or an unmatched asset means "no update available", not
// an error state.
func checkOutcome(info *UpdateInfo, err error) Outcome {
	switch {
	case err == nil && info != nil:
		return Outcome{Kind: OutcomeUpdateAvailable, Info: info}
	case err == nil:
		return Outcome{Kind: OutcomeNoUpdate}
	case errors.Is(err, release.ErrNoReleases), errors.Is(err, release.ErrNoAsset):
		return Outcome{Kind: OutcomeNoUpdate}
	default:
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
}

// installOutcome converts an install result into the terminal outcome
// surface, keeping rollback failures distinct from ordinary failures.
func installOutcome(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Kind: OutcomeCompleted}
	case errors.Is(err, ErrRollbackFailed):
		return Outcome{Kind: OutcomeRollbackFailure, Err: err}
	default:
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
}
