package job

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/idlesim/internal/game/dice"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/result"
	"github.com/cory-johannsen/idlesim/internal/sim/target"
)

// unit is one (job, target) evaluation.
type unit struct {
	h     *Handle
	index int
}

// Scheduler runs jobs on a fixed pool of workers. Each target of a job is an
// independent unit with its own random stream and combat state.
// All methods are safe for concurrent use.
type Scheduler struct {
	opts   Options
	lookup gamedata.Lookup
	store  *result.Store
	logger *zap.Logger

	units chan unit

	mu      sync.Mutex
	jobs    map[string]*Handle // jobID → active job
	scopes  map[string]*Handle // scope → active job
	closed  bool
	stopped chan struct{}
	stop    context.CancelFunc
	exited  chan struct{}
}

// NewScheduler creates a Scheduler. Workers run once Start is called; jobs
// submitted earlier wait for them.
//
// Precondition: lookup, store and logger must be non-nil; opts.Workers >= 1
// and opts.MessageBuffer >= 1.
func NewScheduler(opts Options, lookup gamedata.Lookup, store *result.Store, logger *zap.Logger) *Scheduler {
	if opts.Policy == "" {
		opts.Policy = PolicyReject
	}
	return &Scheduler{
		opts:    opts,
		lookup:  lookup,
		store:   store,
		logger:  logger,
		units:   make(chan unit),
		jobs:    make(map[string]*Handle),
		scopes:  make(map[string]*Handle),
		stopped: make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// Start runs the worker pool and blocks until ctx is cancelled or Stop is
// called. Active jobs are cancelled on return.
//
// Precondition: Start must be called at most once.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.stop != nil || s.closed {
		s.mu.Unlock()
		cancel()
		return errors.New("scheduler already started")
	}
	s.stop = cancel
	s.mu.Unlock()
	defer close(s.exited)

	g, gctx := errgroup.WithContext(ctx)
	for i := range s.opts.Workers {
		g.Go(func() error {
			s.work(gctx, i)
			return nil
		})
	}
	s.logger.Info("scheduler started",
		zap.Int("workers", s.opts.Workers),
		zap.String("policy", string(s.opts.Policy)),
	)
	err := g.Wait()
	s.shutdown()
	return err
}

// Stop makes Start return and waits for it, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop == nil {
		s.shutdown()
		return nil
	}
	stop()
	select {
	case <-s.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stopped)
	active := make([]*Handle, 0, len(s.jobs))
	for _, h := range s.jobs {
		active = append(active, h)
	}
	s.jobs = make(map[string]*Handle)
	s.scopes = make(map[string]*Handle)
	s.mu.Unlock()

	for _, h := range active {
		h.abort()
		s.store.End(h.scope, h.id)
	}
	s.logger.Info("scheduler stopped", zap.Int("cancelled_jobs", len(active)))
}

func (s *Scheduler) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-s.units:
			s.execute(u, worker)
		}
	}
}

// Submit validates j, resolves its target list and queues one unit per
// target.
//
// Precondition: j.Snapshot must come from loadout.Freeze.
// Postcondition: Returns a running Handle, or an error wrapping one of
// ErrDuplicateScope, ErrNoTargets or ErrSchedulerClosed, or a validation error.
func (s *Scheduler) Submit(ctx context.Context, j Job) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if j.Snapshot == nil {
		return nil, errors.New("submit job: missing loadout snapshot")
	}
	if err := j.Budget.Validate(); err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}
	targets, err := s.resolveTargets(j)
	if err != nil {
		return nil, err
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Budget.Seed == 0 {
		j.Budget.Seed = rand.Uint64() | 1
	}

	player := aggregate.NewPlayer(j.Snapshot)
	if s.opts.DevMode {
		_, diags := stats.ResolveWithDiagnostics(j.Snapshot)
		for _, d := range diags {
			s.logger.Warn("unrecognised modifier",
				zap.String("job_id", j.ID),
				zap.String("source", d.Source),
				zap.String("key", d.Key),
				zap.Float64("value", d.Value),
			)
		}
	}

	h := newHandle(j.ID, j.Scope, player, j.Budget, targets, s.opts.MessageBuffer, s.logger)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("submit job %s: %w", j.ID, ErrSchedulerClosed)
	}
	if _, dup := s.jobs[j.ID]; dup {
		s.mu.Unlock()
		return nil, fmt.Errorf("submit job %s: id already active", j.ID)
	}
	old := s.scopes[j.Scope]
	if old != nil && s.opts.Policy == PolicyReject {
		s.mu.Unlock()
		return nil, fmt.Errorf("submit job %s to scope %q (active %s): %w", j.ID, j.Scope, old.id, ErrDuplicateScope)
	}
	if old != nil {
		delete(s.jobs, old.id)
		old.abort()
		s.logger.Info("job superseded",
			zap.String("job_id", old.id),
			zap.String("by", j.ID),
		)
	}
	s.jobs[h.id] = h
	s.scopes[h.scope] = h
	s.store.Begin(h.scope, h.id)
	s.mu.Unlock()

	h.pending.Add(len(targets))
	go h.dispatch()
	go s.feed(h)
	go s.finish(h, time.Now())

	s.logger.Info("job submitted",
		zap.String("job_id", h.id),
		zap.String("scope", h.scope),
		zap.Int("targets", len(targets)),
		zap.Uint64("seed", h.budget.Seed),
	)
	return h, nil
}

// resolveTargets returns the target ids j covers, without duplicates.
func (s *Scheduler) resolveTargets(j Job) ([]string, error) {
	var ids []string
	switch j.Mode {
	case ModeAll:
		ids = append(s.lookup.MonsterIDs(), s.lookup.DungeonIDs()...)
	case ModeSelected, "":
		ids = j.Targets
	default:
		return nil, fmt.Errorf("submit job: mode must be one of [all, selected], got %q", j.Mode)
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("submit job: %w", ErrNoTargets)
	}
	return out, nil
}

// Cancel stops job id. Units already running finish their current encounter
// and their output is discarded.
//
// Postcondition: Returns an error wrapping ErrUnknownJob if id is not
// active; otherwise no further message is delivered for id.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	h, ok := s.jobs[id]
	if ok {
		s.releaseLocked(h)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cancel job %s: %w", id, ErrUnknownJob)
	}
	h.abort()
	s.store.End(h.scope, h.id)
	s.logger.Info("job cancelled", zap.String("job_id", id))
	return nil
}

// Active returns the active job of scope.
func (s *Scheduler) Active(scope string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.scopes[scope]
	return h, ok
}

func (s *Scheduler) releaseLocked(h *Handle) {
	delete(s.jobs, h.id)
	if s.scopes[h.scope] == h {
		delete(s.scopes, h.scope)
	}
}

// feed hands the job's units to the pool in target order. Units left when
// the job is cancelled or the scheduler stops are skipped.
func (s *Scheduler) feed(h *Handle) {
	for i := range h.targets {
		select {
		case s.units <- unit{h: h, index: i}:
		case <-h.ctx.Done():
			h.pending.Add(i - len(h.targets))
			return
		case <-s.stopped:
			h.pending.Add(i - len(h.targets))
			return
		}
	}
}

func (s *Scheduler) execute(u unit, worker int) {
	h := u.h
	defer h.pending.Done()
	if h.ctx.Err() != nil {
		return
	}
	h.state.CompareAndSwap(int32(StatePending), int32(StateRunning))

	id := h.targets[u.index]
	logger := s.logger.With(
		zap.String("job_id", h.id),
		zap.String("target_id", id),
		zap.Int("worker", worker),
	)
	start := time.Now()
	res, err := s.evaluate(h, u.index, logger)
	switch {
	case h.ctx.Err() != nil:
		logger.Debug("target abandoned", zap.Duration("elapsed", time.Since(start)))
	case err != nil:
		logger.Warn("target failed", zap.Error(err))
		reason := err.Error()
		h.fail(fmt.Sprintf("%s: %s", id, reason))
		h.publish(JobError{JobID: h.id, TargetID: id, Reason: reason})
	default:
		if err := s.store.Put(h.scope, h.id, id, res); err != nil {
			logger.Debug("result not stored", zap.Error(err))
		}
		h.succeed(u.index, res)
		h.publish(TargetResult{JobID: h.id, TargetID: id, Result: res})
		logger.Debug("target evaluated",
			zap.String("method", string(res.Method)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// evaluate runs one unit, converting a panic into an error wrapping
// ErrWorkerPanic.
func (s *Scheduler) evaluate(h *Handle, index int, logger *zap.Logger) (res aggregate.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panic recovered", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()
	id := h.targets[index]
	t, err := target.Resolve(s.lookup, id)
	if err != nil {
		return aggregate.Result{}, err
	}
	src := dice.NewSource(h.budget.Seed, uint64(index))
	return aggregate.RunTarget(h.ctx, h.player, t, h.budget, src, func(processed, total int) {
		h.publish(Progress{JobID: h.id, TargetID: id, Processed: processed, Total: total})
	})
}

// finish waits for every unit of h, publishes the closing messages and
// releases the job.
func (s *Scheduler) finish(h *Handle, start time.Time) {
	h.pending.Wait()
	defer h.cancel()
	defer close(h.msgs)

	s.mu.Lock()
	if s.jobs[h.id] == h {
		s.releaseLocked(h)
	}
	s.mu.Unlock()
	defer s.store.End(h.scope, h.id)

	if h.ctx.Err() != nil {
		return
	}
	results, reasons := h.outcome()
	logger := s.logger.With(zap.String("job_id", h.id))
	if len(results) == 0 {
		h.publish(JobError{JobID: h.id, Reason: fmt.Sprintf("all %d targets failed: %s", len(h.targets), strings.Join(reasons, "; "))})
		h.publish(JobComplete{JobID: h.id})
		h.state.Store(int32(StateFailed))
		logger.Warn("job failed", zap.Int("targets", len(h.targets)), zap.Duration("elapsed", time.Since(start)))
		return
	}
	var agg *aggregate.Result
	if len(results) > 1 {
		r := aggregate.Rollup(results)
		if err := s.store.PutRollup(h.scope, h.id, r); err != nil {
			logger.Debug("rollup not stored", zap.Error(err))
		}
		agg = &r
	}
	h.publish(JobComplete{JobID: h.id, Aggregate: agg})
	h.state.CompareAndSwap(int32(StateRunning), int32(StateCompleted))
	logger.Info("job complete",
		zap.Int("succeeded", len(results)),
		zap.Int("failed", len(reasons)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
