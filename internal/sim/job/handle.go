package job

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
)

// Handle tracks one submitted job. Messages are delivered in publication
// order by a single dispatcher goroutine; callbacks registered late are
// first replayed the messages already delivered.
//
// Callbacks run on the dispatcher goroutine and must not call Cancel or
// register further callbacks.
type Handle struct {
	id     string
	scope  string
	player aggregate.Player
	budget aggregate.Budget
	// targets is the resolved target list; unit i evaluates targets[i].
	targets []string

	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32

	msgs    chan Message
	done    chan struct{}
	pending sync.WaitGroup

	// deliver serialises delivery, registration and cancellation.
	deliver    sync.Mutex
	cancelled  bool
	history    []Message
	onProgress []func(Progress)
	onResult   []func(TargetResult)
	onError    []func(JobError)
	onComplete []func(JobComplete)

	mu      sync.Mutex
	results []aggregate.Result
	ok      []bool
	reasons []string

	logger *zap.Logger
}

func newHandle(id, scope string, player aggregate.Player, budget aggregate.Budget, targets []string, buffer int, logger *zap.Logger) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		id:      id,
		scope:   scope,
		player:  player,
		budget:  budget,
		targets: targets,
		ctx:     ctx,
		cancel:  cancel,
		msgs:    make(chan Message, buffer),
		done:    make(chan struct{}),
		results: make([]aggregate.Result, len(targets)),
		ok:      make([]bool, len(targets)),
		logger:  logger,
	}
}

// ID returns the job id.
func (h *Handle) ID() string { return h.id }

// Scope returns the job scope.
func (h *Handle) Scope() string { return h.scope }

// Targets returns a copy of the resolved target ids.
func (h *Handle) Targets() []string { return append([]string(nil), h.targets...) }

// Seed returns the seed the job runs with.
func (h *Handle) Seed() uint64 { return h.budget.Seed }

// State returns the current lifecycle state.
func (h *Handle) State() State { return State(h.state.Load()) }

// Done is closed once the last message of the job has been delivered, or
// dropped after cancellation.
func (h *Handle) Done() <-chan struct{} { return h.done }

// OnProgress registers cb for Progress messages.
func (h *Handle) OnProgress(cb func(Progress)) {
	h.deliver.Lock()
	defer h.deliver.Unlock()
	for _, m := range h.history {
		if p, ok := m.(Progress); ok {
			h.call(func() { cb(p) })
		}
	}
	h.onProgress = append(h.onProgress, cb)
}

// OnTargetResult registers cb for TargetResult messages.
func (h *Handle) OnTargetResult(cb func(TargetResult)) {
	h.deliver.Lock()
	defer h.deliver.Unlock()
	for _, m := range h.history {
		if r, ok := m.(TargetResult); ok {
			h.call(func() { cb(r) })
		}
	}
	h.onResult = append(h.onResult, cb)
}

// OnError registers cb for JobError messages.
func (h *Handle) OnError(cb func(JobError)) {
	h.deliver.Lock()
	defer h.deliver.Unlock()
	for _, m := range h.history {
		if e, ok := m.(JobError); ok {
			h.call(func() { cb(e) })
		}
	}
	h.onError = append(h.onError, cb)
}

// OnComplete registers cb for the JobComplete message.
func (h *Handle) OnComplete(cb func(JobComplete)) {
	h.deliver.Lock()
	defer h.deliver.Unlock()
	for _, m := range h.history {
		if c, ok := m.(JobComplete); ok {
			h.call(func() { cb(c) })
		}
	}
	h.onComplete = append(h.onComplete, cb)
}

// dispatch delivers every published message until msgs is closed.
func (h *Handle) dispatch() {
	defer close(h.done)
	for m := range h.msgs {
		h.deliver.Lock()
		if !h.cancelled {
			h.history = append(h.history, m)
			h.deliverLocked(m)
		}
		h.deliver.Unlock()
	}
}

func (h *Handle) deliverLocked(m Message) {
	switch m := m.(type) {
	case Progress:
		for _, cb := range h.onProgress {
			h.call(func() { cb(m) })
		}
	case TargetResult:
		for _, cb := range h.onResult {
			h.call(func() { cb(m) })
		}
	case JobError:
		for _, cb := range h.onError {
			h.call(func() { cb(m) })
		}
	case JobComplete:
		for _, cb := range h.onComplete {
			h.call(func() { cb(m) })
		}
	}
}

// call runs a callback, logging instead of propagating its panic.
func (h *Handle) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("job callback panicked",
				zap.String("job_id", h.id),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

// publish queues m for delivery. Messages are dropped once the job is
// cancelled.
func (h *Handle) publish(m Message) {
	select {
	case h.msgs <- m:
	case <-h.ctx.Done():
	}
}

// abort cancels the job. It reports false if the job was already cancelled.
//
// Postcondition: No message is delivered after abort returns.
func (h *Handle) abort() bool {
	h.deliver.Lock()
	defer h.deliver.Unlock()
	if h.cancelled {
		return false
	}
	h.cancelled = true
	h.cancel()
	h.state.Store(int32(StateCancelled))
	return true
}

func (h *Handle) succeed(i int, r aggregate.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results[i] = r
	h.ok[i] = true
}

func (h *Handle) fail(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, reason)
}

// outcome returns the successful results in target order and the failure
// reasons in the order they occurred.
func (h *Handle) outcome() ([]aggregate.Result, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var rs []aggregate.Result
	for i, ok := range h.ok {
		if ok {
			rs = append(rs, h.results[i])
		}
	}
	return rs, append([]string(nil), h.reasons...)
}
