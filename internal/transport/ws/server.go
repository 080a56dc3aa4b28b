package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/job"
	"github.com/cory-johannsen/idlesim/internal/sim/result"
)

// writeBuffer is the number of frames queued per connection.
const writeBuffer = 256

// Server is an http.Handler upgrading each request to a websocket session.
type Server struct {
	sched   *job.Scheduler
	store   *result.Store
	lookup  gamedata.Lookup
	current *loadout.Current
	budget  aggregate.Budget
	logger  *zap.Logger
}

// NewServer creates a Server. budget supplies the fields a start_job frame
// leaves unset.
//
// Precondition: every argument must be non-nil.
func NewServer(sched *job.Scheduler, store *result.Store, lookup gamedata.Lookup, current *loadout.Current, budget aggregate.Budget, logger *zap.Logger) *Server {
	return &Server{sched: sched, store: store, lookup: lookup, current: current, budget: budget, logger: logger}
}

// ServeHTTP accepts the websocket and serves it until either side closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 20)

	sess := &session{
		srv:    s,
		conn:   conn,
		out:    make(chan any, writeBuffer),
		jobs:   make(map[string]bool),
		logger: s.logger.With(zap.String("remote", r.RemoteAddr)),
	}
	sess.logger.Debug("session opened")
	err = sess.run(r.Context())
	sess.cancelJobs()
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		sess.logger.Debug("session closed")
	default:
		if err != nil && !errors.Is(err, context.Canceled) {
			sess.logger.Info("session ended", zap.Error(err))
		}
	}
}

type session struct {
	srv    *Server
	conn   *websocket.Conn
	out    chan any
	logger *zap.Logger

	ctx context.Context

	mu   sync.Mutex
	jobs map[string]bool // jobs started on this connection
}

func (ss *session) run(parent context.Context) error {
	g, ctx := errgroup.WithContext(parent)
	ss.ctx = ctx
	g.Go(func() error { return ss.readLoop(ctx) })
	g.Go(func() error { return ss.writeLoop(ctx) })
	return g.Wait()
}

// readLoop decodes frames itself so that a malformed frame is answered
// instead of closing the connection.
func (ss *session) readLoop(ctx context.Context) error {
	for {
		_, data, err := ss.conn.Read(ctx)
		if err != nil {
			return err
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			ss.send(Error{Type: TypeError, Reason: fmt.Sprintf("malformed frame: %v", err)})
			continue
		}
		ss.handle(ctx, req)
	}
}

func (ss *session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v := <-ss.out:
			if err := wsjson.Write(ctx, ss.conn, v); err != nil {
				return err
			}
		}
	}
}

// send queues v for the writer, giving up when the session ends.
func (ss *session) send(v any) {
	select {
	case ss.out <- v:
	case <-ss.ctx.Done():
	}
}

func (ss *session) handle(ctx context.Context, req Request) {
	switch req.Type {
	case TypeStartJob:
		ss.startJob(ctx, req)
	case TypeCancelJob:
		ss.cancelJob(req)
	case TypeSetLoadout:
		ss.setLoadout(req)
	case TypeGetResults:
		ss.getResults(req)
	default:
		ss.send(Error{Type: TypeError, Request: req.Type, Reason: fmt.Sprintf("unknown frame type %q", req.Type)})
	}
}

func (ss *session) startJob(ctx context.Context, req Request) {
	reject := func(err error) {
		ss.logger.Debug("start_job rejected", zap.String("job_id", req.JobID), zap.Error(err))
		ss.send(Error{Type: TypeError, Request: req.Type, JobID: req.JobID, Reason: err.Error()})
	}

	cfg := ss.srv.current.CurrentLoadout()
	if req.Loadout != "" {
		c, err := loadout.Parse([]byte(req.Loadout))
		if err != nil {
			reject(err)
			return
		}
		cfg = c
	}
	snap, err := loadout.Freeze(cfg, ss.srv.lookup)
	if err != nil {
		reject(err)
		return
	}
	b := ss.srv.budget
	if len(req.Budget) > 0 {
		dec := json.NewDecoder(bytes.NewReader(req.Budget))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			reject(fmt.Errorf("decoding budget: %w", err))
			return
		}
	}
	mode := job.Mode(req.Mode)
	if mode == "" {
		mode = job.ModeSelected
	}
	scope := req.Scope
	if scope == "" {
		scope = string(mode)
	}

	h, err := ss.srv.sched.Submit(ctx, job.Job{
		ID:       req.JobID,
		Scope:    scope,
		Mode:     mode,
		Snapshot: snap,
		Targets:  req.Targets,
		Budget:   b,
	})
	if err != nil {
		reject(err)
		return
	}
	ss.mu.Lock()
	ss.jobs[h.ID()] = true
	ss.mu.Unlock()

	ss.send(JobStarted{Type: TypeJobStarted, JobID: h.ID(), Scope: h.Scope(), Targets: h.Targets(), Seed: h.Seed()})
	h.OnProgress(func(m job.Progress) { ss.send(ProgressFrame{Type: TypeProgress, Progress: m}) })
	h.OnTargetResult(func(m job.TargetResult) { ss.send(TargetResultFrame{Type: TypeTargetResult, TargetResult: m}) })
	h.OnError(func(m job.JobError) { ss.send(JobErrorFrame{Type: TypeJobError, JobError: m}) })
	h.OnComplete(func(m job.JobComplete) {
		ss.forget(m.JobID)
		ss.send(JobCompleteFrame{Type: TypeJobComplete, JobComplete: m})
	})
}

func (ss *session) cancelJob(req Request) {
	if err := ss.srv.sched.Cancel(req.JobID); err != nil {
		ss.send(Error{Type: TypeError, Request: req.Type, JobID: req.JobID, Reason: err.Error()})
		return
	}
	ss.forget(req.JobID)
	ss.send(Ack{Type: TypeCancelAck, JobID: req.JobID})
}

// setLoadout replaces the current loadout. Stored results no longer
// describe it and are discarded.
func (ss *session) setLoadout(req Request) {
	c, err := loadout.Parse([]byte(req.Loadout))
	if err == nil {
		_, err = loadout.Freeze(c, ss.srv.lookup)
	}
	if err != nil {
		ss.send(Error{Type: TypeError, Request: req.Type, Reason: err.Error()})
		return
	}
	ss.srv.current.Set(c)
	ss.srv.store.Invalidate()
	ss.logger.Info("loadout replaced")
	ss.send(Ack{Type: TypeLoadoutSet})
}

// getResults answers with whatever the store holds for the scope, including
// partial results of a running or cancelled job.
func (ss *session) getResults(req Request) {
	scope := req.Scope
	if scope == "" {
		scope = string(job.ModeSelected)
	}
	store := ss.srv.store
	out := Results{Type: TypeResults, Scope: scope, Results: store.All(scope)}
	if out.Results == nil {
		out.Results = []result.Record{}
	}
	out.JobID, _ = store.JobID(scope)
	if r, ok := store.Rollup(scope); ok {
		out.Aggregate = &r
	}
	ss.send(out)
}

func (ss *session) forget(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.jobs, id)
}

// cancelJobs cancels every job this session started that is still active.
func (ss *session) cancelJobs() {
	ss.mu.Lock()
	ids := make([]string, 0, len(ss.jobs))
	for id := range ss.jobs {
		ids = append(ids, id)
	}
	ss.jobs = make(map[string]bool)
	ss.mu.Unlock()
	for _, id := range ids {
		if err := ss.srv.sched.Cancel(id); err != nil && !errors.Is(err, job.ErrUnknownJob) {
			ss.logger.Warn("cancel on disconnect failed", zap.String("job_id", id), zap.Error(err))
		}
	}
}
