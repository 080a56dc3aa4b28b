// Package result holds the latest simulation results per scope and target.
package result

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
)

// ErrStaleJob is returned when a write comes from a job that is not the
// active job of its scope.
var ErrStaleJob = errors.New("stale job")

// Record is one stored target result.
type Record struct {
	Scope    string           `json:"scope"`
	JobID    string           `json:"jobId"`
	TargetID string           `json:"targetId"`
	Result   aggregate.Result `json:"result"`
	StoredAt time.Time        `json:"storedAt"`
}

type scopeState struct {
	// active is the job allowed to write; empty once it has ended.
	active string
	// jobID is the job that produced records.
	jobID   string
	records map[string]Record
	rollup  *aggregate.Result
}

// Store keeps the results of the most recent job per scope. Writes are
// accepted only from the scope's active job.
// All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	scopes map[string]*scopeState
	now    func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{scopes: make(map[string]*scopeState), now: time.Now}
}

// Begin makes jobID the active job of scope and discards the scope's
// previous results.
//
// Precondition: scope and jobID must be non-empty.
func (s *Store) Begin(scope, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope] = &scopeState{active: jobID, jobID: jobID, records: make(map[string]Record)}
}

// Put stores r for targetID, replacing any earlier record.
//
// Postcondition: Returns an error wrapping ErrStaleJob, leaving the store
// unchanged, unless jobID is the active job of scope.
func (s *Store) Put(scope, jobID, targetID string, r aggregate.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.writable(scope, jobID)
	if err != nil {
		return err
	}
	st.records[targetID] = Record{Scope: scope, JobID: jobID, TargetID: targetID, Result: r, StoredAt: s.now()}
	return nil
}

// PutRollup stores the combined result of the scope's job.
//
// Postcondition: Same acceptance rule as Put.
func (s *Store) PutRollup(scope, jobID string, r aggregate.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.writable(scope, jobID)
	if err != nil {
		return err
	}
	st.rollup = &r
	return nil
}

// End closes jobID for writing. Its records stay readable until the next
// Begin, Clear or Invalidate. Ending a job that is not active is a no-op.
func (s *Store) End(scope, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.scopes[scope]; ok && st.active == jobID {
		st.active = ""
	}
}

func (s *Store) writable(scope, jobID string) (*scopeState, error) {
	st, ok := s.scopes[scope]
	if !ok || st.active == "" || st.active != jobID {
		return nil, fmt.Errorf("job %s in scope %q: %w", jobID, scope, ErrStaleJob)
	}
	return st, nil
}

// Get returns the record stored for targetID in scope.
func (s *Store) Get(scope, targetID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.scopes[scope]
	if !ok {
		return Record{}, false
	}
	r, ok := st.records[targetID]
	return r, ok
}

// All returns every record of scope ordered by target id.
func (s *Store) All(scope string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.scopes[scope]
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(st.records))
	for _, r := range st.records {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Record) int {
		switch {
		case a.TargetID < b.TargetID:
			return -1
		case a.TargetID > b.TargetID:
			return 1
		}
		return 0
	})
	return out
}

// Rollup returns the combined result of scope, if one was stored.
func (s *Store) Rollup(scope string) (aggregate.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.scopes[scope]
	if !ok || st.rollup == nil {
		return aggregate.Result{}, false
	}
	return *st.rollup, true
}

// JobID returns the job whose results scope currently holds.
func (s *Store) JobID(scope string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.scopes[scope]
	if !ok {
		return "", false
	}
	return st.jobID, true
}

// Clear discards scope. Later writes from its job are rejected.
func (s *Store) Clear(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, scope)
}

// Invalidate discards every scope after a loadout change.
//
// Postcondition: Every in-flight job becomes stale.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = make(map[string]*scopeState)
}
