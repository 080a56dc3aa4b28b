// Package job schedules simulation jobs onto a fixed pool of workers and
// streams their progress and results back to the submitter.
package job

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/idlesim/internal/config"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
)

var (
	// ErrDuplicateScope is returned by Submit when the scope already has an
	// active job and the policy is PolicyReject.
	ErrDuplicateScope = errors.New("scope already has an active job")
	// ErrUnknownJob is returned by Cancel for ids that are not active.
	ErrUnknownJob = errors.New("unknown job")
	// ErrNoTargets is returned by Submit when the job resolves to no targets.
	ErrNoTargets = errors.New("job has no targets")
	// ErrSchedulerClosed is returned by Submit after the scheduler stopped.
	ErrSchedulerClosed = errors.New("scheduler closed")
	// ErrWorkerPanic wraps a panic recovered while evaluating a target.
	ErrWorkerPanic = errors.New("worker panic")
)

// Mode selects which targets a job covers.
type Mode string

const (
	// ModeAll covers every monster and dungeon in the game data.
	ModeAll Mode = "all"
	// ModeSelected covers the job's explicit target list.
	ModeSelected Mode = "selected"
)

// Policy decides what happens when a job is submitted for a busy scope.
type Policy string

const (
	PolicyReject    Policy = "reject"
	PolicySupersede Policy = "supersede"
)

// State is the lifecycle stage of a job.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Job is a request to evaluate one loadout against a set of targets.
type Job struct {
	// ID identifies the job; Submit assigns a UUID when empty.
	ID string
	// Scope groups jobs that must not run concurrently.
	Scope    string
	Mode     Mode
	Snapshot *loadout.Snapshot
	// Targets lists monster or dungeon ids for ModeSelected.
	Targets []string
	// Budget bounds the work per target. A zero Seed is replaced by a
	// random one at submission.
	Budget aggregate.Budget
}

// Options configures a Scheduler.
type Options struct {
	Workers       int
	Policy        Policy
	MessageBuffer int
	// DevMode logs unrecognised loadout modifiers at submission.
	DevMode bool
}

// OptionsFromConfig returns the scheduler options described by c.
func OptionsFromConfig(c config.Config) Options {
	return Options{
		Workers:       c.Simulation.Workers,
		Policy:        Policy(c.Scheduler.DuplicatePolicy),
		MessageBuffer: c.Scheduler.MessageBuffer,
		DevMode:       c.Simulation.DevMode,
	}
}

// Message is one event published for a job. The concrete types are
// Progress, TargetResult, JobError and JobComplete.
type Message interface {
	jobID() string
}

// Progress reports encounters evaluated for one target.
type Progress struct {
	JobID     string `json:"jobId"`
	TargetID  string `json:"targetId"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// TargetResult carries the finished result of one target.
type TargetResult struct {
	JobID    string           `json:"jobId"`
	TargetID string           `json:"targetId"`
	Result   aggregate.Result `json:"result"`
}

// JobError reports a failed target, or the whole job when TargetID is empty.
type JobError struct {
	JobID    string `json:"jobId"`
	TargetID string `json:"targetId,omitempty"`
	Reason   string `json:"reason"`
}

// JobComplete is the last message of a job that was not cancelled.
// Aggregate is set when more than one target succeeded.
type JobComplete struct {
	JobID     string            `json:"jobId"`
	Aggregate *aggregate.Result `json:"aggregate,omitempty"`
}

func (m Progress) jobID() string     { return m.JobID }
func (m TargetResult) jobID() string { return m.JobID }
func (m JobError) jobID() string     { return m.JobID }
func (m JobComplete) jobID() string  { return m.JobID }
