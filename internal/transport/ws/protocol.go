// Package ws exposes the job scheduler to clients over websocket JSON frames.
// Every frame is an object with a "type" discriminator.
package ws

import (
	"encoding/json"

	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/job"
	"github.com/cory-johannsen/idlesim/internal/sim/result"
)

// Inbound frame types.
const (
	TypeStartJob   = "start_job"
	TypeCancelJob  = "cancel_job"
	TypeSetLoadout = "set_loadout"
	TypeGetResults = "get_results"
)

// Outbound frame types.
const (
	TypeJobStarted   = "job_started"
	TypeProgress     = "progress"
	TypeTargetResult = "target_result"
	TypeJobComplete  = "job_complete"
	TypeJobError     = "job_error"
	TypeCancelAck    = "cancel_ack"
	TypeLoadoutSet   = "loadout_set"
	TypeResults      = "results"
	TypeError        = "error"
)

// Request is an inbound frame. Fields not used by Type are ignored.
type Request struct {
	Type  string `json:"type"`
	JobID string `json:"jobId,omitempty"`
	// Scope defaults to Mode for start_job and to "selected" for
	// get_results.
	Scope string `json:"scope,omitempty"`
	// Loadout is a YAML loadout; start_job falls back to the current one
	// when empty.
	Loadout string   `json:"loadout,omitempty"`
	Targets []string `json:"targets,omitempty"`
	Mode    string   `json:"mode,omitempty"`
	// Budget overrides individual fields of the server's default budget.
	Budget json.RawMessage `json:"budget,omitempty"`
}

// JobStarted acknowledges start_job.
type JobStarted struct {
	Type    string   `json:"type"`
	JobID   string   `json:"jobId"`
	Scope   string   `json:"scope"`
	Targets []string `json:"targets"`
	Seed    uint64   `json:"seed"`
}

// ProgressFrame wraps job.Progress.
type ProgressFrame struct {
	Type string `json:"type"`
	job.Progress
}

// TargetResultFrame wraps job.TargetResult.
type TargetResultFrame struct {
	Type string `json:"type"`
	job.TargetResult
}

// JobErrorFrame wraps job.JobError.
type JobErrorFrame struct {
	Type string `json:"type"`
	job.JobError
}

// JobCompleteFrame wraps job.JobComplete.
type JobCompleteFrame struct {
	Type string `json:"type"`
	job.JobComplete
}

// Results answers get_results with the stored results of a scope. JobID is
// empty when the scope holds nothing.
type Results struct {
	Type      string            `json:"type"`
	Scope     string            `json:"scope"`
	JobID     string            `json:"jobId,omitempty"`
	Results   []result.Record   `json:"results"`
	Aggregate *aggregate.Result `json:"aggregate,omitempty"`
}

// Ack answers cancel_job and set_loadout.
type Ack struct {
	Type  string `json:"type"`
	JobID string `json:"jobId,omitempty"`
}

// Error reports a request the server rejected synchronously.
type Error struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	JobID   string `json:"jobId,omitempty"`
	Reason  string `json:"reason"`
}
