package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/job"
	"github.com/cory-johannsen/idlesim/internal/sim/result"
	"github.com/cory-johannsen/idlesim/internal/testutil"
	"github.com/cory-johannsen/idlesim/internal/transport/ws"
)

const frameTimeout = 30 * time.Second

type fixture struct {
	store   *result.Store
	current *loadout.Current
	client  *testutil.WSClient
}

func setup(t *testing.T) *fixture {
	t.Helper()
	reg := testutil.Registry(t)

	store := result.NewStore()
	sched := job.NewScheduler(job.Options{Workers: 2, Policy: job.PolicyReject, MessageBuffer: 32}, reg, store, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sched.Start(ctx) }()

	current := loadout.NewCurrent(testutil.Loadout(t, "melee.yaml"))
	budget := aggregate.Budget{Trials: 10, Mode: aggregate.ModeAuto, MaxEncounterMs: 600_000, SpawnDelayMs: 3000, ProgressEvery: 5, Seed: 3}
	srv := httptest.NewServer(ws.NewServer(sched, store, reg, current, budget, zap.NewNop()))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &fixture{store: store, current: current, client: testutil.NewWSClient(t, srv.URL)}
}

func TestStartJob_StreamsToCompletion(t *testing.T) {
	fx := setup(t)
	fx.client.Send(map[string]any{
		"type":    "start_job",
		"targets": []string{"chicken", "cow"},
		"budget":  map[string]any{"trials": 10, "mode": "montecarlo"},
	})

	frames := fx.client.ReadUntil(ws.TypeJobComplete, frameTimeout)
	require.Equal(t, ws.TypeJobStarted, frames[0].Type())
	jobID, _ := frames[0]["jobId"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "selected", frames[0]["scope"])

	var results int
	for _, f := range frames[1:] {
		assert.Equal(t, jobID, f["jobId"])
		switch f.Type() {
		case ws.TypeProgress:
			assert.EqualValues(t, 10, f["total"])
		case ws.TypeTargetResult:
			results++
			res, ok := f["result"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "montecarlo", res["method"])
		}
	}
	assert.Equal(t, 2, results)
	last := frames[len(frames)-1]
	assert.Contains(t, last, "aggregate")
	assert.Len(t, fx.store.All("selected"), 2)
}

func TestGetResults_ServesStoredScope(t *testing.T) {
	fx := setup(t)
	fx.client.Send(map[string]any{"type": "get_results", "scope": "nightly"})
	f := fx.client.Read(frameTimeout)
	require.Equal(t, ws.TypeResults, f.Type())
	assert.Equal(t, "nightly", f["scope"])
	assert.Empty(t, f["results"])
	assert.NotContains(t, f, "jobId")

	fx.client.Send(map[string]any{
		"type":    "start_job",
		"scope":   "nightly",
		"targets": []string{"cow", "chicken"},
		"budget":  map[string]any{"trials": 10, "mode": "montecarlo"},
	})
	frames := fx.client.ReadUntil(ws.TypeJobComplete, frameTimeout)
	jobID := frames[0]["jobId"]

	fx.client.Send(map[string]any{"type": "get_results", "scope": "nightly"})
	f = fx.client.Read(frameTimeout)
	require.Equal(t, ws.TypeResults, f.Type())
	assert.Equal(t, jobID, f["jobId"])
	records, ok := f["results"].([]any)
	require.True(t, ok)
	require.Len(t, records, 2)
	first, ok := records[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "chicken", first["targetId"], "records are ordered by target id")
	assert.Contains(t, f, "aggregate")
}

func TestCancelJob_NoResultsAfterAck(t *testing.T) {
	fx := setup(t)
	fx.client.Send(map[string]any{
		"type":    "start_job",
		"jobId":   "long-job",
		"targets": []string{"goblin", "hill_giant", "fire_drake"},
		"budget":  map[string]any{"trials": 20_000, "progressEvery": 1, "mode": "montecarlo"},
	})
	fx.client.ReadUntil(ws.TypeProgress, frameTimeout)

	fx.client.Send(map[string]any{"type": "cancel_job", "jobId": "long-job"})
	frames := fx.client.ReadUntil(ws.TypeCancelAck, frameTimeout)
	for _, f := range frames {
		assert.NotEqual(t, ws.TypeJobComplete, f.Type())
	}

	f, err := fx.client.TryRead(300 * time.Millisecond)
	require.Error(t, err, "frame delivered after cancel_ack: %v", f)
}

func TestSetLoadout_InvalidatesStoredResults(t *testing.T) {
	fx := setup(t)
	fx.store.Begin("selected", "old")
	require.NoError(t, fx.store.Put("selected", "old", "cow", aggregate.Result{}))

	data, err := os.ReadFile(testutil.RepoPath("loadouts", "melee.yaml"))
	require.NoError(t, err)
	yaml := strings.Replace(string(data), "style: aggressive", "style: defensive", 1)
	fx.client.Send(map[string]any{"type": "set_loadout", "loadout": yaml})

	f := fx.client.Read(frameTimeout)
	require.Equal(t, ws.TypeLoadoutSet, f.Type())
	assert.Empty(t, fx.store.All("selected"))
	assert.Equal(t, loadout.StyleDefensive, fx.current.CurrentLoadout().Style)
}

func TestErrors_AnsweredWithoutClosing(t *testing.T) {
	fx := setup(t)

	fx.client.SendRaw([]byte("{not json"))
	f := fx.client.Read(frameTimeout)
	assert.Equal(t, ws.TypeError, f.Type())
	assert.Contains(t, f["reason"], "malformed frame")

	fx.client.Send(map[string]any{"type": "dance"})
	f = fx.client.Read(frameTimeout)
	assert.Equal(t, ws.TypeError, f.Type())
	assert.Equal(t, "dance", f["request"])

	fx.client.Send(map[string]any{"type": "start_job", "targets": []string{}})
	f = fx.client.Read(frameTimeout)
	assert.Equal(t, ws.TypeError, f.Type())
	assert.Contains(t, f["reason"], "no targets")

	fx.client.Send(map[string]any{"type": "start_job", "targets": []string{"cow"}, "budget": map[string]any{"bogus": 1}})
	f = fx.client.Read(frameTimeout)
	assert.Equal(t, ws.TypeError, f.Type())
	assert.Contains(t, f["reason"], "budget")

	fx.client.Send(map[string]any{"type": "cancel_job", "jobId": "ghost"})
	f = fx.client.Read(frameTimeout)
	assert.Equal(t, ws.TypeError, f.Type())
	assert.Contains(t, f["reason"], "unknown job")

	fx.client.Send(map[string]any{"type": "set_loadout", "loadout": "style: [broken"})
	f = fx.client.Read(frameTimeout)
	assert.Equal(t, ws.TypeError, f.Type())
}

func TestStartJob_FailedTargetsReported(t *testing.T) {
	fx := setup(t)
	fx.client.Send(map[string]any{"type": "start_job", "targets": []string{"unicorn"}})

	frames := fx.client.ReadUntil(ws.TypeJobComplete, frameTimeout)
	var errs []testutil.Frame
	for _, f := range frames {
		if f.Type() == ws.TypeJobError {
			errs = append(errs, f)
		}
	}
	require.Len(t, errs, 2)
	assert.Equal(t, "unicorn", errs[0]["targetId"])
	assert.NotContains(t, errs[1], "targetId")
	assert.NotContains(t, frames[len(frames)-1], "aggregate")
}

func TestFrames_FlattenMessages(t *testing.T) {
	b, err := json.Marshal(ws.ProgressFrame{Type: ws.TypeProgress, Progress: job.Progress{JobID: "j", TargetID: "t", Processed: 1, Total: 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","jobId":"j","targetId":"t","processed":1,"total":2}`, string(b))
}
