package aggregate

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/dice"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
	"github.com/cory-johannsen/idlesim/internal/sim/target"
)

// Progress receives the number of encounters evaluated for a target out of
// total. processed never decreases.
type Progress func(processed, total int)

// RunTarget evaluates every stage of t and composes the result. Repeated
// monsters within t are evaluated once.
//
// Precondition: b must pass Validate; src must be non-nil and owned by the
// caller for the duration of the call.
// Postcondition: Returns ctx.Err() if cancelled between encounters; the
// final progress report has processed == total.
func RunTarget(ctx context.Context, pl Player, t target.Target, b Budget, src dice.Source, progress Progress) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	if len(t.Stages) == 0 {
		return Result{}, fmt.Errorf("target %q: no stages", t.ID)
	}
	if progress == nil {
		progress = func(int, int) {}
	}

	sim := combat.NewSimulator(src, combat.Options{MaxDurationMs: b.MaxEncounterMs})
	total := len(t.Stages) * b.Trials
	done := 0
	cache := make(map[string]StageStats, len(t.Stages))
	stages := make([]StageStats, 0, len(t.Stages))
	for _, st := range t.Stages {
		if s, ok := cache[st.Opponent.ID]; ok {
			stages = append(stages, s)
			done += b.Trials
			progress(done, total)
			continue
		}
		s, err := evaluateStage(ctx, sim, pl, st, t.Prices, b, func(n int) { progress(done+n, total) })
		if err != nil {
			return Result{}, err
		}
		done += b.Trials
		cache[st.Opponent.ID] = s
		stages = append(stages, s)
	}

	var reward loot.Drop
	if t.Composite() {
		reward = loot.RewardValue(t.Reward, t.Prices, pl.Profile.Stats)
	}
	r := Compose(pl, stages, reward)
	r.TargetID, r.Name, r.Kind = t.ID, t.Name, string(t.Kind)
	if !t.Composite() {
		r.Stages = nil
	}
	return r, nil
}

func evaluateStage(ctx context.Context, sim *combat.Simulator, pl Player, st target.Stage, prices loot.Prices, b Budget, report func(int)) (StageStats, error) {
	if b.Mode != ModeMonteCarlo {
		if s, ok := analyticalStage(pl, st, prices, b); ok {
			report(b.Trials)
			return s, nil
		}
	}
	return monteCarloStage(ctx, sim, pl, st, prices, b, report)
}

// Run evaluates targets sequentially; target i draws from the stream
// (b.Seed, i). progress may be nil.
//
// Precondition: b must pass Validate.
// Postcondition: Returns one Result per target in order, or the first error.
func Run(ctx context.Context, pl Player, targets []target.Target, b Budget, progress func(targetID string, processed, total int)) ([]Result, error) {
	results := make([]Result, 0, len(targets))
	for i, t := range targets {
		var report Progress
		if progress != nil {
			report = func(processed, total int) { progress(t.ID, processed, total) }
		}
		r, err := RunTarget(ctx, pl, t, b, dice.NewSource(b.Seed, uint64(i)), report)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", t.ID, err)
		}
		results = append(results, r)
	}
	return results, nil
}
