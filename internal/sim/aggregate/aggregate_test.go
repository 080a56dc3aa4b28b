package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlesim/internal/config"
	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/dice"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
	"github.com/cory-johannsen/idlesim/internal/sim/target"
)

func player() aggregate.Player {
	return aggregate.Player{Profile: combat.Profile{Stats: stats.CombatStats{
		AttackType:       gamedata.Melee,
		AttackIntervalMs: 2400,
		MinHit:           1,
		MaxHit:           10,
		MaxAccuracy:      1000,
		MaxHitpoints:     1000,
		GPMultiplier:     1,
		XPMultiplier:     1,
	}}}
}

func dummy(id string, hp int) target.Stage {
	return target.Stage{
		Opponent: combat.Opponent{ID: id, Name: id, Stats: stats.CombatStats{
			AttackType:       gamedata.Melee,
			AttackIntervalMs: 2400,
			MaxHitpoints:     hp,
		}},
		Loot: gamedata.LootTable{GP: gamedata.GPRange{Min: 10, Max: 30}},
	}
}

func monster(st target.Stage) target.Target {
	return target.Target{ID: st.Opponent.ID, Name: st.Opponent.Name, Kind: target.KindMonster, Stages: []target.Stage{st}, Prices: loot.Prices{}}
}

func budget(mode aggregate.Mode, trials int) aggregate.Budget {
	return aggregate.Budget{Trials: trials, Mode: mode, MaxEncounterMs: 3_600_000, ProgressEvery: 100, Seed: 11}
}

func TestBudgetFromConfig(t *testing.T) {
	b := aggregate.BudgetFromConfig(config.SimulationConfig{
		Trials:         500,
		Mode:           "analytical",
		MaxEncounterMs: 60_000,
		SpawnDelayMs:   3000,
		ProgressEvery:  50,
		Seed:           9,
	})
	assert.Equal(t, aggregate.Budget{Trials: 500, Mode: aggregate.ModeAnalytical, MaxEncounterMs: 60_000, SpawnDelayMs: 3000, ProgressEvery: 50, Seed: 9}, b)
	require.NoError(t, b.Validate())
}

func TestBudget_Validate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*aggregate.Budget)
		want string
	}{
		{"no trials", func(b *aggregate.Budget) { b.Trials = 0 }, "trials must be >= 1"},
		{"bad mode", func(b *aggregate.Budget) { b.Mode = "guess" }, `got "guess"`},
		{"no encounter time", func(b *aggregate.Budget) { b.MaxEncounterMs = 0 }, "max encounter time"},
		{"negative spawn delay", func(b *aggregate.Budget) { b.SpawnDelayMs = -1 }, "spawn delay"},
		{"negative progress", func(b *aggregate.Budget) { b.ProgressEvery = -5 }, "progress interval"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := budget(aggregate.ModeAuto, 10)
			tc.mut(&b)
			err := b.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid budget")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBudget_ValidateReportsEveryViolation(t *testing.T) {
	err := aggregate.Budget{Mode: aggregate.ModeAuto}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trials")
	assert.Contains(t, err.Error(), "max encounter time")
}

func TestExpectedAttacksToKill(t *testing.T) {
	one := []float64{0, 1}

	got, ok := aggregate.ExpectedAttacksToKill(20, 1, one)
	require.True(t, ok)
	assert.InDelta(t, 20, got, 1e-9)

	got, ok = aggregate.ExpectedAttacksToKill(20, 0.5, one)
	require.True(t, ok)
	assert.InDelta(t, 40, got, 1e-9)

	got, ok = aggregate.ExpectedAttacksToKill(0, 0.5, one)
	require.True(t, ok)
	assert.Zero(t, got)

	_, ok = aggregate.ExpectedAttacksToKill(20, 0, one)
	assert.False(t, ok, "never hits")

	_, ok = aggregate.ExpectedAttacksToKill(20, 1, []float64{1})
	assert.False(t, ok, "every hit is fully reduced")
}

func TestDamageDistribution_ReducesHits(t *testing.T) {
	dist := aggregate.DamageDistribution(1, 4, 50)
	// 1->0, 2->1, 3->1, 4->2
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.25, 0, 0}, dist, 1e-12)
}

func TestDamageDistribution_SumsToOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(0, 200).Draw(rt, "min")
		hi := rapid.IntRange(lo, lo+300).Draw(rt, "max")
		dr := rapid.Float64Range(0, 100).Draw(rt, "dr")

		sum := 0.0
		for _, p := range aggregate.DamageDistribution(lo, hi, dr) {
			require.GreaterOrEqual(rt, p, 0.0)
			sum += p
		}
		assert.InDelta(rt, 1, sum, 1e-9)
	})
}

func TestRunTarget_AnalyticalAgreesWithMonteCarlo(t *testing.T) {
	tg := monster(dummy("dummy", 100))
	pl := player()

	an, err := aggregate.RunTarget(context.Background(), pl, tg, budget(aggregate.ModeAnalytical, 1), dice.NewSource(1, 0), nil)
	require.NoError(t, err)
	mc, err := aggregate.RunTarget(context.Background(), pl, tg, budget(aggregate.ModeMonteCarlo, 4000), dice.NewSource(1, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, aggregate.MethodAnalytical, an.Method)
	assert.Equal(t, aggregate.MethodMonteCarlo, mc.Method)
	assert.InEpsilon(t, an.AvgKillTimeMs, mc.AvgKillTimeMs, 0.02)
	assert.InEpsilon(t, an.XPPerHour, mc.XPPerHour, 0.02)
	assert.InEpsilon(t, an.GPPerHour, mc.GPPerHour, 0.02)
	assert.InEpsilon(t, an.DPS, mc.DPS, 0.02)
	assert.Zero(t, an.DeathRate)
	assert.Zero(t, mc.DeathRate)
	assert.Equal(t, 1.0, an.HitChance)
	assert.Nil(t, an.Stages)
}

func TestRunTarget_AutoFallsBackWhenEnemyCanHit(t *testing.T) {
	st := dummy("biter", 100)
	st.Opponent.Stats.MaxHit = 5
	st.Opponent.Stats.MaxAccuracy = 1000

	r, err := aggregate.RunTarget(context.Background(), player(), monster(st), budget(aggregate.ModeAuto, 200), dice.NewSource(2, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, aggregate.MethodMonteCarlo, r.Method)
	assert.Equal(t, 200, r.Encounters)
	assert.Positive(t, r.DamageTakenPerHour)
}

func TestRunTarget_UnkillableMonsterTimesOutWithoutDeaths(t *testing.T) {
	b := budget(aggregate.ModeAuto, 20)
	b.MaxEncounterMs = 60_000

	r, err := aggregate.RunTarget(context.Background(), player(), monster(dummy("wall", 1_000_000)), b, dice.NewSource(3, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, aggregate.MethodMonteCarlo, r.Method)
	assert.Equal(t, 20, r.Timeouts)
	assert.Zero(t, r.Deaths)
	assert.Zero(t, r.DeathRate)
	assert.Zero(t, r.KillsPerHour)
	assert.Zero(t, r.HighestHitTaken)
}

func TestRunTarget_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := aggregate.RunTarget(ctx, player(), monster(dummy("dummy", 100)), budget(aggregate.ModeMonteCarlo, 10), dice.NewSource(1, 0), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunTarget_InvalidBudget(t *testing.T) {
	_, err := aggregate.RunTarget(context.Background(), player(), monster(dummy("dummy", 100)), aggregate.Budget{}, dice.NewSource(1, 0), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid budget")
}

func TestRunTarget_CompositeProgressAndReward(t *testing.T) {
	tg := target.Target{
		ID:     "warren",
		Name:   "Warren",
		Kind:   target.KindDungeon,
		Stages: []target.Stage{dummy("rat", 50), dummy("rat", 50), dummy("boss", 200)},
		Reward: gamedata.Reward{GP: 100},
		Prices: loot.Prices{},
	}
	var reports [][2]int
	b := budget(aggregate.ModeMonteCarlo, 250)
	r, err := aggregate.RunTarget(context.Background(), player(), tg, b, dice.NewSource(4, 0), func(done, total int) {
		reports = append(reports, [2]int{done, total})
	})
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	for i, rep := range reports {
		assert.Equal(t, 750, rep[1])
		if i > 0 {
			assert.GreaterOrEqual(t, rep[0], reports[i-1][0])
		}
	}
	assert.Equal(t, 750, reports[len(reports)-1][0])

	require.Len(t, r.Stages, 3)
	assert.Equal(t, r.Stages[0].Damage, r.Stages[1].Damage, "repeated monster reuses its stats")
	assert.Equal(t, "dungeon", r.Kind)
	assert.Equal(t, "warren", r.TargetID)
	assert.Equal(t, 1.0, r.Survivability)

	timeMs := r.Stages[0].TimeMs + r.Stages[1].TimeMs + r.Stages[2].TimeMs
	wantGP := (20 + 20 + 20 + 100) * 3_600_000 / timeMs
	assert.InEpsilon(t, wantGP, r.GPPerHour, 1e-9)
}

func TestRunTarget_DeterministicForSeed(t *testing.T) {
	st := dummy("biter", 300)
	st.Opponent.Stats.MaxHit = 40
	st.Opponent.Stats.MaxAccuracy = 2000
	b := budget(aggregate.ModeMonteCarlo, 300)

	a, err := aggregate.RunTarget(context.Background(), player(), monster(st), b, dice.NewSource(5, 1), nil)
	require.NoError(t, err)
	c, err := aggregate.RunTarget(context.Background(), player(), monster(st), b, dice.NewSource(5, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestRun_OrdersResultsAndNamesProgress(t *testing.T) {
	targets := []target.Target{monster(dummy("a", 50)), monster(dummy("b", 80))}
	seen := map[string]int{}
	rs, err := aggregate.Run(context.Background(), player(), targets, budget(aggregate.ModeMonteCarlo, 50), func(id string, done, _ int) {
		seen[id] = done
	})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "a", rs[0].TargetID)
	assert.Equal(t, "b", rs[1].TargetID)
	assert.Equal(t, map[string]int{"a": 50, "b": 50}, seen)
}

func TestCompose_WeightsBySurvival(t *testing.T) {
	stages := []aggregate.StageStats{
		{Method: aggregate.MethodMonteCarlo, DeathProb: 0.5, KillProb: 0.5, Damage: 100, TimeMs: 1000, CombatTimeMs: 1000, Loot: loot.Drop{GP: 10}},
		{Method: aggregate.MethodAnalytical, KillProb: 1, Damage: 200, TimeMs: 3000, CombatTimeMs: 3000, Loot: loot.Drop{GP: 20}},
	}
	r := aggregate.Compose(player(), stages, loot.Drop{GP: 40})

	require.Len(t, r.Stages, 2)
	assert.Equal(t, 1.0, r.Stages[0].Reach)
	assert.Equal(t, 0.5, r.Stages[1].Reach)
	assert.InDelta(t, 0.5, r.DeathRate, 1e-12)
	// gp 10 + 0.5*20 + 0.5*40 over 4000ms
	assert.InDelta(t, 40*900, r.GPPerHour, 1e-6)
	assert.InDelta(t, 200*0.4*900, r.XPPerHour, 1e-6)
	assert.InDelta(t, 200.0/2500*1000, r.DPS, 1e-9)
	assert.InDelta(t, 4000, r.AvgKillTimeMs, 1e-9)
	assert.Equal(t, aggregate.MethodMixed, r.Method)
	assert.Zero(t, stages[0].Reach, "input is not mutated")
}

func TestCompose_TimeoutsDoNotAdvance(t *testing.T) {
	stages := []aggregate.StageStats{
		{Method: aggregate.MethodMonteCarlo, KillProb: 0.5, Timeouts: 5, Encounters: 10, Damage: 100, TimeMs: 1000, CombatTimeMs: 1000, Loot: loot.Drop{GP: 10}},
		{Method: aggregate.MethodMonteCarlo, KillProb: 1, Damage: 200, TimeMs: 3000, CombatTimeMs: 3000, Loot: loot.Drop{GP: 20}},
	}
	r := aggregate.Compose(player(), stages, loot.Drop{GP: 40})

	assert.Equal(t, 0.5, r.Stages[1].Reach)
	assert.Zero(t, r.DeathRate, "a timeout is not a death")
	assert.Equal(t, 1.0, r.Survivability)
	// gp 10 + 0.5*20 + 0.5*40 over 4000ms; the reward needs both kills
	assert.InDelta(t, 40*900, r.GPPerHour, 1e-6)
	assert.Equal(t, 5, r.Timeouts)
}

func TestCompose_ConsumablesReduceGP(t *testing.T) {
	pl := player()
	pl.FoodPrice = 5
	pl.PotionPrice = 100
	pl.Profile.Stats.CastCost = 2
	st := aggregate.StageStats{KillProb: 1, TimeMs: 3600, CombatTimeMs: 3600, Food: 2, Potions: 0.1, PlayerAttacks: 3, Loot: loot.Drop{GP: 50}}

	r := aggregate.Compose(pl, []aggregate.StageStats{st}, loot.Drop{})
	// 50 - (2*5 + 0.1*100 + 3*2) = 24 gp per 3.6s
	assert.InDelta(t, 24_000, r.GPPerHour, 1e-6)
}

func TestCompose_RatesNeverRiseWithDeathProbability(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "stages")
		stages := make([]aggregate.StageStats, n)
		for i := range stages {
			stages[i] = aggregate.StageStats{
				DeathProb: rapid.Float64Range(0, 1).Draw(rt, "death"),
				Damage:    rapid.Float64Range(0, 1000).Draw(rt, "damage"),
				TimeMs:    rapid.Float64Range(1, 100_000).Draw(rt, "time"),
				Loot: loot.Drop{
					GP:        rapid.Float64Range(0, 500).Draw(rt, "gp"),
					ItemValue: rapid.Float64Range(0, 500).Draw(rt, "items"),
				},
			}
			stages[i].KillProb = 1 - stages[i].DeathProb
			stages[i].CombatTimeMs = stages[i].TimeMs
		}
		reward := loot.Drop{GP: rapid.Float64Range(0, 1000).Draw(rt, "reward")}
		pl := player()
		before := aggregate.Compose(pl, stages, reward)

		i := rapid.IntRange(0, n-1).Draw(rt, "raised")
		stages[i].DeathProb = rapid.Float64Range(stages[i].DeathProb, 1).Draw(rt, "higher")
		stages[i].KillProb = 1 - stages[i].DeathProb
		after := aggregate.Compose(pl, stages, reward)

		const eps = 1e-9
		assert.LessOrEqual(rt, after.LootPerHour, before.LootPerHour+eps)
		assert.LessOrEqual(rt, after.GPPerHour, before.GPPerHour+eps)
		assert.LessOrEqual(rt, after.XPPerHour, before.XPPerHour+eps)
		assert.GreaterOrEqual(rt, after.DeathRate, before.DeathRate-eps)
	})
}

func TestRollup(t *testing.T) {
	rs := []aggregate.Result{
		{DPS: 10, XPPerHour: 100, DeathRate: 0.2, HighestHitTaken: 30, Encounters: 5, Method: aggregate.MethodAnalytical},
		{DPS: 20, XPPerHour: 300, DeathRate: 0, HighestHitTaken: 70, Encounters: 7, Method: aggregate.MethodMonteCarlo},
	}
	r := aggregate.Rollup(rs)

	assert.Equal(t, 15.0, r.DPS)
	assert.Equal(t, 200.0, r.XPPerHour)
	assert.InDelta(t, 0.1, r.DeathRate, 1e-12)
	assert.Equal(t, 70, r.HighestHitTaken)
	assert.Equal(t, 12, r.Encounters)
	assert.Equal(t, aggregate.MethodMixed, r.Method)
	assert.Equal(t, aggregate.Result{}, aggregate.Rollup(nil))
}
