package aggregate

import (
	"context"

	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
	"github.com/cory-johannsen/idlesim/internal/sim/target"
)

// monteCarloStage runs b.Trials consecutive encounters against the stage.
// Player hitpoints and food carry over between encounters and the player
// respawns after a death. Cancellation is checked before every encounter.
// report receives the number of encounters completed so far.
func monteCarloStage(ctx context.Context, sim *combat.Simulator, pl Player, st target.Stage, prices loot.Prices, b Budget, report func(done int)) (StageStats, error) {
	p := combat.NewPlayer(pl.Profile)
	e := combat.NewEnemy(st.Opponent)
	ps, es := pl.Profile.Stats, st.Opponent.Stats

	out := StageStats{
		MonsterID:      st.Opponent.ID,
		Method:         MethodMonteCarlo,
		HitChance:      stats.HitChance(ps.MaxAccuracy, es.MaxEvasion.Against(ps.AttackType)),
		EnemyHitChance: stats.HitChance(es.MaxAccuracy, ps.MaxEvasion.Against(es.AttackType)),
	}
	var combatMs, killMs, damage, taken, prayer float64
	var charges int
	for i := range b.Trials {
		if err := ctx.Err(); err != nil {
			return StageStats{}, err
		}
		o := sim.Run(p, e)
		out.Encounters++
		combatMs += float64(o.DurationMs)
		damage += float64(o.DamageDealt)
		taken += float64(o.DamageTaken)
		prayer += o.PrayerPoints
		charges += o.PotionCharges
		out.HighestHitTaken = max(out.HighestHitTaken, o.HighestHitTaken)
		out.Counts.Add(o.Counts)
		switch o.Result {
		case combat.ResultKill:
			out.Kills++
			killMs += float64(o.DurationMs)
		case combat.ResultDeath:
			out.Deaths++
			p.Respawn()
		case combat.ResultTimeout:
			out.Timeouts++
		}
		if b.ProgressEvery > 0 && (i+1)%b.ProgressEvery == 0 && i+1 < b.Trials {
			report(i + 1)
		}
	}
	report(b.Trials)

	n := float64(out.Encounters)
	out.KillProb = float64(out.Kills) / n
	out.DeathProb = float64(out.Deaths) / n
	out.CombatTimeMs = combatMs / n
	out.TimeMs = out.CombatTimeMs + float64(b.SpawnDelayMs)
	if out.Kills > 0 {
		out.KillTimeMs = killMs / float64(out.Kills)
	}
	out.Damage = damage / n
	out.DamageTaken = taken / n
	out.Food = float64(out.Counts.FoodEaten) / n
	out.PrayerPoints = prayer / n
	if ps.PotionCharges > 0 {
		out.Potions = float64(charges) / float64(ps.PotionCharges) / n
	}
	out.PlayerAttacks = float64(out.Counts.PlayerAttacks) / n
	out.Loot = loot.Expected(st.Loot, prices, ps).Scale(out.KillProb)
	return out, nil
}
