package aggregate

import (
	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
	"github.com/cory-johannsen/idlesim/internal/sim/target"
)

// DamageDistribution returns P(d) for every post-reduction damage d of a
// hit drawn uniformly from [minHit, maxHit], indexed by d.
//
// Precondition: 0 <= minHit <= maxHit.
// Postcondition: The probabilities sum to 1.
func DamageDistribution(minHit, maxHit int, damageReduction float64) []float64 {
	dist := make([]float64, maxHit+1)
	n := float64(maxHit - minHit + 1)
	for k := minHit; k <= maxHit; k++ {
		dist[combat.ReduceDamage(k, damageReduction, 0)] += 1 / n
	}
	return dist
}

// ExpectedAttacksToKill returns the expected number of attacks needed to
// remove hp hitpoints when each attack hits with probability hitChance and a
// hit deals d damage with probability dist[d]:
//
//	E(h) = (1/p + sum over d >= 1 of dist[d] * E(h-d)) / (1 - dist[0]), E(h <= 0) = 0.
//
// Postcondition: ok is false iff the target can never be killed.
func ExpectedAttacksToKill(hp int, hitChance float64, dist []float64) (attacks float64, ok bool) {
	if hp <= 0 {
		return 0, true
	}
	if hitChance <= 0 || len(dist) == 0 || dist[0] >= 1 {
		return 0, false
	}
	e := make([]float64, hp+1)
	denom := 1 - dist[0]
	for h := 1; h <= hp; h++ {
		sum := 1 / hitChance
		for d := 1; d < len(dist) && d < h; d++ {
			sum += dist[d] * e[h-d]
		}
		e[h] = sum / denom
	}
	return e[hp], true
}

// analyticalStage evaluates the stage in closed form when the fight reduces
// to independent player attacks against an enemy that can never hurt the
// player. ok is false when the closed form does not apply.
func analyticalStage(pl Player, st target.Stage, prices loot.Prices, b Budget) (StageStats, bool) {
	ps, es := pl.Profile.Stats, st.Opponent.Stats
	if len(pl.Profile.Specials) > 0 || len(st.Opponent.Specials) > 0 || ps.SummonMaxHit > 0 {
		return StageStats{}, false
	}
	if ps.ReflectPercent > 0 || ps.LifestealPercent > 0 || es.ReflectPercent > 0 || es.LifestealPercent > 0 {
		return StageStats{}, false
	}
	if combat.CanDamage(combat.NewEnemy(st.Opponent), combat.NewPlayer(pl.Profile)) {
		return StageStats{}, false
	}
	hit := stats.HitChance(ps.MaxAccuracy, es.MaxEvasion.Against(ps.AttackType))
	if ps.MaxHit <= 0 {
		return StageStats{}, false
	}
	attacks, ok := ExpectedAttacksToKill(es.MaxHitpoints, hit, DamageDistribution(ps.MinHit, ps.MaxHit, es.DamageReduction))
	if !ok {
		return StageStats{}, false
	}
	killMs := attacks * float64(ps.AttackIntervalMs)
	if killMs > float64(b.MaxEncounterMs) {
		return StageStats{}, false
	}

	prayer := attacks * ps.PrayerCost.PerPlayerAttack
	prayer += killMs / float64(es.AttackIntervalMs) * ps.PrayerCost.PerEnemyAttack
	prayer += killMs / stats.RegenIntervalMs * ps.PrayerCost.PerRegen
	potions := 0.0
	if ps.PotionCharges > 0 {
		potions = attacks / float64(ps.PotionCharges)
	}
	return StageStats{
		MonsterID:      st.Opponent.ID,
		Method:         MethodAnalytical,
		KillProb:       1,
		CombatTimeMs:   killMs,
		TimeMs:         killMs + float64(b.SpawnDelayMs),
		KillTimeMs:     killMs,
		Damage:         float64(es.MaxHitpoints),
		PrayerPoints:   prayer,
		Potions:        potions,
		PlayerAttacks:  attacks,
		HitChance:      hit,
		EnemyHitChance: stats.HitChance(es.MaxAccuracy, ps.MaxEvasion.Against(es.AttackType)),
		Loot:           loot.Expected(st.Loot, prices, ps),
	}, true
}
