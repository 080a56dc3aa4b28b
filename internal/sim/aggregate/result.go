package aggregate

import (
	"math"

	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
)

const (
	msPerHour = 3_600_000

	// xpPerDamage is the combat skill experience granted per hitpoint of
	// damage dealt; hpXPPerDamage the hitpoints experience.
	xpPerDamage   = 0.4
	hpXPPerDamage = 0.133
)

// StageStats holds the per-encounter expectations of one monster stage.
// Yields are conditional on the stage being reached.
type StageStats struct {
	MonsterID  string `json:"monsterId"`
	Method     Method `json:"method"`
	Encounters int    `json:"encounters"`
	Kills      int    `json:"kills"`
	Deaths     int    `json:"deaths"`
	Timeouts   int    `json:"timeouts"`

	KillProb  float64 `json:"killProb"`
	DeathProb float64 `json:"deathProb"`
	// Reach is the probability of arriving at this stage; set by Compose.
	Reach float64 `json:"reach"`

	// CombatTimeMs is the mean encounter duration; TimeMs adds the spawn delay.
	CombatTimeMs float64 `json:"combatTimeMs"`
	TimeMs       float64 `json:"timeMs"`
	// KillTimeMs is the mean duration of encounters ending in a kill.
	KillTimeMs float64 `json:"killTimeMs"`

	Damage          float64 `json:"damage"`
	DamageTaken     float64 `json:"damageTaken"`
	HighestHitTaken int     `json:"highestHitTaken"`
	Food            float64 `json:"food"`
	PrayerPoints    float64 `json:"prayerPoints"`
	Potions         float64 `json:"potions"`
	PlayerAttacks   float64 `json:"playerAttacks"`

	HitChance      float64 `json:"hitChance"`
	EnemyHitChance float64 `json:"enemyHitChance"`

	Loot   loot.Drop     `json:"-"`
	Counts combat.Counts `json:"counts"`
}

// Result is the steady-state performance of the player against one target,
// or a rollup over several. Damage is in internal hitpoint units.
type Result struct {
	TargetID string `json:"targetId"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`

	DPS             float64 `json:"dps"`
	XPPerHour       float64 `json:"xpPerHour"`
	HPXPPerHour     float64 `json:"hpXpPerHour"`
	LootPerHour     float64 `json:"lootPerHour"`
	GPPerHour       float64 `json:"gpPerHour"`
	DeathRate       float64 `json:"deathRate"`
	HighestHitTaken int     `json:"highestHitTaken"`
	Survivability   float64 `json:"survivability"`

	KillsPerHour        float64 `json:"killsPerHour"`
	AvgKillTimeMs       float64 `json:"avgKillTimeMs"`
	DamageTakenPerHour  float64 `json:"damageTakenPerHour"`
	FoodPerHour         float64 `json:"foodPerHour"`
	PrayerPointsPerHour float64 `json:"prayerPointsPerHour"`
	PotionsPerHour      float64 `json:"potionsPerHour"`
	HitChance           float64 `json:"hitChance"`
	EnemyHitChance      float64 `json:"enemyHitChance"`

	Encounters int           `json:"encounters"`
	Timeouts   int           `json:"timeouts"`
	Deaths     int           `json:"deaths"`
	Method     Method        `json:"method"`
	Stages     []StageStats  `json:"stages,omitempty"`
	Counts     combat.Counts `json:"counts"`
}

// Compose turns per-stage expectations into hourly rates for one attempt at
// the stages in order. A stage is passed only by killing its monster, so
// stage i contributes its yield weighted by the probability R(i) of killing
// every earlier monster, and the reward by R(n+1). A timeout ends the
// attempt without a death. The time of an attempt is the sum of every
// stage's time whether or not it ends early, so rates never increase with
// any stage's death probability.
//
// Precondition: every stage has been evaluated; reward is per completion.
// Postcondition: The returned Stages carry their Reach; DeathRate is the
// sum over stages of Reach * DeathProb and Survivability == 1 - DeathRate.
func Compose(pl Player, stages []StageStats, reward loot.Drop) Result {
	var r Result
	r.Stages = append([]StageStats(nil), stages...)

	reach, died := 1.0, 0.0
	var damage, taken, items, gp, cost, kills, food, prayer, potions float64
	var timeMs, combatMs, hit, enemyHit float64
	for i := range r.Stages {
		st := &r.Stages[i]
		st.Reach = reach
		w := reach

		damage += w * st.Damage
		taken += w * st.DamageTaken
		items += w * st.Loot.ItemValue
		gp += w * st.Loot.GP
		cost += w * pl.consumableCost(*st)
		kills += w * st.KillProb
		food += w * st.Food
		prayer += w * st.PrayerPoints
		potions += w * st.Potions
		combatMs += w * st.CombatTimeMs

		timeMs += st.TimeMs
		hit += st.HitChance
		enemyHit += st.EnemyHitChance
		r.HighestHitTaken = max(r.HighestHitTaken, st.HighestHitTaken)
		r.Encounters += st.Encounters
		r.Timeouts += st.Timeouts
		r.Deaths += st.Deaths
		r.Counts.Add(st.Counts)
		r.Method = mergeMethod(r.Method, st.Method, i == 0)

		died += reach * clamp01(st.DeathProb)
		reach *= clamp01(st.KillProb)
	}
	items += reach * reward.ItemValue
	gp += reach * reward.GP
	died = clamp01(died)

	perHour := 0.0
	if timeMs > 0 {
		perHour = msPerHour / timeMs
	}
	xpMult := pl.Profile.Stats.XPMultiplier
	if combatMs > 0 {
		r.DPS = damage / combatMs * 1000
	}
	r.XPPerHour = damage * xpPerDamage * xpMult * perHour
	r.HPXPPerHour = damage * hpXPPerDamage * xpMult * perHour
	r.LootPerHour = items * perHour
	r.GPPerHour = (gp - cost) * perHour
	r.Survivability = 1 - died
	r.DeathRate = died
	r.KillsPerHour = kills * perHour
	r.DamageTakenPerHour = taken * perHour
	r.FoodPerHour = food * perHour
	r.PrayerPointsPerHour = prayer * perHour
	r.PotionsPerHour = potions * perHour
	if n := float64(len(stages)); n > 0 {
		r.HitChance = hit / n
		r.EnemyHitChance = enemyHit / n
	}
	if len(stages) == 1 {
		r.AvgKillTimeMs = stages[0].KillTimeMs
	} else {
		r.AvgKillTimeMs = timeMs
	}
	return r
}

// Rollup combines several target results: rates and probabilities are
// averaged, the highest hit is the maximum and counts are summed.
//
// Postcondition: An empty input yields the zero Result.
func Rollup(results []Result) Result {
	var r Result
	if len(results) == 0 {
		return r
	}
	r.Name = "rollup"
	for i, x := range results {
		r.DPS += x.DPS
		r.XPPerHour += x.XPPerHour
		r.HPXPPerHour += x.HPXPPerHour
		r.LootPerHour += x.LootPerHour
		r.GPPerHour += x.GPPerHour
		r.DeathRate += x.DeathRate
		r.Survivability += x.Survivability
		r.KillsPerHour += x.KillsPerHour
		r.AvgKillTimeMs += x.AvgKillTimeMs
		r.DamageTakenPerHour += x.DamageTakenPerHour
		r.FoodPerHour += x.FoodPerHour
		r.PrayerPointsPerHour += x.PrayerPointsPerHour
		r.PotionsPerHour += x.PotionsPerHour
		r.HitChance += x.HitChance
		r.EnemyHitChance += x.EnemyHitChance
		r.HighestHitTaken = max(r.HighestHitTaken, x.HighestHitTaken)
		r.Encounters += x.Encounters
		r.Timeouts += x.Timeouts
		r.Deaths += x.Deaths
		r.Counts.Add(x.Counts)
		r.Method = mergeMethod(r.Method, x.Method, i == 0)
	}
	n := float64(len(results))
	r.DPS /= n
	r.XPPerHour /= n
	r.HPXPPerHour /= n
	r.LootPerHour /= n
	r.GPPerHour /= n
	r.DeathRate /= n
	r.Survivability /= n
	r.KillsPerHour /= n
	r.AvgKillTimeMs /= n
	r.DamageTakenPerHour /= n
	r.FoodPerHour /= n
	r.PrayerPointsPerHour /= n
	r.PotionsPerHour /= n
	r.HitChance /= n
	r.EnemyHitChance /= n
	return r
}

func mergeMethod(acc, m Method, first bool) Method {
	if first || acc == m {
		return m
	}
	return MethodMixed
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
