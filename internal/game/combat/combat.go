// Package combat implements the event-driven encounter simulator.
package combat

import (
	"github.com/cory-johannsen/idlesim/internal/game/effect"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
)

// Phase is a step of the per-attack state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRollingAttack
	PhaseResolvingDamage
	PhaseApplyingEffects
	PhaseCheckingTermination
	PhaseDead
	PhaseTimedOut
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRollingAttack:
		return "rolling attack"
	case PhaseResolvingDamage:
		return "resolving damage"
	case PhaseApplyingEffects:
		return "applying effects"
	case PhaseCheckingTermination:
		return "checking termination"
	case PhaseDead:
		return "dead"
	case PhaseTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Result is how an encounter ended.
type Result int

const (
	// ResultKill means the enemy reached 0 hitpoints.
	ResultKill Result = iota
	// ResultDeath means the player reached 0 hitpoints.
	ResultDeath
	// ResultTimeout means the maximum encounter time elapsed first.
	ResultTimeout
)

// String returns a human-readable result label.
func (r Result) String() string {
	switch r {
	case ResultKill:
		return "kill"
	case ResultDeath:
		return "death"
	case ResultTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Side identifies the acting participant of an event.
type Side int

const (
	SidePlayer Side = iota
	SideSummon
	SideEnemy
)

// String returns a human-readable side label.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideSummon:
		return "summon"
	case SideEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Resource is a consumable tracked on the player.
type Resource int

const (
	ResourceFood Resource = iota
	ResourcePrayerPoints
	ResourcePotionCharges
)

// Combatant is the capability shared by both sides of an encounter.
// It is implemented only by Player and Enemy.
type Combatant interface {
	// StatsOf returns the combatant's resolved statistics.
	StatsOf() stats.CombatStats
	// ApplyEffect attaches e at simulated time nowMs.
	ApplyEffect(e effect.Effect, nowMs int64)
	// IsAlive reports whether hitpoints are above zero.
	IsAlive() bool
	// ConsumeResource records use of amount units of r.
	ConsumeResource(r Resource, amount float64)

	core() *fighter
}

// Profile is the immutable player side of a job.
type Profile struct {
	Stats    stats.CombatStats
	Specials []gamedata.SpecialAttack
	// Food is the number of food items available; 0 with FoodUnlimited means
	// no limit.
	Food          int
	FoodUnlimited bool
}

// NewProfile resolves s into a Profile. Weapon specials are copied so the
// Profile shares no memory with s.
//
// Precondition: s must come from loadout.Freeze.
func NewProfile(s *loadout.Snapshot) Profile {
	p := Profile{Stats: stats.Resolve(s)}
	if w, ok := s.Equipped(gamedata.SlotWeapon); ok {
		p.Specials = append([]gamedata.SpecialAttack(nil), w.Specials...)
	}
	if _, qty, ok := s.Food(); ok {
		p.Food = qty
		p.FoodUnlimited = qty == 0
	}
	return p
}

// Opponent is the immutable description of one monster stage.
type Opponent struct {
	ID       string
	Name     string
	Stats    stats.CombatStats
	Specials []gamedata.SpecialAttack
}

// NewOpponent resolves m with the monster resolver.
//
// Precondition: m must pass Validate.
func NewOpponent(m gamedata.Monster) Opponent {
	return Opponent{
		ID:       m.ID,
		Name:     m.Name,
		Stats:    stats.ResolveMonster(m),
		Specials: append([]gamedata.SpecialAttack(nil), m.Specials...),
	}
}

// Counts tallies discrete encounter events.
type Counts struct {
	PlayerAttacks  int `json:"playerAttacks"`
	PlayerHits     int `json:"playerHits"`
	PlayerMisses   int `json:"playerMisses"`
	SummonAttacks  int `json:"summonAttacks"`
	SummonHits     int `json:"summonHits"`
	EnemyAttacks   int `json:"enemyAttacks"`
	EnemyHits      int `json:"enemyHits"`
	EnemyMisses    int `json:"enemyMisses"`
	Specials       int `json:"specials"`
	EffectsApplied int `json:"effectsApplied"`
	StunnedTurns   int `json:"stunnedTurns"`
	DOTProcs       int `json:"dotProcs"`
	ReflectProcs   int `json:"reflectProcs"`
	LifestealProcs int `json:"lifestealProcs"`
	FoodEaten      int `json:"foodEaten"`
	Regens         int `json:"regens"`
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.PlayerAttacks += o.PlayerAttacks
	c.PlayerHits += o.PlayerHits
	c.PlayerMisses += o.PlayerMisses
	c.SummonAttacks += o.SummonAttacks
	c.SummonHits += o.SummonHits
	c.EnemyAttacks += o.EnemyAttacks
	c.EnemyHits += o.EnemyHits
	c.EnemyMisses += o.EnemyMisses
	c.Specials += o.Specials
	c.EffectsApplied += o.EffectsApplied
	c.StunnedTurns += o.StunnedTurns
	c.DOTProcs += o.DOTProcs
	c.ReflectProcs += o.ReflectProcs
	c.LifestealProcs += o.LifestealProcs
	c.FoodEaten += o.FoodEaten
	c.Regens += o.Regens
}

// Outcome summarises one encounter.
type Outcome struct {
	Result     Result
	DurationMs int64
	// DamageDealt is the player's and summon's damage to the enemy, capped at
	// the enemy's remaining hitpoints per application.
	DamageDealt int
	// DamageTaken is the damage the player received, capped likewise.
	DamageTaken     int
	HighestHitTaken int
	PrayerPoints    float64
	PotionCharges   int
	Counts          Counts
}

// Event is one traced state-machine transition.
type Event struct {
	AtMs    int64
	Actor   Side
	Phase   Phase
	Hit     bool
	Damage  int
	Special string
}

// Trace receives every traced event. It runs on the simulating goroutine.
type Trace func(Event)
