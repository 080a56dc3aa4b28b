package combat

import (
	"math"

	"github.com/cory-johannsen/idlesim/internal/game/effect"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
)

// fighter is the mutable per-encounter state shared by both variants.
type fighter struct {
	stats    stats.CombatStats
	specials []gamedata.SpecialAttack
	hp       int
	effects  *effect.ActiveSet
}

func newFighter(cs stats.CombatStats, specials []gamedata.SpecialAttack) fighter {
	return fighter{
		stats:    cs,
		specials: specials,
		hp:       cs.MaxHitpoints,
		effects:  effect.NewActiveSet(),
	}
}

func (f *fighter) core() *fighter { return f }

// StatsOf returns the combatant's resolved statistics.
func (f *fighter) StatsOf() stats.CombatStats { return f.stats }

// ApplyEffect attaches e at simulated time nowMs.
//
// Precondition: e must pass effect.Validate.
func (f *fighter) ApplyEffect(e effect.Effect, nowMs int64) { f.effects.Apply(e, nowMs) }

// IsAlive reports whether hitpoints are above zero.
func (f *fighter) IsAlive() bool { return f.hp > 0 }

// HP returns the current hitpoints.
func (f *fighter) HP() int { return f.hp }

// takeDamage removes up to amount hitpoints and returns the amount removed.
// A sleeping combatant wakes when it loses hitpoints.
func (f *fighter) takeDamage(amount int) int {
	if amount <= 0 || f.hp <= 0 {
		return 0
	}
	applied := min(amount, f.hp)
	f.hp -= applied
	f.effects.Remove(effect.KindSleep)
	return applied
}

// heal restores up to amount hitpoints without exceeding the maximum and
// returns the amount restored.
func (f *fighter) heal(amount int) int {
	if amount <= 0 || f.hp <= 0 {
		return 0
	}
	restored := min(amount, f.stats.MaxHitpoints-f.hp)
	f.hp += restored
	return restored
}

// Usage is the cumulative resource consumption of a player.
type Usage struct {
	Food          int
	PrayerPoints  float64
	PotionCharges int
}

// Player is the player-side Combatant. Hitpoints and food persist across
// encounters; effects do not.
type Player struct {
	fighter
	food          int
	foodUnlimited bool
	usage         Usage
}

// NewPlayer creates a player at full hitpoints with p's food supply.
//
// Postcondition: IsAlive() is true.
func NewPlayer(p Profile) *Player {
	return &Player{
		fighter:       newFighter(p.Stats, p.Specials),
		food:          p.Food,
		foodUnlimited: p.FoodUnlimited,
	}
}

// ConsumeResource records use of amount units of r. Food is drawn from the
// remaining supply.
func (p *Player) ConsumeResource(r Resource, amount float64) {
	switch r {
	case ResourceFood:
		n := int(amount)
		if !p.foodUnlimited {
			p.food = max(p.food-n, 0)
		}
		p.usage.Food += n
	case ResourcePrayerPoints:
		p.usage.PrayerPoints += amount
	case ResourcePotionCharges:
		p.usage.PotionCharges += int(amount)
	}
}

// HasFood reports whether at least one food item remains.
func (p *Player) HasFood() bool {
	return p.stats.FoodHealing > 0 && (p.foodUnlimited || p.food > 0)
}

// FoodRemaining returns the remaining food; unlimited supplies report -1.
func (p *Player) FoodRemaining() int {
	if p.foodUnlimited {
		return -1
	}
	return p.food
}

// Usage returns the cumulative consumption since NewPlayer.
func (p *Player) Usage() Usage { return p.usage }

// Respawn restores full hitpoints and clears effects. Food is not restored.
//
// Postcondition: HP() == StatsOf().MaxHitpoints.
func (p *Player) Respawn() {
	p.hp = p.stats.MaxHitpoints
	p.effects.Clear()
}

// autoEat eats while hitpoints are below the auto-eat limit, once they have
// fallen below the threshold. It returns the number of food items eaten.
func (p *Player) autoEat() int {
	cs := p.stats
	if cs.AutoEatThreshold <= 0 || cs.AutoEatEfficiency <= 0 || p.hp <= 0 {
		return 0
	}
	maxHP := float64(cs.MaxHitpoints)
	if float64(p.hp) >= maxHP*cs.AutoEatThreshold/100 {
		return 0
	}
	perBite := int(math.Floor(float64(cs.FoodHealing) * cs.AutoEatEfficiency / 100))
	if perBite <= 0 {
		return 0
	}
	limit := maxHP * math.Max(cs.AutoEatHPLimit, cs.AutoEatThreshold) / 100
	eaten := 0
	for float64(p.hp) < limit && p.hp < cs.MaxHitpoints && p.HasFood() {
		p.heal(perBite)
		p.ConsumeResource(ResourceFood, 1)
		eaten++
	}
	return eaten
}

// Enemy is the monster-side Combatant. Monsters consume no resources.
type Enemy struct {
	fighter
	id string
}

// NewEnemy spawns o at full hitpoints.
//
// Postcondition: IsAlive() is true.
func NewEnemy(o Opponent) *Enemy {
	return &Enemy{fighter: newFighter(o.Stats, o.Specials), id: o.ID}
}

// ID returns the monster id.
func (e *Enemy) ID() string { return e.id }

// ConsumeResource is a no-op for monsters.
func (e *Enemy) ConsumeResource(Resource, float64) {}

// Respawn restores full hitpoints and clears effects.
func (e *Enemy) Respawn() {
	e.hp = e.stats.MaxHitpoints
	e.effects.Clear()
}
