// Package stats derives combat statistics from a frozen loadout or a monster
// definition. Resolution is pure: identical input yields identical output.
package stats

import (
	"math"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
	"github.com/cory-johannsen/idlesim/internal/game/modifier"
)

const (
	// hpScale converts skill levels and displayed hits to internal hitpoints.
	hpScale = 10
	// levelOffset is the invisible bonus added to every effective level.
	levelOffset = 9
	// styleBonus is the invisible level bonus granted by the combat style.
	styleBonus = 3
	// rapidIntervalMs is the attack interval reduction of the rapid style.
	rapidIntervalMs = 400
	// MinAttackIntervalMs is the floor applied to every attack interval.
	MinAttackIntervalMs = 250
	// DefaultAttackIntervalMs is used when no weapon defines an interval.
	DefaultAttackIntervalMs = 4000
	// RegenIntervalMs is the period of passive hitpoint regeneration.
	RegenIntervalMs = 10_000
)

// Evasion holds the maximum evasion roll against each attack type.
type Evasion struct {
	Melee  float64
	Ranged float64
	Magic  float64
}

// Against returns the evasion roll used against attacks of type at.
func (e Evasion) Against(at gamedata.AttackType) float64 {
	switch at {
	case gamedata.Ranged:
		return e.Ranged
	case gamedata.Magic:
		return e.Magic
	default:
		return e.Melee
	}
}

// PrayerCost is the prayer point drain per event.
type PrayerCost struct {
	PerPlayerAttack float64
	PerEnemyAttack  float64
	PerRegen        float64
}

// CombatStats is the flat numeric record driving one side of an encounter.
// Hitpoint and hit values are in internal units (ten per displayed level).
//
// Invariant: 0 <= MinHit <= MaxHit; SummonMaxHit >= 0;
// LootDoublingChance, LuckyHerbChance and DamageReduction lie in [0, 100];
// AttackIntervalMs >= MinAttackIntervalMs.
type CombatStats struct {
	AttackType       gamedata.AttackType
	AttackIntervalMs int64
	MinHit           int
	MaxHit           int
	SummonMaxHit     int
	SummonIntervalMs int64
	MaxAccuracy      float64
	MaxEvasion       Evasion
	MaxHitpoints     int
	DamageReduction  float64

	AutoEatThreshold  float64
	AutoEatEfficiency float64
	AutoEatHPLimit    float64
	FoodHealing       int

	LootDoublingChance float64
	GPMultiplier       float64
	LuckyHerbChance    float64
	XPMultiplier       float64

	RegenPerTick     int
	LifestealPercent float64
	ReflectPercent   float64

	PrayerCost    PrayerCost
	PotionCharges int
	// CastCost is the gp spent on runes per player attack.
	CastCost int
}

// Resolve derives the player's combat statistics from s. Unrecognised
// modifiers resolve to neutral values.
//
// Precondition: s must come from loadout.Freeze.
// Postcondition: The result satisfies the CombatStats invariants, and equal
// snapshots produce bit-identical results.
func Resolve(s *loadout.Snapshot) CombatStats {
	cs, _ := resolve(s, false)
	return cs
}

// ResolveWithDiagnostics behaves as Resolve and additionally reports every
// modifier key the resolver does not recognise.
func ResolveWithDiagnostics(s *loadout.Snapshot) (CombatStats, []modifier.Diagnostic) {
	return resolve(s, true)
}

func resolve(s *loadout.Snapshot, collect bool) (CombatStats, []modifier.Diagnostic) {
	lv := s.Levels()
	at := s.AttackType()

	// Base: levels and equipment.
	var bonus gamedata.Bonuses
	interval := int64(DefaultAttackIntervalMs)
	for _, it := range s.Equipment() {
		bonus = bonus.Add(it.Bonuses)
		if it.Slot == gamedata.SlotWeapon && it.AttackIntervalMs > 0 {
			interval = int64(it.AttackIntervalMs)
		}
	}
	var pb gamedata.PrayerBonuses
	var cost PrayerCost
	for _, p := range s.Prayers() {
		pb.Accuracy += p.Bonuses.Accuracy
		pb.Strength += p.Bonuses.Strength
		pb.Defence += p.Bonuses.Defence
		pb.Ranged += p.Bonuses.Ranged
		pb.Magic += p.Bonuses.Magic
		cost.PerPlayerAttack += p.PointsPerPlayerAttack
		cost.PerEnemyAttack += p.PointsPerEnemyAttack
		cost.PerRegen += p.PointsPerRegen
	}

	var atkStyle, strStyle, defStyle, rngStyle, magStyle int
	switch s.Style() {
	case loadout.StyleAccurate:
		switch at {
		case gamedata.Ranged:
			rngStyle = styleBonus
		case gamedata.Magic:
			magStyle = styleBonus
		default:
			atkStyle = styleBonus
		}
	case loadout.StyleAggressive:
		strStyle = styleBonus
	case loadout.StyleDefensive, loadout.StyleLongrange:
		defStyle = styleBonus
	case loadout.StyleRapid:
		interval -= rapidIntervalMs
	}

	// Modifier totals from every source, in fixed order.
	mods, diags := modifier.Aggregate(s.ModifierSources(), collect)

	effAtk := effectiveLevel(lv.Attack, pb.Accuracy, atkStyle)
	effStr := effectiveLevel(lv.Strength, pb.Strength, strStyle)
	effDef := effectiveLevel(lv.Defence, pb.Defence, defStyle)
	effRng := effectiveLevel(lv.Ranged, pb.Ranged, rngStyle)
	effMag := effectiveLevel(lv.Magic, pb.Magic, magStyle)

	cs := CombatStats{AttackType: at}

	var accuracy float64
	var maxHit int
	switch at {
	case gamedata.Ranged:
		accuracy = roll(effRng, bonus.RangedAttack) * mods.Combined(modifier.GlobalAccuracyPercent, modifier.RangedAccuracyPercent)
		maxHit = physicalMaxHit(effRng, bonus.RangedStrength)
	case gamedata.Magic:
		accuracy = roll(effMag, bonus.MagicAttack) * mods.Combined(modifier.GlobalAccuracyPercent, modifier.MagicAccuracyPercent)
		if sp, ok := s.Spell(); ok {
			dmg := 1 + (float64(bonus.MagicDamage)+mods.Get(modifier.MagicDamagePercent))/100
			maxHit = int(math.Floor(float64(sp.MaxHit) * math.Max(0, dmg)))
			cs.CastCost = sp.CastCost
		}
	default:
		accuracy = roll(effAtk, bonus.MeleeAttack) * mods.Combined(modifier.GlobalAccuracyPercent, modifier.MeleeAccuracyPercent)
		maxHit = physicalMaxHit(effStr, bonus.MeleeStrength)
	}
	cs.MaxAccuracy = accuracy

	magicDefLevel := int(math.Floor(0.3*float64(effDef) + 0.7*float64(effectiveLevel(lv.Magic, pb.Magic, 0))))
	cs.MaxEvasion = Evasion{
		Melee:  roll(effDef, bonus.MeleeDefence) * mods.Combined(modifier.GlobalEvasionPercent, modifier.MeleeEvasionPercent),
		Ranged: roll(effDef, bonus.RangedDefence) * mods.Combined(modifier.GlobalEvasionPercent, modifier.RangedEvasionPercent),
		Magic:  roll(magicDefLevel, bonus.MagicDefence) * mods.Combined(modifier.GlobalEvasionPercent, modifier.MagicEvasionPercent),
	}

	maxHit = int(math.Floor(float64(maxHit+int(mods.Get(modifier.FlatMaxHit))) * mods.Multiplier(modifier.MaxHitPercent)))
	cs.MaxHit = max(maxHit, 0)
	cs.MinHit = clampInt(1+int(mods.Get(modifier.FlatMinHit)), 0, cs.MaxHit)

	hp := float64(lv.Hitpoints*hpScale) + mods.Get(modifier.FlatMaxHitpoints)
	cs.MaxHitpoints = max(int(math.Floor(hp*mods.Multiplier(modifier.MaxHitpointsPercent))), 1)
	cs.DamageReduction = clamp(float64(bonus.DamageReduction)+mods.Get(modifier.FlatDamageReduction), 0, 100)

	interval += int64(mods.Get(modifier.FlatAttackInterval))
	interval = int64(math.Floor(float64(interval) * mods.Multiplier(modifier.AttackIntervalPercent)))
	cs.AttackIntervalMs = max(interval, MinAttackIntervalMs)

	for _, p := range s.Pets() {
		if p.Summon == nil {
			continue
		}
		hit := float64(p.Summon.MaxHit) + mods.Get(modifier.FlatSummonMaxHit)
		cs.SummonMaxHit = max(int(math.Floor(hit*mods.Multiplier(modifier.SummonMaxHitPercent))), 0)
		cs.SummonIntervalMs = max(int64(p.Summon.IntervalMs), MinAttackIntervalMs)
		break
	}

	cs.AutoEatThreshold = clamp(mods.Get(modifier.AutoEatThreshold), 0, 100)
	cs.AutoEatEfficiency = clamp(mods.Get(modifier.AutoEatEfficiency), 0, 100)
	cs.AutoEatHPLimit = clamp(mods.Get(modifier.AutoEatHPLimit), 0, 100)
	if food, _, ok := s.Food(); ok {
		cs.FoodHealing = max(int(math.Floor(float64(food.HealsFor)*mods.Multiplier(modifier.FoodHealingPercent))), 0)
	}

	cs.LootDoublingChance = clamp(mods.Get(modifier.LootDoublingChance), 0, 100)
	cs.GPMultiplier = mods.Multiplier(modifier.GPPercent)
	cs.LuckyHerbChance = clamp(mods.Get(modifier.LuckyHerbChance), 0, 100)
	cs.XPMultiplier = mods.Multiplier(modifier.XPPercent)

	regen := math.Floor(float64(cs.MaxHitpoints)*0.01*mods.Multiplier(modifier.HitpointRegenPercent)) + mods.Get(modifier.FlatHitpointRegen)
	cs.RegenPerTick = max(int(regen), 0)
	cs.LifestealPercent = clamp(mods.Get(modifier.LifestealPercent), 0, 100)
	cs.ReflectPercent = clamp(mods.Get(modifier.ReflectPercent), 0, 100)

	pm := mods.Multiplier(modifier.PrayerCostPercent)
	cs.PrayerCost = PrayerCost{
		PerPlayerAttack: cost.PerPlayerAttack * pm,
		PerEnemyAttack:  cost.PerEnemyAttack * pm,
		PerRegen:        cost.PerRegen * pm,
	}
	if pot, ok := s.Potion(); ok {
		cs.PotionCharges = max(pot.Charges+int(mods.Get(modifier.FlatPotionCharges)), 1)
	}

	return cs, diags
}

// ResolveMonster derives an enemy's combat statistics from its definition
// using the same level and roll formulas as the player, without styles,
// prayers or modifiers.
//
// Precondition: m must pass Validate.
// Postcondition: The result satisfies the CombatStats invariants.
func ResolveMonster(m gamedata.Monster) CombatStats {
	lv := m.Levels
	b := m.Bonuses
	atk := lv.Attack + levelOffset
	str := lv.Strength + levelOffset
	def := lv.Defence + levelOffset
	rng := lv.Ranged + levelOffset
	mag := lv.Magic + levelOffset

	cs := CombatStats{AttackType: m.AttackType, GPMultiplier: 1, XPMultiplier: 1}
	switch m.AttackType {
	case gamedata.Ranged:
		cs.MaxAccuracy = roll(rng, b.RangedAttack)
		cs.MaxHit = physicalMaxHit(rng, b.RangedStrength)
	case gamedata.Magic:
		cs.MaxAccuracy = roll(mag, b.MagicAttack)
		cs.MaxHit = max(int(math.Floor(float64(m.SpellMaxHit)*(1+float64(b.MagicDamage)/100))), 0)
	default:
		cs.MaxAccuracy = roll(atk, b.MeleeAttack)
		cs.MaxHit = physicalMaxHit(str, b.MeleeStrength)
	}
	cs.MinHit = clampInt(1, 0, cs.MaxHit)

	magicDefLevel := int(math.Floor(0.3*float64(def) + 0.7*float64(mag)))
	cs.MaxEvasion = Evasion{
		Melee:  roll(def, b.MeleeDefence),
		Ranged: roll(def, b.RangedDefence),
		Magic:  roll(magicDefLevel, b.MagicDefence),
	}
	cs.MaxHitpoints = max(lv.Hitpoints*hpScale, 1)
	cs.DamageReduction = clamp(float64(b.DamageReduction), 0, 100)

	interval := int64(m.AttackIntervalMs)
	if interval == 0 {
		interval = DefaultAttackIntervalMs
	}
	cs.AttackIntervalMs = max(interval, MinAttackIntervalMs)
	cs.LifestealPercent = clamp(m.LifestealPercent, 0, 100)
	cs.ReflectPercent = clamp(m.ReflectPercent, 0, 100)
	return cs
}

// HitChance returns the probability that an attack with maximum accuracy roll
// acc hits a defender with maximum evasion roll eva:
// 1 - eva/(2*acc) when acc >= eva, otherwise acc/(2*eva).
//
// Postcondition: 0 <= result <= 1.
func HitChance(acc, eva float64) float64 {
	if math.IsNaN(acc) || math.IsNaN(eva) || acc <= 0 {
		return 0
	}
	if eva <= 0 {
		return 1
	}
	var p float64
	if acc < eva {
		p = 0.5 * acc / eva
	} else {
		p = 1 - 0.5*eva/acc
	}
	return clamp(p, 0, 1)
}

func effectiveLevel(level, prayerPercent, style int) int {
	return int(math.Floor(float64(level)*(1+float64(prayerPercent)/100))) + levelOffset + style
}

// roll returns the maximum accuracy or evasion roll for an effective level
// and equipment bonus.
func roll(effLevel, bonus int) float64 {
	return float64(effLevel) * math.Max(float64(bonus+64), 0)
}

func physicalMaxHit(effStr, strBonus int) int {
	e := float64(effStr)
	b := float64(strBonus)
	hit := math.Floor(hpScale * (1.3 + e/10 + b/80 + e*b/640))
	return max(int(hit), 0)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
