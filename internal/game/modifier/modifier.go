// Package modifier aggregates the named numeric modifiers contributed by a
// loadout's equipment, prayers, potion, pets, shop upgrades and area effects.
//
// The set of recognised keys is closed. A key outside the set resolves to a
// neutral value and, when diagnostics are requested, is reported back to the
// caller instead of failing the aggregation.
package modifier

import (
	"sort"
)

// Key names one recognised modifier.
type Key string

// Flat keys add directly to a base value in that value's own unit.
const (
	FlatMaxHit          Key = "flatMaxHit"
	FlatMinHit          Key = "flatMinHit"
	FlatMaxHitpoints    Key = "flatMaxHitpoints"
	FlatDamageReduction Key = "flatDamageReduction"
	FlatAttackInterval  Key = "flatAttackInterval"
	FlatHitpointRegen   Key = "flatHitpointRegen"
	FlatSummonMaxHit    Key = "flatSummonMaxHit"
	FlatPotionCharges   Key = "flatPotionCharges"
)

// Percent keys are summed across sources and then applied as a multiplier
// of (1 + sum/100) to the flat-adjusted base.
const (
	MaxHitPercent         Key = "maxHitPercent"
	GlobalAccuracyPercent Key = "globalAccuracyPercent"
	MeleeAccuracyPercent  Key = "meleeAccuracyPercent"
	RangedAccuracyPercent Key = "rangedAccuracyPercent"
	MagicAccuracyPercent  Key = "magicAccuracyPercent"
	GlobalEvasionPercent  Key = "globalEvasionPercent"
	MeleeEvasionPercent   Key = "meleeEvasionPercent"
	RangedEvasionPercent  Key = "rangedEvasionPercent"
	MagicEvasionPercent   Key = "magicEvasionPercent"
	MaxHitpointsPercent   Key = "maxHitpointsPercent"
	AttackIntervalPercent Key = "attackIntervalPercent"
	MagicDamagePercent    Key = "magicDamagePercent"
	SummonMaxHitPercent   Key = "summonMaxHitPercent"
	HitpointRegenPercent  Key = "hitpointRegenPercent"
	FoodHealingPercent    Key = "foodHealingPercent"
	PrayerCostPercent     Key = "prayerCostPercent"
	GPPercent             Key = "gpPercent"
	XPPercent             Key = "xpPercent"
)

// Chance keys are percentages consumed as-is after clamping.
const (
	LootDoublingChance Key = "lootDoublingChance"
	LuckyHerbChance    Key = "luckyHerbChance"
	LifestealPercent   Key = "lifestealPercent"
	ReflectPercent     Key = "reflectPercent"
	AutoEatThreshold   Key = "autoEatThreshold"
	AutoEatEfficiency  Key = "autoEatEfficiency"
	AutoEatHPLimit     Key = "autoEatHPLimit"
)

var known = map[Key]struct{}{
	FlatMaxHit: {}, FlatMinHit: {}, FlatMaxHitpoints: {}, FlatDamageReduction: {},
	FlatAttackInterval: {}, FlatHitpointRegen: {}, FlatSummonMaxHit: {}, FlatPotionCharges: {},
	MaxHitPercent: {}, GlobalAccuracyPercent: {}, MeleeAccuracyPercent: {},
	RangedAccuracyPercent: {}, MagicAccuracyPercent: {}, GlobalEvasionPercent: {},
	MeleeEvasionPercent: {}, RangedEvasionPercent: {}, MagicEvasionPercent: {},
	MaxHitpointsPercent: {}, AttackIntervalPercent: {}, MagicDamagePercent: {},
	SummonMaxHitPercent: {}, HitpointRegenPercent: {}, FoodHealingPercent: {},
	PrayerCostPercent: {}, GPPercent: {}, XPPercent: {},
	LootDoublingChance: {}, LuckyHerbChance: {}, LifestealPercent: {}, ReflectPercent: {},
	AutoEatThreshold: {}, AutoEatEfficiency: {}, AutoEatHPLimit: {},
}

// Known reports whether name is a recognised modifier key.
func Known(name string) bool {
	_, ok := known[Key(name)]
	return ok
}

// Keys returns every recognised key in lexical order.
func Keys() []Key {
	out := make([]Key, 0, len(known))
	for k := range known {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Source is one named contributor of modifier values, such as a piece of
// equipment or an active prayer.
type Source struct {
	Name   string
	Values map[string]float64
}

// Diagnostic records a modifier key that no resolver rule consumes.
type Diagnostic struct {
	Source string
	Key    string
	Value  float64
}

// Set is the aggregated total of every recognised key. The zero Set is empty
// and returns 0 for every key.
type Set struct {
	values map[Key]float64
}

// Get returns the summed value for k, or 0 when no source contributed it.
func (s Set) Get(k Key) float64 {
	return s.values[k]
}

// Multiplier returns (1 + Get(k)/100), floored at 0.
//
// Postcondition: result >= 0.
func (s Set) Multiplier(k Key) float64 {
	m := 1 + s.values[k]/100
	if m < 0 {
		return 0
	}
	return m
}

// Combined returns (1 + sum of keys/100), floored at 0. It is used where a
// global and a type-specific percentage apply together.
//
// Postcondition: result >= 0.
func (s Set) Combined(keys ...Key) float64 {
	m := 1.0
	for _, k := range keys {
		m += s.values[k] / 100
	}
	if m < 0 {
		return 0
	}
	return m
}

// Len returns the number of keys with a contribution.
func (s Set) Len() int {
	return len(s.values)
}

// Aggregate sums the values of every source in the given order. When collect
// is true, unrecognised keys are returned as diagnostics sorted by source
// position and then key; otherwise the returned slice is nil.
//
// Postcondition: The result depends only on the ordered contents of sources.
func Aggregate(sources []Source, collect bool) (Set, []Diagnostic) {
	set := Set{values: make(map[Key]float64)}
	var diags []Diagnostic
	for _, src := range sources {
		var unknown []Diagnostic
		for name, v := range src.Values {
			k := Key(name)
			if _, ok := known[k]; !ok {
				if collect {
					unknown = append(unknown, Diagnostic{Source: src.Name, Key: name, Value: v})
				}
				continue
			}
			set.values[k] += v
		}
		sort.Slice(unknown, func(i, j int) bool { return unknown[i].Key < unknown[j].Key })
		diags = append(diags, unknown...)
	}
	return set, diags
}
