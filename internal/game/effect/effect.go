// Package effect defines the closed set of status effects that attacks can
// apply during an encounter, and the per-combatant set tracking them.
package effect

import (
	"fmt"
)

// Kind enumerates every status effect the simulator resolves.
type Kind int

const (
	KindStun Kind = iota
	KindSleep
	KindDOT
	KindCurse
	KindReflect
	KindLifesteal
	KindAccuracyDebuff
	KindEvasionDebuff
)

// String returns the content name of k.
func (k Kind) String() string {
	switch k {
	case KindStun:
		return "stun"
	case KindSleep:
		return "sleep"
	case KindDOT:
		return "dot"
	case KindCurse:
		return "curse"
	case KindReflect:
		return "reflect"
	case KindLifesteal:
		return "lifesteal"
	case KindAccuracyDebuff:
		return "accuracy_debuff"
	case KindEvasionDebuff:
		return "evasion_debuff"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a content name back to its Kind.
//
// Postcondition: ParseKind(k.String()) == k for every declared Kind.
func ParseKind(s string) (Kind, error) {
	for k := KindStun; k <= KindEvasionDebuff; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("effect: unknown kind %q", s)
}

// DOTType distinguishes damage-over-time sources. Different types stack
// independently on one combatant.
type DOTType string

const (
	Bleed  DOTType = "bleed"
	Burn   DOTType = "burn"
	Poison DOTType = "poison"
)

// Effect is implemented only by the variants declared in this package.
type Effect interface {
	Kind() Kind
	// slot identifies the entry this effect occupies in an ActiveSet.
	slot() string
}

// Stun prevents the affected combatant from acting for Turns of its turns.
type Stun struct{ Turns int }

// Sleep behaves as Stun but ends early when the sleeper takes damage.
type Sleep struct{ Turns int }

// DOT deals Damage every IntervalMs, Procs times, ignoring damage reduction.
type DOT struct {
	Type       DOTType
	Procs      int
	IntervalMs int64
	Damage     int
}

// Curse weakens the affected combatant's defences.
type Curse struct {
	Turns int
	// DamageReduction is subtracted from the cursed combatant's damage reduction.
	DamageReduction float64
	// DamageTakenPercent increases damage the cursed combatant receives.
	DamageTakenPercent float64
}

// Reflect returns Percent of damage received to the attacker.
type Reflect struct {
	Turns   int
	Percent float64
}

// Lifesteal heals the affected combatant by Percent of damage it deals.
type Lifesteal struct {
	Turns   int
	Percent float64
}

// AccuracyDebuff reduces accuracy by Percent per stack.
type AccuracyDebuff struct {
	Turns     int
	Percent   float64
	MaxStacks int
}

// EvasionDebuff reduces every evasion roll by Percent per stack.
type EvasionDebuff struct {
	Turns     int
	Percent   float64
	MaxStacks int
}

func (Stun) Kind() Kind { return KindStun }
func (Sleep) Kind() Kind { return KindSleep }
func (DOT) Kind() Kind { return KindDOT }
func (Curse) Kind() Kind { return KindCurse }
func (Reflect) Kind() Kind { return KindReflect }
func (Lifesteal) Kind() Kind { return KindLifesteal }
func (AccuracyDebuff) Kind() Kind { return KindAccuracyDebuff }
func (EvasionDebuff) Kind() Kind { return KindEvasionDebuff }

func (Stun) slot() string { return "stun" }
func (Sleep) slot() string { return "sleep" }
func (d DOT) slot() string { return "dot:" + string(d.Type) }
func (Curse) slot() string { return "curse" }
func (Reflect) slot() string { return "reflect" }
func (Lifesteal) slot() string { return "lifesteal" }
func (AccuracyDebuff) slot() string { return "accuracy_debuff" }
func (EvasionDebuff) slot() string { return "evasion_debuff" }

// Validate checks the numeric fields of e.
//
// Postcondition: Returns nil iff every duration is positive and every
// percentage lies in [0, 100].
func Validate(e Effect) error {
	switch v := e.(type) {
	case Stun:
		return positive("stun.turns", v.Turns)
	case Sleep:
		return positive("sleep.turns", v.Turns)
	case DOT:
		switch v.Type {
		case Bleed, Burn, Poison:
		default:
			return fmt.Errorf("effect: dot type must be one of [bleed, burn, poison], got %q", v.Type)
		}
		if err := positive("dot.procs", v.Procs); err != nil {
			return err
		}
		if v.IntervalMs < 1 {
			return fmt.Errorf("effect: dot.interval_ms must be >= 1, got %d", v.IntervalMs)
		}
		if v.Damage < 0 {
			return fmt.Errorf("effect: dot.damage must be >= 0, got %d", v.Damage)
		}
		return nil
	case Curse:
		if err := positive("curse.turns", v.Turns); err != nil {
			return err
		}
		if err := percent("curse.damage_reduction", v.DamageReduction); err != nil {
			return err
		}
		return percent("curse.damage_taken_percent", v.DamageTakenPercent)
	case Reflect:
		if err := positive("reflect.turns", v.Turns); err != nil {
			return err
		}
		return percent("reflect.percent", v.Percent)
	case Lifesteal:
		if err := positive("lifesteal.turns", v.Turns); err != nil {
			return err
		}
		return percent("lifesteal.percent", v.Percent)
	case AccuracyDebuff:
		if err := positive("accuracy_debuff.turns", v.Turns); err != nil {
			return err
		}
		return percent("accuracy_debuff.percent", v.Percent)
	case EvasionDebuff:
		if err := positive("evasion_debuff.turns", v.Turns); err != nil {
			return err
		}
		return percent("evasion_debuff.percent", v.Percent)
	case nil:
		return fmt.Errorf("effect: nil effect")
	}
	return fmt.Errorf("effect: unsupported effect %T", e)
}

func positive(field string, n int) error {
	if n < 1 {
		return fmt.Errorf("effect: %s must be >= 1, got %d", field, n)
	}
	return nil
}

func percent(field string, p float64) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("effect: %s must be in [0, 100], got %g", field, p)
	}
	return nil
}
