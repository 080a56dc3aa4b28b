package effect

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Target selects which combatant an attack's effect lands on.
type Target string

const (
	// Opponent is the combatant being attacked.
	Opponent Target = "opponent"
	// Self is the attacker.
	Self Target = "self"
)

// Spec is an effect attached to an attack, applied with Chance percent on hit.
// Content that omits chance applies the effect on every hit.
type Spec struct {
	// Chance is the application chance in percent, in [0, 100].
	Chance float64
	Target Target
	Effect Effect
}

// specYAML is the flat content representation of a Spec.
type specYAML struct {
	Kind               string   `yaml:"kind"`
	Chance             *float64 `yaml:"chance"`
	Target             Target   `yaml:"target"`
	Turns              int      `yaml:"turns"`
	DOT                DOTType  `yaml:"dot"`
	Procs              int      `yaml:"procs"`
	IntervalMs         int64    `yaml:"interval_ms"`
	Damage             int      `yaml:"damage"`
	Percent            float64  `yaml:"percent"`
	MaxStacks          int      `yaml:"max_stacks"`
	DamageReduction    float64  `yaml:"damage_reduction"`
	DamageTakenPercent float64  `yaml:"damage_taken_percent"`
}

// UnmarshalYAML decodes the flat content form into the matching variant.
//
// Postcondition: On success s.Effect is non-nil and passes Validate.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	var raw specYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return err
	}

	var e Effect
	switch kind {
	case KindStun:
		e = Stun{Turns: raw.Turns}
	case KindSleep:
		e = Sleep{Turns: raw.Turns}
	case KindDOT:
		e = DOT{Type: raw.DOT, Procs: raw.Procs, IntervalMs: raw.IntervalMs, Damage: raw.Damage}
	case KindCurse:
		e = Curse{Turns: raw.Turns, DamageReduction: raw.DamageReduction, DamageTakenPercent: raw.DamageTakenPercent}
	case KindReflect:
		e = Reflect{Turns: raw.Turns, Percent: raw.Percent}
	case KindLifesteal:
		e = Lifesteal{Turns: raw.Turns, Percent: raw.Percent}
	case KindAccuracyDebuff:
		e = AccuracyDebuff{Turns: raw.Turns, Percent: raw.Percent, MaxStacks: raw.MaxStacks}
	case KindEvasionDebuff:
		e = EvasionDebuff{Turns: raw.Turns, Percent: raw.Percent, MaxStacks: raw.MaxStacks}
	}
	if err := Validate(e); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	target := raw.Target
	if target == "" {
		target = Opponent
	}
	if target != Opponent && target != Self {
		return fmt.Errorf("line %d: effect: target must be one of [opponent, self], got %q", node.Line, target)
	}
	chance := 100.0
	if raw.Chance != nil {
		chance = *raw.Chance
	}
	if chance < 0 || chance > 100 {
		return fmt.Errorf("line %d: effect: chance must be in [0, 100], got %g", node.Line, chance)
	}

	s.Chance = chance
	s.Target = target
	s.Effect = e
	return nil
}
