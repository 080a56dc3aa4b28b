// Package target resolves target ids into self-contained simulation targets.
package target

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
)

// ErrUnknownTarget is returned when an id names neither a monster nor a dungeon.
var ErrUnknownTarget = errors.New("unknown target")

// Kind classifies a target.
type Kind string

const (
	KindMonster    Kind = "monster"
	KindDungeon    Kind = "dungeon"
	KindStronghold Kind = "stronghold"
	KindArea       Kind = "area"
)

// Stage is one monster fought as part of a target.
type Stage struct {
	Opponent combat.Opponent
	Loot     gamedata.LootTable
}

// Target is a monster or an ordered sequence of monsters with an optional
// completion reward. Every item it references is priced in Prices, so a
// Target never consults the registry after Resolve.
type Target struct {
	ID     string
	Name   string
	Kind   Kind
	Stages []Stage
	Reward gamedata.Reward
	Prices loot.Prices
}

// Composite reports whether t has more than the single-monster shape.
func (t Target) Composite() bool {
	return t.Kind != KindMonster
}

// Resolve builds the Target for id. Monster ids take precedence over
// dungeon ids.
//
// Precondition: lookup must be non-nil.
// Postcondition: Returns a Target with at least one stage, or an error
// wrapping ErrUnknownTarget or loot.ErrUnknownItem.
func Resolve(lookup gamedata.Lookup, id string) (Target, error) {
	if m, ok := lookup.Monster(id); ok {
		t := Target{ID: id, Name: m.Name, Kind: KindMonster, Prices: loot.Prices{}}
		if err := t.addStage(lookup, m); err != nil {
			return Target{}, err
		}
		return t, nil
	}
	d, ok := lookup.Dungeon(id)
	if !ok {
		return Target{}, fmt.Errorf("%w %q", ErrUnknownTarget, id)
	}
	d = d.Clone()
	if len(d.Monsters) == 0 {
		return Target{}, fmt.Errorf("target %q: no monsters", id)
	}
	t := Target{ID: id, Name: d.Name, Kind: Kind(d.Kind), Reward: d.Reward, Prices: loot.Prices{}}
	for _, mid := range d.Monsters {
		m, ok := lookup.Monster(mid)
		if !ok {
			return Target{}, fmt.Errorf("target %q: %w %q", id, ErrUnknownTarget, mid)
		}
		if err := t.addStage(lookup, m); err != nil {
			return Target{}, err
		}
	}
	if err := t.Prices.Capture(lookup, loot.RewardItems(d.Reward)...); err != nil {
		return Target{}, fmt.Errorf("target %q: %w", id, err)
	}
	return t, nil
}

func (t *Target) addStage(lookup gamedata.Lookup, m *gamedata.Monster) error {
	m = m.Clone()
	if err := t.Prices.Capture(lookup, loot.TableItems(m.Loot)...); err != nil {
		return fmt.Errorf("target %q: monster %q: %w", t.ID, m.ID, err)
	}
	t.Stages = append(t.Stages, Stage{Opponent: combat.NewOpponent(*m), Loot: m.Loot})
	return nil
}

// ResolveAll resolves every id, collecting per-id errors instead of stopping
// at the first.
//
// Postcondition: Every id yields either a Target, in input order, or an
// entry in errs keyed by that id.
func ResolveAll(lookup gamedata.Lookup, ids []string) (targets []Target, errs map[string]error) {
	for _, id := range ids {
		t, err := Resolve(lookup, id)
		if err != nil {
			if errs == nil {
				errs = make(map[string]error)
			}
			errs[id] = err
			continue
		}
		targets = append(targets, t)
	}
	return targets, errs
}
