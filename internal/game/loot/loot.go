// Package loot computes the expected value of monster drops and completion
// rewards.
package loot

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
)

// ErrUnknownItem is returned when a loot table references an undefined item.
var ErrUnknownItem = errors.New("unknown item")

// Price is the part of an item definition that loot valuation needs.
type Price struct {
	Sell int
	Herb bool
}

// Prices maps item ids to their captured prices.
type Prices map[string]Price

// Capture records the price of every id in ids that is not already present.
//
// Precondition: lookup must be non-nil.
// Postcondition: Returns an error wrapping ErrUnknownItem if any id is undefined.
func (p Prices) Capture(lookup gamedata.Lookup, ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := p[id]; ok {
			continue
		}
		it, ok := lookup.Item(id)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownItem, id)
		}
		p[id] = Price{Sell: it.SellPrice, Herb: it.Category == gamedata.CategoryHerb}
	}
	return nil
}

// TableItems returns every item id referenced by lt.
func TableItems(lt gamedata.LootTable) []string {
	ids := make([]string, 0, len(lt.Items)+1)
	for _, d := range lt.Items {
		ids = append(ids, d.ItemID)
	}
	if lt.Bones != "" {
		ids = append(ids, lt.Bones)
	}
	return ids
}

// RewardItems returns every item id referenced by rw.
func RewardItems(rw gamedata.Reward) []string {
	ids := make([]string, 0, len(rw.Items))
	for _, it := range rw.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

// Drop is an expected yield: currency, the sell value of items, and the
// expected quantity of each item.
type Drop struct {
	GP         float64
	ItemValue  float64
	Quantities map[string]float64
}

// Add returns d + o.
func (d Drop) Add(o Drop) Drop {
	out := Drop{GP: d.GP + o.GP, ItemValue: d.ItemValue + o.ItemValue}
	if len(d.Quantities)+len(o.Quantities) > 0 {
		out.Quantities = make(map[string]float64, len(d.Quantities)+len(o.Quantities))
		for id, q := range d.Quantities {
			out.Quantities[id] += q
		}
		for id, q := range o.Quantities {
			out.Quantities[id] += q
		}
	}
	return out
}

// Scale returns d with every component multiplied by f.
func (d Drop) Scale(f float64) Drop {
	out := Drop{GP: d.GP * f, ItemValue: d.ItemValue * f}
	if len(d.Quantities) > 0 {
		out.Quantities = make(map[string]float64, len(d.Quantities))
		for id, q := range d.Quantities {
			out.Quantities[id] = q * f
		}
	}
	return out
}

// ItemIDs returns the ids with a positive expected quantity, sorted.
func (d Drop) ItemIDs() []string {
	ids := make([]string, 0, len(d.Quantities))
	for id, q := range d.Quantities {
		if q > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Expected returns the expected yield of one kill on lt for a player with cs.
// GP is scaled by the gp multiplier; item quantities by loot doubling, and
// herbs additionally by the lucky-herb bonus.
//
// Precondition: lt must pass Validate; prices must cover TableItems(lt).
// Postcondition: Every component is >= 0.
func Expected(lt gamedata.LootTable, prices Prices, cs stats.CombatStats) Drop {
	d := Drop{
		GP:         float64(lt.GP.Min+lt.GP.Max) / 2 * cs.GPMultiplier,
		Quantities: make(map[string]float64),
	}
	doubling := 1 + cs.LootDoublingChance/100
	add := func(id string, qty float64) {
		price := prices[id]
		if price.Herb {
			qty *= 1 + cs.LuckyHerbChance/100
		}
		d.Quantities[id] += qty
		d.ItemValue += qty * float64(price.Sell)
	}

	total := 0
	for _, drop := range lt.Items {
		total += drop.Weight
	}
	if total > 0 && lt.DropChance > 0 {
		p := lt.DropChance / 100
		for _, drop := range lt.Items {
			share := p * float64(drop.Weight) / float64(total)
			add(drop.ItemID, share*float64(drop.MinQty+drop.MaxQty)/2*doubling)
		}
	}
	if lt.Bones != "" {
		add(lt.Bones, doubling)
	}
	return d
}

// RewardValue returns the yield of one completion reward. Reward gp is
// scaled by the gp multiplier; reward items are never doubled.
//
// Precondition: prices must cover RewardItems(rw).
func RewardValue(rw gamedata.Reward, prices Prices, cs stats.CombatStats) Drop {
	d := Drop{GP: float64(rw.GP) * cs.GPMultiplier}
	if len(rw.Items) == 0 {
		return d
	}
	d.Quantities = make(map[string]float64, len(rw.Items))
	for _, it := range rw.Items {
		d.Quantities[it.ItemID] += float64(it.Qty)
		d.ItemValue += float64(it.Qty * prices[it.ItemID].Sell)
	}
	return d
}
