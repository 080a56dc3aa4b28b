package loot_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata/mocks"
	"github.com/cory-johannsen/idlesim/internal/game/loot"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
)

func goblin(t *testing.T) (gamedata.LootTable, loot.Prices) {
	t.Helper()
	reg, err := gamedata.LoadDirectory(filepath.Join("..", "..", "..", "content"))
	require.NoError(t, err)
	m, ok := reg.Monster("goblin")
	require.True(t, ok)
	prices := loot.Prices{}
	require.NoError(t, prices.Capture(reg, loot.TableItems(m.Loot)...))
	return m.Loot, prices
}

func TestExpected_Goblin(t *testing.T) {
	lt, prices := goblin(t)
	d := loot.Expected(lt, prices, stats.CombatStats{GPMultiplier: 1})

	assert.InDelta(t, 12.5, d.GP, 1e-9)
	assert.InDelta(t, 0.96+0.48+1.2+1, d.ItemValue, 1e-9)
	assert.InDelta(t, 0.48, d.Quantities["copper_ore"], 1e-9)
	assert.InDelta(t, 1, d.Quantities["bones"], 1e-9)
	assert.Equal(t, []string{"bones", "copper_ore", "guam_leaf", "ranarr_weed"}, d.ItemIDs())
}

func TestExpected_DoublingAndLuckyHerbs(t *testing.T) {
	lt, prices := goblin(t)
	d := loot.Expected(lt, prices, stats.CombatStats{GPMultiplier: 2, LootDoublingChance: 100, LuckyHerbChance: 100})

	assert.InDelta(t, 25, d.GP, 1e-9)
	assert.InDelta(t, 1.92+1.92+4.8+2, d.ItemValue, 1e-9)
	assert.InDelta(t, 0.48, d.Quantities["guam_leaf"], 1e-9, "0.12 doubled, then doubled again as a herb")
}

func TestRewardValue(t *testing.T) {
	prices := loot.Prices{"dragon_scale": {Sell: 250}}
	d := loot.RewardValue(gamedata.Reward{GP: 100, Items: []gamedata.ItemQty{{ItemID: "dragon_scale", Qty: 2}}}, prices,
		stats.CombatStats{GPMultiplier: 1.5, LootDoublingChance: 100})

	assert.InDelta(t, 150, d.GP, 1e-9)
	assert.InDelta(t, 500, d.ItemValue, 1e-9)
	assert.InDelta(t, 2, d.Quantities["dragon_scale"], 1e-9)
}

func TestCapture_UnknownItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	lookup := mocks.NewMockLookup(ctrl)
	lookup.EXPECT().Item("bones").Return(&gamedata.Item{ID: "bones", SellPrice: 1}, true)
	lookup.EXPECT().Item("moon_rock").Return(nil, false)

	prices := loot.Prices{}
	err := prices.Capture(lookup, "bones", "bones", "", "moon_rock")
	require.ErrorIs(t, err, loot.ErrUnknownItem)
	assert.Contains(t, err.Error(), "moon_rock")
	assert.Equal(t, loot.Price{Sell: 1}, prices["bones"])
}

func TestDrop_AddAndScale(t *testing.T) {
	a := loot.Drop{GP: 1, ItemValue: 2, Quantities: map[string]float64{"x": 1}}
	b := loot.Drop{GP: 3, ItemValue: 4, Quantities: map[string]float64{"x": 2, "y": 1}}

	sum := a.Add(b)
	assert.Equal(t, loot.Drop{GP: 4, ItemValue: 6, Quantities: map[string]float64{"x": 3, "y": 1}}, sum)
	assert.Equal(t, loot.Drop{GP: 2, ItemValue: 3, Quantities: map[string]float64{"x": 1.5, "y": 0.5}}, sum.Scale(0.5))
	assert.Equal(t, 1.0, a.Quantities["x"], "Add does not mutate its receiver")
}

func TestProperty_ExpectedNonNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(rt, "n")
		lt := gamedata.LootTable{DropChance: rapid.Float64Range(0, 100).Draw(rt, "chance")}
		lt.GP.Min = rapid.IntRange(0, 100).Draw(rt, "gpMin")
		lt.GP.Max = lt.GP.Min + rapid.IntRange(0, 100).Draw(rt, "gpSpread")
		prices := loot.Prices{}
		for i := range n {
			id := string(rune('a' + i))
			minQty := rapid.IntRange(1, 10).Draw(rt, "min")
			lt.Items = append(lt.Items, gamedata.WeightedDrop{
				ItemID: id, Weight: rapid.IntRange(1, 10).Draw(rt, "weight"),
				MinQty: minQty, MaxQty: minQty + rapid.IntRange(0, 5).Draw(rt, "spread"),
			})
			prices[id] = loot.Price{Sell: rapid.IntRange(0, 1000).Draw(rt, "sell"), Herb: rapid.Bool().Draw(rt, "herb")}
		}
		cs := stats.CombatStats{
			GPMultiplier:       rapid.Float64Range(0, 5).Draw(rt, "gp"),
			LootDoublingChance: rapid.Float64Range(0, 100).Draw(rt, "double"),
			LuckyHerbChance:    rapid.Float64Range(0, 100).Draw(rt, "herbChance"),
		}
		d := loot.Expected(lt, prices, cs)
		if d.GP < 0 || d.ItemValue < 0 {
			rt.Fatalf("negative yield %+v", d)
		}
	})
}
