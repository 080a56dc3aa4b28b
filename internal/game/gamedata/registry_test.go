package gamedata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
)

func goblin() *gamedata.Monster {
	return &gamedata.Monster{
		ID:         "goblin",
		Name:       "Goblin",
		Levels:     gamedata.Levels{Hitpoints: 12, Attack: 5, Strength: 5, Defence: 4},
		AttackType: gamedata.Melee,
		Loot: gamedata.LootTable{
			DropChance: 50,
			GP:         gamedata.GPRange{Min: 1, Max: 5},
			Items:      []gamedata.WeightedDrop{{ItemID: "ore", Weight: 1, MinQty: 1, MaxQty: 2}},
		},
	}
}

func TestRegistry_RegisterDuplicateMonster(t *testing.T) {
	r := gamedata.NewRegistry()
	require.NoError(t, r.RegisterMonster(goblin()))
	err := r.RegisterMonster(goblin())
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistry_RegisterInvalidMonster(t *testing.T) {
	r := gamedata.NewRegistry()
	m := goblin()
	m.AttackType = "psychic"
	assert.Error(t, r.RegisterMonster(m))
	_, ok := r.Monster("goblin")
	assert.False(t, ok)
}

func TestRegistry_CheckReferences_UnknownLootItem(t *testing.T) {
	r := gamedata.NewRegistry()
	require.NoError(t, r.RegisterMonster(goblin()))
	assert.ErrorContains(t, r.CheckReferences(), `unknown item "ore"`)

	require.NoError(t, r.RegisterItem(&gamedata.Item{ID: "ore", Category: gamedata.CategoryMisc}))
	assert.NoError(t, r.CheckReferences())
}

func TestRegistry_CheckReferences_UnknownDungeonMonster(t *testing.T) {
	r := gamedata.NewRegistry()
	require.NoError(t, r.RegisterDungeon(&gamedata.Dungeon{
		ID: "cave", Kind: gamedata.KindDungeon, Monsters: []string{"troll"},
	}))
	assert.ErrorContains(t, r.CheckReferences(), `unknown monster "troll"`)
}

func TestRegistry_IDsSorted(t *testing.T) {
	r := gamedata.NewRegistry()
	for _, id := range []string{"zombie", "bat", "mole"} {
		m := goblin()
		m.ID = id
		m.Loot.Items = nil
		require.NoError(t, r.RegisterMonster(m))
	}
	assert.Equal(t, []string{"bat", "mole", "zombie"}, r.MonsterIDs())
}

func TestItem_ValidateCategories(t *testing.T) {
	assert.Error(t, (&gamedata.Item{ID: "fish", Category: gamedata.CategoryFood}).Validate(), "food must heal")
	assert.Error(t, (&gamedata.Item{ID: "pot", Category: gamedata.CategoryPotion}).Validate(), "potion needs charges")
	assert.Error(t, (&gamedata.Item{ID: "sword", Category: gamedata.CategoryEquipment, Slot: gamedata.SlotWeapon}).Validate(), "weapon needs an attack type")
	assert.Error(t, (&gamedata.Item{ID: "hat", Category: gamedata.CategoryEquipment, Slot: "head"}).Validate())
	assert.NoError(t, (&gamedata.Item{ID: "hat", Category: gamedata.CategoryEquipment, Slot: gamedata.SlotHelmet}).Validate())
}

func TestSpecialAttack_Validate(t *testing.T) {
	assert.NoError(t, gamedata.SpecialAttack{ID: "a", Chance: 10, Damage: gamedata.DamageFixed, Value: 20}.Validate())
	assert.Error(t, gamedata.SpecialAttack{ID: "a", Chance: 110}.Validate())
	assert.Error(t, gamedata.SpecialAttack{ID: "a", Damage: "explode"}.Validate())
}

func TestMonster_CloneIsDeep(t *testing.T) {
	m := goblin()
	c := m.Clone()
	c.Loot.Items[0].Weight = 99
	assert.Equal(t, 1, m.Loot.Items[0].Weight)
}

func TestItem_CloneIsDeep(t *testing.T) {
	it := &gamedata.Item{ID: "ring", Modifiers: map[string]float64{"gpPercent": 5}}
	c := it.Clone()
	c.Modifiers["gpPercent"] = 50
	assert.Equal(t, 5.0, it.Modifiers["gpPercent"])
}

func TestLootTable_Property_ValidRangesAccepted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minGP := rapid.IntRange(0, 1000).Draw(rt, "min_gp")
		maxGP := rapid.IntRange(minGP, minGP+1000).Draw(rt, "max_gp")
		minQty := rapid.IntRange(1, 10).Draw(rt, "min_qty")
		maxQty := rapid.IntRange(minQty, minQty+10).Draw(rt, "max_qty")
		lt := gamedata.LootTable{
			DropChance: rapid.Float64Range(0, 100).Draw(rt, "chance"),
			GP:         gamedata.GPRange{Min: minGP, Max: maxGP},
			Items:      []gamedata.WeightedDrop{{ItemID: "x", Weight: 1, MinQty: minQty, MaxQty: maxQty}},
		}
		if err := lt.Validate(); err != nil {
			rt.Fatalf("valid table rejected: %v", err)
		}
	})
}
