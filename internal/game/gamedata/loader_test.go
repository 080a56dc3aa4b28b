package gamedata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idlesim/internal/game/effect"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDirectory_MixedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "items.yaml", `
items:
  - id: bones
    category: misc
    sell_price: 1
`)
	writeFile(t, dir, "monsters/rats.yaml", `
monsters:
  - id: rat
    name: Rat
    levels: {hitpoints: 2, attack: 1, strength: 1, defence: 1}
    attack_type: melee
    specials:
      - id: gnaw
        chance: 10
        effects:
          - kind: dot
            dot: bleed
            procs: 2
            interval_ms: 1000
            damage: 3
    loot:
      bones: bones
`)
	writeFile(t, dir, "README.txt", "ignored")
	writeFile(t, dir, "empty.yaml", "")

	reg, err := gamedata.LoadDirectory(dir)
	require.NoError(t, err)

	rat, ok := reg.Monster("rat")
	require.True(t, ok)
	require.Len(t, rat.Specials, 1)
	require.Len(t, rat.Specials[0].Effects, 1)
	assert.Equal(t, effect.DOT{Type: effect.Bleed, Procs: 2, IntervalMs: 1000, Damage: 3}, rat.Specials[0].Effects[0].Effect)
	assert.Equal(t, 100.0, rat.Specials[0].Effects[0].Chance)
}

func TestLoadDirectory_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", `
spells:
  - id: ember
    max_hit: 10
    colour: red
`)
	_, err := gamedata.LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadDirectory_DuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	spell := "spells:\n  - id: ember\n    max_hit: 10\n"
	writeFile(t, dir, "a.yaml", spell)
	writeFile(t, dir, "b.yaml", spell)
	_, err := gamedata.LoadDirectory(dir)
	assert.ErrorContains(t, err, "already registered")
}

func TestLoadDirectory_MissingDir(t *testing.T) {
	_, err := gamedata.LoadDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadDirectory_ShippedContent(t *testing.T) {
	reg, err := gamedata.LoadDirectory(filepath.Join("..", "..", "..", "content"))
	require.NoError(t, err)

	assert.Contains(t, reg.MonsterIDs(), "fire_drake")
	assert.Contains(t, reg.DungeonIDs(), "goblin_warren")

	drake, ok := reg.Monster("fire_drake")
	require.True(t, ok)
	assert.Equal(t, gamedata.Ranged, drake.AttackType)
	require.Len(t, drake.Specials, 2)

	food, ok := reg.Item("trout")
	require.True(t, ok)
	assert.Equal(t, gamedata.CategoryFood, food.Category)
}
