// Package gamedata holds the read-only monster, item, prayer, spell, pet,
// shop upgrade and dungeon definitions consumed by the simulator.
package gamedata

import (
	"fmt"

	"github.com/cory-johannsen/idlesim/internal/game/effect"
)

// AttackType is the damage style of an attack.
type AttackType string

const (
	Melee  AttackType = "melee"
	Ranged AttackType = "ranged"
	Magic  AttackType = "magic"
)

func (a AttackType) valid() bool {
	return a == Melee || a == Ranged || a == Magic
}

// Slot is an equipment slot.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotShield Slot = "shield"
	SlotHelmet Slot = "helmet"
	SlotBody   Slot = "body"
	SlotLegs   Slot = "legs"
	SlotBoots  Slot = "boots"
	SlotGloves Slot = "gloves"
	SlotCape   Slot = "cape"
	SlotAmulet Slot = "amulet"
	SlotRing   Slot = "ring"
	SlotQuiver Slot = "quiver"
)

// Slots lists every equipment slot in resolution order.
var Slots = []Slot{
	SlotWeapon, SlotShield, SlotHelmet, SlotBody, SlotLegs, SlotBoots,
	SlotGloves, SlotCape, SlotAmulet, SlotRing, SlotQuiver,
}

// ItemCategory classifies items.
type ItemCategory string

const (
	CategoryEquipment ItemCategory = "equipment"
	CategoryFood      ItemCategory = "food"
	CategoryPotion    ItemCategory = "potion"
	CategoryHerb      ItemCategory = "herb"
	CategoryMisc      ItemCategory = "misc"
)

// Bonuses are the flat combat bonuses of equipment or monsters.
type Bonuses struct {
	MeleeAttack     int `yaml:"melee_attack"`
	MeleeStrength   int `yaml:"melee_strength"`
	RangedAttack    int `yaml:"ranged_attack"`
	RangedStrength  int `yaml:"ranged_strength"`
	MagicAttack     int `yaml:"magic_attack"`
	MagicDamage     int `yaml:"magic_damage"`
	MeleeDefence    int `yaml:"melee_defence"`
	RangedDefence   int `yaml:"ranged_defence"`
	MagicDefence    int `yaml:"magic_defence"`
	DamageReduction int `yaml:"damage_reduction"`
}

// Add returns the field-wise sum of b and o.
func (b Bonuses) Add(o Bonuses) Bonuses {
	return Bonuses{
		MeleeAttack:     b.MeleeAttack + o.MeleeAttack,
		MeleeStrength:   b.MeleeStrength + o.MeleeStrength,
		RangedAttack:    b.RangedAttack + o.RangedAttack,
		RangedStrength:  b.RangedStrength + o.RangedStrength,
		MagicAttack:     b.MagicAttack + o.MagicAttack,
		MagicDamage:     b.MagicDamage + o.MagicDamage,
		MeleeDefence:    b.MeleeDefence + o.MeleeDefence,
		RangedDefence:   b.RangedDefence + o.RangedDefence,
		MagicDefence:    b.MagicDefence + o.MagicDefence,
		DamageReduction: b.DamageReduction + o.DamageReduction,
	}
}

// DamageKind selects how a special attack computes its damage.
type DamageKind string

const (
	// DamageNormal rolls between the attacker's min and max hit.
	DamageNormal DamageKind = ""
	// DamageFixed deals exactly Value.
	DamageFixed DamageKind = "fixed"
	// DamageMaxHitMultiplier deals floor(Value * attacker max hit).
	DamageMaxHitMultiplier DamageKind = "max_hit_multiplier"
	// DamageTargetMaxHPPercent deals floor(Value% of the target's max hitpoints).
	DamageTargetMaxHPPercent DamageKind = "target_max_hp_percent"
)

// SpecialAttack replaces a normal attack with Chance percent.
type SpecialAttack struct {
	ID         string        `yaml:"id"`
	Name       string        `yaml:"name"`
	Chance     float64       `yaml:"chance"`
	Damage     DamageKind    `yaml:"damage"`
	Value      float64       `yaml:"value"`
	AlwaysHits bool          `yaml:"always_hits"`
	Effects    []effect.Spec `yaml:"effects"`
}

// Validate checks the special attack invariants.
//
// Postcondition: Returns nil iff chance is in [0, 100], the damage kind is
// known and Value is non-negative.
func (s SpecialAttack) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("special attack: id must not be empty")
	}
	if s.Chance < 0 || s.Chance > 100 {
		return fmt.Errorf("special attack %q: chance must be in [0, 100], got %g", s.ID, s.Chance)
	}
	switch s.Damage {
	case DamageNormal, DamageFixed, DamageMaxHitMultiplier, DamageTargetMaxHPPercent:
	default:
		return fmt.Errorf("special attack %q: unknown damage kind %q", s.ID, s.Damage)
	}
	if s.Value < 0 {
		return fmt.Errorf("special attack %q: value must be >= 0, got %g", s.ID, s.Value)
	}
	return nil
}

// Levels are the combat skill levels of a monster.
type Levels struct {
	Hitpoints int `yaml:"hitpoints"`
	Attack    int `yaml:"attack"`
	Strength  int `yaml:"strength"`
	Defence   int `yaml:"defence"`
	Ranged    int `yaml:"ranged"`
	Magic     int `yaml:"magic"`
}

// WeightedDrop is one entry of a loot table.
type WeightedDrop struct {
	ItemID string `yaml:"item"`
	Weight int    `yaml:"weight"`
	MinQty int    `yaml:"min_qty"`
	MaxQty int    `yaml:"max_qty"`
}

// GPRange is an inclusive range of currency dropped per kill.
type GPRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// LootTable defines what a monster drops on death. DropChance is the percent
// chance that one weighted item drop occurs; GP always drops.
type LootTable struct {
	DropChance float64        `yaml:"drop_chance"`
	GP         GPRange        `yaml:"gp"`
	Items      []WeightedDrop `yaml:"items"`
	// Bones always drop once per kill when non-empty.
	Bones string `yaml:"bones"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Postcondition: Returns nil iff all currency and item constraints hold;
// an empty loot table is valid.
func (lt LootTable) Validate() error {
	if lt.DropChance < 0 || lt.DropChance > 100 {
		return fmt.Errorf("loot table: drop_chance must be in [0, 100], got %g", lt.DropChance)
	}
	if lt.GP.Min < 0 {
		return fmt.Errorf("loot table: gp min must be >= 0, got %d", lt.GP.Min)
	}
	if lt.GP.Min > lt.GP.Max {
		return fmt.Errorf("loot table: gp min (%d) must be <= max (%d)", lt.GP.Min, lt.GP.Max)
	}
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Weight < 1 {
			return fmt.Errorf("loot table: item[%d] weight must be >= 1, got %d", i, item.Weight)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// Monster is the static definition of an enemy.
type Monster struct {
	ID               string          `yaml:"id"`
	Name             string          `yaml:"name"`
	Levels           Levels          `yaml:"levels"`
	AttackType       AttackType      `yaml:"attack_type"`
	AttackIntervalMs int             `yaml:"attack_interval_ms"`
	Bonuses          Bonuses         `yaml:"bonuses"`
	SpellMaxHit      int             `yaml:"spell_max_hit"`
	LifestealPercent float64         `yaml:"lifesteal_percent"`
	ReflectPercent   float64         `yaml:"reflect_percent"`
	Specials         []SpecialAttack `yaml:"specials"`
	Loot             LootTable       `yaml:"loot"`
}

// Validate checks the monster invariants.
func (m *Monster) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("monster: id must not be empty")
	}
	if m.Levels.Hitpoints < 1 {
		return fmt.Errorf("monster %q: hitpoints level must be >= 1, got %d", m.ID, m.Levels.Hitpoints)
	}
	if !m.AttackType.valid() {
		return fmt.Errorf("monster %q: attack_type must be one of [melee, ranged, magic], got %q", m.ID, m.AttackType)
	}
	if m.AttackIntervalMs < 0 {
		return fmt.Errorf("monster %q: attack_interval_ms must be >= 0, got %d", m.ID, m.AttackIntervalMs)
	}
	for _, sp := range m.Specials {
		if err := sp.Validate(); err != nil {
			return fmt.Errorf("monster %q: %w", m.ID, err)
		}
	}
	if err := m.Loot.Validate(); err != nil {
		return fmt.Errorf("monster %q: %w", m.ID, err)
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Monster) Clone() *Monster {
	c := *m
	c.Specials = cloneSpecials(m.Specials)
	c.Loot.Items = append([]WeightedDrop(nil), m.Loot.Items...)
	return &c
}

// Item is the static definition of any item: equipment, food, potion or drop.
type Item struct {
	ID               string             `yaml:"id"`
	Name             string             `yaml:"name"`
	Category         ItemCategory       `yaml:"category"`
	Slot             Slot               `yaml:"slot"`
	AttackType       AttackType         `yaml:"attack_type"`
	AttackIntervalMs int                `yaml:"attack_interval_ms"`
	TwoHanded        bool               `yaml:"two_handed"`
	Bonuses          Bonuses            `yaml:"bonuses"`
	Modifiers        map[string]float64 `yaml:"modifiers"`
	Specials         []SpecialAttack    `yaml:"specials"`
	SellPrice        int                `yaml:"sell_price"`
	// HealsFor is the hitpoints restored by one unit of food.
	HealsFor int `yaml:"heals_for"`
	// Charges is the number of player attacks one potion lasts.
	Charges int `yaml:"charges"`
}

// Validate checks the item invariants.
func (it *Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("item: id must not be empty")
	}
	switch it.Category {
	case CategoryEquipment:
		valid := false
		for _, s := range Slots {
			if it.Slot == s {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("item %q: unknown slot %q", it.ID, it.Slot)
		}
		if it.Slot == SlotWeapon && !it.AttackType.valid() {
			return fmt.Errorf("item %q: weapon attack_type must be one of [melee, ranged, magic], got %q", it.ID, it.AttackType)
		}
	case CategoryFood:
		if it.HealsFor < 1 {
			return fmt.Errorf("item %q: food heals_for must be >= 1, got %d", it.ID, it.HealsFor)
		}
	case CategoryPotion:
		if it.Charges < 1 {
			return fmt.Errorf("item %q: potion charges must be >= 1, got %d", it.ID, it.Charges)
		}
	case CategoryHerb, CategoryMisc:
	default:
		return fmt.Errorf("item %q: unknown category %q", it.ID, it.Category)
	}
	if it.SellPrice < 0 {
		return fmt.Errorf("item %q: sell_price must be >= 0, got %d", it.ID, it.SellPrice)
	}
	for _, sp := range it.Specials {
		if err := sp.Validate(); err != nil {
			return fmt.Errorf("item %q: %w", it.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy of it.
func (it *Item) Clone() *Item {
	c := *it
	c.Modifiers = cloneModifiers(it.Modifiers)
	c.Specials = cloneSpecials(it.Specials)
	return &c
}

// PrayerBonuses are percentage increases of effective levels.
type PrayerBonuses struct {
	Accuracy int `yaml:"accuracy"`
	Strength int `yaml:"strength"`
	Defence  int `yaml:"defence"`
	Ranged   int `yaml:"ranged"`
	Magic    int `yaml:"magic"`
}

// Prayer is an activatable prayer with its point costs.
type Prayer struct {
	ID                    string             `yaml:"id"`
	Name                  string             `yaml:"name"`
	Bonuses               PrayerBonuses      `yaml:"bonuses"`
	Modifiers             map[string]float64 `yaml:"modifiers"`
	PointsPerPlayerAttack float64            `yaml:"points_per_player_attack"`
	PointsPerEnemyAttack  float64            `yaml:"points_per_enemy_attack"`
	PointsPerRegen        float64            `yaml:"points_per_regen"`
}

// Validate checks the prayer invariants.
func (p *Prayer) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prayer: id must not be empty")
	}
	if p.PointsPerPlayerAttack < 0 || p.PointsPerEnemyAttack < 0 || p.PointsPerRegen < 0 {
		return fmt.Errorf("prayer %q: point costs must be >= 0", p.ID)
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *Prayer) Clone() *Prayer {
	c := *p
	c.Modifiers = cloneModifiers(p.Modifiers)
	return &c
}

// Spell is a combat spell.
type Spell struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	MaxHit int    `yaml:"max_hit"`
	// CastCost is the gp value of runes consumed per cast.
	CastCost int `yaml:"cast_cost"`
}

// Validate checks the spell invariants.
func (s *Spell) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("spell: id must not be empty")
	}
	if s.MaxHit < 1 {
		return fmt.Errorf("spell %q: max_hit must be >= 1, got %d", s.ID, s.MaxHit)
	}
	if s.CastCost < 0 {
		return fmt.Errorf("spell %q: cast_cost must be >= 0, got %d", s.ID, s.CastCost)
	}
	return nil
}

// Summon describes a familiar's independent attack.
type Summon struct {
	MaxHit     int `yaml:"max_hit"`
	IntervalMs int `yaml:"interval_ms"`
}

// Pet is a passive pet or summoning familiar.
type Pet struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	Modifiers map[string]float64 `yaml:"modifiers"`
	Summon    *Summon            `yaml:"summon"`
}

// Validate checks the pet invariants.
func (p *Pet) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pet: id must not be empty")
	}
	if p.Summon != nil {
		if p.Summon.MaxHit < 0 {
			return fmt.Errorf("pet %q: summon max_hit must be >= 0, got %d", p.ID, p.Summon.MaxHit)
		}
		if p.Summon.IntervalMs < 250 {
			return fmt.Errorf("pet %q: summon interval_ms must be >= 250, got %d", p.ID, p.Summon.IntervalMs)
		}
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *Pet) Clone() *Pet {
	c := *p
	c.Modifiers = cloneModifiers(p.Modifiers)
	if p.Summon != nil {
		s := *p.Summon
		c.Summon = &s
	}
	return &c
}

// ShopUpgrade is a permanent shop purchase contributing modifiers.
type ShopUpgrade struct {
	ID        string             `yaml:"id"`
	Name      string             `yaml:"name"`
	Modifiers map[string]float64 `yaml:"modifiers"`
}

// Validate checks the shop upgrade invariants.
func (u *ShopUpgrade) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("shop upgrade: id must not be empty")
	}
	return nil
}

// Clone returns a deep copy of u.
func (u *ShopUpgrade) Clone() *ShopUpgrade {
	c := *u
	c.Modifiers = cloneModifiers(u.Modifiers)
	return &c
}

// DungeonKind distinguishes the sequential composite targets.
type DungeonKind string

const (
	KindDungeon    DungeonKind = "dungeon"
	KindStronghold DungeonKind = "stronghold"
	KindArea       DungeonKind = "area"
)

// ItemQty is a quantity of one item.
type ItemQty struct {
	ItemID string `yaml:"item"`
	Qty    int    `yaml:"qty"`
}

// Reward is granted once on completing every stage of a composite target.
type Reward struct {
	GP    int       `yaml:"gp"`
	Items []ItemQty `yaml:"items"`
}

// Dungeon is an ordered sequence of monsters fought back to back.
type Dungeon struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Kind     DungeonKind `yaml:"kind"`
	Monsters []string    `yaml:"monsters"`
	Reward   Reward      `yaml:"reward"`
}

// Validate checks the dungeon invariants.
func (d *Dungeon) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("dungeon: id must not be empty")
	}
	switch d.Kind {
	case KindDungeon, KindStronghold, KindArea:
	default:
		return fmt.Errorf("dungeon %q: kind must be one of [dungeon, stronghold, area], got %q", d.ID, d.Kind)
	}
	if len(d.Monsters) == 0 {
		return fmt.Errorf("dungeon %q: at least one monster is required", d.ID)
	}
	if d.Reward.GP < 0 {
		return fmt.Errorf("dungeon %q: reward gp must be >= 0, got %d", d.ID, d.Reward.GP)
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Dungeon) Clone() *Dungeon {
	c := *d
	c.Monsters = append([]string(nil), d.Monsters...)
	c.Reward.Items = append([]ItemQty(nil), d.Reward.Items...)
	return &c
}

func cloneModifiers(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSpecials(in []SpecialAttack) []SpecialAttack {
	if in == nil {
		return nil
	}
	out := make([]SpecialAttack, len(in))
	for i, sp := range in {
		out[i] = sp
		out[i].Effects = append([]effect.Spec(nil), sp.Effects...)
	}
	return out
}
