package loadout

import (
	"fmt"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/modifier"
)

// Snapshot is an immutable, self-contained copy of every definition a
// loadout references. Definitions are deep-copied at Freeze time, so a
// Snapshot never observes later changes to the Lookup it was built from.
// Accessors return copies; a Snapshot is safe for concurrent reads.
type Snapshot struct {
	config     Config
	attackType gamedata.AttackType
	equipment  map[gamedata.Slot]*gamedata.Item
	spell      *gamedata.Spell
	prayers    []*gamedata.Prayer
	potion     *gamedata.Item
	pets       []*gamedata.Pet
	shop       []*gamedata.ShopUpgrade
	food       *gamedata.Item
}

// Freeze resolves every id in c against lookup and captures the result.
//
// Precondition: lookup must be non-nil.
// Postcondition: Returns a Snapshot or an error wrapping ErrUnknownReference
// for ids that do not resolve, or describing an invalid combination.
func Freeze(c Config, lookup gamedata.Lookup) (*Snapshot, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &Snapshot{
		config:     cloneConfig(c),
		attackType: gamedata.Melee,
		equipment:  make(map[gamedata.Slot]*gamedata.Item),
	}

	known := make(map[gamedata.Slot]bool, len(gamedata.Slots))
	for _, slot := range gamedata.Slots {
		known[slot] = true
	}
	for slot := range c.Equipment {
		if !known[slot] {
			return nil, fmt.Errorf("equipment: unknown slot %q", slot)
		}
	}
	for _, slot := range gamedata.Slots {
		id := c.Equipment[slot]
		if id == "" {
			continue
		}
		it, ok := lookup.Item(id)
		if !ok {
			return nil, fmt.Errorf("equipment.%s: item %q: %w", slot, id, ErrUnknownReference)
		}
		if it.Category != gamedata.CategoryEquipment || it.Slot != slot {
			return nil, fmt.Errorf("equipment.%s: item %q cannot be worn in slot %q", slot, id, slot)
		}
		s.equipment[slot] = it.Clone()
	}
	if w, ok := s.equipment[gamedata.SlotWeapon]; ok {
		s.attackType = w.AttackType
		if _, shield := s.equipment[gamedata.SlotShield]; w.TwoHanded && shield {
			return nil, fmt.Errorf("equipment: two-handed weapon %q cannot be combined with a shield", w.ID)
		}
	}

	if err := checkStyle(c.Style, s.attackType); err != nil {
		return nil, err
	}

	if c.Spell != "" {
		sp, ok := lookup.Spell(c.Spell)
		if !ok {
			return nil, fmt.Errorf("spell %q: %w", c.Spell, ErrUnknownReference)
		}
		cp := *sp
		s.spell = &cp
	}
	if s.attackType == gamedata.Magic && s.spell == nil {
		return nil, fmt.Errorf("magic weapon requires a selected spell")
	}

	for _, id := range c.Prayers {
		p, ok := lookup.Prayer(id)
		if !ok {
			return nil, fmt.Errorf("prayer %q: %w", id, ErrUnknownReference)
		}
		s.prayers = append(s.prayers, p.Clone())
	}

	if c.Potion != "" {
		it, ok := lookup.Item(c.Potion)
		if !ok {
			return nil, fmt.Errorf("potion %q: %w", c.Potion, ErrUnknownReference)
		}
		if it.Category != gamedata.CategoryPotion {
			return nil, fmt.Errorf("potion %q is not a potion", c.Potion)
		}
		s.potion = it.Clone()
	}

	for _, id := range c.Pets {
		p, ok := lookup.Pet(id)
		if !ok {
			return nil, fmt.Errorf("pet %q: %w", id, ErrUnknownReference)
		}
		s.pets = append(s.pets, p.Clone())
	}

	for _, id := range c.Shop {
		u, ok := lookup.ShopUpgrade(id)
		if !ok {
			return nil, fmt.Errorf("shop upgrade %q: %w", id, ErrUnknownReference)
		}
		s.shop = append(s.shop, u.Clone())
	}

	if c.Food.ItemID != "" {
		it, ok := lookup.Item(c.Food.ItemID)
		if !ok {
			return nil, fmt.Errorf("food %q: %w", c.Food.ItemID, ErrUnknownReference)
		}
		if it.Category != gamedata.CategoryFood {
			return nil, fmt.Errorf("food %q is not edible", c.Food.ItemID)
		}
		s.food = it.Clone()
	}

	return s, nil
}

func checkStyle(style Style, at gamedata.AttackType) error {
	allowed := map[gamedata.AttackType][]Style{
		gamedata.Melee:  {StyleAccurate, StyleAggressive, StyleDefensive},
		gamedata.Ranged: {StyleAccurate, StyleRapid, StyleLongrange},
		gamedata.Magic:  {StyleAccurate, StyleDefensive},
	}
	for _, s := range allowed[at] {
		if s == style {
			return nil
		}
	}
	return fmt.Errorf("style %q is not available for %s attacks", style, at)
}

// Config returns a copy of the loadout the snapshot was frozen from.
func (s *Snapshot) Config() Config {
	return cloneConfig(s.config)
}

// Levels returns the player's levels.
func (s *Snapshot) Levels() Levels {
	return s.config.Levels
}

// Style returns the combat style.
func (s *Snapshot) Style() Style {
	return s.config.Style
}

// AttackType returns the attack type implied by the equipped weapon.
func (s *Snapshot) AttackType() gamedata.AttackType {
	return s.attackType
}

// Equipped returns a copy of the item in slot.
func (s *Snapshot) Equipped(slot gamedata.Slot) (gamedata.Item, bool) {
	it, ok := s.equipment[slot]
	if !ok {
		return gamedata.Item{}, false
	}
	return *it.Clone(), true
}

// Equipment returns copies of every equipped item in gamedata.Slots order.
func (s *Snapshot) Equipment() []gamedata.Item {
	var out []gamedata.Item
	for _, slot := range gamedata.Slots {
		if it, ok := s.equipment[slot]; ok {
			out = append(out, *it.Clone())
		}
	}
	return out
}

// Spell returns the selected spell.
func (s *Snapshot) Spell() (gamedata.Spell, bool) {
	if s.spell == nil {
		return gamedata.Spell{}, false
	}
	return *s.spell, true
}

// Prayers returns copies of the active prayers in selection order.
func (s *Snapshot) Prayers() []gamedata.Prayer {
	out := make([]gamedata.Prayer, len(s.prayers))
	for i, p := range s.prayers {
		out[i] = *p.Clone()
	}
	return out
}

// Potion returns the active potion.
func (s *Snapshot) Potion() (gamedata.Item, bool) {
	if s.potion == nil {
		return gamedata.Item{}, false
	}
	return *s.potion.Clone(), true
}

// Pets returns copies of the selected pets in selection order.
func (s *Snapshot) Pets() []gamedata.Pet {
	out := make([]gamedata.Pet, len(s.pets))
	for i, p := range s.pets {
		out[i] = *p.Clone()
	}
	return out
}

// ShopUpgrades returns copies of the purchased upgrades in selection order.
func (s *Snapshot) ShopUpgrades() []gamedata.ShopUpgrade {
	out := make([]gamedata.ShopUpgrade, len(s.shop))
	for i, u := range s.shop {
		out[i] = *u.Clone()
	}
	return out
}

// Food returns the auto-eat food and its quantity; quantity 0 is unlimited.
func (s *Snapshot) Food() (item gamedata.Item, quantity int, ok bool) {
	if s.food == nil {
		return gamedata.Item{}, 0, false
	}
	return *s.food.Clone(), s.config.Food.Quantity, true
}

// ModifierSources lists every modifier contributor in resolution order:
// equipment, prayers, potion, pets, shop upgrades, area, township.
//
// Postcondition: The order and contents are identical on every call.
func (s *Snapshot) ModifierSources() []modifier.Source {
	var out []modifier.Source
	for _, slot := range gamedata.Slots {
		if it, ok := s.equipment[slot]; ok && len(it.Modifiers) > 0 {
			out = append(out, modifier.Source{Name: "equipment:" + it.ID, Values: cloneMap(it.Modifiers)})
		}
	}
	for _, p := range s.prayers {
		out = append(out, modifier.Source{Name: "prayer:" + p.ID, Values: cloneMap(p.Modifiers)})
	}
	if s.potion != nil {
		out = append(out, modifier.Source{Name: "potion:" + s.potion.ID, Values: cloneMap(s.potion.Modifiers)})
	}
	for _, p := range s.pets {
		out = append(out, modifier.Source{Name: "pet:" + p.ID, Values: cloneMap(p.Modifiers)})
	}
	for _, u := range s.shop {
		out = append(out, modifier.Source{Name: "shop:" + u.ID, Values: cloneMap(u.Modifiers)})
	}
	if len(s.config.AreaModifiers) > 0 {
		out = append(out, modifier.Source{Name: "area", Values: cloneMap(s.config.AreaModifiers)})
	}
	if len(s.config.TownshipModifiers) > 0 {
		out = append(out, modifier.Source{Name: "township", Values: cloneMap(s.config.TownshipModifiers)})
	}
	return out
}

func cloneConfig(c Config) Config {
	out := c
	if c.Equipment != nil {
		out.Equipment = make(map[gamedata.Slot]string, len(c.Equipment))
		for k, v := range c.Equipment {
			out.Equipment[k] = v
		}
	}
	out.Prayers = append([]string(nil), c.Prayers...)
	out.Pets = append([]string(nil), c.Pets...)
	out.Shop = append([]string(nil), c.Shop...)
	out.AreaModifiers = cloneMap(c.AreaModifiers)
	out.TownshipModifiers = cloneMap(c.TownshipModifiers)
	return out
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
