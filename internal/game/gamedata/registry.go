package gamedata

import (
	"fmt"
	"sort"
)

//go:generate go tool mockgen -destination=./mocks/lookup_mock.go -package=mocks . Lookup

// Lookup exposes read-only access to game definitions by id. Returned
// pointers are shared; callers must not modify them.
type Lookup interface {
	Monster(id string) (*Monster, bool)
	Item(id string) (*Item, bool)
	Prayer(id string) (*Prayer, bool)
	Spell(id string) (*Spell, bool)
	Pet(id string) (*Pet, bool)
	ShopUpgrade(id string) (*ShopUpgrade, bool)
	Dungeon(id string) (*Dungeon, bool)
	// MonsterIDs and DungeonIDs list every registered id in lexical order.
	MonsterIDs() []string
	DungeonIDs() []string
}

// Registry holds all loaded definitions indexed by ID.
// It is safe for concurrent reads once loading has finished.
type Registry struct {
	monsters map[string]*Monster
	items    map[string]*Item
	prayers  map[string]*Prayer
	spells   map[string]*Spell
	pets     map[string]*Pet
	shop     map[string]*ShopUpgrade
	dungeons map[string]*Dungeon
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		monsters: make(map[string]*Monster),
		items:    make(map[string]*Item),
		prayers:  make(map[string]*Prayer),
		spells:   make(map[string]*Spell),
		pets:     make(map[string]*Pet),
		shop:     make(map[string]*ShopUpgrade),
		dungeons: make(map[string]*Dungeon),
	}
}

// RegisterMonster validates and adds m.
//
// Precondition: m must not be nil.
// Postcondition: Monster(m.ID) returns m; returns error if m is invalid or m.ID already registered.
func (r *Registry) RegisterMonster(m *Monster) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, exists := r.monsters[m.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterMonster: monster ID %q already registered", m.ID)
	}
	r.monsters[m.ID] = m
	return nil
}

// RegisterItem validates and adds it.
//
// Precondition: it must not be nil.
// Postcondition: Item(it.ID) returns it; returns error if it is invalid or it.ID already registered.
func (r *Registry) RegisterItem(it *Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if _, exists := r.items[it.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterItem: item ID %q already registered", it.ID)
	}
	r.items[it.ID] = it
	return nil
}

// RegisterPrayer validates and adds p.
func (r *Registry) RegisterPrayer(p *Prayer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := r.prayers[p.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterPrayer: prayer ID %q already registered", p.ID)
	}
	r.prayers[p.ID] = p
	return nil
}

// RegisterSpell validates and adds s.
func (r *Registry) RegisterSpell(s *Spell) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, exists := r.spells[s.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterSpell: spell ID %q already registered", s.ID)
	}
	r.spells[s.ID] = s
	return nil
}

// RegisterPet validates and adds p.
func (r *Registry) RegisterPet(p *Pet) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := r.pets[p.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterPet: pet ID %q already registered", p.ID)
	}
	r.pets[p.ID] = p
	return nil
}

// RegisterShopUpgrade validates and adds u.
func (r *Registry) RegisterShopUpgrade(u *ShopUpgrade) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if _, exists := r.shop[u.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterShopUpgrade: shop upgrade ID %q already registered", u.ID)
	}
	r.shop[u.ID] = u
	return nil
}

// RegisterDungeon validates and adds d. Monster references are checked by
// CheckReferences once every file is loaded.
func (r *Registry) RegisterDungeon(d *Dungeon) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.dungeons[d.ID]; exists {
		return fmt.Errorf("gamedata: Registry.RegisterDungeon: dungeon ID %q already registered", d.ID)
	}
	r.dungeons[d.ID] = d
	return nil
}

// Monster returns the Monster for id and whether it was found.
func (r *Registry) Monster(id string) (*Monster, bool) {
	m, ok := r.monsters[id]
	return m, ok
}

// Item returns the Item for id and whether it was found.
func (r *Registry) Item(id string) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Prayer returns the Prayer for id and whether it was found.
func (r *Registry) Prayer(id string) (*Prayer, bool) {
	p, ok := r.prayers[id]
	return p, ok
}

// Spell returns the Spell for id and whether it was found.
func (r *Registry) Spell(id string) (*Spell, bool) {
	s, ok := r.spells[id]
	return s, ok
}

// Pet returns the Pet for id and whether it was found.
func (r *Registry) Pet(id string) (*Pet, bool) {
	p, ok := r.pets[id]
	return p, ok
}

// ShopUpgrade returns the ShopUpgrade for id and whether it was found.
func (r *Registry) ShopUpgrade(id string) (*ShopUpgrade, bool) {
	u, ok := r.shop[id]
	return u, ok
}

// Dungeon returns the Dungeon for id and whether it was found.
func (r *Registry) Dungeon(id string) (*Dungeon, bool) {
	d, ok := r.dungeons[id]
	return d, ok
}

// MonsterIDs returns every monster id in lexical order.
func (r *Registry) MonsterIDs() []string {
	return sortedKeys(r.monsters)
}

// DungeonIDs returns every dungeon id in lexical order.
func (r *Registry) DungeonIDs() []string {
	return sortedKeys(r.dungeons)
}

// CheckReferences verifies that every id referenced by a loot table or
// dungeon resolves within the registry.
//
// Postcondition: Returns nil iff every reference resolves.
func (r *Registry) CheckReferences() error {
	for _, id := range r.MonsterIDs() {
		m := r.monsters[id]
		for _, drop := range m.Loot.Items {
			if _, ok := r.items[drop.ItemID]; !ok {
				return fmt.Errorf("monster %q: loot references unknown item %q", id, drop.ItemID)
			}
		}
		if m.Loot.Bones != "" {
			if _, ok := r.items[m.Loot.Bones]; !ok {
				return fmt.Errorf("monster %q: bones reference unknown item %q", id, m.Loot.Bones)
			}
		}
	}
	for _, id := range r.DungeonIDs() {
		d := r.dungeons[id]
		for _, mid := range d.Monsters {
			if _, ok := r.monsters[mid]; !ok {
				return fmt.Errorf("dungeon %q: references unknown monster %q", id, mid)
			}
		}
		for _, it := range d.Reward.Items {
			if _, ok := r.items[it.ItemID]; !ok {
				return fmt.Errorf("dungeon %q: reward references unknown item %q", id, it.ItemID)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
