// Package loadout models a player's combat configuration and freezes it into
// an immutable snapshot for simulation.
package loadout

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
)

// Style is the selected combat style. Each style grants an invisible level
// bonus or, for rapid, a faster attack interval.
type Style string

const (
	StyleAccurate   Style = "accurate"
	StyleAggressive Style = "aggressive"
	StyleDefensive  Style = "defensive"
	StyleRapid      Style = "rapid"
	StyleLongrange  Style = "longrange"
)

// Levels are the player's combat skill levels.
type Levels struct {
	Attack    int `yaml:"attack"`
	Strength  int `yaml:"strength"`
	Defence   int `yaml:"defence"`
	Hitpoints int `yaml:"hitpoints"`
	Ranged    int `yaml:"ranged"`
	Magic     int `yaml:"magic"`
	Prayer    int `yaml:"prayer"`
}

// Food is the auto-eat food selection. Quantity 0 means an unlimited supply.
type Food struct {
	ItemID   string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// Config is the serialisable loadout: the data persisted by save slots and
// settings export, and the input to Freeze.
type Config struct {
	Levels            Levels                   `yaml:"levels"`
	Style             Style                    `yaml:"style"`
	Equipment         map[gamedata.Slot]string `yaml:"equipment,omitempty"`
	Spell             string                   `yaml:"spell,omitempty"`
	Prayers           []string                 `yaml:"prayers,omitempty"`
	Potion            string                   `yaml:"potion,omitempty"`
	Pets              []string                 `yaml:"pets,omitempty"`
	Shop              []string                 `yaml:"shop,omitempty"`
	Food              Food                     `yaml:"food,omitempty"`
	AreaModifiers     map[string]float64       `yaml:"area_modifiers,omitempty"`
	TownshipModifiers map[string]float64       `yaml:"township_modifiers,omitempty"`
}

// Provider supplies the loadout currently configured by the player.
type Provider interface {
	CurrentLoadout() Config
}

// StaticProvider is a Provider that always returns the same Config.
type StaticProvider struct {
	Config Config
}

// CurrentLoadout returns p.Config.
func (p StaticProvider) CurrentLoadout() Config {
	return p.Config
}

// Current is a Provider whose loadout can be replaced at runtime.
// All methods are safe for concurrent use.
type Current struct {
	mu  sync.RWMutex
	cfg Config
}

// NewCurrent creates a Current holding a copy of c.
func NewCurrent(c Config) *Current {
	return &Current{cfg: cloneConfig(c)}
}

// CurrentLoadout returns a copy of the held loadout.
func (p *Current) CurrentLoadout() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneConfig(p.cfg)
}

// Set replaces the held loadout with a copy of c.
func (p *Current) Set(c Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cloneConfig(c)
}

// Validate checks the structural invariants of c that need no game data.
//
// Postcondition: Returns nil iff levels are in [1, 120], the style is known,
// no list contains a duplicate id and food quantity is non-negative.
func (c Config) Validate() error {
	var errs []string

	levels := map[string]int{
		"attack": c.Levels.Attack, "strength": c.Levels.Strength, "defence": c.Levels.Defence,
		"hitpoints": c.Levels.Hitpoints, "ranged": c.Levels.Ranged, "magic": c.Levels.Magic,
		"prayer": c.Levels.Prayer,
	}
	for _, name := range []string{"attack", "strength", "defence", "hitpoints", "ranged", "magic", "prayer"} {
		if lv := levels[name]; lv < 1 || lv > 120 {
			errs = append(errs, fmt.Sprintf("levels.%s must be 1-120, got %d", name, lv))
		}
	}

	switch c.Style {
	case StyleAccurate, StyleAggressive, StyleDefensive, StyleRapid, StyleLongrange:
	default:
		errs = append(errs, fmt.Sprintf("style must be one of [accurate, aggressive, defensive, rapid, longrange], got %q", c.Style))
	}

	lists := []struct {
		field string
		ids   []string
	}{{"prayers", c.Prayers}, {"pets", c.Pets}, {"shop", c.Shop}}
	for _, l := range lists {
		if dup := firstDuplicate(l.ids); dup != "" {
			errs = append(errs, fmt.Sprintf("%s lists %q more than once", l.field, dup))
		}
	}
	if c.Food.Quantity < 0 {
		errs = append(errs, fmt.Sprintf("food.quantity must be >= 0, got %d", c.Food.Quantity))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid loadout: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Parse decodes a loadout from YAML, rejecting unknown fields.
//
// Postcondition: Returns a Config passing Validate, or a non-nil error.
func Parse(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("parsing loadout YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses the loadout file at path.
//
// Precondition: path must name a readable YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading loadout %q: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("loading %q: %w", path, err)
	}
	return c, nil
}

// Marshal returns the YAML form of c accepted by Parse.
func Marshal(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding loadout: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding loadout: %w", err)
	}
	return buf.Bytes(), nil
}

// ErrUnknownReference is wrapped by Freeze when an id does not resolve.
var ErrUnknownReference = errors.New("unknown reference")

func firstDuplicate(ids []string) string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id
		}
		seen[id] = true
	}
	return ""
}
