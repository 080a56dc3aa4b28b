package gamedata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the schema of one content file. A file may define any mix of
// definition kinds.
type File struct {
	Monsters     []*Monster     `yaml:"monsters"`
	Items        []*Item        `yaml:"items"`
	Prayers      []*Prayer      `yaml:"prayers"`
	Spells       []*Spell       `yaml:"spells"`
	Pets         []*Pet         `yaml:"pets"`
	ShopUpgrades []*ShopUpgrade `yaml:"shop_upgrades"`
	Dungeons     []*Dungeon     `yaml:"dungeons"`
}

// ParseFile decodes one content file, rejecting unknown fields. An empty
// document yields an empty File.
//
// Postcondition: Returns the decoded File or a parse error.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}

// Register adds every definition in f to r.
//
// Postcondition: Returns an error on the first invalid or duplicate definition.
func (r *Registry) Register(f *File) error {
	for _, m := range f.Monsters {
		if err := r.RegisterMonster(m); err != nil {
			return err
		}
	}
	for _, it := range f.Items {
		if err := r.RegisterItem(it); err != nil {
			return err
		}
	}
	for _, p := range f.Prayers {
		if err := r.RegisterPrayer(p); err != nil {
			return err
		}
	}
	for _, s := range f.Spells {
		if err := r.RegisterSpell(s); err != nil {
			return err
		}
	}
	for _, p := range f.Pets {
		if err := r.RegisterPet(p); err != nil {
			return err
		}
	}
	for _, u := range f.ShopUpgrades {
		if err := r.RegisterShopUpgrade(u); err != nil {
			return err
		}
	}
	for _, d := range f.Dungeons {
		if err := r.RegisterDungeon(d); err != nil {
			return err
		}
	}
	return nil
}

// LoadDirectory reads every *.yaml file under dir, recursively, and returns a
// populated Registry whose cross references have been checked.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error naming the first
// file that fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	reg := NewRegistry()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		f, err := ParseFile(data)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(f); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	if err := reg.CheckReferences(); err != nil {
		return nil, err
	}
	return reg, nil
}
