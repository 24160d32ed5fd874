// Package inventory holds item definitions, the player's backpack, and
// equipped gear whose stat bonuses feed combat.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultMaxStack is the stack size used for stackable items that do not
// declare one, and for loot whose definition is not registered.
const DefaultMaxStack = 99

// Kind constants for ItemDef.Kind.
const (
	KindMaterial   = "material"
	KindEquipment  = "equipment"
	KindConsumable = "consumable"
)

var validKinds = map[string]bool{
	KindMaterial:   true,
	KindEquipment:  true,
	KindConsumable: true,
}

// StatBonuses are the combat stat contributions of one equipped item.
type StatBonuses struct {
	MaxHealth int `yaml:"max_health"`
	Attack    int `yaml:"attack"`
	Defense   int `yaml:"defense"`
	Goldfind  int `yaml:"goldfind"`
	Magicfind int `yaml:"magicfind"`
}

// Add returns the field-wise sum of b and o.
func (b StatBonuses) Add(o StatBonuses) StatBonuses {
	return StatBonuses{
		MaxHealth: b.MaxHealth + o.MaxHealth,
		Attack:    b.Attack + o.Attack,
		Defense:   b.Defense + o.Defense,
		Goldfind:  b.Goldfind + o.Goldfind,
		Magicfind: b.Magicfind + o.Magicfind,
	}
}

// ItemDef defines the static properties of an item loaded from YAML.
type ItemDef struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Kind        string      `yaml:"kind"`
	Slot        Slot        `yaml:"slot"`
	Stackable   bool        `yaml:"stackable"`
	MaxStack    int         `yaml:"max_stack"`
	Value       int         `yaml:"value"`
	Bonuses     StatBonuses `yaml:"bonuses"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validKinds[d.Kind] {
		errs = append(errs, fmt.Errorf("Kind must be one of material, equipment, consumable; got %q", d.Kind))
	}
	if d.MaxStack < 1 {
		errs = append(errs, errors.New("MaxStack must be >= 1"))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	if d.Kind == KindEquipment {
		if !validSlots[d.Slot] {
			errs = append(errs, fmt.Errorf("Slot is required when Kind is equipment; got %q", d.Slot))
		}
		if d.Stackable {
			errs = append(errs, errors.New("equipment must not be stackable"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// applyDefaults fills MaxStack when the YAML omits it.
func (d *ItemDef) applyDefaults() {
	if d.MaxStack == 0 {
		if d.Stackable {
			d.MaxStack = DefaultMaxStack
		} else {
			d.MaxStack = 1
		}
	}
}

// LoadItems reads all *.yaml and *.yml files from dir. Each file holds a
// YAML list of ItemDefs; every def is defaulted and validated.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var defs []*ItemDef
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		for _, d := range defs {
			d.applyDefaults()
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
			}
			items = append(items, d)
		}
	}
	return items, nil
}
