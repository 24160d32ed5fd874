// Package npc provides monster templates, live monster instances, and
// spawn and respawn management.
package npc

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// Quality constants for Template.Quality.
const (
	QualityNormal = "normal"
	QualityBoss   = "boss"
)

// Range is an inclusive integer stat range rolled at spawn time.
// In YAML it may be written as a scalar (fixed value), a two-element
// sequence [min, max], or a mapping {min: .., max: ..}.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Fixed returns the degenerate range [v, v].
func Fixed(v int) Range { return Range{Min: v, Max: v} }

// UnmarshalYAML accepts the scalar, sequence, and mapping forms.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v int
		if err := node.Decode(&v); err != nil {
			return err
		}
		*r = Fixed(v)
		return nil
	case yaml.SequenceNode:
		var vs []int
		if err := node.Decode(&vs); err != nil {
			return err
		}
		if len(vs) != 2 {
			return fmt.Errorf("range: expected [min, max], got %d values", len(vs))
		}
		*r = Range{Min: vs[0], Max: vs[1]}
		return nil
	case yaml.MappingNode:
		type plain Range
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*r = Range(p)
		return nil
	default:
		return fmt.Errorf("range: unsupported YAML node kind %d", node.Kind)
	}
}

// Median returns the midpoint of the range.
func (r Range) Median() float64 {
	return float64(r.Min+r.Max) / 2
}

// Scale multiplies both bounds by m, rounding each.
func (r Range) Scale(m float64) Range {
	return Range{
		Min: int(math.Round(float64(r.Min) * m)),
		Max: int(math.Round(float64(r.Max) * m)),
	}
}

func (r Range) validate(field string, lowest int) error {
	if r.Min < lowest {
		return fmt.Errorf("%s min must be >= %d, got %d", field, lowest, r.Min)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%s min (%d) must be <= max (%d)", field, r.Min, r.Max)
	}
	return nil
}

// Template defines a monster species loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Quality     string `yaml:"quality"`
	MaxHP       Range  `yaml:"max_hp"`
	Attack      Range  `yaml:"attack"`
	Defense     Range  `yaml:"defense"`
	Gold        Range  `yaml:"gold"`
	XP          Range  `yaml:"xp"`
	// RespawnDelay is the duration string (e.g. "5m", "30s") before a dead
	// monster of this template respawns. Empty means it does not respawn.
	RespawnDelay string       `yaml:"respawn_delay"`
	Loot         []loot.Entry `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, quality is known,
// every range is ordered with MaxHP.Min >= 1 and the others >= 0, the respawn
// delay parses, and the loot table is valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	switch t.Quality {
	case "", QualityNormal, QualityBoss:
	default:
		return fmt.Errorf("npc template %q: quality must be normal or boss, got %q", t.ID, t.Quality)
	}
	checks := []struct {
		field  string
		r      Range
		lowest int
	}{
		{"max_hp", t.MaxHP, 1},
		{"attack", t.Attack, 0},
		{"defense", t.Defense, 0},
		{"gold", t.Gold, 0},
		{"xp", t.XP, 0},
	}
	for _, c := range checks {
		if err := c.r.validate(c.field, c.lowest); err != nil {
			return fmt.Errorf("npc template %q: %w", t.ID, err)
		}
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			return fmt.Errorf("npc template %q: respawn_delay %q is not a valid duration: %w", t.ID, t.RespawnDelay, err)
		}
	}
	if err := t.LootTable().Validate(); err != nil {
		return fmt.Errorf("npc template %q: %w", t.ID, err)
	}
	return nil
}

// LootTable returns the template's loot entries as a loot.Table.
func (t *Template) LootTable() loot.Table {
	return loot.Table{Entries: t.Loot}
}

// Respawn returns the parsed respawn delay, or 0 when it does not respawn.
func (t *Template) Respawn() time.Duration {
	if t.RespawnDelay == "" {
		return 0
	}
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// IsBoss reports whether the template is a boss.
func (t *Template) IsBoss() bool { return t.Quality == QualityBoss }

// Scaled returns a copy of t with every stat and reward range multiplied by m.
// Identity, quality, respawn delay, and loot are preserved.
//
// Precondition: m > 0.
func (t *Template) Scaled(m float64) *Template {
	out := *t
	out.MaxHP = t.MaxHP.Scale(m)
	if out.MaxHP.Min < 1 {
		out.MaxHP.Min = 1
	}
	out.Attack = t.Attack.Scale(m)
	out.Defense = t.Defense.Scale(m)
	out.Gold = t.Gold.Scale(m)
	out.XP = t.XP.Scale(m)
	out.Loot = append([]loot.Entry(nil), t.Loot...)
	return &out
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if tmpl.Quality == "" {
		tmpl.Quality = QualityNormal
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// IndexTemplates maps templates by ID, rejecting duplicates.
func IndexTemplates(templates []*Template) (map[string]*Template, error) {
	out := make(map[string]*Template, len(templates))
	for _, t := range templates {
		if _, dup := out[t.ID]; dup {
			return nil, fmt.Errorf("duplicate monster template id %q", t.ID)
		}
		out[t.ID] = t
	}
	return out, nil
}
