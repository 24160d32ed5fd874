// Package loot defines loot tables and magicfind-aware drop rolls.
package loot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
)

// ErrInvalidChance is returned when an entry's numerator/denominator pair is
// not a valid probability.
var ErrInvalidChance = errors.New("loot: invalid chance")

// ErrDuplicateItem is returned when a table lists the same item twice.
var ErrDuplicateItem = errors.New("loot: item already in table")

// Entry is one possible drop: numerator-in-denominator chance of
// MinQty..MaxQty units of ItemID.
type Entry struct {
	ItemID      string `yaml:"item"`
	Numerator   int    `yaml:"numerator"`
	Denominator int    `yaml:"denominator"`
	MinQty      int    `yaml:"min_qty"`
	MaxQty      int    `yaml:"max_qty"`
}

// ChancePercent returns the per-roll drop chance as a percentage.
func (e Entry) ChancePercent() float64 {
	if e.Denominator <= 0 {
		return 0
	}
	return float64(e.Numerator) / float64(e.Denominator) * 100
}

// Validate checks that the entry satisfies its invariants.
//
// Postcondition: Returns nil iff ItemID is non-empty, 0 <= Numerator <= Denominator,
// Denominator >= 1, and 1 <= MinQty <= MaxQty.
func (e Entry) Validate() error {
	if e.ItemID == "" {
		return fmt.Errorf("loot entry: item id must not be empty")
	}
	if e.Denominator < 1 || e.Numerator < 0 || e.Numerator > e.Denominator {
		return fmt.Errorf("loot entry %q: %d/%d: %w", e.ItemID, e.Numerator, e.Denominator, ErrInvalidChance)
	}
	if e.MinQty < 1 {
		return fmt.Errorf("loot entry %q: min_qty must be >= 1, got %d", e.ItemID, e.MinQty)
	}
	if e.MinQty > e.MaxQty {
		return fmt.Errorf("loot entry %q: min_qty (%d) must be <= max_qty (%d)", e.ItemID, e.MinQty, e.MaxQty)
	}
	return nil
}

// Table is the set of possible drops for a monster species.
type Table struct {
	Entries []Entry `yaml:"entries"`
}

// Validate checks every entry and rejects duplicate item ids.
//
// Postcondition: Returns nil iff all entries are valid and item ids are unique;
// an empty table is valid.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Entries))
	for i, e := range t.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("loot table: entry[%d]: %w", i, err)
		}
		if _, dup := seen[e.ItemID]; dup {
			return fmt.Errorf("loot table: entry[%d] %q: %w", i, e.ItemID, ErrDuplicateItem)
		}
		seen[e.ItemID] = struct{}{}
	}
	return nil
}

// IsEmpty reports whether the table has no entries.
func (t Table) IsEmpty() bool { return len(t.Entries) == 0 }

// Add appends an entry after validating it.
//
// Postcondition: On success the table contains e; on error the table is unchanged.
func (t *Table) Add(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for _, existing := range t.Entries {
		if existing.ItemID == e.ItemID {
			return fmt.Errorf("loot table: %q: %w", e.ItemID, ErrDuplicateItem)
		}
	}
	t.Entries = append(t.Entries, e)
	return nil
}

// Drop is a single item stack produced by a loot roll.
type Drop struct {
	ItemID     string
	InstanceID string
	Quantity   int
}

// MaxMagicfind caps the magicfind a loot roll honors, bounding it at
// MaxMagicfind/100 bonus rolls per entry.
const MaxMagicfind = 1000

// BonusRolls returns the number of extra rolls granted by magicfind:
// magicfind/100 guaranteed rolls plus one more with (magicfind mod 100)% chance.
// Non-positive magicfind grants none and consumes no randomness; magicfind
// above MaxMagicfind counts as MaxMagicfind.
func BonusRolls(magicfind int, src dice.Source) int {
	if magicfind <= 0 {
		return 0
	}
	magicfind = min(magicfind, MaxMagicfind)
	rolls := magicfind / 100
	if extra := magicfind % 100; extra > 0 && dice.Chance(src, extra, 100) {
		rolls++
	}
	return rolls
}

// Roll rolls every entry 1+BonusRolls(magicfind) times. An entry drops when any
// of its rolls succeeds; among successful rolls the largest quantity is kept.
//
// Precondition: t must have passed Validate(); src must be non-nil.
// Postcondition: At most one Drop per entry, in entry order; each Quantity is
// in [MinQty, MaxQty].
func (t Table) Roll(magicfind int, src dice.Source) []Drop {
	if t.IsEmpty() {
		return nil
	}
	total := 1 + BonusRolls(magicfind, src)

	var drops []Drop
	for _, e := range t.Entries {
		best := 0
		for i := 0; i < total; i++ {
			if !dice.Chance(src, e.Numerator, e.Denominator) {
				continue
			}
			if qty := dice.Between(src, e.MinQty, e.MaxQty); qty > best {
				best = qty
			}
		}
		if best > 0 {
			drops = append(drops, Drop{
				ItemID:     e.ItemID,
				InstanceID: uuid.New().String(),
				Quantity:   best,
			})
		}
	}
	return drops
}
