// Package combat implements turn-based combat resolution and kill rewards.
package combat

import (
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// Kind distinguishes player combatants from monster combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindMonster
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Health tracks current and maximum hit points.
//
// Invariant: 0 <= Current <= Max.
type Health struct {
	Current int
	Max     int
}

// NewHealth returns a full Health pool of max points.
//
// Postcondition: Current == Max == max(0, max).
func NewHealth(max int) Health {
	if max < 0 {
		max = 0
	}
	return Health{Current: max, Max: max}
}

// TakeDamage reduces Current by amount, flooring at zero.
// Negative amounts are ignored.
//
// Postcondition: Current >= 0.
func (h *Health) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	h.Current -= amount
	if h.Current < 0 {
		h.Current = 0
	}
}

// Heal raises Current by amount, capped at Max.
func (h *Health) Heal(amount int) {
	if amount <= 0 {
		return
	}
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
}

// Restore sets Current back to Max.
func (h *Health) Restore() { h.Current = h.Max }

// IsAlive reports whether Current is strictly positive.
func (h Health) IsAlive() bool { return h.Current > 0 }

// Combatant is anything that can attack and be attacked.
// The resolver and the pipeline are written only against this interface.
type Combatant interface {
	Name() string
	Kind() Kind
	EffectiveHealth() int
	MaxHealth() int
	// EffectiveAttack is the base attack value including equipment bonuses.
	EffectiveAttack() int
	// EffectiveDefense is the defense value including equipment bonuses.
	EffectiveDefense() int
	// TakeDamage reduces health by amount, flooring at zero.
	// Taking damage while dead leaves health at zero.
	TakeDamage(amount int)
	IsAlive() bool
}

// Modifiers are the killer's reward-affecting stats.
type Modifiers struct {
	Goldfind  int
	Magicfind int
}

// DeathResult is what a death produces. For a monster it carries the kill
// rewards; for a player it carries the gold lost to the defeat penalty.
type DeathResult struct {
	Gold     int
	XP       int
	Loot     []loot.Drop
	GoldLost int
}

// Empty reports whether the result carries nothing.
func (r DeathResult) Empty() bool {
	return r.Gold == 0 && r.XP == 0 && len(r.Loot) == 0 && r.GoldLost == 0
}

// Killable is a Combatant whose death has consequences.
type Killable interface {
	Combatant
	// OnDeath processes death exactly once.
	//
	// Postcondition: Returns an empty DeathResult if the combatant is alive or
	// its death was already processed.
	OnDeath(mods Modifiers, src dice.Source) DeathResult
	// Guard returns the idempotency guard for this combatant's death.
	Guard() *DeathGuard
}

// Player is the killer side of a fight: it receives rewards.
type Player interface {
	Killable
	Modifiers() Modifiers
	AddGold(amount int)
	// GainXP adds xp and returns the number of levels gained.
	GainXP(amount int) int
	CollectLoot(drops []loot.Drop)
}
