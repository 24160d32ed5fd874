package pipeline

import "github.com/cory-johannsen/rpgcombat/internal/game/loot"

// EntityID identifies a combatant in the World.
type EntityID string

// PlayerEntity is the EntityID of the player.
const PlayerEntity EntityID = "player"

// DamageEntity asks the damage handler to apply Amount to Target.
type DamageEntity struct {
	Target EntityID
	Amount int
	// Source names the attacker for logging.
	Source string
}

// EntityDied is emitted the first time an entity's health reaches zero.
type EntityDied struct {
	Entity   EntityID
	Name     string
	IsPlayer bool
}

// GoldGained is a goldfind-scaled gold reward for a kill.
type GoldGained struct {
	Entity EntityID
	Amount int
	Source string
}

// XPGained is an experience reward for a kill.
type XPGained struct {
	Entity EntityID
	Amount int
	Source string
}

// LootDropped carries the drops rolled for a kill.
type LootDropped struct {
	Entity EntityID
	Drops  []loot.Drop
	Source string
}

// PlayerDefeated records the defeat penalty applied to the player.
type PlayerDefeated struct {
	GoldLost int
}

// Messages is a per-tick queue of one message type. Writes made during a
// tick are visible to every handler that runs later in the same tick.
type Messages[T any] struct {
	items []T
}

// Write appends v.
func (m *Messages[T]) Write(v T) { m.items = append(m.items, v) }

// Read returns the messages written so far this tick.
func (m *Messages[T]) Read() []T { return m.items }

// Len returns the number of queued messages.
func (m *Messages[T]) Len() int { return len(m.items) }

// Clear drops all messages.
func (m *Messages[T]) Clear() { m.items = m.items[:0] }

// Bus holds one queue per message type.
type Bus struct {
	Damage   Messages[DamageEntity]
	Died     Messages[EntityDied]
	Gold     Messages[GoldGained]
	XP       Messages[XPGained]
	Loot     Messages[LootDropped]
	Defeated Messages[PlayerDefeated]
}

func (b *Bus) clear() {
	b.Damage.Clear()
	b.Died.Clear()
	b.Gold.Clear()
	b.XP.Clear()
	b.Loot.Clear()
	b.Defeated.Clear()
}
