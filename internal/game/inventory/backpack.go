package inventory

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// ErrBackpackFull is returned when an addition needs more slots than are free.
var ErrBackpackFull = errors.New("backpack full")

// Stack is one occupied backpack slot.
type Stack struct {
	InstanceID string
	ItemID     string
	Quantity   int
}

// Backpack holds looted items in a fixed number of slots. Stackable items
// top up existing stacks of the same item before opening new slots;
// everything else takes one slot per unit.
type Backpack struct {
	MaxSlots int
	stacks   []Stack
}

// NewBackpack creates an empty Backpack with maxSlots slots.
//
// Precondition: maxSlots >= 0.
func NewBackpack(maxSlots int) *Backpack {
	return &Backpack{MaxSlots: maxSlots}
}

// Add stores quantity units of itemID and returns the last stack touched.
// Items unknown to reg stack like materials. Nothing changes on error.
//
// Precondition: quantity > 0.
func (b *Backpack) Add(itemID string, quantity int, reg *Registry) (*Stack, error) {
	return b.put(itemID, "", quantity, reg)
}

// Stow stores each loot drop. The first slot a drop opens keeps the drop's
// instance ID, so the backpack and the reward ledger agree on it. Drops that
// do not fit are returned in order.
func (b *Backpack) Stow(drops []loot.Drop, reg *Registry) []loot.Drop {
	var overflow []loot.Drop
	for _, d := range drops {
		if _, err := b.put(d.ItemID, d.InstanceID, d.Quantity, reg); err != nil {
			overflow = append(overflow, d)
		}
	}
	return overflow
}

func (b *Backpack) put(itemID, instanceID string, quantity int, reg *Registry) (*Stack, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("adding %q: quantity must be > 0, got %d", itemID, quantity)
	}
	def := reg.Resolve(itemID)
	size := 1
	if def.Stackable {
		size = def.MaxStack
	}

	// Room left in partial stacks decides how many new slots are needed
	// before anything is written.
	room := 0
	if def.Stackable {
		for _, s := range b.stacks {
			if s.ItemID == def.ID {
				room += size - s.Quantity
			}
		}
	}
	spill := max(quantity-room, 0)
	opened := (spill + size - 1) / size
	if free := b.MaxSlots - len(b.stacks); opened > free {
		return nil, fmt.Errorf("adding %d %q needs %d slots, %d free: %w", quantity, def.ID, opened, free, ErrBackpackFull)
	}

	last := -1
	left := quantity
	if def.Stackable {
		for i := range b.stacks {
			if left == 0 {
				break
			}
			s := &b.stacks[i]
			if s.ItemID != def.ID || s.Quantity >= size {
				continue
			}
			n := min(left, size-s.Quantity)
			s.Quantity += n
			left -= n
			last = i
		}
	}
	for left > 0 {
		n := min(left, size)
		id := instanceID
		if id == "" {
			id = uuid.NewString()
		}
		instanceID = ""
		b.stacks = append(b.stacks, Stack{InstanceID: id, ItemID: def.ID, Quantity: n})
		left -= n
		last = len(b.stacks) - 1
	}
	return &b.stacks[last], nil
}

// Remove takes quantity units from the stack instanceID, freeing the slot
// when it empties.
//
// Precondition: 0 < quantity <= the stack's quantity.
func (b *Backpack) Remove(instanceID string, quantity int) error {
	i := slices.IndexFunc(b.stacks, func(s Stack) bool { return s.InstanceID == instanceID })
	if i < 0 {
		return fmt.Errorf("removing from stack %q: not found", instanceID)
	}
	s := &b.stacks[i]
	switch {
	case quantity <= 0 || quantity > s.Quantity:
		return fmt.Errorf("removing %d from stack %q holding %d", quantity, instanceID, s.Quantity)
	case quantity == s.Quantity:
		b.stacks = slices.Delete(b.stacks, i, i+1)
	default:
		s.Quantity -= quantity
	}
	return nil
}

// Items returns a copy of every stack in slot order.
func (b *Backpack) Items() []Stack { return slices.Clone(b.stacks) }

// UsedSlots returns the number of occupied slots.
func (b *Backpack) UsedSlots() int { return len(b.stacks) }

// Count returns the total quantity of itemID across all stacks.
func (b *Backpack) Count(itemID string) int {
	n := 0
	for _, s := range b.stacks {
		if s.ItemID == itemID {
			n += s.Quantity
		}
	}
	return n
}

// Stacks returns copies of the stacks holding itemID in slot order.
func (b *Backpack) Stacks(itemID string) []Stack {
	var out []Stack
	for _, s := range b.stacks {
		if s.ItemID == itemID {
			out = append(out, s)
		}
	}
	return out
}

// Worth returns the summed Value of everything carried. Items unknown to reg
// are worth nothing.
func (b *Backpack) Worth(reg *Registry) int {
	total := 0
	for _, s := range b.stacks {
		if def, ok := reg.Item(s.ItemID); ok {
			total += def.Value * s.Quantity
		}
	}
	return total
}
