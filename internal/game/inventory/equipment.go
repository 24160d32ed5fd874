package inventory

import (
	"fmt"
	"sort"
)

// Slot identifies an equipment slot.
type Slot string

const (
	SlotWeapon Slot = "weapon"
	SlotHead   Slot = "head"
	SlotChest  Slot = "chest"
	SlotLegs   Slot = "legs"
	SlotFeet   Slot = "feet"
	SlotRing   Slot = "ring"
	SlotAmulet Slot = "amulet"
)

var validSlots = map[Slot]bool{
	SlotWeapon: true,
	SlotHead:   true,
	SlotChest:  true,
	SlotLegs:   true,
	SlotFeet:   true,
	SlotRing:   true,
	SlotAmulet: true,
}

// slotDisplayNames maps every slot identifier to its human-readable label.
var slotDisplayNames = map[Slot]string{
	SlotWeapon: "Weapon",
	SlotHead:   "Head",
	SlotChest:  "Chest",
	SlotLegs:   "Legs",
	SlotFeet:   "Feet",
	SlotRing:   "Ring",
	SlotAmulet: "Amulet",
}

// SlotDisplayName returns the human-readable label for a slot.
//
// Postcondition: returns the registered label, or the slot itself if not found.
func SlotDisplayName(slot Slot) string {
	if label, ok := slotDisplayNames[slot]; ok {
		return label
	}
	return string(slot)
}

// Equipment holds one item per slot. Equipped items contribute their
// StatBonuses to the wearer.
type Equipment struct {
	slots map[Slot]*ItemDef
}

// NewEquipment returns an empty Equipment.
func NewEquipment() *Equipment {
	return &Equipment{slots: make(map[Slot]*ItemDef)}
}

// Equip places def in its slot and returns the item it replaced, if any.
//
// Precondition: def must be non-nil.
// Postcondition: on success, Equipped(def.Slot) == def.
func (e *Equipment) Equip(def *ItemDef) (*ItemDef, error) {
	if def.Kind != KindEquipment || !validSlots[def.Slot] {
		return nil, fmt.Errorf("equipment: %q is not equippable", def.ID)
	}
	prev := e.slots[def.Slot]
	e.slots[def.Slot] = def
	return prev, nil
}

// Unequip empties slot and returns what was there.
func (e *Equipment) Unequip(slot Slot) *ItemDef {
	prev := e.slots[slot]
	delete(e.slots, slot)
	return prev
}

// Equipped returns the item in slot, or nil.
func (e *Equipment) Equipped(slot Slot) *ItemDef {
	return e.slots[slot]
}

// Slots returns the occupied slots in sorted order.
func (e *Equipment) Slots() []Slot {
	out := make([]Slot, 0, len(e.slots))
	for s := range e.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bonuses sums the StatBonuses of every equipped item.
//
// Postcondition: an empty Equipment yields the zero StatBonuses.
func (e *Equipment) Bonuses() StatBonuses {
	var total StatBonuses
	for _, def := range e.slots {
		total = total.Add(def.Bonuses)
	}
	return total
}
