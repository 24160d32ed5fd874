package npc

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
)

// ErrInstanceNotFound is returned when an instance ID is not live.
var ErrInstanceNotFound = errors.New("npc instance not found")

// Manager is the registry of spawned monsters. Each room keeps its
// occupants sorted by instance ID so listings are stable between ticks.
// All methods are safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	byID  map[string]*Instance
	rooms map[string][]*Instance
	seq   uint64
	src   dice.Source
}

// NewManager creates an empty Manager that rolls monster stats from src.
//
// Precondition: src must be non-nil.
func NewManager(src dice.Source) *Manager {
	return &Manager{
		byID:  make(map[string]*Instance),
		rooms: make(map[string][]*Instance),
		src:   src,
	}
}

// Spawn rolls a monster from tmpl and places it in roomID. IDs take the form
// template-room-sequence.
//
// Precondition: tmpl must be non-nil; roomID must be non-empty.
// Postcondition: the returned Instance is listed by InstancesInRoom(roomID).
func (m *Manager) Spawn(tmpl *Template, roomID string) (*Instance, error) {
	if tmpl == nil {
		return nil, errors.New("spawning monster: template must not be nil")
	}
	if roomID == "" {
		return nil, fmt.Errorf("spawning %s: room must not be empty", tmpl.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("%s-%s-%d", tmpl.ID, roomID, m.seq)
	inst := NewInstance(id, tmpl, roomID, m.src)
	m.byID[id] = inst

	occupants := m.rooms[roomID]
	at, _ := slices.BinarySearchFunc(occupants, id, func(e *Instance, target string) int {
		return cmp.Compare(e.ID, target)
	})
	m.rooms[roomID] = slices.Insert(occupants, at, inst)
	return inst, nil
}

// Remove despawns an instance by ID.
//
// Postcondition: Returns an error wrapping ErrInstanceNotFound if the instance is not live.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("despawning %q: %w", id, ErrInstanceNotFound)
	}
	delete(m.byID, id)

	occupants := slices.DeleteFunc(m.rooms[inst.RoomID], func(e *Instance) bool { return e.ID == id })
	if len(occupants) == 0 {
		delete(m.rooms, inst.RoomID)
	} else {
		m.rooms[inst.RoomID] = occupants
	}
	return nil
}

// Get returns the instance with the given ID.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.byID[id]
	return inst, ok
}

// Len returns the number of spawned instances, dead ones awaiting despawn included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// InstancesInRoom returns a copy of roomID's occupants ordered by ID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) InstancesInRoom(roomID string) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Instance{}, m.rooms[roomID]...)
}

// CountInRoom returns how many instances of templateID occupy roomID.
func (m *Manager) CountInRoom(roomID, templateID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, inst := range m.rooms[roomID] {
		if inst.TemplateID == templateID {
			n++
		}
	}
	return n
}

// FindInRoom returns the first living instance in roomID whose name has
// target as a case-insensitive prefix, or nil. Corpses waiting for the
// reward pipeline are never matched.
func (m *Manager) FindInRoom(roomID, target string) *Instance {
	lower := strings.ToLower(target)
	for _, inst := range m.InstancesInRoom(roomID) {
		if inst.IsAlive() && strings.HasPrefix(strings.ToLower(inst.Name()), lower) {
			return inst
		}
	}
	return nil
}
