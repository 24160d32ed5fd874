package npc

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// RoomSpawn holds the spawn configuration for one monster template in one room.
//
// Invariant: Max >= 1; RespawnDelay == 0 falls back to the template's delay.
type RoomSpawn struct {
	TemplateID   string        `mapstructure:"template" yaml:"template"`
	Max          int           `mapstructure:"max" yaml:"max"`
	RespawnDelay time.Duration `mapstructure:"respawn_delay" yaml:"respawn_delay"`
}

type respawnEntry struct {
	templateID string
	roomID     string
	readyAt    time.Time
}

// RespawnManager keeps rooms stocked. Despawned monsters are queued by the
// time they become due and come back on the first Tick at or after it,
// provided their room is still under its cap.
//
// Invariant: queue is ordered by readyAt; entries with equal readyAt keep
// scheduling order.
type RespawnManager struct {
	mu        sync.Mutex
	spawns    map[string][]RoomSpawn
	templates map[string]*Template
	queue     []respawnEntry
}

// NewRespawnManager creates a RespawnManager from room spawn configs and a template map.
//
// Precondition: spawns and templates may be nil (manager becomes a no-op).
func NewRespawnManager(spawns map[string][]RoomSpawn, templates map[string]*Template) *RespawnManager {
	if spawns == nil {
		spawns = make(map[string][]RoomSpawn)
	}
	if templates == nil {
		templates = make(map[string]*Template)
	}
	return &RespawnManager{spawns: spawns, templates: templates}
}

// PopulateRoom brings every template configured for roomID to exactly its
// cap, despawning the newest extras first, and returns what it spawned.
// Unknown templates are skipped.
//
// Precondition: mgr must not be nil.
func (r *RespawnManager) PopulateRoom(roomID string, mgr *Manager) []*Instance {
	var spawned []*Instance
	for _, cfg := range r.spawns[roomID] {
		tmpl, ok := r.templates[cfg.TemplateID]
		if !ok {
			continue
		}
		var mine []*Instance
		for _, inst := range mgr.InstancesInRoom(roomID) {
			if inst.TemplateID == cfg.TemplateID {
				mine = append(mine, inst)
			}
		}
		for len(mine) > cfg.Max {
			_ = mgr.Remove(mine[len(mine)-1].ID)
			mine = mine[:len(mine)-1]
		}
		for n := len(mine); n < cfg.Max; n++ {
			if inst, err := mgr.Spawn(tmpl, roomID); err == nil {
				spawned = append(spawned, inst)
			}
		}
	}
	return spawned
}

// Rooms returns the configured room IDs in sorted order.
func (r *RespawnManager) Rooms() []string {
	out := make([]string, 0, len(r.spawns))
	for id := range r.spawns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Schedule queues templateID to return to roomID at now+delay.
// A non-positive delay means the monster stays gone.
func (r *RespawnManager) Schedule(templateID, roomID string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	e := respawnEntry{templateID: templateID, roomID: roomID, readyAt: now.Add(delay)}

	r.mu.Lock()
	defer r.mu.Unlock()
	at := sort.Search(len(r.queue), func(i int) bool { return r.queue[i].readyAt.After(e.readyAt) })
	r.queue = slices.Insert(r.queue, at, e)
}

// Tick pops every entry due at now and respawns each whose room is below
// its cap. Due entries over the cap are dropped.
//
// Precondition: mgr must not be nil.
func (r *RespawnManager) Tick(now time.Time, mgr *Manager) []*Instance {
	r.mu.Lock()
	due := sort.Search(len(r.queue), func(i int) bool { return r.queue[i].readyAt.After(now) })
	ready := slices.Clone(r.queue[:due])
	r.queue = slices.Delete(r.queue, 0, due)
	r.mu.Unlock()

	var spawned []*Instance
	for _, e := range ready {
		tmpl, ok := r.templates[e.templateID]
		if !ok {
			continue
		}
		limit := r.capFor(e.roomID, e.templateID)
		if mgr.CountInRoom(e.roomID, e.templateID) >= limit {
			continue
		}
		if inst, err := mgr.Spawn(tmpl, e.roomID); err == nil {
			spawned = append(spawned, inst)
		}
	}
	return spawned
}

// Pending returns the number of queued respawns.
func (r *RespawnManager) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// NextDue returns when the earliest queued respawn becomes due.
func (r *RespawnManager) NextDue() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return time.Time{}, false
	}
	return r.queue[0].readyAt, true
}

// ResolvedDelay returns the room's RespawnDelay for templateID when set,
// otherwise the template's own delay. Unknown templates resolve to 0.
func (r *RespawnManager) ResolvedDelay(templateID, roomID string) time.Duration {
	for _, cfg := range r.spawns[roomID] {
		if cfg.TemplateID == templateID && cfg.RespawnDelay > 0 {
			return cfg.RespawnDelay
		}
	}
	if tmpl, ok := r.templates[templateID]; ok {
		return tmpl.Respawn()
	}
	return 0
}

// capFor returns the room's cap for templateID; 0 when it is not configured there.
func (r *RespawnManager) capFor(roomID, templateID string) int {
	for _, cfg := range r.spawns[roomID] {
		if cfg.TemplateID == templateID {
			return cfg.Max
		}
	}
	return 0
}
