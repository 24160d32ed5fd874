package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
	"github.com/cory-johannsen/rpgcombat/internal/game/pipeline"
)

var (
	// ErrNoPlayer is returned when an action needs a player and none is present.
	ErrNoPlayer = errors.New("no player present")
	// ErrMonsterDead is returned when attacking a monster that is already dead.
	ErrMonsterDead = errors.New("monster is already dead")
)

// KillRecorder persists granted kill rewards.
//
// Precondition: kill.Entity must be non-empty.
// Postcondition: Returns false without error when the kill was already recorded.
type KillRecorder interface {
	RecordKill(ctx context.Context, player string, kill pipeline.KillSummary) (bool, error)
}

// Strike is a damage roll queued for the next tick.
type Strike struct {
	Attacker string
	Target   pipeline.EntityID
	Defender string
	Damage   int
}

// TickResult reports what one dungeon tick did.
type TickResult struct {
	pipeline.TickReport
	Spawned []*npc.Instance
}

// DungeonOption customizes a DungeonHandler.
type DungeonOption func(*dungeonOptions)

type dungeonOptions struct {
	recorder KillRecorder
	logger   *zap.Logger
	pipeOpts []pipeline.Option
}

// WithKillRecorder persists every granted kill through r.
func WithKillRecorder(r KillRecorder) DungeonOption {
	return func(o *dungeonOptions) { o.recorder = r }
}

// WithDungeonLogger sets the handler's logger.
func WithDungeonLogger(l *zap.Logger) DungeonOption {
	return func(o *dungeonOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPipelineOptions forwards opts to the death and reward pipeline.
func WithPipelineOptions(opts ...pipeline.Option) DungeonOption {
	return func(o *dungeonOptions) { o.pipeOpts = append(o.pipeOpts, opts...) }
}

// DungeonHandler owns the live dungeon: the player, the monsters, the
// respawn schedule, and the death and reward pipeline. Attacks roll damage
// immediately and queue it; Tick applies it and resolves deaths.
//
// combatMu serialises every mutation of combat state so the tick goroutine
// and caller goroutines cannot race.
type DungeonHandler struct {
	npcMgr     *npc.Manager
	respawnMgr *npc.RespawnManager
	src        dice.Source
	recorder   KillRecorder
	logger     *zap.Logger
	pipe       *pipeline.Pipeline

	combatMu sync.Mutex
	player   *character.Player
	roomID   string
	now      time.Time
}

// NewDungeonHandler builds a handler over npcMgr and respawnMgr with player
// standing in roomID. src drives attack rolls and loot rolls.
//
// Precondition: npcMgr, respawnMgr, and src must be non-nil; player may be nil.
// Postcondition: Returns an error only for invalid pipeline options.
func NewDungeonHandler(
	npcMgr *npc.Manager,
	respawnMgr *npc.RespawnManager,
	player *character.Player,
	roomID string,
	src dice.Source,
	opts ...DungeonOption,
) (*DungeonHandler, error) {
	o := dungeonOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	h := &DungeonHandler{
		npcMgr:     npcMgr,
		respawnMgr: respawnMgr,
		src:        src,
		recorder:   o.recorder,
		logger:     o.logger,
		player:     player,
		roomID:     roomID,
	}
	pipe, err := pipeline.New(dungeonWorld{h}, src, o.logger, o.pipeOpts...)
	if err != nil {
		return nil, fmt.Errorf("building reward pipeline: %w", err)
	}
	h.pipe = pipe
	return h, nil
}

// Populate fills every configured room up to its spawn caps.
func (h *DungeonHandler) Populate() []*npc.Instance {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	var out []*npc.Instance
	for _, room := range h.respawnMgr.Rooms() {
		out = append(out, h.respawnMgr.PopulateRoom(room, h.npcMgr)...)
	}
	return out
}

// Player returns the current player, or nil when none is present.
func (h *DungeonHandler) Player() *character.Player {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	return h.player
}

// SetPlayer places p in the dungeon; nil removes the player.
func (h *DungeonHandler) SetPlayer(p *character.Player) {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	h.player = p
}

// Room returns the room the player stands in.
func (h *DungeonHandler) Room() string {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	return h.roomID
}

// MoveTo moves the player to roomID.
func (h *DungeonHandler) MoveTo(roomID string) {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	h.roomID = roomID
}

// Monsters returns the live monsters in the player's room ordered by ID.
func (h *DungeonHandler) Monsters() []*npc.Instance {
	return h.npcMgr.InstancesInRoom(h.Room())
}

// Find returns the first monster in the player's room whose name starts with target.
func (h *DungeonHandler) Find(target string) (*npc.Instance, bool) {
	inst := h.npcMgr.FindInRoom(h.Room(), target)
	return inst, inst != nil
}

// PlayerAttack rolls the player's attack against monsterID and queues the damage.
//
// Postcondition: On success the damage is applied on the next Tick.
func (h *DungeonHandler) PlayerAttack(monsterID string) (Strike, error) {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	if h.player == nil {
		return Strike{}, ErrNoPlayer
	}
	inst, err := h.liveMonster(monsterID)
	if err != nil {
		return Strike{}, err
	}
	s := Strike{
		Attacker: h.player.Name(),
		Target:   pipeline.EntityID(inst.ID),
		Defender: inst.Name(),
		Damage:   combat.RollDamage(h.player, inst, h.src),
	}
	h.pipe.Dispatch(pipeline.DamageEntity{Target: s.Target, Amount: s.Damage, Source: s.Attacker})
	return s, nil
}

// MonsterAttack rolls monsterID's attack against the player and queues the damage.
//
// Postcondition: On success the damage is applied on the next Tick.
func (h *DungeonHandler) MonsterAttack(monsterID string) (Strike, error) {
	h.combatMu.Lock()
	defer h.combatMu.Unlock()
	if h.player == nil {
		return Strike{}, ErrNoPlayer
	}
	inst, err := h.liveMonster(monsterID)
	if err != nil {
		return Strike{}, err
	}
	s := Strike{
		Attacker: inst.Name(),
		Target:   pipeline.PlayerEntity,
		Defender: h.player.Name(),
		Damage:   combat.RollDamage(inst, h.player, h.src),
	}
	h.pipe.Dispatch(pipeline.DamageEntity{Target: s.Target, Amount: s.Damage, Source: s.Attacker})
	return s, nil
}

// Encounter resolves a full synchronous fight between the player and
// monsterID. A victory is announced to the pipeline, which despawns the
// monster on the next tick without rewarding it a second time.
//
// Postcondition: Returned Outcome.Phase is terminal.
func (h *DungeonHandler) Encounter(ctx context.Context, monsterID string) (combat.Outcome, error) {
	h.combatMu.Lock()
	if h.player == nil {
		h.combatMu.Unlock()
		return combat.Outcome{}, ErrNoPlayer
	}
	inst, err := h.liveMonster(monsterID)
	if err != nil {
		h.combatMu.Unlock()
		return combat.Outcome{}, err
	}
	player := h.player
	out := combat.EnterCombat(player, inst, h.src, combat.WithLogger(h.logger))
	if out.Phase == combat.PhaseVictory {
		h.pipe.Announce(pipeline.EntityDied{Entity: pipeline.EntityID(inst.ID), Name: inst.Name()})
	}
	h.combatMu.Unlock()

	h.logger.Info("encounter resolved",
		zap.String("monster", inst.Name()),
		zap.Stringer("phase", out.Phase),
		zap.Int("attacks", out.Rounds()),
		zap.Int("gold", out.GoldGained),
		zap.Int("xp", out.XPGained),
	)
	if out.Phase == combat.PhaseVictory {
		h.record(ctx, player.Name(), []pipeline.KillSummary{{
			Entity:       pipeline.EntityID(inst.ID),
			Name:         inst.Name(),
			Gold:         out.GoldGained,
			XP:           out.XPGained,
			Loot:         out.LootDrops,
			LevelsGained: out.LevelsGained,
		}})
	}
	return out, nil
}

// Tick respawns due monsters and runs the death and reward pipeline at now.
//
// Postcondition: every granted kill is offered to the KillRecorder once.
func (h *DungeonHandler) Tick(ctx context.Context, now time.Time) TickResult {
	h.combatMu.Lock()
	h.now = now
	res := TickResult{Spawned: h.respawnMgr.Tick(now, h.npcMgr)}
	res.TickReport = h.pipe.Tick()
	var name string
	if h.player != nil {
		name = h.player.Name()
	}
	h.combatMu.Unlock()

	for _, inst := range res.Spawned {
		h.logger.Debug("monster respawned", zap.String("id", inst.ID), zap.String("room", inst.RoomID))
	}
	if len(res.Despawned) > 0 {
		if due, ok := h.respawnMgr.NextDue(); ok {
			h.logger.Debug("respawn queued", zap.Int("pending", h.respawnMgr.Pending()), zap.Time("next_due", due))
		}
	}
	for _, d := range res.Defeats {
		h.logger.Info("player defeated", zap.Int("gold_lost", d.GoldLost))
	}
	h.record(ctx, name, res.Kills)
	return res
}

// Pending returns the number of queued pipeline notifications.
func (h *DungeonHandler) Pending() int { return h.pipe.Pending() }

func (h *DungeonHandler) record(ctx context.Context, player string, kills []pipeline.KillSummary) {
	if h.recorder == nil {
		return
	}
	for _, k := range kills {
		inserted, err := h.recorder.RecordKill(ctx, player, k)
		if err != nil {
			h.logger.Warn("recording kill", zap.String("monster", string(k.Entity)), zap.Error(err))
			continue
		}
		if !inserted {
			h.logger.Warn("kill already recorded", zap.String("monster", string(k.Entity)))
		}
	}
}

// liveMonster returns a living monster. Caller must hold combatMu.
func (h *DungeonHandler) liveMonster(id string) (*npc.Instance, error) {
	inst, ok := h.npcMgr.Get(id)
	if !ok {
		return nil, fmt.Errorf("monster %q: %w", id, npc.ErrInstanceNotFound)
	}
	if inst.IsDead() {
		return nil, fmt.Errorf("%s: %w", inst.Name(), ErrMonsterDead)
	}
	return inst, nil
}

// dungeonWorld is the pipeline's view of the dungeon. Its methods run inside
// Tick with combatMu already held.
type dungeonWorld struct{ h *DungeonHandler }

func (w dungeonWorld) Player() (combat.Player, bool) {
	if w.h.player == nil {
		return nil, false
	}
	return w.h.player, true
}

func (w dungeonWorld) Monster(id pipeline.EntityID) (pipeline.Monster, bool) {
	inst, ok := w.h.npcMgr.Get(string(id))
	if !ok {
		return nil, false
	}
	return inst, true
}

// Despawn removes the monster and schedules its respawn from the current tick time.
func (w dungeonWorld) Despawn(id pipeline.EntityID) error {
	inst, ok := w.h.npcMgr.Get(string(id))
	if !ok {
		return fmt.Errorf("despawn %q: %w", id, npc.ErrInstanceNotFound)
	}
	if err := w.h.npcMgr.Remove(inst.ID); err != nil {
		return err
	}
	delay := w.h.respawnMgr.ResolvedDelay(inst.TemplateID, inst.RoomID)
	w.h.respawnMgr.Schedule(inst.TemplateID, inst.RoomID, w.h.now, delay)
	return nil
}
