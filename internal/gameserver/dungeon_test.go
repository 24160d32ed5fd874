package gameserver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
	"github.com/cory-johannsen/rpgcombat/internal/game/pipeline"
	"github.com/cory-johannsen/rpgcombat/internal/gameserver"
)

type memRecorder struct {
	mu    sync.Mutex
	kills map[pipeline.EntityID]pipeline.KillSummary
	err   error
}

func newRecorder() *memRecorder {
	return &memRecorder{kills: make(map[pipeline.EntityID]pipeline.KillSummary)}
}

func (r *memRecorder) RecordKill(_ context.Context, _ string, k pipeline.KillSummary) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.kills[k.Entity]; ok {
		return false, nil
	}
	r.kills[k.Entity] = k
	return true, nil
}

func goblinTemplate() *npc.Template {
	return &npc.Template{
		ID: "goblin", Name: "Goblin", Quality: npc.QualityNormal,
		MaxHP:        npc.Range{Min: 20, Max: 30},
		Attack:       npc.Range{Min: 3, Max: 6},
		Defense:      npc.Range{Min: 0, Max: 5},
		Gold:         npc.Range{Min: 5, Max: 15},
		XP:           npc.Fixed(10),
		RespawnDelay: "1m",
		Loot: []loot.Entry{
			{ItemID: "goblin_ear", Numerator: 1, Denominator: 2, MinQty: 1, MaxQty: 3},
		},
	}
}

func newHero() *character.Player {
	return character.NewPlayer("Hero",
		character.Stats{MaxHealth: 100, Attack: 12, Defense: 5, Goldfind: 20, Magicfind: 50},
		character.WithGold(50),
	)
}

type fixture struct {
	h        *gameserver.DungeonHandler
	npcMgr   *npc.Manager
	respawn  *npc.RespawnManager
	player   *character.Player
	recorder *memRecorder
}

func newFixture(t require.TestingT, spawnSeed, combatSeed int64, opts ...gameserver.DungeonOption) *fixture {
	tmpl := goblinTemplate()
	npcMgr := npc.NewManager(dice.NewSeededSource(spawnSeed))
	respawn := npc.NewRespawnManager(
		map[string][]npc.RoomSpawn{"cave": {{TemplateID: "goblin", Max: 1}}},
		map[string]*npc.Template{"goblin": tmpl},
	)
	player := newHero()
	rec := newRecorder()
	opts = append([]gameserver.DungeonOption{gameserver.WithKillRecorder(rec)}, opts...)
	h, err := gameserver.NewDungeonHandler(npcMgr, respawn, player, "cave", dice.NewSeededSource(combatSeed), opts...)
	require.NoError(t, err)
	h.Populate()
	return &fixture{h: h, npcMgr: npcMgr, respawn: respawn, player: player, recorder: rec}
}

func (f *fixture) goblin(t require.TestingT) *npc.Instance {
	ms := f.h.Monsters()
	require.Len(t, ms, 1)
	return ms[0]
}

func TestDungeon_PipelineMatchesSynchronousCombat(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		spawnSeed := rapid.Int64().Draw(rt, "spawnSeed")
		combatSeed := rapid.Int64().Draw(rt, "combatSeed")
		ctx := context.Background()
		now := time.Unix(1000, 0)

		f := newFixture(rt, spawnSeed, combatSeed)
		gob := f.goblin(rt)

		twin, err := npc.NewManager(dice.NewSeededSource(spawnSeed)).Spawn(goblinTemplate(), "cave")
		require.NoError(rt, err)
		require.Equal(rt, gob.MaxHealth(), twin.MaxHealth())
		hero := newHero()
		want := combat.EnterCombat(hero, twin, dice.NewSeededSource(combatSeed))

		attacks := 0
		var kills []pipeline.KillSummary
		for attacks <= want.Rounds() {
			_, err := f.h.PlayerAttack(gob.ID)
			require.NoError(rt, err)
			attacks++
			res := f.h.Tick(ctx, now)
			if len(res.Kills) > 0 {
				kills = res.Kills
				break
			}
			_, err = f.h.MonsterAttack(gob.ID)
			require.NoError(rt, err)
			attacks++
			if res := f.h.Tick(ctx, now); len(res.Defeats) > 0 {
				break
			}
		}

		assert.Equal(rt, want.Rounds(), attacks)
		assert.Equal(rt, hero.Gold(), f.player.Gold())
		assert.Equal(rt, hero.Progression(), f.player.Progression())
		assert.Equal(rt, hero.EffectiveHealth(), f.player.EffectiveHealth())
		assert.Equal(rt, hero.Backpack().Count("goblin_ear"), f.player.Backpack().Count("goblin_ear"))
		if want.PlayerWon {
			require.Len(rt, kills, 1)
			assert.Equal(rt, want.GoldGained, kills[0].Gold)
			assert.Equal(rt, want.XPGained, kills[0].XP)
			assert.Len(rt, kills[0].Loot, len(want.LootDrops))
			for i := range want.LootDrops {
				assert.Equal(rt, want.LootDrops[i].ItemID, kills[0].Loot[i].ItemID)
				assert.Equal(rt, want.LootDrops[i].Quantity, kills[0].Loot[i].Quantity)
			}
			assert.Len(rt, f.recorder.kills, 1)
		}
	})
}

func TestDungeon_EncounterRewardsOnceAndRespawns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 7, 11)
	gob := f.goblin(t)

	out, err := f.h.Encounter(ctx, gob.ID)
	require.NoError(t, err)
	require.True(t, out.Phase.Terminal())
	if !out.PlayerWon {
		t.Skip("seeded fight ended without a victory")
	}
	gold := f.player.Gold()
	require.Equal(t, 1, f.h.Pending())

	t0 := time.Unix(5000, 0)
	res := f.h.Tick(ctx, t0)
	assert.Empty(t, res.Kills, "the announced death was already rewarded")
	assert.Equal(t, []pipeline.EntityID{pipeline.EntityID(gob.ID)}, res.Despawned)
	assert.Equal(t, gold, f.player.Gold())
	assert.Empty(t, f.h.Monsters())
	assert.Equal(t, 1, f.respawn.Pending())
	assert.Len(t, f.recorder.kills, 1)

	res = f.h.Tick(ctx, t0.Add(30*time.Second))
	assert.Empty(t, res.Spawned)

	res = f.h.Tick(ctx, t0.Add(time.Minute))
	require.Len(t, res.Spawned, 1)
	assert.True(t, res.Spawned[0].IsAlive())
	assert.Len(t, f.h.Monsters(), 1)
	assert.Equal(t, 0, f.respawn.Pending())
}

func TestDungeon_AttackErrors(t *testing.T) {
	f := newFixture(t, 1, 1)
	gob := f.goblin(t)

	_, err := f.h.PlayerAttack("nobody")
	assert.True(t, errors.Is(err, npc.ErrInstanceNotFound))

	gob.TakeDamage(gob.MaxHealth())
	_, err = f.h.PlayerAttack(gob.ID)
	assert.True(t, errors.Is(err, gameserver.ErrMonsterDead))
	_, err = f.h.MonsterAttack(gob.ID)
	assert.True(t, errors.Is(err, gameserver.ErrMonsterDead))
	_, err = f.h.Encounter(context.Background(), gob.ID)
	assert.True(t, errors.Is(err, gameserver.ErrMonsterDead))

	f.h.SetPlayer(nil)
	_, err = f.h.PlayerAttack(gob.ID)
	assert.True(t, errors.Is(err, gameserver.ErrNoPlayer))
	_, err = f.h.Encounter(context.Background(), gob.ID)
	assert.True(t, errors.Is(err, gameserver.ErrNoPlayer))
}

func TestDungeon_KillWithoutPlayerIsForfeited(t *testing.T) {
	f := newFixture(t, 3, 3)
	gob := f.goblin(t)
	gob.TakeDamage(gob.MaxHealth() - 1)
	_, err := f.h.PlayerAttack(gob.ID)
	require.NoError(t, err)
	f.h.SetPlayer(nil)

	res := f.h.Tick(context.Background(), time.Unix(0, 0))
	require.Len(t, res.Deaths, 1)
	assert.Empty(t, res.Kills)
	assert.Equal(t, combat.StateRewardsGranted, gob.Guard().State())
	assert.Equal(t, []pipeline.EntityID{pipeline.EntityID(gob.ID)}, res.Despawned)
	assert.Empty(t, f.recorder.kills)
	assert.Equal(t, 50, f.player.Gold())
}

func TestDungeon_RecorderErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, 5, 5, gameserver.WithDungeonLogger(zap.New(core)))
	f.recorder.err = errors.New("database down")
	gob := f.goblin(t)

	gob.TakeDamage(gob.MaxHealth() - 1)
	for gob.IsAlive() {
		_, err := f.h.PlayerAttack(gob.ID)
		require.NoError(t, err)
		f.h.Tick(context.Background(), time.Unix(0, 0))
	}
	assert.Equal(t, 1, logs.FilterMessage("recording kill").Len())
	assert.Greater(t, f.player.Gold(), 50)
}

func TestDungeon_FindAndMove(t *testing.T) {
	f := newFixture(t, 9, 9)
	inst, ok := f.h.Find("gob")
	require.True(t, ok)
	assert.Equal(t, "Goblin", inst.Name())

	f.h.MoveTo("hall")
	assert.Equal(t, "hall", f.h.Room())
	_, ok = f.h.Find("gob")
	assert.False(t, ok)
	assert.Empty(t, f.h.Monsters())
}
