package gameserver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/rpgcombat/internal/config"
	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
	"github.com/cory-johannsen/rpgcombat/internal/gameserver"
)

func contentConfig(script string) config.ContentConfig {
	return config.ContentConfig{
		MonstersDir:    "../../content/monsters",
		ItemsDir:       "../../content/items",
		ModifierScript: script,
	}
}

func TestLoadContent_Bundled(t *testing.T) {
	c, err := gameserver.LoadContent(contentConfig("../../content/scripts/modifiers.lua"), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NotEmpty(t, c.Templates)
	for i := 1; i < len(c.Templates); i++ {
		assert.Less(t, c.Templates[i-1].ID, c.Templates[i].ID)
	}
	assert.Contains(t, c.ByID, "slime")
	assert.Contains(t, c.ByID, "dwarf_king")
	_, ok := c.Items.Item("copper_dagger")
	assert.True(t, ok)
	require.NotNil(t, c.Curve)

	cfg, err := config.Load("../../configs/dev.yaml")
	require.NoError(t, err)
	assert.NoError(t, c.CheckRooms(cfg.Game.Rooms))

	p := c.NewPlayer(cfg.Game.Player)
	assert.Equal(t, cfg.Game.Player.Name, p.Name())
	assert.Equal(t, cfg.Game.Player.Gold, p.Gold())
	assert.Equal(t, cfg.Game.Player.Stats.MaxHealth, p.MaxHealth())
}

func TestLoadContent_WithoutScript(t *testing.T) {
	c, err := gameserver.LoadContent(contentConfig(""), zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, c.Curve)
	c.Close()

	p := c.NewPlayer(config.PlayerConfig{
		Name: "Hero", BackpackSlots: 5,
		Stats: character.Stats{MaxHealth: 10, Goldfind: 30, Magicfind: 20},
	})
	mods := p.Modifiers()
	assert.Equal(t, 30, mods.Goldfind)
	assert.Equal(t, 20, mods.Magicfind)
}

func TestLoadContent_Errors(t *testing.T) {
	_, err := gameserver.LoadContent(config.ContentConfig{MonstersDir: t.TempDir(), ItemsDir: "../../content/items"}, zap.NewNop())
	assert.ErrorContains(t, err, "no monster templates")

	_, err = gameserver.LoadContent(contentConfig("missing.lua"), zap.NewNop())
	assert.ErrorContains(t, err, "modifier script")

	c, err := gameserver.LoadContent(contentConfig(""), zap.NewNop())
	require.NoError(t, err)
	err = c.CheckRooms(map[string][]npc.RoomSpawn{"hall": {{TemplateID: "dragon", Max: 1}}})
	assert.ErrorContains(t, err, `unknown monster "dragon"`)
}

func TestLoadContent_WarnsOnUndefinedLoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.yaml"), []byte(`
- id: slime_gel
  name: Slime Gel
  kind: material
  stackable: true
`), 0o644))
	core, logs := observer.New(zapcore.WarnLevel)
	c, err := gameserver.LoadContent(config.ContentConfig{MonstersDir: "../../content/monsters", ItemsDir: dir}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items.Len())

	warns := logs.FilterMessageSnippet("without definitions").All()
	require.Len(t, warns, 1)
	items, ok := warns[0].ContextMap()["items"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, items, "goblin_ear")
	assert.NotContains(t, items, "slime_gel")
}

func TestNewSource(t *testing.T) {
	_, ok := gameserver.NewSource(5, zap.NewNop()).(*dice.SeededSource)
	assert.True(t, ok)

	core, logs := observer.New(zapcore.DebugLevel)
	src := gameserver.NewSource(5, zap.New(core))
	_, ok = src.(*dice.Roller)
	require.True(t, ok)
	src.Intn(6)
	assert.Equal(t, 1, logs.FilterMessage("dice draw").Len())
}
