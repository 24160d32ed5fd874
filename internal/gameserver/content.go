package gameserver

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/config"
	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
	"github.com/cory-johannsen/rpgcombat/internal/scripting"
)

// Content is the loaded monster, item, and modifier-curve data.
type Content struct {
	Templates []*npc.Template
	ByID      map[string]*npc.Template
	Items     *inventory.Registry
	// Curve is nil when no modifier script is configured.
	Curve *scripting.ModifierScript
}

// LoadContent reads monster templates, item definitions, and the optional
// Lua modifier script named by cfg.
//
// Postcondition: Returns at least one template or an error.
func LoadContent(cfg config.ContentConfig, logger *zap.Logger) (*Content, error) {
	templates, err := npc.LoadTemplates(cfg.MonstersDir)
	if err != nil {
		return nil, fmt.Errorf("loading monsters: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no monster templates in %q", cfg.MonstersDir)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	byID, err := npc.IndexTemplates(templates)
	if err != nil {
		return nil, err
	}

	defs, err := inventory.LoadItems(cfg.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	items, err := inventory.NewRegistryFromDefs(defs)
	if err != nil {
		return nil, fmt.Errorf("registering items: %w", err)
	}

	c := &Content{Templates: templates, ByID: byID, Items: items}
	if cfg.ModifierScript != "" {
		c.Curve, err = scripting.LoadModifierScript(cfg.ModifierScript, cfg.ScriptInstructionLimit, logger)
		if err != nil {
			return nil, fmt.Errorf("loading modifier script: %w", err)
		}
	}
	var dropped []string
	for _, t := range templates {
		for _, e := range t.Loot {
			dropped = append(dropped, e.ItemID)
		}
	}
	if unknown := items.Unknown(dropped...); len(unknown) > 0 {
		logger.Warn("loot items without definitions stack as materials", zap.Strings("items", unknown))
	}
	logger.Info("content loaded",
		zap.Int("monsters", len(templates)),
		zap.Int("items", items.Len()),
		zap.Bool("modifier_script", c.Curve != nil),
	)
	return c, nil
}

// CheckRooms reports spawn entries naming templates that were not loaded.
func (c *Content) CheckRooms(rooms map[string][]npc.RoomSpawn) error {
	for room, spawns := range rooms {
		for _, s := range spawns {
			if _, ok := c.ByID[s.TemplateID]; !ok {
				return fmt.Errorf("room %q spawns unknown monster %q", room, s.TemplateID)
			}
		}
	}
	return nil
}

// NewPlayer builds the configured starting player. extra options apply last,
// so character.Resume overrides the configured gold.
func (c *Content) NewPlayer(pc config.PlayerConfig, extra ...character.Option) *character.Player {
	opts := []character.Option{
		character.WithGold(pc.Gold),
		character.WithRegistry(c.Items),
		character.WithBackpackSlots(pc.BackpackSlots),
	}
	if c.Curve != nil {
		opts = append(opts, character.WithCurve(c.Curve))
	}
	return character.NewPlayer(pc.Name, pc.Stats, append(opts, extra...)...)
}

// Close releases the modifier script.
func (c *Content) Close() {
	if c.Curve != nil {
		c.Curve.Close()
	}
}

// NewSource returns the game's random source: seeded when seed != 0, and
// logging every draw when debug is enabled.
func NewSource(seed int64, logger *zap.Logger) dice.Source {
	var src dice.Source
	if seed != 0 {
		src = dice.NewSeededSource(seed)
	} else {
		src = dice.NewCryptoSource()
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		return dice.NewLoggedRoller(src, logger)
	}
	return src
}
