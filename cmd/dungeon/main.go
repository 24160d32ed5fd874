// Package main runs the dungeon: monsters spawn into the configured rooms and
// an automated player hunts them while the death and reward pipeline ticks.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/config"
	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
	"github.com/cory-johannsen/rpgcombat/internal/game/pipeline"
	"github.com/cory-johannsen/rpgcombat/internal/gameserver"
	"github.com/cory-johannsen/rpgcombat/internal/observability"
	"github.com/cory-johannsen/rpgcombat/internal/server"
	"github.com/cory-johannsen/rpgcombat/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	encounters := flag.Bool("encounter", false, "resolve each monster in one synchronous fight instead of one strike per tick")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	session := uuid.New()
	logger, err := observability.NewLogger(cfg.Logging, observability.ForSession(session))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	content, err := gameserver.LoadContent(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer content.Close()
	if err := content.CheckRooms(cfg.Game.Rooms); err != nil {
		logger.Fatal("checking rooms", zap.Error(err))
	}

	src := gameserver.NewSource(cfg.Game.Seed, logger)

	opts := []gameserver.DungeonOption{
		gameserver.WithDungeonLogger(logger),
		gameserver.WithPipelineOptions(pipeline.WithRewardOrder(cfg.Game.RewardHandlers()...)),
	}

	lifecycle := server.NewLifecycle(logger)

	var ledger *postgres.RewardLedger
	var resume []character.Option
	saveOnExit := true
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		if cfg.Database.AutoMigrate {
			version, err := pool.Migrate()
			if err != nil {
				logger.Fatal("migrating ledger", zap.Error(err))
			}
			logger.Info("ledger schema ready", zap.Uint("version", version))
		}
		ledger = postgres.NewRewardLedger(pool.DB(), session)
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		resume, err = restorePlayer(ctx, ledger, cfg.Game.Player.Name, logger)
		if err != nil {
			logger.Warn("saved player unreadable; progress will not be saved this session", zap.Error(err))
			saveOnExit = false
		}
		opts = append(opts, gameserver.WithKillRecorder(ledger))

		lifecycle.Add("postgres", server.NewContextService(func(ctx context.Context) error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := pool.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			}
		}))
		defer pool.Close()
	}

	player := content.NewPlayer(cfg.Game.Player, resume...)

	respawnMgr := npc.NewRespawnManager(cfg.Game.Rooms, content.ByID)
	handler, err := gameserver.NewDungeonHandler(npc.NewManager(src), respawnMgr, player, cfg.Game.StartRoom, src, opts...)
	if err != nil {
		logger.Fatal("building dungeon", zap.Error(err))
	}
	spawned := handler.Populate()
	logger.Info("dungeon populated",
		zap.Int("rooms", len(respawnMgr.Rooms())),
		zap.Int("monsters", len(spawned)),
	)

	hunter := gameserver.NewHunter(handler, respawnMgr.Rooms(), *encounters, logger)
	loop := gameserver.NewTickLoop(cfg.Game.TickInterval)
	loop.RegisterTick("hunt", hunter.Step)
	loop.RegisterTick("pipeline", func(ctx context.Context, now time.Time) {
		res := handler.Tick(ctx, now)
		for _, k := range res.Kills {
			logger.Info("kill rewarded",
				zap.String("monster", k.Name),
				zap.Int("gold", k.Gold),
				zap.Int("xp", k.XP),
				zap.Int("drops", len(k.Loot)),
				zap.Int("levels", k.LevelsGained),
			)
		}
	})
	lifecycle.Add("tick", server.NewContextService(loop.Run))

	logger.Info("dungeon initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("tick", loop.Interval()),
		zap.String("room", handler.Room()),
	)

	runErr := lifecycle.Run(ctx)

	sheet := player.Sheet()
	logger.Info("session over",
		zap.Int("level", sheet.Level),
		zap.Int("gold", sheet.Gold),
		zap.Int("xp", sheet.XP),
		zap.Int("backpack_slots_used", player.Backpack().UsedSlots()),
		zap.Int("backpack_worth", player.Backpack().Worth(content.Items)),
	)
	if ledger != nil && saveOnExit {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := ledger.SavePlayer(saveCtx, sheet); err != nil {
			logger.Error("saving player", zap.Error(err))
		}
		cancel()
	}
	if runErr != nil {
		logger.Fatal("server error", zap.Error(runErr))
	}
}

// restorePlayer loads the saved sheet for name and returns the options that
// resume it. A player with no save starts fresh.
func restorePlayer(ctx context.Context, ledger *postgres.RewardLedger, name string, logger *zap.Logger) ([]character.Option, error) {
	saved, err := ledger.LoadPlayer(ctx, name)
	switch {
	case errors.Is(err, postgres.ErrPlayerNotFound):
		logger.Info("new player", zap.String("name", name))
		return nil, nil
	case err != nil:
		return nil, err
	}
	totals, err := ledger.Totals(ctx, name)
	if err != nil {
		logger.Warn("summing kills", zap.Error(err))
	}
	logger.Info("returning player",
		zap.String("name", name),
		zap.Int("saved_level", saved.Level),
		zap.Int("saved_gold", saved.Gold),
		zap.Int("lifetime_kills", totals.Kills),
		zap.Int("lifetime_gold", totals.Gold),
	)
	return []character.Option{character.Resume(saved)}, nil
}
