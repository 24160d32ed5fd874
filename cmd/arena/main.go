// Package main runs the terminal arena: one player against a stream of
// monsters, one key press per attack.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/config"
	"github.com/cory-johannsen/rpgcombat/internal/frontend/arena"
	"github.com/cory-johannsen/rpgcombat/internal/gameserver"
	"github.com/cory-johannsen/rpgcombat/internal/observability"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	logPath := flag.String("log", "arena.log", "log file; the terminal is taken by the arena")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, observability.ToFile(*logPath))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	content, err := gameserver.LoadContent(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer content.Close()

	src := gameserver.NewSource(cfg.Game.Seed, logger)
	player := content.NewPlayer(cfg.Game.Player)

	if err := arena.Run(arena.New(player, content.Templates, src, logger)); err != nil {
		logger.Error("arena", zap.Error(err))
		fmt.Fprintf(os.Stderr, "arena: %v\n", err)
		os.Exit(1)
	}
	s := player.Sheet()
	fmt.Printf("%s left the arena at level %d with %d gold.\n", s.Name, s.Level, s.Gold)
}
