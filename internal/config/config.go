// Package config provides Viper-based configuration loading for the combat
// engine binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
	"github.com/cory-johannsen/rpgcombat/internal/game/pipeline"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on the kill reward ledger. When false no connection is made.
	Enabled         bool          `mapstructure:"enabled"`
	// AutoMigrate applies pending ledger migrations at startup.
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig locates the YAML and Lua content.
type ContentConfig struct {
	MonstersDir string `mapstructure:"monsters_dir"`
	ItemsDir    string `mapstructure:"items_dir"`
	// ModifierScript is an optional Lua goldfind/magicfind curve.
	ModifierScript string `mapstructure:"modifier_script"`
	// ScriptInstructionLimit bounds each Lua call; 0 uses the scripting default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// PlayerConfig describes the player a session starts with.
type PlayerConfig struct {
	Name          string          `mapstructure:"name"`
	Gold          int             `mapstructure:"gold"`
	BackpackSlots int             `mapstructure:"backpack_slots"`
	Stats         character.Stats `mapstructure:"stats"`
}

// GameConfig holds the combat loop settings.
type GameConfig struct {
	// TickInterval is the period of the death and reward pipeline.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Seed makes every roll reproducible; 0 uses crypto/rand.
	Seed int64 `mapstructure:"seed"`
	// StartRoom is the room the player starts in.
	StartRoom string `mapstructure:"start_room"`
	// RewardOrder is the order the gold, xp, and loot handlers run in.
	RewardOrder []string                   `mapstructure:"reward_order"`
	Player      PlayerConfig               `mapstructure:"player"`
	Rooms       map[string][]npc.RoomSpawn `mapstructure:"rooms"`
}

var rewardHandlers = map[string]pipeline.RewardHandler{
	"gold": pipeline.RewardGold,
	"xp":   pipeline.RewardXP,
	"loot": pipeline.RewardLoot,
}

// RewardHandlers converts RewardOrder into pipeline handlers.
//
// Precondition: RewardOrder passed Validate.
func (g GameConfig) RewardHandlers() []pipeline.RewardHandler {
	out := make([]pipeline.RewardHandler, 0, len(g.RewardOrder))
	for _, name := range g.RewardOrder {
		out = append(out, rewardHandlers[name])
	}
	return out
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Content  ContentConfig  `mapstructure:"content"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MonstersDir == "" {
		errs = append(errs, "content.monsters_dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("game.tick_interval must be > 0, got %s", g.TickInterval))
	}
	if g.StartRoom == "" {
		errs = append(errs, "game.start_room must not be empty")
	}
	if g.Player.Name == "" {
		errs = append(errs, "game.player.name must not be empty")
	}
	if g.Player.Gold < 0 {
		errs = append(errs, fmt.Sprintf("game.player.gold must be >= 0, got %d", g.Player.Gold))
	}
	if g.Player.BackpackSlots < 1 {
		errs = append(errs, fmt.Sprintf("game.player.backpack_slots must be >= 1, got %d", g.Player.BackpackSlots))
	}
	if g.Player.Stats.MaxHealth < 1 {
		errs = append(errs, fmt.Sprintf("game.player.stats.max_health must be >= 1, got %d", g.Player.Stats.MaxHealth))
	}
	if g.Player.Stats.Attack < 0 || g.Player.Stats.Defense < 0 {
		errs = append(errs, "game.player.stats attack and defense must not be negative")
	}

	seen := make(map[string]bool)
	for _, name := range g.RewardOrder {
		if _, ok := rewardHandlers[name]; !ok || seen[name] {
			errs = append(errs, fmt.Sprintf("game.reward_order has unknown or repeated handler %q", name))
		}
		seen[name] = true
	}
	if len(g.RewardOrder) != len(rewardHandlers) {
		errs = append(errs, fmt.Sprintf("game.reward_order must list gold, xp, and loot, got %v", g.RewardOrder))
	}

	for room, spawns := range g.Rooms {
		for _, s := range spawns {
			if s.TemplateID == "" {
				errs = append(errs, fmt.Sprintf("game.rooms.%s: template must not be empty", room))
			}
			if s.Max < 1 {
				errs = append(errs, fmt.Sprintf("game.rooms.%s: %s max must be >= 1, got %d", room, s.TemplateID, s.Max))
			}
			if s.RespawnDelay < 0 {
				errs = append(errs, fmt.Sprintf("game.rooms.%s: %s respawn_delay must not be negative", room, s.TemplateID))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with RPG_ prefix
	v.SetEnvPrefix("RPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "rpg")
	v.SetDefault("database.password", "rpg")
	v.SetDefault("database.name", "rpg")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("content.monsters_dir", "content/monsters")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.script_instruction_limit", 0)

	v.SetDefault("game.tick_interval", "250ms")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.start_room", "mine_entrance")
	v.SetDefault("game.reward_order", []string{"gold", "xp", "loot"})
	v.SetDefault("game.player.name", "Adventurer")
	v.SetDefault("game.player.gold", 0)
	v.SetDefault("game.player.backpack_slots", character.DefaultBackpackSlots)
	v.SetDefault("game.player.stats.max_health", 100)
	v.SetDefault("game.player.stats.attack", 10)
	v.SetDefault("game.player.stats.defense", 5)
	v.SetDefault("game.player.stats.goldfind", 0)
	v.SetDefault("game.player.stats.magicfind", 0)
}
