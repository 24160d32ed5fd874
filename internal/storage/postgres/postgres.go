// Package postgres persists granted kill rewards and player sheets using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rpgcombat/internal/config"
	"github.com/cory-johannsen/rpgcombat/migrations"
)

// Pool is the ledger's connection pool. It remembers its DSN so the schema
// can be migrated over a separate connection.
type Pool struct {
	pool *pgxpool.Pool
	dsn  string
}

// NewPool connects to the database described by cfg.
//
// Precondition: cfg passed config validation.
// Postcondition: Returns a pinged Pool or a non-nil error; on error nothing
// is left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool, dsn: dsn}, nil
}

// NewMigrator returns a golang-migrate instance over the embedded schema.
// The caller must Close it.
func NewMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Migrate brings the ledger schema up to date and returns its version.
//
// Postcondition: An already current schema is not an error.
func (p *Pool) Migrate() (uint, error) {
	m, err := NewMigrator(p.dsn)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrating ledger schema: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("ledger schema version %d is dirty", version)
	}
	return version, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all connections. The Pool is unusable afterwards.
func (p *Pool) Close() { p.pool.Close() }

// DB returns the underlying pgxpool.Pool for the ledger.
func (p *Pool) DB() *pgxpool.Pool { return p.pool }
