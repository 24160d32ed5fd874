// Package testutil starts throwaway Postgres instances for ledger
// integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/rpgcombat/internal/config"
	"github.com/cory-johannsen/rpgcombat/internal/storage/postgres"
)

const (
	pgImage = "postgres:16-alpine"
	pgCreds = "ledger"
)

// PostgresContainer is a running Postgres container and a pool connected to it.
type PostgresContainer struct {
	Pool    *postgres.Pool
	RawPool *pgxpool.Pool
	Config  config.DatabaseConfig
}

// NewPostgresContainer starts Postgres in Docker and connects to it. The
// container is terminated when the test ends. Tests calling it are skipped
// under -short.
//
// Precondition: Docker must be available.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("ledger integration test needs Docker; skipped in -short mode")
	}
	ctx := context.Background()
	start := time.Now()

	container, dbCfg, err := startPostgres(ctx)
	if container != nil {
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })
	}
	if err != nil {
		t.Fatalf("starting postgres: %v [%s]", err, time.Since(start))
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to %s: %v", dbCfg.Host, err)
	}
	t.Cleanup(pool.Close)
	t.Logf("postgres ready on port %d [%s]", dbCfg.Port, time.Since(start))

	return &PostgresContainer{Pool: pool, RawPool: pool.DB(), Config: dbCfg}
}

// startPostgres runs the container and returns the settings to reach it.
// The container is returned even on error so the caller can terminate it.
func startPostgres(ctx context.Context) (testcontainers.Container, config.DatabaseConfig, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgCreds,
				"POSTGRES_PASSWORD": pgCreds,
				"POSTGRES_DB":       pgCreds,
			},
			// The entrypoint restarts the server once after init, so the
			// ready line appears twice.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return container, config.DatabaseConfig{}, err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return container, config.DatabaseConfig{}, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return container, config.DatabaseConfig{}, fmt.Errorf("mapped port: %w", err)
	}
	return container, config.DatabaseConfig{
		Enabled:         true,
		Host:            host,
		Port:            port.Int(),
		User:            pgCreds,
		Password:        pgCreds,
		Name:            pgCreds,
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	}, nil
}

// ApplyMigrations brings the database to the latest ledger schema through
// Pool.Migrate, the same path cmd/dungeon takes with auto_migrate.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	version, err := pc.Pool.Migrate()
	if err != nil {
		t.Fatalf("migrating ledger schema: %v", err)
	}
	t.Logf("ledger schema at version %d", version)
}

// NewLedger starts a migrated container and returns a reward ledger on a
// fresh session.
func NewLedger(t *testing.T) (*PostgresContainer, *postgres.RewardLedger) {
	t.Helper()
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc, postgres.NewRewardLedger(pc.RawPool, uuid.New())
}

// Truncate empties the ledger tables so one container can serve several tests.
func (pc *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	if _, err := pc.RawPool.Exec(context.Background(),
		`TRUNCATE kill_drops, kill_rewards, players RESTART IDENTITY`); err != nil {
		t.Fatalf("truncating ledger tables: %v", err)
	}
}
