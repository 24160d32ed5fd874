package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rpgcombat/internal/game/character"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
	"github.com/cory-johannsen/rpgcombat/internal/game/pipeline"
)

// LedgerTotals sums the kills recorded for one player.
type LedgerTotals struct {
	Kills int
	Gold  int
	XP    int
}

// RewardLedger records granted kill rewards. Monster IDs are scoped to the
// session that spawned them, so a restarted server never collides with an
// earlier run's rows.
type RewardLedger struct {
	db        *pgxpool.Pool
	sessionID uuid.UUID
}

// NewRewardLedger creates a ledger writing rows under sessionID.
//
// Precondition: db must be a valid, open connection pool.
func NewRewardLedger(db *pgxpool.Pool, sessionID uuid.UUID) *RewardLedger {
	return &RewardLedger{db: db, sessionID: sessionID}
}

// Session returns the ledger's session ID.
func (l *RewardLedger) Session() uuid.UUID { return l.sessionID }

// RecordKill stores kill and its drops in one transaction.
//
// Precondition: kill.Entity must be non-empty.
// Postcondition: Returns false without error when this session already
// recorded kill.Entity; nothing is written in that case.
func (l *RewardLedger) RecordKill(ctx context.Context, player string, kill pipeline.KillSummary) (bool, error) {
	if kill.Entity == "" {
		return false, errors.New("recording kill: monster id must not be empty")
	}
	inserted := false
	err := pgx.BeginFunc(ctx, l.db, func(tx pgx.Tx) error {
		var killID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO kill_rewards (session_id, monster_id, monster_name, player, gold, xp, levels_gained)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (session_id, monster_id) DO NOTHING
			RETURNING id`,
			[16]byte(l.sessionID), string(kill.Entity), kill.Name, player, kill.Gold, kill.XP, kill.LevelsGained,
		).Scan(&killID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("inserting kill: %w", err)
		}
		inserted = true

		if len(kill.Loot) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(kill.Loot))
		for _, d := range kill.Loot {
			instance, err := uuid.Parse(d.InstanceID)
			if err != nil {
				return fmt.Errorf("drop %s: instance id: %w", d.ItemID, err)
			}
			rows = append(rows, []any{killID, [16]byte(instance), d.ItemID, d.Quantity})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"kill_drops"},
			[]string{"kill_id", "instance_id", "item_id", "quantity"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("inserting drops: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// Drops returns the loot recorded for monsterID in this session, in insertion order.
func (l *RewardLedger) Drops(ctx context.Context, monsterID string) ([]loot.Drop, error) {
	rows, err := l.db.Query(ctx, `
		SELECT d.item_id, d.instance_id, d.quantity
		FROM kill_drops d
		JOIN kill_rewards k ON k.id = d.kill_id
		WHERE k.session_id = $1 AND k.monster_id = $2
		ORDER BY d.id`,
		[16]byte(l.sessionID), monsterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying drops: %w", err)
	}
	defer rows.Close()

	var out []loot.Drop
	for rows.Next() {
		var d loot.Drop
		if err := rows.Scan(&d.ItemID, &d.InstanceID, &d.Quantity); err != nil {
			return nil, fmt.Errorf("scanning drop: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Totals sums every kill recorded for player across all sessions.
func (l *RewardLedger) Totals(ctx context.Context, player string) (LedgerTotals, error) {
	var t LedgerTotals
	err := l.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(gold), 0), COALESCE(SUM(xp), 0)
		FROM kill_rewards
		WHERE player = $1`,
		player,
	).Scan(&t.Kills, &t.Gold, &t.XP)
	if err != nil {
		return LedgerTotals{}, fmt.Errorf("summing kills: %w", err)
	}
	return t, nil
}

// SavePlayer upserts the player's sheet.
//
// Precondition: s.Name must be non-empty.
func (l *RewardLedger) SavePlayer(ctx context.Context, s character.Sheet) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO players (name, level, xp, gold, max_health, attack, defense, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (name) DO UPDATE SET
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			gold = EXCLUDED.gold,
			max_health = EXCLUDED.max_health,
			attack = EXCLUDED.attack,
			defense = EXCLUDED.defense,
			updated_at = NOW()`,
		s.Name, s.Level, s.XP, s.Gold, s.MaxHealth, s.Attack, s.Defense,
	)
	if err != nil {
		return fmt.Errorf("saving player %q: %w", s.Name, err)
	}
	return nil
}

// LoadPlayer returns the saved level, xp, and gold for name.
//
// Postcondition: Returns ErrPlayerNotFound when nothing was saved.
func (l *RewardLedger) LoadPlayer(ctx context.Context, name string) (character.Sheet, error) {
	s := character.Sheet{Name: name}
	err := l.db.QueryRow(ctx, `
		SELECT level, xp, gold, max_health, attack, defense
		FROM players WHERE name = $1`,
		name,
	).Scan(&s.Level, &s.XP, &s.Gold, &s.MaxHealth, &s.Attack, &s.Defense)
	if errors.Is(err, pgx.ErrNoRows) {
		return character.Sheet{}, ErrPlayerNotFound
	}
	if err != nil {
		return character.Sheet{}, fmt.Errorf("loading player %q: %w", name, err)
	}
	return s, nil
}

// ErrPlayerNotFound is returned when no sheet was saved for a player.
var ErrPlayerNotFound = errors.New("player not found")
