package gameserver

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/game/npc"
)

// Hunter plays the dungeon without input. On each tick it strikes the first
// living monster in the current room, alternating the player's strike with the
// monster's reply, and moves on to the next room once the room is empty.
//
// A Hunter is driven by a single TickLoop and is not safe for concurrent use.
type Hunter struct {
	h      *DungeonHandler
	rooms  []string
	logger *zap.Logger

	// encounter resolves each monster with one synchronous fight instead
	// of one strike per tick.
	encounter bool

	target     string
	playerTurn bool
}

// NewHunter creates a Hunter touring rooms in order.
//
// Precondition: h non-nil; rooms non-empty.
func NewHunter(h *DungeonHandler, rooms []string, encounter bool, logger *zap.Logger) *Hunter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hunter{h: h, rooms: rooms, encounter: encounter, logger: logger}
}

// Step takes one action. It matches TickFunc.
func (hu *Hunter) Step(ctx context.Context, _ time.Time) {
	if hu.h.Player() == nil {
		return
	}
	monsters := hu.h.Monsters()
	if len(monsters) == 0 {
		hu.advance()
		return
	}
	i := slices.IndexFunc(monsters, func(m *npc.Instance) bool { return m.IsAlive() })
	if i < 0 {
		// Only corpses left; the pipeline despawns them this tick.
		return
	}
	target := monsters[i]
	if target.ID != hu.target {
		hu.target = target.ID
		hu.playerTurn = true
		hu.logger.Info("engaging", zap.String("monster", target.Name()), zap.String("id", target.ID))
	}

	if hu.encounter {
		if _, err := hu.h.Encounter(ctx, target.ID); err != nil {
			hu.logger.Warn("encounter", zap.Error(err))
		}
		return
	}

	var s Strike
	var err error
	if hu.playerTurn {
		s, err = hu.h.PlayerAttack(target.ID)
	} else {
		s, err = hu.h.MonsterAttack(target.ID)
	}
	if errors.Is(err, ErrMonsterDead) {
		// Killed last tick and waiting to be despawned.
		return
	}
	if err != nil {
		hu.logger.Warn("attack", zap.Error(err))
		return
	}
	hu.playerTurn = !hu.playerTurn
	hu.logger.Debug("strike",
		zap.String("attacker", s.Attacker),
		zap.String("defender", s.Defender),
		zap.Int("damage", s.Damage),
	)
}

func (hu *Hunter) advance() {
	cur := hu.h.Room()
	next := hu.rooms[0]
	for i, r := range hu.rooms {
		if r == cur {
			next = hu.rooms[(i+1)%len(hu.rooms)]
			break
		}
	}
	if next == cur {
		return
	}
	hu.h.MoveTo(next)
	hu.target = ""
	hu.logger.Info("moving", zap.String("from", cur), zap.String("to", next))
}
