// Package pipeline resolves deaths and kill rewards as a per-tick chain of
// message handlers. Damage is queued between ticks; each tick drains the
// queue through damage, reward, guard, defeat, apply, and despawn handlers
// in a fixed order on a single goroutine.
package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// Monster is a killable entity that carries kill rewards.
type Monster interface {
	combat.Killable
	GoldReward() int
	XPReward() int
	LootTable() loot.Table
}

// World is the entity store the pipeline resolves against.
type World interface {
	// Player returns the player, or false when no player is present.
	Player() (combat.Player, bool)
	// Monster returns the live monster with id.
	Monster(id EntityID) (Monster, bool)
	// Despawn removes a dead monster from the world.
	Despawn(id EntityID) error
}

// RewardHandler names one of the three kill reward handlers.
type RewardHandler int

const (
	RewardGold RewardHandler = iota
	RewardXP
	RewardLoot
)

// String returns the handler name.
func (r RewardHandler) String() string {
	switch r {
	case RewardGold:
		return "gold"
	case RewardXP:
		return "xp"
	case RewardLoot:
		return "loot"
	default:
		return "unknown"
	}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRewardOrder sets the order the reward handlers run in. The result is
// the same for every order; the option exists so that can be exercised.
func WithRewardOrder(order ...RewardHandler) Option {
	return func(p *Pipeline) { p.rewardOrder = order }
}

// KillSummary collects the rewards granted for one monster death.
type KillSummary struct {
	Entity       EntityID
	Name         string
	Gold         int
	XP           int
	Loot         []loot.Drop
	LevelsGained int
}

// TickReport is what one tick resolved, for presentation and persistence.
type TickReport struct {
	Deaths    []EntityDied
	Kills     []KillSummary
	Defeats   []PlayerDefeated
	Despawned []EntityID
}

// Empty reports whether the tick resolved nothing.
func (r TickReport) Empty() bool {
	return len(r.Deaths) == 0 && len(r.Kills) == 0 && len(r.Defeats) == 0 && len(r.Despawned) == 0
}

// Pipeline is the event-driven death and reward resolver.
// Dispatch and Announce are safe for concurrent use; Tick must be called
// from a single goroutine.
type Pipeline struct {
	world       World
	src         dice.Source
	logger      *zap.Logger
	rewardOrder []RewardHandler

	mu       sync.Mutex
	inDamage []DamageEntity
	inDied   []EntityDied

	bus Bus
}

// New builds a Pipeline over world.
//
// Precondition: world, src, and logger must be non-nil.
// Postcondition: Returns an error if the reward order is not a permutation of
// gold, xp, and loot.
func New(world World, src dice.Source, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		world:       world,
		src:         src,
		logger:      logger,
		rewardOrder: []RewardHandler{RewardGold, RewardXP, RewardLoot},
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := validateOrder(p.rewardOrder); err != nil {
		return nil, err
	}
	return p, nil
}

func validateOrder(order []RewardHandler) error {
	if len(order) != 3 {
		return fmt.Errorf("pipeline: reward order must name gold, xp, and loot exactly once, got %v", order)
	}
	seen := make(map[RewardHandler]bool, 3)
	for _, h := range order {
		if h < RewardGold || h > RewardLoot || seen[h] {
			return fmt.Errorf("pipeline: reward order must name gold, xp, and loot exactly once, got %v", order)
		}
		seen[h] = true
	}
	return nil
}

// Dispatch queues damage for the next tick.
func (p *Pipeline) Dispatch(msg DamageEntity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inDamage = append(p.inDamage, msg)
}

// Announce queues a death notification for the next tick. Announcing a death
// that was already rewarded has no effect beyond being reported.
func (p *Pipeline) Announce(msg EntityDied) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inDied = append(p.inDied, msg)
}

// Pending returns the number of queued notifications.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inDamage) + len(p.inDied)
}

// Tick drains every queued notification through the handler chain.
//
// Postcondition: each monster death is rewarded at most once across all ticks
// and all execution paths sharing its guard; the bus is empty on return.
func (p *Pipeline) Tick() TickReport {
	p.mu.Lock()
	for _, d := range p.inDamage {
		p.bus.Damage.Write(d)
	}
	for _, d := range p.inDied {
		p.bus.Died.Write(d)
	}
	p.inDamage = p.inDamage[:0]
	p.inDied = p.inDied[:0]
	p.mu.Unlock()

	defer p.bus.clear()

	var report TickReport
	p.handleDamage()
	deaths := p.uniqueDeaths()
	report.Deaths = deaths

	if player, ok := p.world.Player(); ok {
		for _, h := range p.rewardOrder {
			switch h {
			case RewardGold:
				p.handleGold(player, deaths)
			case RewardXP:
				p.handleXP(deaths)
			case RewardLoot:
				p.handleLoot(player, deaths)
			}
		}
	} else if len(deaths) > 0 {
		p.logger.Warn("no player present; skipping kill rewards this tick", zap.Int("deaths", len(deaths)))
	}
	p.handleGuard(deaths)
	p.handleDefeat(deaths)
	report.Defeats = append(report.Defeats, p.bus.Defeated.Read()...)
	report.Kills = p.applyRewards()
	report.Despawned = p.handleDespawn(deaths)
	return report
}
