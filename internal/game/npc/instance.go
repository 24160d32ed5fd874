package npc

import (
	"math"
	"time"

	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// HPBonusWeight scales how much an above-median HP roll boosts rewards.
const HPBonusWeight = 0.5

// Instance is a live monster occupying a room. Its stats and base rewards are
// rolled once at spawn and never change afterwards.
// An Instance is mutated only by the goroutine driving combat.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateID is the source template's ID.
	TemplateID string
	// Description is copied from the template.
	Description string
	// Quality is copied from the template.
	Quality string
	// RoomID is the room this instance currently occupies.
	RoomID string

	name    string
	health  combat.Health
	attack  int
	defense int
	gold    int
	xp      int
	table   loot.Table
	guard   combat.DeathGuard
	respawn time.Duration
}

// RewardMultiplier returns the reward bonus for an HP roll of hp in r:
// 1 + HPBonusWeight × excess, where excess is the fraction of the distance
// from the median to the maximum that hp covers, or 0 at or below the median.
//
// Postcondition: 1 <= result <= 1 + HPBonusWeight.
func RewardMultiplier(hp int, r Range) float64 {
	median := r.Median()
	if float64(hp) <= median || float64(r.Max) <= median {
		return 1
	}
	excess := (float64(hp) - median) / (float64(r.Max) - median)
	return 1 + excess*HPBonusWeight
}

// NewInstance rolls a live monster from tmpl, placed in roomID. Rolls happen
// in order: max hp, attack, defense, gold, xp.
//
// Precondition: id, roomID non-empty; tmpl must have passed Validate(); src non-nil.
// Postcondition: the instance is at full health with an Alive guard; rewards
// include the HP-roll bonus.
func NewInstance(id string, tmpl *Template, roomID string, src dice.Source) *Instance {
	hp := dice.Between(src, tmpl.MaxHP.Min, tmpl.MaxHP.Max)
	attack := dice.Between(src, tmpl.Attack.Min, tmpl.Attack.Max)
	defense := dice.Between(src, tmpl.Defense.Min, tmpl.Defense.Max)
	baseGold := dice.Between(src, tmpl.Gold.Min, tmpl.Gold.Max)
	baseXP := dice.Between(src, tmpl.XP.Min, tmpl.XP.Max)

	bonus := RewardMultiplier(hp, tmpl.MaxHP)
	return &Instance{
		ID:          id,
		TemplateID:  tmpl.ID,
		name:        tmpl.Name,
		Description: tmpl.Description,
		Quality:     tmpl.Quality,
		RoomID:      roomID,
		health:      combat.NewHealth(hp),
		attack:      attack,
		defense:     defense,
		gold:        int(math.Round(float64(baseGold) * bonus)),
		xp:          int(math.Round(float64(baseXP) * bonus)),
		table:       tmpl.LootTable(),
		respawn:     tmpl.Respawn(),
	}
}

// Name implements combat.Combatant.
func (i *Instance) Name() string { return i.name }

// Kind implements combat.Combatant.
func (i *Instance) Kind() combat.Kind { return combat.KindMonster }

// EffectiveHealth implements combat.Combatant.
func (i *Instance) EffectiveHealth() int { return i.health.Current }

// MaxHealth implements combat.Combatant.
func (i *Instance) MaxHealth() int { return i.health.Max }

// EffectiveAttack implements combat.Combatant.
func (i *Instance) EffectiveAttack() int { return i.attack }

// EffectiveDefense implements combat.Combatant.
func (i *Instance) EffectiveDefense() int { return i.defense }

// TakeDamage implements combat.Combatant.
func (i *Instance) TakeDamage(amount int) { i.health.TakeDamage(amount) }

// IsAlive implements combat.Combatant.
func (i *Instance) IsAlive() bool { return i.health.IsAlive() }

// IsDead reports whether the instance has no hit points left.
func (i *Instance) IsDead() bool { return !i.IsAlive() }

// Guard implements combat.Killable.
func (i *Instance) Guard() *combat.DeathGuard { return &i.guard }

// GoldReward returns the base gold rolled at spawn, before goldfind.
func (i *Instance) GoldReward() int { return i.gold }

// XPReward returns the xp rolled at spawn.
func (i *Instance) XPReward() int { return i.xp }

// LootTable returns the loot table copied from the template.
func (i *Instance) LootTable() loot.Table { return i.table }

// RespawnDelay returns the template's respawn delay.
func (i *Instance) RespawnDelay() time.Duration { return i.respawn }

// Rewards computes what killing this instance grants a killer with mods,
// without consulting or changing the death guard.
func (i *Instance) Rewards(mods combat.Modifiers, src dice.Source) combat.DeathResult {
	return combat.KillRewards(i.gold, i.xp, i.table, mods, src)
}

// OnDeath grants the kill rewards exactly once.
//
// Postcondition: Returns an empty result while alive or once rewards were
// already granted; otherwise the guard is RewardsGranted.
func (i *Instance) OnDeath(mods combat.Modifiers, src dice.Source) combat.DeathResult {
	if i.IsAlive() || !i.guard.Grant() {
		return combat.DeathResult{}
	}
	return i.Rewards(mods, src)
}

// HealthDescription returns a visible health state string.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	if i.health.Current <= 0 {
		return "dead"
	}
	pct := float64(i.health.Current) / float64(i.health.Max)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
