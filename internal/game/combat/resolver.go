package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// MaxIdleAttacks is how many attacks in a row may deal no damage before a
// fight ends in Stalemate. Any damaging attack resets the count, so a fight
// in which health keeps dropping always runs to a death.
const MaxIdleAttacks = 10000

// AttackResult records one resolved attack.
type AttackResult struct {
	Attacker     string
	Defender     string
	Damage       int
	HealthBefore int
	HealthAfter  int
	TargetDied   bool
}

// String renders the attack as a combat log line.
func (r AttackResult) String() string {
	s := fmt.Sprintf("%s hits %s for %d (%d -> %d)", r.Attacker, r.Defender, r.Damage, r.HealthBefore, r.HealthAfter)
	if r.TargetDied {
		s += fmt.Sprintf("; %s is defeated", r.Defender)
	}
	return s
}

// Attack resolves one attack from attacker against defender.
// Attacking a defender that is already dead rolls nothing and deals no damage.
//
// Precondition: attacker, defender, and src must be non-nil.
// Postcondition: HealthAfter == max(HealthBefore − Damage, 0);
// TargetDied == !defender.IsAlive().
func Attack(attacker, defender Combatant, src dice.Source) AttackResult {
	res := AttackResult{
		Attacker:     attacker.Name(),
		Defender:     defender.Name(),
		HealthBefore: defender.EffectiveHealth(),
	}
	if defender.IsAlive() {
		res.Damage = RollDamage(attacker, defender, src)
		defender.TakeDamage(res.Damage)
	}
	res.HealthAfter = defender.EffectiveHealth()
	res.TargetDied = !defender.IsAlive()
	return res
}

// Phase is the state of a Fight.
type Phase int

const (
	PhasePlayerTurn Phase = iota
	PhaseMonsterTurn
	PhaseVictory
	PhaseDefeat
	PhaseStalemate
	PhaseFled
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhasePlayerTurn:
		return "player turn"
	case PhaseMonsterTurn:
		return "monster turn"
	case PhaseVictory:
		return "victory"
	case PhaseDefeat:
		return "defeat"
	case PhaseStalemate:
		return "stalemate"
	case PhaseFled:
		return "fled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attacks happen in this phase.
func (p Phase) Terminal() bool {
	return p >= PhaseVictory
}

// Outcome is the accumulated record of a fight.
type Outcome struct {
	AttackResults []AttackResult
	PlayerWon     bool
	GoldGained    int
	XPGained      int
	LevelsGained  int
	LootDrops     []loot.Drop
	GoldLost      int
	Phase         Phase
}

// Rounds returns the number of attacks resolved.
func (o *Outcome) Rounds() int { return len(o.AttackResults) }

// Fight is a step-wise synchronous duel between a player and a monster.
// The player always attacks first. A Fight is not safe for concurrent use.
type Fight struct {
	player  Player
	monster Killable
	src     dice.Source
	logger  *zap.Logger
	phase   Phase
	outcome Outcome
	idle    int
}

// FightOption customizes a Fight.
type FightOption func(*Fight)

// WithLogger attaches a logger that receives a debug entry per attack.
func WithLogger(logger *zap.Logger) FightOption {
	return func(f *Fight) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFight begins a fight in PhasePlayerTurn.
//
// Precondition: player, monster, and src must be non-nil.
func NewFight(player Player, monster Killable, src dice.Source, opts ...FightOption) *Fight {
	f := &Fight{
		player:  player,
		monster: monster,
		src:     src,
		logger:  zap.NewNop(),
		phase:   PhasePlayerTurn,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Phase returns the current phase.
func (f *Fight) Phase() Phase { return f.phase }

// Over reports whether the fight reached a terminal phase.
func (f *Fight) Over() bool { return f.phase.Terminal() }

// Outcome returns a snapshot of the outcome accumulated so far.
func (f *Fight) Outcome() Outcome {
	o := f.outcome
	o.Phase = f.phase
	return o
}

// Monster returns the monster side of the fight.
func (f *Fight) Monster() Killable { return f.monster }

// Step resolves exactly one attack for the side whose turn it is, checks for
// death before the turn passes, and finalizes the fight on death.
//
// Postcondition: Returns false without side effects once the fight is over.
func (f *Fight) Step() (AttackResult, bool) {
	if f.Over() {
		return AttackResult{}, false
	}
	if f.stalemate() {
		f.phase = PhaseStalemate
		f.logger.Debug("fight stalemate",
			zap.String("player", f.player.Name()),
			zap.String("monster", f.monster.Name()),
			zap.Int("attacks", f.outcome.Rounds()),
		)
		return AttackResult{}, false
	}

	var res AttackResult
	if f.phase == PhasePlayerTurn {
		res = Attack(f.player, f.monster, f.src)
	} else {
		res = Attack(f.monster, f.player, f.src)
	}
	f.outcome.AttackResults = append(f.outcome.AttackResults, res)
	if res.Damage > 0 {
		f.idle = 0
	} else {
		f.idle++
	}
	f.logger.Debug("attack",
		zap.String("attacker", res.Attacker),
		zap.String("defender", res.Defender),
		zap.Int("damage", res.Damage),
		zap.Int("health_after", res.HealthAfter),
	)

	switch {
	case res.TargetDied && f.phase == PhasePlayerTurn:
		f.finishVictory()
	case res.TargetDied:
		f.finishDefeat()
	case f.phase == PhasePlayerTurn:
		f.phase = PhaseMonsterTurn
	default:
		f.phase = PhasePlayerTurn
	}
	return res, true
}

// Run steps until the fight is over and returns the final outcome.
func (f *Fight) Run() Outcome {
	for !f.Over() {
		f.Step()
	}
	return f.Outcome()
}

// Flee ends an ongoing fight with no rewards and no penalty.
//
// Postcondition: Returns false if the fight was already over.
func (f *Fight) Flee() bool {
	if f.Over() {
		return false
	}
	f.phase = PhaseFled
	return true
}

// stalemate reports whether the fight cannot end in a death: neither side's
// best roll gets through, or MaxIdleAttacks attacks in a row missed.
func (f *Fight) stalemate() bool {
	if f.idle >= MaxIdleAttacks {
		return true
	}
	if !f.player.IsAlive() || !f.monster.IsAlive() {
		return false
	}
	return !CanDamage(f.player, f.monster) && !CanDamage(f.monster, f.player)
}

func (f *Fight) finishVictory() {
	f.phase = PhaseVictory
	f.outcome.PlayerWon = true
	res := f.monster.OnDeath(f.player.Modifiers(), f.src)
	if res.Empty() {
		return
	}
	f.player.AddGold(res.Gold)
	f.outcome.GoldGained = res.Gold
	f.outcome.XPGained = res.XP
	f.outcome.LevelsGained = f.player.GainXP(res.XP)
	f.outcome.LootDrops = res.Loot
	f.player.CollectLoot(res.Loot)
	f.logger.Debug("victory",
		zap.String("monster", f.monster.Name()),
		zap.Int("gold", res.Gold),
		zap.Int("xp", res.XP),
		zap.Int("drops", len(res.Loot)),
	)
}

func (f *Fight) finishDefeat() {
	f.phase = PhaseDefeat
	res := f.player.OnDeath(Modifiers{}, f.src)
	f.outcome.GoldLost = res.GoldLost
	f.logger.Debug("defeat",
		zap.String("monster", f.monster.Name()),
		zap.Int("gold_lost", res.GoldLost),
	)
}

// EnterCombat runs a full fight between player and monster.
//
// Precondition: player, monster, and src must be non-nil.
// Postcondition: Returned Outcome.Phase is terminal; on Victory the monster's
// rewards were applied to the player at most once across all calls.
func EnterCombat(player Player, monster Killable, src dice.Source, opts ...FightOption) Outcome {
	return NewFight(player, monster, src, opts...).Run()
}
