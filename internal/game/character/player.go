package character

import (
	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// DefaultBackpackSlots is the backpack size of a new player.
const DefaultBackpackSlots = 40

// Player is the player combatant. It is not safe for concurrent use;
// callers serialize access, as the game loop does.
type Player struct {
	name      string
	base      Stats
	health    combat.Health
	equipment *inventory.Equipment
	backpack  *inventory.Backpack
	registry  *inventory.Registry
	wallet    Wallet
	prog      Progression
	guard     combat.DeathGuard
	curve     ModifierCurve
	overflow  []loot.Drop
}

// Option customizes a Player.
type Option func(*Player)

// WithCurve sets the ModifierCurve used for goldfind and magicfind.
func WithCurve(c ModifierCurve) Option {
	return func(p *Player) {
		if c != nil {
			p.curve = c
		}
	}
}

// WithRegistry sets the item registry used to stack collected loot.
func WithRegistry(r *inventory.Registry) Option {
	return func(p *Player) { p.registry = r }
}

// WithBackpackSlots sets the backpack slot limit.
func WithBackpackSlots(n int) Option {
	return func(p *Player) { p.backpack = inventory.NewBackpack(n) }
}

// WithGold sets the starting gold.
func WithGold(g int) Option {
	return func(p *Player) { p.wallet = Wallet{}; p.wallet.Add(g) }
}

// WithProgression resumes at level with xp toward the next one, applying the
// stat gains of every level above 1. xp is clamped into [0, XPToNextLevel(level)).
//
// Precondition: level >= 1; lower values start at level 1.
func WithProgression(level, xp int) Option {
	return func(p *Player) {
		lvl := max(level, 1)
		prog := Progression{Level: lvl, XP: min(max(xp, 0), XPToNextLevel(lvl)-1)}
		for l := 1; l < lvl; l++ {
			prog.TotalXP += XPToNextLevel(l)
		}
		prog.TotalXP += prog.XP
		p.base = p.base.grow(p.prog.Level, lvl)
		p.prog = prog
	}
}

// Resume restores the level, experience, and gold of a saved sheet. Health,
// attack, and defense are rebuilt from the base stats and level rather than
// copied, so they stay consistent with the current content.
func Resume(s Sheet) Option {
	return func(p *Player) {
		WithProgression(s.Level, s.XP)(p)
		WithGold(s.Gold)(p)
	}
}

// NewPlayer creates a player at full health, at level 1 unless an option
// resumes a saved one.
//
// Precondition: name is non-empty.
// Postcondition: EffectiveHealth() == MaxHealth(); the death guard is Alive.
func NewPlayer(name string, base Stats, opts ...Option) *Player {
	p := &Player{
		name:      name,
		base:      base,
		equipment: inventory.NewEquipment(),
		backpack:  inventory.NewBackpack(DefaultBackpackSlots),
		prog:      NewProgression(),
		curve:     AdditiveCurve{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.health = combat.NewHealth(p.MaxHealth())
	return p
}

// Name implements combat.Combatant.
func (p *Player) Name() string { return p.name }

// Kind implements combat.Combatant.
func (p *Player) Kind() combat.Kind { return combat.KindPlayer }

// EffectiveHealth implements combat.Combatant.
func (p *Player) EffectiveHealth() int { return p.health.Current }

// MaxHealth is base max health plus equipment bonus, never below 1.
func (p *Player) MaxHealth() int {
	return max(p.base.MaxHealth+p.equipment.Bonuses().MaxHealth, 1)
}

// EffectiveAttack is base attack plus equipment bonus.
func (p *Player) EffectiveAttack() int {
	return p.base.Attack + p.equipment.Bonuses().Attack
}

// EffectiveDefense is base defense plus equipment bonus.
func (p *Player) EffectiveDefense() int {
	return p.base.Defense + p.equipment.Bonuses().Defense
}

// TakeDamage implements combat.Combatant.
func (p *Player) TakeDamage(amount int) { p.health.TakeDamage(amount) }

// IsAlive implements combat.Combatant.
func (p *Player) IsAlive() bool { return p.health.IsAlive() }

// Guard implements combat.Killable.
func (p *Player) Guard() *combat.DeathGuard { return &p.guard }

// Modifiers derives goldfind and magicfind through the ModifierCurve.
func (p *Player) Modifiers() combat.Modifiers {
	b := p.equipment.Bonuses()
	return combat.Modifiers{
		Goldfind:  p.curve.Goldfind(p.base.Goldfind, b.Goldfind),
		Magicfind: p.curve.Magicfind(p.base.Magicfind, b.Magicfind),
	}
}

// AddGold implements combat.Player.
func (p *Player) AddGold(amount int) { p.wallet.Add(amount) }

// Gold returns the current balance.
func (p *Player) Gold() int { return p.wallet.Gold() }

// GainXP adds experience and applies level-up stat gains.
//
// Postcondition: Returns the number of levels gained; each grants
// HealthPerLevel max health (also healed) and AttackPerLevel attack, and
// every level divisible by DefenseLevelInterval adds one defense.
func (p *Player) GainXP(amount int) int {
	from := p.prog.Level
	levels := p.prog.AddXP(amount)
	if levels > 0 {
		p.base = p.base.grow(from, p.prog.Level)
		p.health.Max = p.MaxHealth()
		p.health.Heal(levels * HealthPerLevel)
	}
	return levels
}

// Progression returns a copy of the level and experience state.
func (p *Player) Progression() Progression { return p.prog }

// CollectLoot stacks drops into the backpack. Drops that do not fit are kept
// aside and reported by Overflow.
func (p *Player) CollectLoot(drops []loot.Drop) {
	p.overflow = append(p.overflow, p.backpack.Stow(drops, p.registry)...)
}

// Overflow returns drops that did not fit in the backpack.
func (p *Player) Overflow() []loot.Drop { return append([]loot.Drop(nil), p.overflow...) }

// Backpack returns the player's backpack.
func (p *Player) Backpack() *inventory.Backpack { return p.backpack }

// Equip puts def on and keeps current health within the new maximum.
//
// Postcondition: on success, MaxHealth reflects the new bonuses.
func (p *Player) Equip(def *inventory.ItemDef) (*inventory.ItemDef, error) {
	prev, err := p.equipment.Equip(def)
	if err != nil {
		return nil, err
	}
	p.syncMaxHealth()
	return prev, nil
}

// Unequip empties slot and returns what was there.
func (p *Player) Unequip(slot inventory.Slot) *inventory.ItemDef {
	prev := p.equipment.Unequip(slot)
	p.syncMaxHealth()
	return prev
}

func (p *Player) syncMaxHealth() {
	p.health.Max = p.MaxHealth()
	if p.health.Current > p.health.Max {
		p.health.Current = p.health.Max
	}
}

// OnDeath applies the defeat penalty exactly once per death: it deducts
// DefeatPenalty of carried gold and restores full health.
//
// Postcondition: Returns an empty result while alive or when this death was
// already processed; afterwards the player is alive with an Alive guard.
func (p *Player) OnDeath(_ combat.Modifiers, _ dice.Source) combat.DeathResult {
	if p.IsAlive() || !p.guard.Grant() {
		return combat.DeathResult{}
	}
	lost := p.wallet.Deduct(combat.DefeatPenalty(p.wallet.Gold()))
	p.health.Restore()
	p.guard.Reset()
	return combat.DeathResult{GoldLost: lost}
}

// Sheet is a read-only view of the player for presentation and storage.
type Sheet struct {
	Name      string
	Level     int
	XP        int
	XPToNext  int
	Health    int
	MaxHealth int
	Attack    int
	Defense   int
	Goldfind  int
	Magicfind int
	Gold      int
}

// Sheet returns the player's current stat sheet.
func (p *Player) Sheet() Sheet {
	mods := p.Modifiers()
	return Sheet{
		Name:      p.name,
		Level:     p.prog.Level,
		XP:        p.prog.XP,
		XPToNext:  XPToNextLevel(p.prog.Level),
		Health:    p.health.Current,
		MaxHealth: p.MaxHealth(),
		Attack:    p.EffectiveAttack(),
		Defense:   p.EffectiveDefense(),
		Goldfind:  mods.Goldfind,
		Magicfind: mods.Magicfind,
		Gold:      p.wallet.Gold(),
	}
}
