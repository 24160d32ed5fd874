package combat_test

import (
	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// fixedSrc always returns the same value clamped to [0, n).
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

// maxSrc always returns n-1, so every range roll lands on its maximum.
type maxSrc struct{}

func (maxSrc) Intn(n int) int { return n - 1 }

type stubMonster struct {
	name    string
	health  combat.Health
	attack  int
	defense int
	gold    int
	xp      int
	table   loot.Table
	guard   combat.DeathGuard
}

func newMonster(name string, hp, atk, def, gold, xp int) *stubMonster {
	return &stubMonster{name: name, health: combat.NewHealth(hp), attack: atk, defense: def, gold: gold, xp: xp}
}

func (m *stubMonster) Name() string               { return m.name }
func (m *stubMonster) Kind() combat.Kind          { return combat.KindMonster }
func (m *stubMonster) EffectiveHealth() int       { return m.health.Current }
func (m *stubMonster) MaxHealth() int             { return m.health.Max }
func (m *stubMonster) EffectiveAttack() int       { return m.attack }
func (m *stubMonster) EffectiveDefense() int      { return m.defense }
func (m *stubMonster) TakeDamage(n int)           { m.health.TakeDamage(n) }
func (m *stubMonster) IsAlive() bool              { return m.health.IsAlive() }
func (m *stubMonster) Guard() *combat.DeathGuard { return &m.guard }

func (m *stubMonster) OnDeath(mods combat.Modifiers, src dice.Source) combat.DeathResult {
	if m.IsAlive() || !m.guard.Grant() {
		return combat.DeathResult{}
	}
	return combat.KillRewards(m.gold, m.xp, m.table, mods, src)
}

type stubPlayer struct {
	name    string
	health  combat.Health
	attack  int
	defense int
	mods    combat.Modifiers
	gold    int
	xp      int
	loot    []loot.Drop
	guard   combat.DeathGuard
}

func newPlayer(hp, atk, def, gold int) *stubPlayer {
	return &stubPlayer{name: "Hero", health: combat.NewHealth(hp), attack: atk, defense: def, gold: gold}
}

func (p *stubPlayer) Name() string                 { return p.name }
func (p *stubPlayer) Kind() combat.Kind            { return combat.KindPlayer }
func (p *stubPlayer) EffectiveHealth() int         { return p.health.Current }
func (p *stubPlayer) MaxHealth() int               { return p.health.Max }
func (p *stubPlayer) EffectiveAttack() int         { return p.attack }
func (p *stubPlayer) EffectiveDefense() int        { return p.defense }
func (p *stubPlayer) TakeDamage(n int)             { p.health.TakeDamage(n) }
func (p *stubPlayer) IsAlive() bool                { return p.health.IsAlive() }
func (p *stubPlayer) Guard() *combat.DeathGuard   { return &p.guard }
func (p *stubPlayer) Modifiers() combat.Modifiers  { return p.mods }
func (p *stubPlayer) AddGold(n int)                { p.gold += n }
func (p *stubPlayer) CollectLoot(d []loot.Drop)    { p.loot = append(p.loot, d...) }

func (p *stubPlayer) GainXP(n int) int {
	p.xp += n
	return 0
}

func (p *stubPlayer) OnDeath(_ combat.Modifiers, _ dice.Source) combat.DeathResult {
	if p.IsAlive() || !p.guard.Grant() {
		return combat.DeathResult{}
	}
	lost := combat.DefeatPenalty(p.gold)
	p.gold -= lost
	p.health.Restore()
	p.guard.Reset()
	return combat.DeathResult{GoldLost: lost}
}
