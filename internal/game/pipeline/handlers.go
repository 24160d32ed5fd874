package pipeline

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
)

// lookup resolves id to a combatant.
func (p *Pipeline) lookup(id EntityID) (combat.Combatant, bool) {
	if id == PlayerEntity {
		pl, ok := p.world.Player()
		if !ok {
			return nil, false
		}
		return pl, true
	}
	m, ok := p.world.Monster(id)
	if !ok {
		return nil, false
	}
	return m, true
}

// handleDamage applies queued damage and emits EntityDied the first time a
// target's health crosses zero in this batch.
func (p *Pipeline) handleDamage() {
	died := make(map[EntityID]bool)
	for _, msg := range p.bus.Damage.Read() {
		target, ok := p.lookup(msg.Target)
		if !ok {
			p.logger.Debug("damage target missing", zap.String("target", string(msg.Target)))
			continue
		}
		wasAlive := target.IsAlive()
		target.TakeDamage(msg.Amount)
		if !wasAlive || target.IsAlive() || died[msg.Target] {
			continue
		}
		died[msg.Target] = true
		if m, ok := target.(Monster); ok {
			m.Guard().MarkDying()
		}
		p.bus.Died.Write(EntityDied{
			Entity:   msg.Target,
			Name:     target.Name(),
			IsPlayer: msg.Target == PlayerEntity,
		})
		p.logger.Debug("entity died",
			zap.String("entity", string(msg.Target)),
			zap.String("killer", msg.Source),
		)
	}
}

// uniqueDeaths returns this tick's deaths with repeated entities removed.
func (p *Pipeline) uniqueDeaths() []EntityDied {
	var out []EntityDied
	seen := make(map[EntityID]bool)
	for _, d := range p.bus.Died.Read() {
		if seen[d.Entity] {
			continue
		}
		seen[d.Entity] = true
		out = append(out, d)
	}
	return out
}

// rewardable returns the monster behind a death when its rewards are still owed.
func (p *Pipeline) rewardable(d EntityDied) (Monster, bool) {
	if d.IsPlayer {
		return nil, false
	}
	m, ok := p.world.Monster(d.Entity)
	if !ok || m.IsAlive() || m.Guard().Granted() {
		return nil, false
	}
	return m, true
}

func (p *Pipeline) handleGold(player combat.Player, deaths []EntityDied) {
	gf := player.Modifiers().Goldfind
	for _, d := range deaths {
		m, ok := p.rewardable(d)
		if !ok {
			continue
		}
		p.bus.Gold.Write(GoldGained{
			Entity: d.Entity,
			Amount: combat.ApplyGoldfind(m.GoldReward(), gf),
			Source: m.Name(),
		})
	}
}

func (p *Pipeline) handleXP(deaths []EntityDied) {
	for _, d := range deaths {
		m, ok := p.rewardable(d)
		if !ok {
			continue
		}
		p.bus.XP.Write(XPGained{Entity: d.Entity, Amount: m.XPReward(), Source: m.Name()})
	}
}

func (p *Pipeline) handleLoot(player combat.Player, deaths []EntityDied) {
	mf := player.Modifiers().Magicfind
	for _, d := range deaths {
		m, ok := p.rewardable(d)
		if !ok {
			continue
		}
		drops := m.LootTable().Roll(mf, p.src)
		if len(drops) == 0 {
			continue
		}
		p.bus.Loot.Write(LootDropped{Entity: d.Entity, Drops: drops, Source: m.Name()})
	}
}

// handleGuard closes the guard of every dead monster seen this tick.
func (p *Pipeline) handleGuard(deaths []EntityDied) {
	for _, d := range deaths {
		if d.IsPlayer {
			continue
		}
		if m, ok := p.world.Monster(d.Entity); ok && !m.IsAlive() {
			m.Guard().Grant()
		}
	}
}

// handleDefeat applies the player's defeat penalty.
func (p *Pipeline) handleDefeat(deaths []EntityDied) {
	for _, d := range deaths {
		if !d.IsPlayer {
			continue
		}
		player, ok := p.world.Player()
		if !ok || player.IsAlive() {
			continue
		}
		res := player.OnDeath(combat.Modifiers{}, p.src)
		if !player.IsAlive() {
			continue
		}
		p.bus.Defeated.Write(PlayerDefeated{GoldLost: res.GoldLost})
		p.logger.Debug("player defeated", zap.Int("gold_lost", res.GoldLost))
	}
}

// applyRewards credits gold, xp, and loot to the player and summarizes each kill.
func (p *Pipeline) applyRewards() []KillSummary {
	if p.bus.Gold.Len() == 0 && p.bus.XP.Len() == 0 && p.bus.Loot.Len() == 0 {
		return nil
	}
	player, ok := p.world.Player()
	if !ok {
		return nil
	}

	var order []EntityID
	kills := make(map[EntityID]*KillSummary)
	summary := func(id EntityID, name string) *KillSummary {
		k, ok := kills[id]
		if !ok {
			k = &KillSummary{Entity: id, Name: name}
			kills[id] = k
			order = append(order, id)
		}
		return k
	}

	for _, g := range p.bus.Gold.Read() {
		player.AddGold(g.Amount)
		summary(g.Entity, g.Source).Gold += g.Amount
	}
	for _, x := range p.bus.XP.Read() {
		k := summary(x.Entity, x.Source)
		k.XP += x.Amount
		k.LevelsGained += player.GainXP(x.Amount)
	}
	for _, l := range p.bus.Loot.Read() {
		player.CollectLoot(l.Drops)
		k := summary(l.Entity, l.Source)
		k.Loot = append(k.Loot, l.Drops...)
	}

	out := make([]KillSummary, 0, len(order))
	for _, id := range order {
		k := *kills[id]
		p.logger.Debug("kill rewarded",
			zap.String("entity", string(k.Entity)),
			zap.Int("gold", k.Gold),
			zap.Int("xp", k.XP),
			zap.Int("drops", len(k.Loot)),
		)
		out = append(out, k)
	}
	return out
}

// handleDespawn removes dead monsters from the world.
func (p *Pipeline) handleDespawn(deaths []EntityDied) []EntityID {
	var out []EntityID
	for _, d := range deaths {
		if d.IsPlayer {
			continue
		}
		m, ok := p.world.Monster(d.Entity)
		if !ok || m.IsAlive() {
			continue
		}
		if err := p.world.Despawn(d.Entity); err != nil {
			p.logger.Warn("despawn failed", zap.String("entity", string(d.Entity)), zap.Error(err))
			continue
		}
		out = append(out, d.Entity)
	}
	return out
}
