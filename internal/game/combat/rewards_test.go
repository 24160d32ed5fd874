package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgcombat/internal/game/combat"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

func TestApplyGoldfind(t *testing.T) {
	assert.Equal(t, 100, combat.ApplyGoldfind(100, 0))
	assert.Equal(t, 200, combat.ApplyGoldfind(100, 100))
	assert.Equal(t, 15, combat.ApplyGoldfind(10, 50))
	assert.Equal(t, 11, combat.ApplyGoldfind(7, 50))
	assert.Equal(t, 10, combat.ApplyGoldfind(10, -40))
	assert.Equal(t, 0, combat.ApplyGoldfind(0, 300))
}

func TestApplyGoldfind_Property_NonDecreasing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(0, 100000).Draw(rt, "base")
		gf := rapid.IntRange(-100, 1000).Draw(rt, "gf")
		got := combat.ApplyGoldfind(base, gf)
		assert.GreaterOrEqual(rt, got, base)
		assert.GreaterOrEqual(rt, combat.ApplyGoldfind(base, gf+1), got)
	})
}

func TestDefeatPenalty(t *testing.T) {
	assert.Equal(t, 10, combat.DefeatPenalty(200))
	assert.Equal(t, 9, combat.DefeatPenalty(199))
	assert.Equal(t, 0, combat.DefeatPenalty(19))
	assert.Equal(t, 0, combat.DefeatPenalty(0))
	assert.Equal(t, 0, combat.DefeatPenalty(-5))
}

func TestDefeatPenalty_Property_Bounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		gold := rapid.IntRange(0, 1<<30).Draw(rt, "gold")
		p := combat.DefeatPenalty(gold)
		assert.GreaterOrEqual(rt, p, 0)
		assert.LessOrEqual(rt, p, gold)
	})
}

func TestKillRewards(t *testing.T) {
	tbl := loot.Table{Entries: []loot.Entry{{ItemID: "gel", Numerator: 1, Denominator: 1, MinQty: 1, MaxQty: 1}}}
	res := combat.KillRewards(20, 7, tbl, combat.Modifiers{Goldfind: 50}, fixedSrc{0})
	assert.Equal(t, 30, res.Gold)
	assert.Equal(t, 7, res.XP)
	require.Len(t, res.Loot, 1)
	assert.Equal(t, "gel", res.Loot[0].ItemID)
	assert.False(t, res.Empty())
	assert.True(t, combat.DeathResult{}.Empty())
}
