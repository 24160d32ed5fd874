package loot_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

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

type countingSrc struct {
	src   dice.Source
	draws int
}

func (c *countingSrc) Intn(n int) int {
	c.draws++
	return c.src.Intn(n)
}

func TestEntry_Validate(t *testing.T) {
	valid := loot.Entry{ItemID: "gel", Numerator: 1, Denominator: 4, MinQty: 1, MaxQty: 2}
	require.NoError(t, valid.Validate())

	zeroDen := valid
	zeroDen.Denominator = 0
	assert.ErrorIs(t, zeroDen.Validate(), loot.ErrInvalidChance)

	overOne := valid
	overOne.Numerator = 5
	assert.ErrorIs(t, overOne.Validate(), loot.ErrInvalidChance)

	noID := valid
	noID.ItemID = ""
	assert.Error(t, noID.Validate())

	badQty := valid
	badQty.MinQty = 3
	assert.Error(t, badQty.Validate())
}

func TestTable_Validate_RejectsDuplicates(t *testing.T) {
	e := loot.Entry{ItemID: "gel", Numerator: 1, Denominator: 1, MinQty: 1, MaxQty: 1}
	tbl := loot.Table{Entries: []loot.Entry{e, e}}
	assert.ErrorIs(t, tbl.Validate(), loot.ErrDuplicateItem)
	assert.NoError(t, loot.Table{}.Validate())
}

func TestTable_Add(t *testing.T) {
	var tbl loot.Table
	e := loot.Entry{ItemID: "gel", Numerator: 1, Denominator: 2, MinQty: 1, MaxQty: 1}
	require.NoError(t, tbl.Add(e))
	assert.ErrorIs(t, tbl.Add(e), loot.ErrDuplicateItem)
	assert.Error(t, tbl.Add(loot.Entry{ItemID: "x", Denominator: 0, MinQty: 1, MaxQty: 1}))
	assert.Len(t, tbl.Entries, 1)
}

func TestTable_YAML(t *testing.T) {
	data := []byte(`
entries:
  - item: slime_gel
    numerator: 1
    denominator: 3
    min_qty: 1
    max_qty: 2
`)
	var tbl loot.Table
	require.NoError(t, yaml.Unmarshal(data, &tbl))
	require.Len(t, tbl.Entries, 1)
	assert.Equal(t, "slime_gel", tbl.Entries[0].ItemID)
	assert.InDelta(t, 33.33, tbl.Entries[0].ChancePercent(), 0.01)
	assert.NoError(t, tbl.Validate())
}

func TestBonusRolls(t *testing.T) {
	assert.Equal(t, 0, loot.BonusRolls(0, fixedSrc{0}))
	assert.Equal(t, 0, loot.BonusRolls(-20, fixedSrc{0}))
	assert.Equal(t, 2, loot.BonusRolls(200, fixedSrc{0}))
	// roll of 1 succeeds against 50%.
	assert.Equal(t, 1, loot.BonusRolls(50, fixedSrc{0}))
	// roll of 100 fails against 50%.
	assert.Equal(t, 0, loot.BonusRolls(50, fixedSrc{99}))
	assert.Equal(t, 2, loot.BonusRolls(150, fixedSrc{0}))
}

func TestBonusRolls_CappedAtMaxMagicfind(t *testing.T) {
	ceiling := loot.MaxMagicfind / 100
	assert.Equal(t, ceiling, loot.BonusRolls(loot.MaxMagicfind, fixedSrc{0}))
	assert.Equal(t, ceiling, loot.BonusRolls(1<<40, fixedSrc{0}))
	assert.Equal(t, ceiling, loot.BonusRolls(math.MaxInt, fixedSrc{99}))
}

func TestRoll_HugeMagicfindRollsBounded(t *testing.T) {
	tbl := loot.Table{Entries: []loot.Entry{{ItemID: "gel", Numerator: 1, Denominator: 2, MinQty: 1, MaxQty: 3}}}
	src := &countingSrc{src: dice.NewSeededSource(4)}
	tbl.Roll(1<<40, src)
	// a chance draw and at most one quantity draw per roll.
	assert.LessOrEqual(t, src.draws, 2*(1+loot.MaxMagicfind/100))
}

func TestRoll_GuaranteedEntryDrops(t *testing.T) {
	tbl := loot.Table{Entries: []loot.Entry{
		{ItemID: "gel", Numerator: 1, Denominator: 1, MinQty: 2, MaxQty: 2},
		{ItemID: "never", Numerator: 0, Denominator: 5, MinQty: 1, MaxQty: 1},
	}}
	drops := tbl.Roll(0, dice.NewSeededSource(1))
	require.Len(t, drops, 1)
	assert.Equal(t, "gel", drops[0].ItemID)
	assert.Equal(t, 2, drops[0].Quantity)
	assert.NotEmpty(t, drops[0].InstanceID)
}

func TestRoll_EmptyTable(t *testing.T) {
	assert.Empty(t, loot.Table{}.Roll(500, dice.NewSeededSource(1)))
}

func TestRoll_Property_QuantityInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(1, 5).Draw(rt, "lo")
		hi := rapid.IntRange(lo, 10).Draw(rt, "hi")
		den := rapid.IntRange(1, 10).Draw(rt, "den")
		num := rapid.IntRange(0, den).Draw(rt, "num")
		mf := rapid.IntRange(-50, 400).Draw(rt, "mf")
		tbl := loot.Table{Entries: []loot.Entry{{ItemID: "a", Numerator: num, Denominator: den, MinQty: lo, MaxQty: hi}}}
		drops := tbl.Roll(mf, dice.NewSeededSource(rapid.Int64().Draw(rt, "seed")))
		assert.LessOrEqual(rt, len(drops), 1)
		for _, d := range drops {
			assert.GreaterOrEqual(rt, d.Quantity, lo)
			assert.LessOrEqual(rt, d.Quantity, hi)
		}
	})
}

// TestRoll_MagicfindNeverLowersDropRate compares empirical drop frequency at
// increasing magicfind with a fixed seed per trial count.
func TestRoll_MagicfindNeverLowersDropRate(t *testing.T) {
	tbl := loot.Table{Entries: []loot.Entry{{ItemID: "rare", Numerator: 1, Denominator: 10, MinQty: 1, MaxQty: 1}}}
	rate := func(mf int) int {
		src := dice.NewSeededSource(11)
		hits := 0
		for i := 0; i < 4000; i++ {
			if len(tbl.Roll(mf, src)) > 0 {
				hits++
			}
		}
		return hits
	}
	low, mid, high := rate(0), rate(100), rate(300)
	assert.Less(t, low, mid)
	assert.Less(t, mid, high)
}
