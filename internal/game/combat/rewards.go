package combat

import (
	"math"

	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
	"github.com/cory-johannsen/rpgcombat/internal/game/loot"
)

// DefeatPenaltyPercent is the share of carried gold lost on defeat.
const DefeatPenaltyPercent = 5

// ApplyGoldfind scales base gold by goldfind percent:
// round(base × (1 + goldfind/100)). Negative goldfind counts as zero.
//
// Postcondition: result >= base for base >= 0, and result is non-decreasing in goldfind.
func ApplyGoldfind(base, goldfind int) int {
	gf := max(goldfind, 0)
	return int(math.Round(float64(base) * (1 + float64(gf)/100)))
}

// DefeatPenalty returns the gold lost on defeat: floor(gold × 5 / 100).
//
// Postcondition: 0 <= result <= gold for gold >= 0.
func DefeatPenalty(gold int) int {
	if gold <= 0 {
		return 0
	}
	return gold * DefeatPenaltyPercent / 100
}

// KillRewards computes the rewards a monster grants to a killer with mods:
// goldfind-scaled gold, unscaled xp, and a magicfind-aware loot roll.
//
// Precondition: table must have passed Validate().
func KillRewards(gold, xp int, table loot.Table, mods Modifiers, src dice.Source) DeathResult {
	return DeathResult{
		Gold: ApplyGoldfind(gold, mods.Goldfind),
		XP:   xp,
		Loot: table.Roll(mods.Magicfind, src),
	}
}
