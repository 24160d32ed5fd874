package combat

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/rpgcombat/internal/game/dice"
)

const (
	// DefenseConstant is K in reduction = defense / (defense + K).
	// 50 defense halves incoming damage; 100 defense removes two thirds.
	DefenseConstant = 50
	// AttackVariance is the fraction of base attack added to and subtracted
	// from the attack value to form the damage range.
	AttackVariance = 0.25
)

// AttackRange is an inclusive damage roll range.
type AttackRange struct {
	Min int
	Max int
}

// String renders the range as "min-max".
func (r AttackRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Roll draws a raw damage value uniformly from the range.
//
// Postcondition: Min <= result <= Max when Min <= Max.
func (r AttackRange) Roll(src dice.Source) int {
	return dice.Between(src, r.Min, r.Max)
}

// RangeFor computes the damage range for base attack with the given variance:
// spread = round(base × variance); range = [max(base−spread, 1), base+spread].
//
// Postcondition: base <= 0 yields [0, 0]; otherwise 1 <= Min <= Max.
func RangeFor(base int, variance float64) AttackRange {
	if base <= 0 {
		return AttackRange{}
	}
	spread := int(math.Round(float64(base) * variance))
	lo := base - spread
	if lo < 1 {
		lo = 1
	}
	return AttackRange{Min: lo, Max: base + spread}
}

// AttackRangeFor computes the damage range for base attack at AttackVariance.
func AttackRangeFor(base int) AttackRange {
	return RangeFor(base, AttackVariance)
}

// RollAttack rolls raw damage for base attack and variance.
func RollAttack(base int, variance float64, src dice.Source) int {
	return RangeFor(base, variance).Roll(src)
}

// DamageReduction returns the fraction of damage absorbed by defense:
// d / (d + DefenseConstant) with negative defense treated as zero.
//
// Postcondition: 0 <= result < 1.
func DamageReduction(defense int) float64 {
	d := float64(max(defense, 0))
	r := d / (d + DefenseConstant)
	if r >= 1 {
		// d + K rounds to d once d is past 2^53 or so.
		return math.Nextafter(1, 0)
	}
	return r
}

// ApplyDefense reduces raw damage by defense: floor(raw × (1 − reduction)),
// evaluated exactly as raw·K / (d + K).
//
// Postcondition: 0 <= result <= raw for raw >= 0; raw <= 0 yields 0.
func ApplyDefense(raw, defense int) int {
	if raw <= 0 {
		return 0
	}
	d := max(defense, 0)
	return raw * DefenseConstant / (d + DefenseConstant)
}

// RollDamage rolls attacker's damage range and applies defender's defense.
//
// Precondition: attacker, defender, and src must be non-nil.
func RollDamage(attacker, defender Combatant, src dice.Source) int {
	raw := AttackRangeFor(attacker.EffectiveAttack()).Roll(src)
	return ApplyDefense(raw, defender.EffectiveDefense())
}

// CanDamage reports whether attacker's best roll survives defender's defense.
func CanDamage(attacker, defender Combatant) bool {
	best := AttackRangeFor(attacker.EffectiveAttack()).Max
	return ApplyDefense(best, defender.EffectiveDefense()) > 0
}
