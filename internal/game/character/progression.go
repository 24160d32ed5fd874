package character

import "math"

// Progression tracks level and experience.
//
// Invariant: Level >= 1; 0 <= XP < XPToNextLevel(Level).
type Progression struct {
	Level   int
	XP      int
	TotalXP int
}

// NewProgression returns a level 1 progression with no experience.
func NewProgression() Progression {
	return Progression{Level: 1}
}

// XPToNextLevel returns the experience needed to leave level:
// round(50 × 1.1^(level−1)).
//
// Precondition: level >= 1.
func XPToNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Round(50 * math.Pow(1.1, float64(level-1))))
}

// AddXP adds amount, carrying excess across as many levels as it covers.
//
// Postcondition: Returns the number of levels gained; non-positive amounts are ignored.
func (p *Progression) AddXP(amount int) int {
	if amount <= 0 {
		return 0
	}
	p.XP += amount
	p.TotalXP += amount
	gained := 0
	for p.XP >= XPToNextLevel(p.Level) {
		p.XP -= XPToNextLevel(p.Level)
		p.Level++
		gained++
	}
	return gained
}
