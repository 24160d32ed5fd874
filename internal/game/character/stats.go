// Package character implements the player side of combat: the stat sheet,
// equipment bonuses, gold, experience, and collected loot.
package character

// Stats is the player's base stat sheet before equipment.
type Stats struct {
	MaxHealth int `mapstructure:"max_health" yaml:"max_health"`
	Attack    int `mapstructure:"attack" yaml:"attack"`
	Defense   int `mapstructure:"defense" yaml:"defense"`
	Goldfind  int `mapstructure:"goldfind" yaml:"goldfind"`
	Magicfind int `mapstructure:"magicfind" yaml:"magicfind"`
}

// Level-up stat gains. Defense grows by one on reaching every
// DefenseLevelInterval-th level.
const (
	HealthPerLevel       = 5
	AttackPerLevel       = 1
	DefenseLevelInterval = 10
)

// grow returns s with the stat gains for rising from level from to level to.
func (s Stats) grow(from, to int) Stats {
	if to <= from {
		return s
	}
	s.MaxHealth += (to - from) * HealthPerLevel
	s.Attack += (to - from) * AttackPerLevel
	s.Defense += to/DefenseLevelInterval - from/DefenseLevelInterval
	return s
}

// ModifierCurve derives effective goldfind and magicfind from a base stat
// and the summed equipment bonus.
type ModifierCurve interface {
	Goldfind(base, bonus int) int
	Magicfind(base, bonus int) int
}

// AdditiveCurve is the default ModifierCurve: base + bonus.
type AdditiveCurve struct{}

// Goldfind returns base + bonus.
func (AdditiveCurve) Goldfind(base, bonus int) int { return base + bonus }

// Magicfind returns base + bonus.
func (AdditiveCurve) Magicfind(base, bonus int) int { return base + bonus }
