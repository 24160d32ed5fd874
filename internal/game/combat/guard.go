package combat

import "sync"

// DeathState is the lifecycle tag of a DeathGuard.
type DeathState int

const (
	// StateAlive means no death has been observed.
	StateAlive DeathState = iota
	// StateDying means a death was observed and rewards are pending.
	StateDying
	// StateRewardsGranted means death consequences were applied.
	StateRewardsGranted
)

// String returns a human-readable state label.
func (s DeathState) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateDying:
		return "dying"
	case StateRewardsGranted:
		return "rewards_granted"
	default:
		return "unknown"
	}
}

// DeathGuard ensures death consequences are applied at most once per death,
// no matter which execution path observes the death first.
// The zero value is an Alive guard. It is safe for concurrent use.
type DeathGuard struct {
	mu    sync.Mutex
	state DeathState
}

// State returns the current state.
func (g *DeathGuard) State() DeathState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// MarkDying transitions Alive to Dying.
//
// Postcondition: Returns true iff the guard was Alive.
func (g *DeathGuard) MarkDying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateAlive {
		return false
	}
	g.state = StateDying
	return true
}

// Grant claims the right to apply death consequences.
//
// Postcondition: Returns true exactly once per death; the state is RewardsGranted afterwards.
func (g *DeathGuard) Grant() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateRewardsGranted {
		return false
	}
	g.state = StateRewardsGranted
	return true
}

// Granted reports whether death consequences were already applied.
func (g *DeathGuard) Granted() bool {
	return g.State() == StateRewardsGranted
}

// Reset returns the guard to Alive, e.g. on revive or respawn.
func (g *DeathGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateAlive
}
