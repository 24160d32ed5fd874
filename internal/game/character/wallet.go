package character

// Wallet holds the player's gold.
//
// Invariant: Gold >= 0.
type Wallet struct {
	gold int
}

// Gold returns the current balance.
func (w *Wallet) Gold() int { return w.gold }

// Add credits amount. Non-positive amounts are ignored.
func (w *Wallet) Add(amount int) {
	if amount > 0 {
		w.gold += amount
	}
}

// Deduct removes up to amount and returns what was actually removed.
//
// Postcondition: Gold >= 0; result == min(amount, previous Gold) for amount >= 0.
func (w *Wallet) Deduct(amount int) int {
	if amount <= 0 {
		return 0
	}
	taken := min(amount, w.gold)
	w.gold -= taken
	return taken
}
