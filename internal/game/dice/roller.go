package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every draw is auditable.
// All draws are logged at debug level with their label, bounds, and result.
// Roller itself satisfies Source and can be passed anywhere a Source is expected.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws from the underlying source and logs the draw.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice draw",
		zap.Int("n", n),
		zap.Int("result", v),
	)
	return v
}

// Between draws a labeled inclusive range and logs it.
//
// Postcondition: lo <= result <= max(lo, hi).
func (r *Roller) Between(label string, lo, hi int) int {
	v := Between(r.src, lo, hi)
	r.logger.Debug("dice roll",
		zap.String("roll", label),
		zap.Int("min", lo),
		zap.Int("max", hi),
		zap.Int("result", v),
	)
	return v
}

// Src returns the underlying Source without logging.
func (r *Roller) Src() Source {
	return r.src
}
