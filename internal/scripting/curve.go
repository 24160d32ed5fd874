package scripting

import (
	"fmt"
	"math"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// maxHookResult bounds a hook's result before conversion to int.
const maxHookResult = 1 << 31

// Lua globals a modifier script may define.
const (
	GoldfindHook  = "goldfind"
	MagicfindHook = "magicfind"
)

// ModifierScript derives goldfind and magicfind from a Lua script defining
// goldfind(base, bonus) and magicfind(base, bonus). An undefined hook, a Lua
// error, or a non-numeric result falls back to base + bonus. Results are
// floored to whole percentage points.
//
// ModifierScript is safe for concurrent use; calls are serialized on one LState.
type ModifierScript struct {
	name   string
	limit  int
	logger *zap.Logger

	mu sync.Mutex
	L  *lua.LState
}

// NewModifierScript compiles source under name with a per-call budget of
// instLimit opcodes.
//
// Precondition: logger must be non-nil; instLimit >= 0.
// Postcondition: Returns an error if the script fails to load.
func NewModifierScript(name, source string, instLimit int, logger *zap.Logger) (*ModifierScript, error) {
	L := newState()
	registerModules(L, name, logger)
	if err := metered(L, instLimit, func() error { return L.DoString(source) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return &ModifierScript{name: name, limit: instLimit, logger: logger, L: L}, nil
}

// LoadModifierScript reads and compiles the script at path.
func LoadModifierScript(path string, instLimit int, logger *zap.Logger) (*ModifierScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return NewModifierScript(path, string(data), instLimit, logger)
}

// Goldfind calls the goldfind hook.
func (s *ModifierScript) Goldfind(base, bonus int) int {
	return s.call(GoldfindHook, base, bonus)
}

// Magicfind calls the magicfind hook.
func (s *ModifierScript) Magicfind(base, bonus int) int {
	return s.call(MagicfindHook, base, bonus)
}

// Defines reports whether the script defines the global function hook.
func (s *ModifierScript) Defines(hook string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.L.GetGlobal(hook).Type() == lua.LTFunction
}

// Close releases the Lua state.
func (s *ModifierScript) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}

func (s *ModifierScript) call(hook string, base, bonus int) int {
	fallback := base + bonus

	s.mu.Lock()
	defer s.mu.Unlock()

	fn := s.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return fallback
	}

	err := metered(s.L, s.limit, func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(base), lua.LNumber(bonus))
	})
	if err != nil {
		s.logger.Warn("scripting: Lua runtime error",
			zap.String("script", s.name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return fallback
	}

	ret := s.L.Get(-1)
	s.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok || math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
		s.logger.Warn("scripting: hook returned a non-number",
			zap.String("script", s.name),
			zap.String("hook", hook),
			zap.String("type", ret.Type().String()),
		)
		return fallback
	}
	return int(math.Floor(max(min(float64(n), maxHookResult), -maxHookResult)))
}
