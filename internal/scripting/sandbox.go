// Package scripting runs sandboxed GopherLua scripts that tune game formulas.
// It has no dependency on game domain packages; scripts see plain numbers.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget for one script load or hook
// call when none is configured.
const DefaultInstructionLimit = 100_000

// strippedGlobals are base-library functions a modifier script may not use.
// print is included because script output goes through engine.log.
var strippedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "print"}

// budget is a context whose Done is polled once per opcode by the Lua VM.
// It cancels itself when the opcode count runs out.
type budget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *budget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// newState returns a Lua state with only the base, table, string, and math
// libraries, minus strippedGlobals. The caller must Close it.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// metered runs fn with L limited to limit opcodes; 0 or less means
// DefaultInstructionLimit. Each call starts with a full budget.
func metered(L *lua.LState, limit int, fn func() error) error {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))

	L.SetContext(b)
	defer func() {
		L.RemoveContext()
		cancel()
	}()
	return fn()
}
