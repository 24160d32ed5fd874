package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the engine.* table into L:
//
//	engine.log(msg)          logs msg at info level
//	engine.clamp(v, lo, hi)  returns v limited to [lo, hi]
func registerModules(L *lua.LState, script string, logger *zap.Logger) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Info("lua", zap.String("script", script), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(engine, "clamp", L.NewFunction(func(L *lua.LState) int {
		v, lo, hi := L.CheckNumber(1), L.CheckNumber(2), L.CheckNumber(3)
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		L.Push(v)
		return 1
	}))
	L.SetGlobal("engine", engine)
}
