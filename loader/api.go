package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the document constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// DeathPenalty { ... }
	L.SetGlobal("DeathPenalty", L.NewFunction(func(L *lua.LState) int {
		coll.penalty = L.CheckTable(1)
		coll.calls++
		return 0
	}))

	// Effect "id" { ... } is curried: it returns the table with id set.
	L.SetGlobal("Effect", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.OptTable(1, L.NewTable())
			tbl.RawSetString("id", lua.LString(id))
			L.Push(tbl)
			return 1
		}))
		return 1
	}))
}
