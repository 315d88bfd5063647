package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers the engine.* Lua table into L.
//
// engine.say(room_id, text) broadcasts text to the given room through the
// injected Say callback.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: The engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	L.SetField(engine, "say", L.NewFunction(func(L *lua.LState) int {
		roomID := L.CheckString(1)
		text := L.CheckString(2)
		if m.Say != nil {
			m.Say(roomID, text)
		}
		return 0
	}))

	L.SetGlobal("engine", engine)
}
