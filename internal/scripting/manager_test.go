package scripting_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/telegramsouls/server/internal/scripting"
)

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
}

func newLoadedManager(t *testing.T, src string) *scripting.Manager {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "actions.lua", src)
	m := scripting.NewManager(zap.NewNop())
	t.Cleanup(m.Close)
	require.NoError(t, m.LoadZone("hollow", dir, 0))
	return m
}

func TestManager_CallHook(t *testing.T) {
	m := newLoadedManager(t, `
		function on_context_action(room_id, player, text)
			return room_id .. ":" .. player .. ":" .. text
		end
	`)

	ret, err := m.CallHook("hollow", scripting.ContextActionHook,
		lua.LString("chapel"), lua.LString("Alice"), lua.LString("ring bell"))
	require.NoError(t, err)
	assert.Equal(t, lua.LString("chapel:Alice:ring bell"), ret)
}

func TestManager_CallHook_UnknownZone(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()

	ret, err := m.CallHook("nowhere", scripting.ContextActionHook, lua.LString("x"))
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_MissingHook(t *testing.T) {
	m := newLoadedManager(t, `greeting = "hello"`)

	ret, err := m.CallHook("hollow", scripting.ContextActionHook, lua.LString("x"))
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_CallHook_LuaErrorIsLoggedNotPropagated(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dir := t.TempDir()
	writeScript(t, dir, "actions.lua", `
		function on_context_action(room_id, player, text)
			error("boom")
		end
	`)
	m := scripting.NewManager(zap.New(core))
	defer m.Close()
	require.NoError(t, m.LoadZone("hollow", dir, 0))

	ret, err := m.CallHook("hollow", scripting.ContextActionHook, lua.LString("x"))
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)

	entries := logs.FilterMessageSnippet("Lua runtime error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
}

func TestManager_LoadZone_MissingDir(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()

	err := m.LoadZone("hollow", filepath.Join(t.TempDir(), "nope"), 0)
	assert.Error(t, err)
}

func TestManager_LoadZone_BrokenScript(t *testing.T) {
	m := scripting.NewManager(zap.NewNop())
	defer m.Close()

	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `function (`)

	err := m.LoadZone("hollow", dir, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading")
}

func TestManager_LoadZone_LexicographicOrder(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "20_second.lua", `order = order .. "b"`)
	writeScript(t, dir, "10_first.lua", `order = "a"`)
	writeScript(t, dir, "notes.txt", `ignored`)

	m := scripting.NewManager(zap.NewNop())
	defer m.Close()
	require.NoError(t, m.LoadZone("hollow", dir, 0))

	ret, err := m.CallHook("hollow", "get_order")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)

	// Read the global through a hook defined after both files ran.
	writeScript(t, dir, "30_hook.lua", `function get_order() return order end`)
	require.NoError(t, m.LoadZone("hollow", dir, 0))

	ret, err = m.CallHook("hollow", "get_order")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("ab"), ret)
}

func TestManager_LoadZone_ReplacesVM(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "actions.lua", `function version() return 1 end`)

	m := scripting.NewManager(zap.NewNop())
	require.NoError(t, m.LoadZone("hollow", dir, 0))

	// Reload repeatedly: each replacement closes the previous VM exactly once.
	for v := 2; v <= 4; v++ {
		writeScript(t, dir, "actions.lua", fmt.Sprintf(`function version() return %d end`, v))
		require.NoError(t, m.LoadZone("hollow", dir, 0))
	}

	ret, err := m.CallHook("hollow", "version")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(4), ret)

	// Shutdown after a reload closes only the live VM and must return.
	m.Close()
}

func TestManager_EngineSay(t *testing.T) {
	m := newLoadedManager(t, `
		function on_context_action(room_id, player, text)
			engine.say(room_id, "the bell tolls")
			return true
		end
	`)

	var gotRoom, gotText string
	m.Say = func(roomID, text string) {
		gotRoom, gotText = roomID, text
	}

	ret, err := m.CallHook("hollow", scripting.ContextActionHook,
		lua.LString("chapel"), lua.LString("Alice"), lua.LString("ring bell"))
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
	assert.Equal(t, "chapel", gotRoom)
	assert.Equal(t, "the bell tolls", gotText)
}

func TestManager_EngineSay_NilCallbackIsNoOp(t *testing.T) {
	m := newLoadedManager(t, `
		function on_context_action(room_id, player, text)
			engine.say(room_id, "nobody listens")
			return true
		end
	`)

	ret, err := m.CallHook("hollow", scripting.ContextActionHook,
		lua.LString("chapel"), lua.LString("Alice"), lua.LString("x"))
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
}
