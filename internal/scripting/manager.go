package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ContextActionHook is the Lua global a zone script defines to receive
// room-specific commands. It is called as
//
//	on_context_action(room_id, player_name, text)
//
// and may return a string (broadcast to the room, action handled), true
// (handled silently), or nil/false (not handled).
const ContextActionHook = "on_context_action"

// Manager owns one sandboxed LState per zone and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook after all LoadZone calls complete.
// Each zone's LState is single-threaded; the read lock serializes concurrent
// calls to the same zone while allowing different zones to run concurrently.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*lua.LState
	logger *zap.Logger

	// Say is injected after construction and backs engine.say(room_id, text).
	// nil = engine.say is a no-op.
	Say func(roomID, text string)
}

// NewManager creates a Manager with no zone VMs loaded.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		states: make(map[string]*lua.LState),
		logger: logger,
	}
}

// LoadZone creates a sandboxed VM for zoneID, registers the engine.* module,
// then executes every *.lua file in scriptDir in lexicographic order.
// Loading the same zone again replaces its VM.
//
// Precondition: zoneID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Zone VM is registered; returns error on Lua load failure.
func (m *Manager) LoadZone(zoneID, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, zoneID, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, zoneID, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[zoneID]; ok {
		old.Close()
	}
	m.states[zoneID] = L
	m.mu.Unlock()
	return nil
}

// CallHook calls the named Lua global function in zoneID's VM. Returns
// (LNil, nil) if the zone has no VM or the hook is not defined. Lua runtime
// errors are logged at Warn level and never propagated: a broken script must
// not take down message dispatch.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	L, ok := m.states[zoneID]
	m.mu.RUnlock()

	if !ok {
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("zone", zoneID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close shuts down all zone VMs. The Manager is unusable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, L := range m.states {
		L.Close()
		delete(m.states, id)
	}
}
