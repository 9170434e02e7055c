package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/jamgo/jam/internal/world"
)

// Canvas receives glyphs drawn by Lua on_draw hooks.
type Canvas interface {
	DrawGlyph(x, y float64, r rune)
}

// Engine wraps a single gopher-lua VM holding entity behaviors.
// Single-goroutine access only (the simulation loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	canvas Canvas

	behaviors map[string]*world.Behavior

	// The world and entity of the hook currently running, for the jam API.
	cur  *world.World
	self *world.Entity

	failures int
}

// Hook names looked up on every behavior table.
const (
	hookCreation    = "on_creation"
	hookDestruction = "on_destruction"
	hookFrame       = "on_frame"
	hookDraw        = "on_draw"
)

// NewEngine creates a Lua engine and loads every script in dir and its
// behaviors subdirectory. A missing directory is not an error.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	for _, d := range []string{dir, filepath.Join(dir, "behaviors")} {
		if err := e.loadDir(d); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("behaviors", vm.NewTable())

	e := &Engine{vm: vm, log: log, behaviors: make(map[string]*world.Behavior)}
	e.registerAPI()
	return e
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// SetCanvas sets the target of jam.draw.
func (e *Engine) SetCanvas(c Canvas) {
	e.canvas = c
}

// Names returns the registered behavior names, sorted.
func (e *Engine) Names() []string {
	var names []string
	tbl, ok := e.vm.GetGlobal("behaviors").(*lua.LTable)
	if !ok {
		return nil
	}
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := v.(*lua.LTable); ok {
			names = append(names, k.String())
		}
	})
	sort.Strings(names)
	return names
}

// Behavior returns the world hooks for the Lua behavior registered as
// behaviors[name]. Hooks the script does not define stay nil. The same
// *world.Behavior is returned for every call with the same name.
func (e *Engine) Behavior(name string) (*world.Behavior, bool) {
	if b, ok := e.behaviors[name]; ok {
		return b, true
	}
	tbl, ok := e.vm.GetGlobal("behaviors").(*lua.LTable)
	if !ok {
		return nil, false
	}
	def, ok := tbl.RawGetString(name).(*lua.LTable)
	if !ok {
		return nil, false
	}

	b := &world.Behavior{}
	if fn, ok := def.RawGetString(hookCreation).(*lua.LFunction); ok {
		b.OnCreation = e.hook(name, hookCreation, fn)
	}
	if fn, ok := def.RawGetString(hookDestruction).(*lua.LFunction); ok {
		b.OnDestruction = e.hook(name, hookDestruction, fn)
	}
	if fn, ok := def.RawGetString(hookFrame).(*lua.LFunction); ok {
		b.OnFrame = e.hook(name, hookFrame, fn)
	}
	if fn, ok := def.RawGetString(hookDraw).(*lua.LFunction); ok {
		b.OnDraw = e.hook(name, hookDraw, fn)
	}
	e.behaviors[name] = b
	return b, true
}

// Failures returns how many hook calls raised a Lua error.
func (e *Engine) Failures() int {
	return e.failures
}

func (e *Engine) hook(name, event string, fn *lua.LFunction) func(*world.World, *world.Entity) {
	return func(w *world.World, ent *world.Entity) {
		prevW, prevE := e.cur, e.self
		e.cur, e.self = w, ent
		defer func() { e.cur, e.self = prevW, prevE }()

		t := e.entityTable(ent)
		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    0,
			Protect: true,
		}, t); err != nil {
			e.failures++
			e.log.Warn("lua behavior error",
				zap.String("behavior", name),
				zap.String("hook", event),
				zap.Int("id", ent.ID()),
				zap.Error(err))
			return
		}
		e.readBack(t, w, ent)
	}
}

// entityTable marshals the script-visible fields of ent.
func (e *Engine) entityTable(ent *world.Entity) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(ent.ID()))
	t.RawSetString("type", lua.LString(ent.Type.String()))
	t.RawSetString("x", lua.LNumber(ent.X))
	t.RawSetString("y", lua.LNumber(ent.Y))
	t.RawSetString("x_prev", lua.LNumber(ent.XPrev))
	t.RawSetString("y_prev", lua.LNumber(ent.YPrev))
	t.RawSetString("h_speed", lua.LNumber(ent.HSpeed))
	t.RawSetString("v_speed", lua.LNumber(ent.VSpeed))
	t.RawSetString("destroy", lua.LBool(ent.Destroyed()))
	return t
}

// readBack copies the mutable fields a hook may have changed.
func (e *Engine) readBack(t *lua.LTable, w *world.World, ent *world.Entity) {
	ent.X = lNum(t, "x", ent.X)
	ent.Y = lNum(t, "y", ent.Y)
	ent.HSpeed = lNum(t, "h_speed", ent.HSpeed)
	ent.VSpeed = lNum(t, "v_speed", ent.VSpeed)
	if lua.LVAsBool(t.RawGetString("destroy")) && !ent.Destroyed() {
		w.DestroyEntity(ent)
	}
}

// lNum reads a number field from a Lua table, keeping def for non-numbers.
func lNum(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
