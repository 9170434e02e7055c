package scripting

import (
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/jamgo/jam/internal/world"
)

// registerAPI installs the global jam table. Its functions act on the world
// of the hook currently running and raise a Lua error outside of hooks.
func (e *Engine) registerAPI() {
	api := e.vm.NewTable()
	e.vm.SetFuncs(api, map[string]lua.LGFunction{
		"spawn":          e.luaSpawn,
		"destroy":        e.luaDestroy,
		"find":           e.luaFind,
		"find_first":     e.luaFindFirst,
		"collision":      e.luaCollision,
		"tile_collision": e.luaTileCollision,
		"draw":           e.luaDraw,
		"log":            e.luaLog,
	})
	e.vm.SetGlobal("jam", api)
}

func (e *Engine) current(L *lua.LState) *world.World {
	if e.cur == nil {
		L.RaiseError("jam API used outside a behavior hook")
	}
	return e.cur
}

func entityType(L *lua.LState, n int) world.EntityType {
	t, err := world.ParseEntityType(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return t
}

// jam.spawn(type, x, y [, behavior]) -> id | nil
func (e *Engine) luaSpawn(L *lua.LState) int {
	w := e.current(L)
	t := entityType(L, 1)
	ent := world.NewEntity(t, float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	if name := L.OptString(4, ""); name != "" {
		b, ok := e.Behavior(name)
		if !ok {
			L.ArgError(4, "unknown behavior "+name)
		}
		ent.Behavior = b
	}
	if err := w.AddEntity(ent); err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(ent.ID()))
	return 1
}

// jam.destroy([id]) destroys the entity with the given id, or the hook's own
// entity without an argument.
func (e *Engine) luaDestroy(L *lua.LState) int {
	w := e.current(L)
	target := e.self
	if L.GetTop() >= 1 {
		target = w.FindEntity(L.CheckInt(1))
	}
	if target != nil {
		w.DestroyEntity(target)
	}
	return 0
}

// jam.find(id) -> entity table | nil
func (e *Engine) luaFind(L *lua.LState) int {
	w := e.current(L)
	if ent := w.FindEntity(L.CheckInt(1)); ent != nil {
		L.Push(e.entityTable(ent))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// jam.find_first(type) -> entity table | nil
func (e *Engine) luaFindFirst(L *lua.LState) int {
	w := e.current(L)
	if ent := w.FindFirstOfType(entityType(L, 1)); ent != nil {
		L.Push(e.entityTable(ent))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// jam.collision(x, y [, type]) -> entity table | nil, for the hook's entity
// placed at (x, y).
func (e *Engine) luaCollision(L *lua.LState) int {
	w := e.current(L)
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	var hit *world.Entity
	if L.GetTop() >= 3 {
		hit = w.CollisionOfType(e.self, x, y, entityType(L, 3))
	} else {
		hit = w.Collision(e.self, x, y)
	}
	if hit == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(e.entityTable(hit))
	return 1
}

// jam.tile_collision(x, y) -> bool
func (e *Engine) luaTileCollision(L *lua.LState) int {
	w := e.current(L)
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	L.Push(lua.LBool(w.TileMapCollision(e.self, x, y)))
	return 1
}

// jam.draw(x, y, glyph)
func (e *Engine) luaDraw(L *lua.LState) int {
	x := float64(L.CheckNumber(1))
	y := float64(L.CheckNumber(2))
	s := L.CheckString(3)
	if e.canvas == nil || s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	e.canvas.DrawGlyph(x, y, r)
	return 0
}

// jam.log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	fields := []zap.Field{zap.String("msg", L.CheckString(1))}
	if e.self != nil {
		fields = append(fields, zap.Int("id", e.self.ID()))
	}
	e.log.Info("lua", fields...)
	return 0
}
