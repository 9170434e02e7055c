package handler

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/jamgo/jam/internal/config"
	"github.com/jamgo/jam/internal/core/event"
	"github.com/jamgo/jam/internal/persist"
	"github.com/jamgo/jam/internal/scripting"
	"github.com/jamgo/jam/internal/world"
)

// LevelStore fetches stored level documents. Load returns nil, nil when the
// level does not exist.
type LevelStore interface {
	Load(ctx context.Context, name string) (*persist.LevelRow, error)
}

// Deps holds shared dependencies injected into the world handler and the
// systems that drive it. Optional members may be nil.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	Bus       *event.Bus
	Scripting *scripting.Engine // optional
	Levels    LevelStore        // optional, required by LoadFromStore
	Camera    world.Camera      // optional
	Drawer    world.Drawer      // optional
	Rand      *rand.Rand
}
