package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jamgo/jam/internal/audio"
	"github.com/jamgo/jam/internal/config"
	"github.com/jamgo/jam/internal/core/event"
	coresys "github.com/jamgo/jam/internal/core/system"
	"github.com/jamgo/jam/internal/handler"
	"github.com/jamgo/jam/internal/persist"
	"github.com/jamgo/jam/internal/render"
	"github.com/jamgo/jam/internal/scripting"
	"github.com/jamgo/jam/internal/system"
)

// Ticks between sweeps of destroyed entities outside the processed range.
const sweepInterval = 60

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/jam.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger. The terminal belongs to the renderer, so logs go to
	// a file while it is active.
	if cfg.Render.Enabled && cfg.Logging.File == "" {
		cfg.Logging.File = "jam.log"
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Level store, only when levels come from the database
	deps := &handler.Deps{
		Config: cfg,
		Log:    log,
		Bus:    event.NewBus(),
	}
	if cfg.Level.Source == "db" {
		dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			dbCancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		version, err := persist.RunMigrations(dbCtx, db)
		dbCancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		log.Info("level store ready", zap.Int64("schema", version))
		deps.Levels = persist.NewLevelRepo(db)
	}

	// 4. Lua behaviors
	eng, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer eng.Close()
	deps.Scripting = eng
	log.Info("behaviors loaded", zap.Strings("names", eng.Names()))

	// 5. Terminal
	var (
		renderer *render.Renderer
		input    *render.Input
	)
	if cfg.Render.Enabled {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init screen: %w", err)
		}
		defer screen.Fini()
		screen.HideCursor()

		renderer = render.New(screen, cfg.Render, log)
		input = render.NewInput(screen)
		deps.Camera = renderer
		deps.Drawer = renderer
		eng.SetCanvas(renderer)
	}

	// 6. Audio cues. A missing sound device is not fatal.
	if cfg.Audio.Enabled {
		cues := audio.New(cfg.Audio, log)
		if err := cues.Initialize(); err != nil {
			log.Warn("audio disabled", zap.Error(err))
		} else {
			defer cues.Close()
			cues.Subscribe(deps.Bus)
		}
	}

	// 7. Load the level
	worlds := handler.NewWorldHandler(deps)
	defer worlds.Close()
	switch cfg.Level.Source {
	case "db":
		err = worlds.LoadFromStore(ctx, cfg.Level.Name)
	default:
		err = worlds.Load(cfg.Level.Path)
	}
	if err != nil {
		return err
	}

	// 8. Create systems and register with runner
	quitCh := make(chan struct{})
	quit := func() {
		select {
		case <-quitCh:
		default:
			close(quitCh)
		}
	}

	runner := coresys.NewRunner()
	if input != nil {
		inputSys := system.NewInputSystem(input, renderer, worlds, cfg.Render.PanStep, quit, log)
		inputSys.OnResize(renderer.Sync)
		runner.Register(inputSys)
	}
	runner.Register(system.NewEventSystem(deps.Bus))
	runner.Register(system.NewFrameSystem(worlds))
	runner.Register(system.NewCacheSystem(worlds, cfg.World.RefreshEvery, log))
	if renderer != nil {
		runner.Register(system.NewRenderSystem(renderer, worlds))
	}
	runner.Register(system.NewCleanupSystem(worlds, sweepInterval, log))
	runner.OnSlowTick(cfg.Loop.TickRate, func(st coresys.TickStats) {
		log.Debug("slow tick",
			zap.Duration("total", st.Total),
			zap.Stringer("slowest", st.Slowest()),
			zap.Duration("slowest_took", st.Phases[st.Slowest()]))
	})

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	log.Info("game loop started",
		zap.Duration("tick", cfg.Loop.TickRate),
		zap.Int("max_ticks", cfg.Loop.MaxTicks))

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
			if cfg.Loop.MaxTicks > 0 && runner.Ticks() >= uint64(cfg.Loop.MaxTicks) {
				log.Info("tick limit reached",
					zap.Uint64("ticks", runner.Ticks()),
					zap.Int("entities", worlds.World().Len()))
				return nil
			}
		case <-quitCh:
			log.Info("quit requested", zap.Uint64("ticks", runner.Ticks()))
			return nil
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return zapCfg.Build()
}
