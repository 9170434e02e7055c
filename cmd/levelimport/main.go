// levelimport stores YAML level files and their tile maps in PostgreSQL so
// the game can load them with [level] source = "db".
//
// Usage:
//
//	go run ./cmd/levelimport <command> [-config path] [args]
//
// Commands: import <file.yaml>..., list, delete <name>...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jamgo/jam/internal/config"
	"github.com/jamgo/jam/internal/data"
	"github.com/jamgo/jam/internal/persist"
)

func printUsage() {
	fmt.Println("Usage: levelimport <command> [-config path] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import  Store level files and the tile maps they reference")
	fmt.Println("  list    Print stored level names")
	fmt.Println("  delete  Remove stored levels")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfgPath := fs.String("config", config.Path("config/jam.toml"), "config file")
	_ = fs.Parse(os.Args[2:])

	commands := map[string]func(context.Context, *persist.LevelRepo, []string) error{
		"import": importLevels,
		"list":   listLevels,
		"delete": deleteLevels,
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err := run(*cfgPath, fn, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string, fn func(context.Context, *persist.LevelRepo, []string) error, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if _, err := persist.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return fn(ctx, persist.NewLevelRepo(db), args)
}

func importLevels(ctx context.Context, repo *persist.LevelRepo, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("import: no level files given")
	}
	for _, path := range paths {
		row, err := readLevel(path)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, row); err != nil {
			return err
		}
		fmt.Printf("Stored %s (%d entities, %d tile maps, %s)\n",
			row.Name, row.Entities, len(row.TileMaps), row.Checksum[:12])
	}
	return nil
}

// readLevel validates a level file and collects the tile map files it
// references, relative to the level file.
func readLevel(path string) (*persist.LevelRow, error) {
	lvl, err := data.LoadLevel(path)
	if err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	row := &persist.LevelRow{
		Name:     lvl.Name,
		Document: doc,
		Entities: lvl.EntityCount(),
		TileMaps: make(map[string][]byte, len(lvl.TileMaps)),
	}
	dir := filepath.Dir(path)
	for _, spec := range lvl.TileMaps {
		if _, err := data.LoadTileMap(dir, spec); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(dir, spec.File))
		if err != nil {
			return nil, err
		}
		row.TileMaps[spec.File] = content
	}
	return row, nil
}

func listLevels(ctx context.Context, repo *persist.LevelRepo, _ []string) error {
	names, err := repo.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func deleteLevels(ctx context.Context, repo *persist.LevelRepo, names []string) error {
	for _, name := range names {
		if err := repo.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		fmt.Printf("Deleted %s\n", name)
	}
	return nil
}
