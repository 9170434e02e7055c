package data

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jamgo/jam/internal/world"
)

// Level describes one playable area: grid geometry, tile maps and the
// entities spawned into the world when the level loads.
type Level struct {
	Name         string        `yaml:"name"`
	Grid         GridSpec      `yaml:"grid"`
	ProcDistance float64       `yaml:"proc_distance"`
	Caching      *bool         `yaml:"caching"` // nil = use [world] caching
	Camera       CameraSpec    `yaml:"camera"`
	TileMaps     []TileMapSpec `yaml:"tile_maps"`
	Spawns       []SpawnSpec   `yaml:"spawns"`
}

type GridSpec struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	CellWidth  float64 `yaml:"cell_width"`
	CellHeight float64 `yaml:"cell_height"`
}

type CameraSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// TileMapSpec points at a CSV tile file relative to the level directory.
type TileMapSpec struct {
	File       string  `yaml:"file"`
	TileWidth  float64 `yaml:"tile_width"`
	TileHeight float64 `yaml:"tile_height"`
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`
}

// SpawnSpec places Count entities of one kind. With a non-zero Spread each
// copy is scattered uniformly within Spread units of (X, Y).
type SpawnSpec struct {
	Type     string      `yaml:"type"`
	X        float64     `yaml:"x"`
	Y        float64     `yaml:"y"`
	Spread   float64     `yaml:"spread"`
	Count    int         `yaml:"count"`
	Glyph    string      `yaml:"glyph"`
	Width    float64     `yaml:"width"`
	Height   float64     `yaml:"height"`
	HSpeed   float64     `yaml:"h_speed"`
	VSpeed   float64     `yaml:"v_speed"`
	Hitbox   *HitboxSpec `yaml:"hitbox"`
	Behavior string      `yaml:"behavior"`
}

type HitboxSpec struct {
	Shape   string  `yaml:"shape"` // "rect" (default) or "circle"
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Radius  float64 `yaml:"radius"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
}

// LoadLevel reads a YAML level file. A level without a name takes the file
// name without its extension.
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	lvl, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	if lvl.Name == "" {
		lvl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return lvl, nil
}

// ParseLevel decodes and validates a YAML level document.
func ParseLevel(raw []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(raw, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if err := lvl.validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Marshal encodes the level back to YAML.
func (l *Level) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

func (l *Level) validate() error {
	if l.Grid.Width < 0 || l.Grid.Height < 0 || l.Grid.CellWidth < 0 || l.Grid.CellHeight < 0 {
		return fmt.Errorf("grid dimensions must not be negative")
	}
	if len(l.TileMaps) > world.MaxTileMaps {
		return fmt.Errorf("%d tile maps, at most %d allowed", len(l.TileMaps), world.MaxTileMaps)
	}
	for i, tm := range l.TileMaps {
		if tm.File == "" {
			return fmt.Errorf("tile map %d: missing file", i)
		}
		if tm.TileWidth <= 0 || tm.TileHeight <= 0 {
			return fmt.Errorf("tile map %s: tile size must be positive", tm.File)
		}
	}
	for i := range l.Spawns {
		s := &l.Spawns[i]
		if _, err := world.ParseEntityType(s.Type); err != nil {
			return fmt.Errorf("spawn %d: %w", i, err)
		}
		if s.Count < 0 {
			return fmt.Errorf("spawn %d: negative count", i)
		}
		if s.Count == 0 {
			s.Count = 1
		}
		if s.Hitbox != nil {
			switch s.Hitbox.Shape {
			case "", "rect", "circle":
			default:
				return fmt.Errorf("spawn %d: unknown hitbox shape %q", i, s.Hitbox.Shape)
			}
		}
	}
	return nil
}

// Entities builds the entities of one spawn entry. Behaviors are attached by
// the caller.
func (s *SpawnSpec) Entities(rng *rand.Rand) []*world.Entity {
	t, _ := world.ParseEntityType(s.Type)
	out := make([]*world.Entity, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		x, y := s.X, s.Y
		if s.Spread > 0 {
			x += (rng.Float64()*2 - 1) * s.Spread
			y += (rng.Float64()*2 - 1) * s.Spread
		}
		e := world.NewEntity(t, x, y)
		e.HSpeed = s.HSpeed
		e.VSpeed = s.VSpeed
		if s.Glyph != "" || s.Width > 0 || s.Height > 0 {
			e.Sprite = &world.Sprite{Glyph: s.glyph(), Width: s.Width, Height: s.Height}
		}
		if h := s.Hitbox; h != nil {
			e.Hitbox = &world.Hitbox{
				Width:   h.Width,
				Height:  h.Height,
				Radius:  h.Radius,
				OffsetX: h.OffsetX,
				OffsetY: h.OffsetY,
			}
			if h.Shape == "circle" {
				e.Hitbox.Kind = world.HitboxCircle
			}
		}
		out = append(out, e)
	}
	return out
}

func (s *SpawnSpec) glyph() rune {
	for _, r := range s.Glyph {
		return r
	}
	return '?'
}

// EntityCount returns the number of entities the level spawns.
func (l *Level) EntityCount() int {
	n := 0
	for _, s := range l.Spawns {
		n += s.Count
	}
	return n
}
