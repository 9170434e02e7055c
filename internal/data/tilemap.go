package data

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TileMap is a solid/empty tile layer loaded from a CSV file: each line is a
// row of comma-separated tile values and any non-zero tile is solid. Tile
// (0, 0) covers [OriginX, OriginX+TileWidth) x [OriginY, OriginY+TileHeight).
type TileMap struct {
	Name       string
	TileWidth  float64
	TileHeight float64
	OriginX    float64
	OriginY    float64

	tiles []byte // row-major: tiles[row*cols+col]
	cols  int
	rows  int
}

// LoadTileMap reads the tile file named by spec, relative to dir.
func LoadTileMap(dir string, spec TileMapSpec) (*TileMap, error) {
	path := spec.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tile map %s: %w", path, err)
	}
	defer f.Close()

	tm, err := ParseTileMap(f, spec)
	if err != nil {
		return nil, fmt.Errorf("tile map %s: %w", path, err)
	}
	tm.Name = spec.File
	return tm, nil
}

// ParseTileMap reads CSV tile rows from r. Blank lines and lines starting
// with '#' are skipped; short rows are padded with empty tiles.
func ParseTileMap(r io.Reader, spec TileMapSpec) (*TileMap, error) {
	var rows [][]byte
	cols := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		toks := strings.Split(text, ",")
		row := make([]byte, len(toks))
		for i, tok := range toks {
			val, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			row[i] = byte(val)
		}
		cols = max(cols, len(row))
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tm := &TileMap{
		TileWidth:  spec.TileWidth,
		TileHeight: spec.TileHeight,
		OriginX:    spec.OriginX,
		OriginY:    spec.OriginY,
		tiles:      make([]byte, cols*len(rows)),
		cols:       cols,
		rows:       len(rows),
	}
	for y, row := range rows {
		copy(tm.tiles[y*cols:], row)
	}
	return tm, nil
}

// Size returns the map dimensions in tiles.
func (t *TileMap) Size() (cols, rows int) {
	return t.cols, t.rows
}

// Tile returns the tile value at (col, row), or 0 outside the map.
func (t *TileMap) Tile(col, row int) byte {
	if col < 0 || row < 0 || col >= t.cols || row >= t.rows {
		return 0
	}
	return t.tiles[row*t.cols+col]
}

// Solid reports whether the world position (x, y) lies on a solid tile.
func (t *TileMap) Solid(x, y float64) bool {
	col := int(math.Floor((x - t.OriginX) / t.TileWidth))
	row := int(math.Floor((y - t.OriginY) / t.TileHeight))
	return t.Tile(col, row) != 0
}

// Collides reports whether the box at (x, y) with size w by h overlaps any
// solid tile. Touching a tile's edge is not an overlap for a box with
// extent; a zero-extent box lies in the tile its position falls in.
func (t *TileMap) Collides(x, y, w, h float64) bool {
	if t.cols == 0 || t.rows == 0 {
		return false
	}
	c1 := int(math.Floor((x - t.OriginX) / t.TileWidth))
	r1 := int(math.Floor((y - t.OriginY) / t.TileHeight))
	c2 := int(math.Ceil((x+w-t.OriginX)/t.TileWidth)) - 1
	r2 := int(math.Ceil((y+h-t.OriginY)/t.TileHeight)) - 1
	c2, r2 = max(c2, c1), max(r2, r1)
	c1, r1 = max(c1, 0), max(r1, 0)
	c2, r2 = min(c2, t.cols-1), min(r2, t.rows-1)
	for row := r1; row <= r2; row++ {
		for col := c1; col <= c2; col++ {
			if t.tiles[row*t.cols+col] != 0 {
				return true
			}
		}
	}
	return false
}
