// Package render draws worlds to a terminal through tcell. The renderer is
// also the camera the world processes around: one terminal cell covers
// UnitsPerColumn by UnitsPerRow world units.
package render

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"golang.org/x/text/width"

	"github.com/jamgo/jam/internal/config"
	"github.com/jamgo/jam/internal/world"
)

// Renderer implements world.Camera and world.Drawer on a tcell screen.
// Not safe for concurrent use; the simulation goroutine owns it.
type Renderer struct {
	screen tcell.Screen
	log    *zap.Logger

	unitsX, unitsY float64
	camX, camY     float64

	hud    string
	styles map[world.EntityType]tcell.Style
	glyphs map[world.EntityType]rune
}

// New wraps an initialized screen.
func New(screen tcell.Screen, cfg config.RenderConfig, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	unitsX, unitsY := cfg.UnitsPerColumn, cfg.UnitsPerRow
	if unitsX <= 0 {
		unitsX = 1
	}
	if unitsY <= 0 {
		unitsY = 1
	}
	return &Renderer{
		screen: screen,
		log:    log,
		unitsX: unitsX,
		unitsY: unitsY,
		styles: map[world.EntityType]tcell.Style{
			world.TypePlayer:   tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
			world.TypeEnemy:    tcell.StyleDefault.Foreground(tcell.ColorRed),
			world.TypeNPC:      tcell.StyleDefault.Foreground(tcell.ColorGreen),
			world.TypeSolid:    tcell.StyleDefault.Foreground(tcell.ColorWhite),
			world.TypeObject:   tcell.StyleDefault.Foreground(tcell.ColorBlue),
			world.TypeParticle: tcell.StyleDefault.Foreground(tcell.NewRGBColor(128, 128, 128)),
		},
		glyphs: map[world.EntityType]rune{
			world.TypePlayer:   '@',
			world.TypeEnemy:    'x',
			world.TypeNPC:      '&',
			world.TypeSolid:    '#',
			world.TypeObject:   'o',
			world.TypeParticle: '.',
		},
	}
}

func (r *Renderer) CameraX() float64 { return r.camX }
func (r *Renderer) CameraY() float64 { return r.camY }

// BufferWidth is the screen width in world units.
func (r *Renderer) BufferWidth() uint32 {
	cols, _ := r.screen.Size()
	return uint32(math.Max(float64(cols)*r.unitsX, 0))
}

// BufferHeight is the screen height in world units, minus the HUD row.
func (r *Renderer) BufferHeight() uint32 {
	_, rows := r.screen.Size()
	return uint32(math.Max(float64(rows-1)*r.unitsY, 0))
}

// SetCamera moves the top-left corner of the view to (x, y).
func (r *Renderer) SetCamera(x, y float64) {
	r.camX, r.camY = x, y
}

// Pan moves the view by (dx, dy) world units.
func (r *Renderer) Pan(dx, dy float64) {
	r.camX += dx
	r.camY += dy
}

// CenterOn moves the view so (x, y) is in the middle of the screen.
func (r *Renderer) CenterOn(x, y float64) {
	r.camX = x - float64(r.BufferWidth())/2
	r.camY = y - float64(r.BufferHeight())/2
}

// SetHUD sets the status line drawn on the last row.
func (r *Renderer) SetHUD(s string) {
	r.hud = s
}

// Clear starts a new frame.
func (r *Renderer) Clear() {
	r.screen.Clear()
}

// Sync redraws the whole terminal, after a resize.
func (r *Renderer) Sync() {
	r.screen.Sync()
}

// Show draws the HUD and flushes the frame to the terminal.
func (r *Renderer) Show() {
	_, rows := r.screen.Size()
	r.drawText(0, rows-1, r.hud, tcell.StyleDefault.Reverse(true))
	r.screen.Show()
}

// DrawEntity draws e's glyph at its camera-relative position.
func (r *Renderer) DrawEntity(e *world.Entity) {
	g, ok := r.glyphs[e.Type]
	if !ok {
		g = '?'
	}
	if e.Sprite != nil && e.Sprite.Glyph != 0 {
		g = e.Sprite.Glyph
	}
	style, ok := r.styles[e.Type]
	if !ok {
		style = tcell.StyleDefault
	}
	r.put(e.X, e.Y, g, style)
}

// DrawGlyph draws a single rune at a world position.
func (r *Renderer) DrawGlyph(x, y float64, g rune) {
	r.put(x, y, g, tcell.StyleDefault)
}

// Cell maps a world position to a screen cell.
func (r *Renderer) Cell(x, y float64) (col, row int) {
	return int(math.Floor((x - r.camX) / r.unitsX)), int(math.Floor((y - r.camY) / r.unitsY))
}

func (r *Renderer) put(x, y float64, g rune, style tcell.Style) {
	col, row := r.Cell(x, y)
	cols, rows := r.screen.Size()
	if col < 0 || row < 0 || row >= rows-1 || col+runeWidth(g) > cols {
		return
	}
	r.screen.SetContent(col, row, g, nil, style)
}

func (r *Renderer) drawText(col, row int, s string, style tcell.Style) {
	cols, _ := r.screen.Size()
	for _, c := range s {
		w := runeWidth(c)
		if col+w > cols {
			return
		}
		r.screen.SetContent(col, row, c, nil, style)
		col += w
	}
}

// runeWidth is the number of terminal columns g occupies.
func runeWidth(g rune) int {
	switch width.LookupRune(g).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}
