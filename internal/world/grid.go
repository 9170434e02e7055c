package world

import "math"

// grid partitions world space into width*height cells of cellW*cellH units.
// cells has one extra list at the end that collects everything whose cell
// coordinate falls outside the grid. A zero-sized grid therefore degrades to
// a single list.
//
// An entity is a member of the distinct cells under its four bounding-box
// corners. Entities wider than a cell can be missing from cells their edges
// cross between sampled corners.
type grid struct {
	width  int
	height int
	cellW  float64
	cellH  float64
	cells  []*EntityList
}

func newGrid(width, height int, cellW, cellH float64, block int) *grid {
	if width < 0 || height < 0 || cellW <= 0 || cellH <= 0 {
		width, height = 0, 0
	}
	g := &grid{
		width:  width,
		height: height,
		cellW:  cellW,
		cellH:  cellH,
		cells:  make([]*EntityList, width*height+1),
	}
	for i := range g.cells {
		g.cells[i] = NewEntityList(block)
	}
	return g
}

func (g *grid) outOfRange() int {
	return len(g.cells) - 1
}

func (g *grid) cellCoord(x, y float64) (float64, float64) {
	return math.Floor(x / g.cellW), math.Floor(y / g.cellH)
}

// cellIndex maps a world position to its cell, or to the out-of-range list.
func (g *grid) cellIndex(x, y float64) int {
	if g.width == 0 || g.height == 0 {
		return g.outOfRange()
	}
	cx, cy := g.cellCoord(x, y)
	if !(cx >= 0 && cx < float64(g.width) && cy >= 0 && cy < float64(g.height)) {
		return g.outOfRange()
	}
	return int(cy)*g.width + int(cx)
}

// updateMembership re-buckets e under its current bounding box. It is a
// no-op when the box matches the one recorded at the last update. On
// allocation failure the entity is left with no membership.
func (g *grid) updateMembership(e *Entity) error {
	x1, y1, x2, y2 := e.Bounds()
	box := [4]float64{x1, y1, x2, y2}
	if e.cells > 0 && e.memberBox == box {
		return nil
	}

	g.unlink(e)

	corners := [maxCells]int{
		g.cellIndex(x1, y1),
		g.cellIndex(x2, y1),
		g.cellIndex(x1, y2),
		g.cellIndex(x2, y2),
	}
	for _, c := range corners {
		if e.inCell(c) {
			continue
		}
		slot, err := g.cells[c].Add(e)
		if err != nil {
			g.unlink(e)
			return err
		}
		e.cellsIn[e.cells] = c
		e.cellsLoc[e.cells] = slot
		e.cells++
	}
	e.memberBox = box
	return nil
}

// unlink clears every slot recorded for e. The cached slot indices make this
// O(1) per cell.
func (g *grid) unlink(e *Entity) {
	for i := 0; i < e.cells; i++ {
		g.cells[e.cellsIn[i]].RemoveAt(e.cellsLoc[i], e)
		e.cellsIn[i] = 0
		e.cellsLoc[i] = 0
	}
	e.cells = 0
}

func (e *Entity) inCell(c int) bool {
	for i := 0; i < e.cells; i++ {
		if e.cellsIn[i] == c {
			return true
		}
	}
	return false
}

// viewport is an inclusive rectangle of cell coordinates plus whether the
// out-of-range list is part of the query.
type viewport struct {
	minX, minY int
	maxX, maxY int
	outside    bool
}

// rect returns the cells touched by the world-space box [x1,x2]x[y1,y2].
// The out-of-range list is included when the box reaches past the grid.
func (g *grid) rect(x1, y1, x2, y2 float64) viewport {
	if g.width == 0 || g.height == 0 {
		return viewport{minX: 0, minY: 0, maxX: -1, maxY: -1, outside: true}
	}
	cx1, cy1 := g.cellCoord(x1, y1)
	cx2, cy2 := g.cellCoord(x2, y2)
	w := float64(g.width)
	h := float64(g.height)
	vp := viewport{
		outside: !(cx1 >= 0 && cy1 >= 0 && cx2 < w && cy2 < h),
	}
	vp.minX = int(math.Max(cx1, 0))
	vp.minY = int(math.Max(cy1, 0))
	vp.maxX = int(math.Min(cx2, w-1))
	vp.maxY = int(math.Min(cy2, h-1))
	if cx2 < 0 || cy2 < 0 || cx1 >= w || cy1 >= h || math.IsNaN(cx1+cy1+cx2+cy2) {
		vp.minX, vp.minY, vp.maxX, vp.maxY = 0, 0, -1, -1
		vp.outside = true
	}
	return vp
}

// all returns a viewport covering every cell and the out-of-range list.
func (g *grid) all() viewport {
	return viewport{minX: 0, minY: 0, maxX: g.width - 1, maxY: g.height - 1, outside: true}
}

// eachCell calls fn for every list inside vp, row by row, and finally the
// out-of-range list when vp includes it.
func (g *grid) eachCell(vp viewport, fn func(list *EntityList)) {
	for y := vp.minY; y <= vp.maxY; y++ {
		for x := vp.minX; x <= vp.maxX; x++ {
			fn(g.cells[y*g.width+x])
		}
	}
	if vp.outside {
		fn(g.cells[g.outOfRange()])
	}
}

// eachEntity visits every non-nil slot of every list in vp. Lists may be
// mutated by fn; slots are re-read on every step.
func (g *grid) eachEntity(vp viewport, fn func(e *Entity)) {
	g.eachCell(vp, func(list *EntityList) {
		for i := 0; i < list.Size(); i++ {
			if e := list.At(i); e != nil {
				fn(e)
			}
		}
	})
}

func (g *grid) empty() {
	for _, list := range g.cells {
		list.Empty(false)
	}
}
