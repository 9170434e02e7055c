package world

import "math"

// HitboxKind selects the collision shape.
type HitboxKind uint8

const (
	HitboxRectangle HitboxKind = iota
	HitboxCircle
)

// Hitbox is a collision shape positioned relative to its owner. Rectangles
// start at the offset; circles are centered on it.
type Hitbox struct {
	Kind    HitboxKind
	Width   float64
	Height  float64
	Radius  float64
	OffsetX float64
	OffsetY float64
}

// Rect returns the axis-aligned box of the hitbox placed at (x, y).
func (h *Hitbox) Rect(x, y float64) (x1, y1, x2, y2 float64) {
	x += h.OffsetX
	y += h.OffsetY
	if h.Kind == HitboxCircle {
		return x - h.Radius, y - h.Radius, x + h.Radius, y + h.Radius
	}
	return x, y, x + h.Width, y + h.Height
}

// Collides reports whether hitbox a at (ax, ay) overlaps hitbox b at (bx, by).
// Touching edges do not count. A nil hitbox never collides.
func Collides(a *Hitbox, ax, ay float64, b *Hitbox, bx, by float64) bool {
	if a == nil || b == nil {
		return false
	}
	switch {
	case a.Kind == HitboxCircle && b.Kind == HitboxCircle:
		dx := (ax + a.OffsetX) - (bx + b.OffsetX)
		dy := (ay + a.OffsetY) - (by + b.OffsetY)
		r := a.Radius + b.Radius
		return dx*dx+dy*dy < r*r
	case a.Kind == HitboxCircle:
		return circleRect(a, ax, ay, b, bx, by)
	case b.Kind == HitboxCircle:
		return circleRect(b, bx, by, a, ax, ay)
	}
	ax1, ay1, ax2, ay2 := a.Rect(ax, ay)
	bx1, by1, bx2, by2 := b.Rect(bx, by)
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}

func circleRect(c *Hitbox, cx, cy float64, r *Hitbox, rx, ry float64) bool {
	cx += c.OffsetX
	cy += c.OffsetY
	x1, y1, x2, y2 := r.Rect(rx, ry)
	nx := math.Max(x1, math.Min(cx, x2))
	ny := math.Max(y1, math.Min(cy, y2))
	dx := cx - nx
	dy := cy - ny
	return dx*dx+dy*dy < c.Radius*c.Radius
}
