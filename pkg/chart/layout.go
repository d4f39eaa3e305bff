package chart

import (
	"fmt"
	"math"

	"github.com/kinforge/kinchart/pkg/kin"
)

// Orientation selects the layout axis: generations stacked top-to-bottom
// with siblings left-to-right, or the transpose.
type Orientation string

const (
	// Vertical stacks generations top-to-bottom.
	Vertical Orientation = "vertical"
	// Horizontal stacks generations left-to-right.
	Horizontal Orientation = "horizontal"
)

// ParseOrientation validates a string orientation value.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(s) {
	case Vertical, Horizontal:
		return Orientation(s), nil
	case "":
		return Vertical, nil
	default:
		return "", fmt.Errorf("invalid orientation: %q (must be vertical or horizontal)", s)
	}
}

// Config holds the layout engine constants. Coordinates are abstract
// layout units; the renderer applies its own scale when drawing.
type Config struct {
	Orientation Orientation
	NodeWidth   float64 // box extent along the sibling axis
	NodeHeight  float64 // box extent along the generation axis
	GapX        float64 // gap between sibling boxes
	GapY        float64 // gap between generation bands
}

// DefaultConfig returns the engine defaults for a vertical chart.
func DefaultConfig() Config {
	return Config{
		Orientation: Vertical,
		NodeWidth:   160,
		NodeHeight:  70,
		GapX:        28,
		GapY:        60,
	}
}

// Rect is a positioned box in already-oriented coordinates.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Layout is the positioned chart: one rect per unit.
//
// Rects are emitted already oriented: a horizontal layout has its axes
// transposed before Build returns, so consumers never branch on
// orientation to interpret coordinates.
type Layout struct {
	Orientation Orientation

	// Band geometry along the generation axis. Measured in the same
	// layout units as the rects and identical in both orientations.
	BandSize float64 // box extent within a band
	BandStep float64 // distance between band starts

	rects map[string]Rect
}

// Rect returns the box for a unit ID.
func (l *Layout) Rect(unitID string) (Rect, bool) {
	r, ok := l.rects[unitID]
	return r, ok
}

// Positioned reports whether a unit has been placed.
func (l *Layout) Positioned(unitID string) bool {
	_, ok := l.rects[unitID]
	return ok
}

// Len returns the number of positioned units.
func (l *Layout) Len() int { return len(l.rects) }

// ParentAnchor returns the connector start point on a parent box: the
// midpoint of the edge facing its children.
func (l *Layout) ParentAnchor(r Rect) (float64, float64) {
	if l.Orientation == Horizontal {
		return r.X + r.Width, r.Y + r.Height/2
	}
	return r.X + r.Width/2, r.Y + r.Height
}

// ChildAnchor returns the connector end point on a child box: the
// midpoint of the edge facing its parent.
func (l *Layout) ChildAnchor(r Rect) (float64, float64) {
	if l.Orientation == Horizontal {
		return r.X, r.Y + r.Height/2
	}
	return r.X + r.Width/2, r.Y
}

// Build positions every unit.
//
// Placement is pre-order: a unit's children are laid out first (one
// generation band further along), because the parent's position is the
// center of the span its children occupy. Leaves take the next free
// cursor slot and advance the cursor by NodeWidth+GapX, which is what
// keeps sibling subtrees disjoint.
//
// A unit already positioned through another path (a child with two
// placed parents, or malformed cyclic ancestry) is skipped on
// re-encounter; a unit whose children were all consumed elsewhere is
// treated as a leaf. Together those guards make double placement and
// unbounded recursion impossible.
//
// The walk runs in canonical vertical coordinates and transposes the
// finished rects when cfg.Orientation is Horizontal.
func Build(s *kin.Store, units *Units, cfg Config) *Layout {
	band := cfg.NodeHeight + cfg.GapY
	slot := cfg.NodeWidth + cfg.GapX

	rects := make(map[string]Rect, len(units.All))
	visiting := make(map[string]bool)
	cursor := 0.0

	var place func(u *Unit)
	place = func(u *Unit) {
		if _, done := rects[u.ID]; done || visiting[u.ID] {
			return
		}
		visiting[u.ID] = true
		defer delete(visiting, u.ID)

		var kids []*Unit
		for _, k := range units.childUnits(s, u) {
			if !visiting[k.ID] {
				if _, done := rects[k.ID]; !done {
					kids = append(kids, k)
				}
			}
		}

		var x float64
		if len(kids) == 0 {
			x = cursor
			cursor += slot
		} else {
			minX := math.Inf(1)
			maxX := math.Inf(-1)
			for _, k := range kids {
				place(k)
				if r, ok := rects[k.ID]; ok {
					minX = math.Min(minX, r.X)
					maxX = math.Max(maxX, r.X)
				}
			}
			if math.IsInf(minX, 1) {
				// every child was swallowed by a cycle guard
				x = cursor
				cursor += slot
			} else {
				// spanStart + (spanWidth - NodeWidth)/2
				x = (minX + maxX) / 2
			}
		}

		rects[u.ID] = Rect{
			X:      x,
			Y:      float64(u.Generation-1) * band,
			Width:  cfg.NodeWidth,
			Height: cfg.NodeHeight,
		}
	}

	// Root units first: no resolvable parent unit anywhere in the
	// partition. Then a sweep for anything left (disconnected clusters
	// reachable only through cyclic edges).
	for i := range units.All {
		u := &units.All[i]
		if len(units.parentUnits(s, u)) == 0 {
			place(u)
		}
	}
	for i := range units.All {
		place(&units.All[i])
	}

	if cfg.Orientation == Horizontal {
		for id, r := range rects {
			rects[id] = Rect{X: r.Y, Y: r.X, Width: r.Height, Height: r.Width}
		}
	}

	return &Layout{
		Orientation: cfg.Orientation,
		BandSize:    cfg.NodeHeight,
		BandStep:    band,
		rects:       rects,
	}
}
