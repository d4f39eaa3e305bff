package chart

import (
	"sort"

	"github.com/kinforge/kinchart/pkg/kin"
)

// ConnectorKind distinguishes the two line types a chart draws.
type ConnectorKind string

const (
	// ConnectorParentChild links a parent unit to a child unit.
	ConnectorParentChild ConnectorKind = "parent-child"
	// ConnectorSpouse links two mutual spouses kept in separate units.
	ConnectorSpouse ConnectorKind = "spouse"
)

// Connector is a routed line between two positioned units. From and To
// are unit IDs; the coordinate pairs are anchor points in the layout's
// oriented space.
type Connector struct {
	Kind   ConnectorKind `json:"kind" bson:"kind"`
	From   string        `json:"from" bson:"from"`
	To     string        `json:"to" bson:"to"`
	FromX  float64       `json:"from_x" bson:"from_x"`
	FromY  float64       `json:"from_y" bson:"from_y"`
	ToX    float64       `json:"to_x" bson:"to_x"`
	ToY    float64       `json:"to_y" bson:"to_y"`
}

// pairKey canonicalizes an undirected unit pair so symmetric edges
// dedupe to one connector regardless of traversal direction.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// spouseAnchors joins two boxes across the sibling axis: the line runs
// from the facing edge midpoints, whichever box comes first.
func spouseAnchors(a, b Rect, o Orientation) (fx, fy, tx, ty float64) {
	if o == Horizontal {
		if a.Y <= b.Y {
			return a.X + a.Width/2, a.Y + a.Height, b.X + b.Width/2, b.Y
		}
		return a.X + a.Width/2, a.Y, b.X + b.Width/2, b.Y + b.Height
	}
	if a.X <= b.X {
		return a.X + a.Width, a.Y + a.Height/2, b.X, b.Y + b.Height/2
	}
	return a.X, a.Y + a.Height/2, b.X + b.Width, b.Y + b.Height/2
}

// Route builds the connector list for a positioned layout.
//
// One parent-child connector is emitted per (parent unit, child unit)
// pair, so a couple's shared children get a single line from the couple
// box rather than one per parent. Spouse connectors cover mutual spouse
// pairs the partition did not merge into a couple (a person with several
// spouses stays single and links to each of them). Connectors touching
// an unpositioned unit are dropped.
//
// Output order is deterministic: connectors are sorted by kind, then
// From, then To.
func Route(s *kin.Store, units *Units, l *Layout) []Connector {
	var out []Connector
	seen := make(map[string]bool)

	emit := func(kind ConnectorKind, from, to *Unit) {
		key := string(kind) + ":" + pairKey(from.ID, to.ID)
		if seen[key] {
			return
		}
		seen[key] = true

		fr, ok := l.Rect(from.ID)
		if !ok {
			return
		}
		tr, ok := l.Rect(to.ID)
		if !ok {
			return
		}
		var fx, fy, tx, ty float64
		if kind == ConnectorSpouse {
			fx, fy, tx, ty = spouseAnchors(fr, tr, l.Orientation)
		} else {
			fx, fy = l.ParentAnchor(fr)
			tx, ty = l.ChildAnchor(tr)
		}
		out = append(out, Connector{
			Kind:  kind,
			From:  from.ID,
			To:    to.ID,
			FromX: fx,
			FromY: fy,
			ToX:   tx,
			ToY:   ty,
		})
	}

	for i := range units.All {
		u := &units.All[i]
		for _, c := range units.childUnits(s, u) {
			emit(ConnectorParentChild, u, c)
		}
		if u.Kind != UnitSingle {
			continue
		}
		p, ok := s.Person(u.Persons[0])
		if !ok {
			continue
		}
		for _, sp := range s.SpousesOf(p.ID) {
			if !sp.HasSpouse(p.ID) {
				continue
			}
			other, ok := units.ByPerson(sp.ID)
			if !ok || other.ID == u.ID {
				continue
			}
			emit(ConnectorSpouse, u, other)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
