package chart

import (
	"testing"

	"github.com/kinforge/kinchart/pkg/kin"
)

func TestRoute_CoupleEmitsSingleChildConnector(t *testing.T) {
	cfg := DefaultConfig()
	s, units, l := runLayout(t, cfg,
		kin.Person{ID: "a", Spouses: []string{"b"}, Children: []string{"k"}},
		kin.Person{ID: "b", Spouses: []string{"a"}, Children: []string{"k"}},
		kin.Person{ID: "k", Parents: []string{"a", "b"}},
	)

	conns := Route(s, units, l)
	if len(conns) != 1 {
		t.Fatalf("got %d connectors, want 1: %+v", len(conns), conns)
	}
	c := conns[0]
	if c.Kind != ConnectorParentChild || c.From != "a+b" || c.To != "k" {
		t.Errorf("connector = %+v, want parent-child a+b -> k", c)
	}

	// anchors: parent lower edge midpoint to child upper edge midpoint
	pr := mustRect(t, l, "a+b")
	kr := mustRect(t, l, "k")
	if c.FromX != pr.X+pr.Width/2 || c.FromY != pr.Y+pr.Height {
		t.Errorf("from anchor = (%v,%v), want parent bottom mid", c.FromX, c.FromY)
	}
	if c.ToX != kr.X+kr.Width/2 || c.ToY != kr.Y {
		t.Errorf("to anchor = (%v,%v), want child top mid", c.ToX, c.ToY)
	}
}

func TestRoute_SymmetricEdgesDeduped(t *testing.T) {
	cfg := DefaultConfig()
	// both sides record the relationship; exactly one connector results
	s, units, l := runLayout(t, cfg,
		kin.Person{ID: "p", Children: []string{"k"}},
		kin.Person{ID: "k", Parents: []string{"p"}},
	)

	conns := Route(s, units, l)
	if len(conns) != 1 {
		t.Fatalf("got %d connectors, want 1", len(conns))
	}
}

func TestRoute_UnmergedMutualSpousesGetSpouseConnector(t *testing.T) {
	cfg := DefaultConfig()
	// a is married to both b and c, so no couple forms; the mutual
	// pairs are drawn as spouse connectors instead.
	s, units, l := runLayout(t, cfg,
		kin.Person{ID: "a", Spouses: []string{"b", "c"}},
		kin.Person{ID: "b", Spouses: []string{"a"}},
		kin.Person{ID: "c", Spouses: []string{"a"}},
	)

	conns := Route(s, units, l)
	var spouse []Connector
	for _, c := range conns {
		if c.Kind == ConnectorSpouse {
			spouse = append(spouse, c)
		}
	}
	if len(spouse) != 2 {
		t.Fatalf("got %d spouse connectors, want 2: %+v", len(spouse), conns)
	}
	for _, c := range spouse {
		if c.From != "a" {
			t.Errorf("spouse connector from %s, want a (store order emits first)", c.From)
		}
	}
}

func TestRoute_NonMutualSpouseIgnored(t *testing.T) {
	cfg := DefaultConfig()
	s, units, l := runLayout(t, cfg,
		kin.Person{ID: "x", Spouses: []string{"y"}},
		kin.Person{ID: "y"},
	)

	if conns := Route(s, units, l); len(conns) != 0 {
		t.Errorf("got %d connectors for one-sided marriage, want 0", len(conns))
	}
}

func TestRoute_HorizontalAnchorsUseSideMidpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Orientation = Horizontal
	s, units, l := runLayout(t, cfg,
		kin.Person{ID: "p", Children: []string{"k"}},
		kin.Person{ID: "k", Parents: []string{"p"}},
	)

	conns := Route(s, units, l)
	if len(conns) != 1 {
		t.Fatalf("got %d connectors, want 1", len(conns))
	}
	c := conns[0]
	pr := mustRect(t, l, "p")
	kr := mustRect(t, l, "k")
	if c.FromX != pr.X+pr.Width || c.FromY != pr.Y+pr.Height/2 {
		t.Errorf("from anchor = (%v,%v), want parent right mid", c.FromX, c.FromY)
	}
	if c.ToX != kr.X || c.ToY != kr.Y+kr.Height/2 {
		t.Errorf("to anchor = (%v,%v), want child left mid", c.ToX, c.ToY)
	}
}

func TestRoute_SortedAndDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	people := []kin.Person{
		{ID: "r", Children: []string{"b", "a"}},
		{ID: "a", Parents: []string{"r"}, Spouses: []string{"m", "n"}},
		{ID: "b", Parents: []string{"r"}},
		{ID: "m", Spouses: []string{"a"}},
		{ID: "n", Spouses: []string{"a"}},
	}
	s, units, l := runLayout(t, cfg, people...)
	first := Route(s, units, l)

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Kind > cur.Kind || (prev.Kind == cur.Kind && (prev.From > cur.From ||
			(prev.From == cur.From && prev.To > cur.To))) {
			t.Fatalf("connectors out of order at %d: %+v before %+v", i, prev, cur)
		}
	}

	for run := 0; run < 10; run++ {
		s2, u2, l2 := runLayout(t, cfg, people...)
		again := Route(s2, u2, l2)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d connectors, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: connector %d = %+v, want %+v", run, i, again[i], first[i])
			}
		}
	}
}
