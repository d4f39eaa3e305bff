package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/kinforge/kinchart/pkg/kin"
)

// =============================================================================
// Chart - Positioned Chart Serialization
// =============================================================================

// Chart is the canonical serialization format for a positioned chart.
// Used for API responses, storage, caching, and renderer handoff.
//
// The format is human-readable and deterministic: the same store produces
// byte-identical output, so cached charts compare cleanly.
type Chart struct {
	Orientation Orientation `json:"orientation" bson:"orientation"`
	Bands       Bands       `json:"bands" bson:"bands"`
	Nodes       []Node      `json:"nodes" bson:"nodes"`
	Connectors  []Connector `json:"connectors,omitempty" bson:"connectors,omitempty"`
}

// Bands describes the generation band geometry. Renderers use it to draw
// band separators or generation labels without re-deriving spacing from
// node positions.
type Bands struct {
	Count int     `json:"count" bson:"count"`
	Size  float64 `json:"size" bson:"size"`
	Step  float64 `json:"step" bson:"step"`
}

// Node is a positioned display unit ready for drawing.
type Node struct {
	ID         string   `json:"id" bson:"id"`
	Kind       UnitKind `json:"kind" bson:"kind"`
	Label      string   `json:"label" bson:"label"`
	Persons    []string `json:"persons" bson:"persons"`
	Generation int      `json:"generation" bson:"generation"`
	X          float64  `json:"x" bson:"x"`
	Y          float64  `json:"y" bson:"y"`
	Width      float64  `json:"width" bson:"width"`
	Height     float64  `json:"height" bson:"height"`
}

// Assemble runs the full chart pipeline tail: it takes a partitioned and
// positioned store and produces the serializable chart. Nodes are sorted
// by ID for deterministic output; connectors keep Route's order.
func Assemble(s *kin.Store, units *Units, l *Layout, conns []Connector) *Chart {
	nodes := make([]Node, 0, len(units.All))
	for i := range units.All {
		u := &units.All[i]
		r, ok := l.Rect(u.ID)
		if !ok {
			continue
		}
		nodes = append(nodes, Node{
			ID:         u.ID,
			Kind:       u.Kind,
			Label:      u.Label(s),
			Persons:    slices.Clone(u.Persons),
			Generation: u.Generation,
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
		})
	}
	slices.SortFunc(nodes, func(a, b Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	bands := Bands{Size: l.BandSize, Step: l.BandStep}
	for i := range nodes {
		if nodes[i].Generation > bands.Count {
			bands.Count = nodes[i].Generation
		}
	}

	return &Chart{Orientation: l.Orientation, Bands: bands, Nodes: nodes, Connectors: conns}
}

// =============================================================================
// Chart Serialization API
// =============================================================================

// Marshal converts a chart to JSON bytes.
func Marshal(c *Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeChartTo(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a chart to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(c *Chart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeChartTo(c, f)
}

// Write writes a chart as JSON to an io.Writer.
// Use Marshal for in-memory serialization or WriteFile for files.
func Write(c *Chart, w io.Writer) error {
	return writeChartTo(c, w)
}

// ReadFile reads a JSON file and returns the decoded chart.
func ReadFile(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSON chart from an io.Reader.
func Read(r io.Reader) (*Chart, error) {
	var c Chart
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	o, err := ParseOrientation(string(c.Orientation))
	if err != nil {
		return nil, err
	}
	c.Orientation = o
	return &c, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeChartTo(c *Chart, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
