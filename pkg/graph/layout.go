package graph

import (
	"encoding/json"
	"os"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// =============================================================================
// Layout - Layout Result Serialization
// =============================================================================

// Layout is the serialized result of one layout pass: node positions, the
// basic blocks, and per-node debug notes.
//
// Width and Height span every block, measured from the canvas origin.
type Layout struct {
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Positions []Position        `json:"positions"`
	Blocks    []BasicBlock      `json:"blocks"`
	Debug     map[string]string `json:"debug,omitempty"`
}

// Position is one node's placement.
type Position struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Block int     `json:"block"`
}

// BasicBlock is a serialized laid-out block.
type BasicBlock struct {
	Index  int      `json:"index"`
	Color  string   `json:"color"`
	Flows  []string `json:"flows,omitempty"`
	Data   []string `json:"data,omitempty"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

// ExportLayout captures the positions and basic blocks currently stored in g.
// Positions follow declaration order; nodes without a position are skipped.
func ExportLayout(g *model.Graph, debug map[string]string) Layout {
	owner := make(map[string]int)
	l := Layout{Debug: debug}
	for _, b := range g.BasicBlocks {
		for _, id := range b.FlowNodeIDs {
			owner[id] = b.Index
		}
		for _, id := range b.DataNodeIDs {
			owner[id] = b.Index
		}
		l.Blocks = append(l.Blocks, BasicBlock{
			Index:  b.Index,
			Color:  b.Color,
			Flows:  b.FlowNodeIDs,
			Data:   b.DataNodeIDs,
			X:      b.X,
			Y:      b.Y,
			Width:  b.Width,
			Height: b.Height,
		})
		l.Width = max(l.Width, b.X+b.Width)
		l.Height = max(l.Height, b.Y+b.Height)
	}
	for _, n := range g.Nodes() {
		if n.Pos == nil {
			continue
		}
		l.Positions = append(l.Positions, Position{ID: n.ID, X: n.Pos.X, Y: n.Pos.Y, Block: owner[n.ID]})
	}
	return l
}

// Apply writes the layout back into g: positions for known nodes and the
// basic blocks. Unknown node IDs are ignored.
func (l Layout) Apply(g *model.Graph) {
	g.ResetLayout()
	for _, p := range l.Positions {
		if n, ok := g.Node(p.ID); ok {
			n.Pos = &model.Point{X: p.X, Y: p.Y}
		}
	}
	for _, b := range l.Blocks {
		g.BasicBlocks = append(g.BasicBlocks, model.BasicBlock{
			Index:       b.Index,
			Color:       b.Color,
			FlowNodeIDs: b.Flows,
			DataNodeIDs: b.Data,
			X:           b.X,
			Y:           b.Y,
			Width:       b.Width,
			Height:      b.Height,
		})
	}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if len(l.Positions) > 0 && len(l.Blocks) == 0 {
		return Layout{}, errors.New(errors.ErrCodeInvalidFormat, "layout has positions but no blocks")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Layout{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return Layout{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return UnmarshalLayout(data)
}
