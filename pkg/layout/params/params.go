// Package params holds the geometric constants of the layout engine and the
// default node-height estimator.
package params

import (
	"math"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/model"
)

// Editor port-row metrics used by the default height estimator.
const (
	RowHeight     = 41.6
	NodePadding   = 10.0
	HeaderPadding = 10.0
)

// DefaultPalette is the cyclic block color palette.
var DefaultPalette = []string{
	"#FF5E9C", "#9CD64B", "#2D5FE3", "#2FAACB", "#FF9955",
	"#AA55FF", "#FFD700", "#FF6B6B", "#4ECDC4", "#95E1D3",
}

// Params configures geometry. All lengths are canvas pixels.
type Params struct {
	NodeWidth           float64  `toml:"node_width" yaml:"node_width" json:"node_width"`
	NodeHeight          float64  `toml:"node_height" yaml:"node_height" json:"node_height"`
	SlotWidthMultiplier float64  `toml:"slot_width_multiplier" yaml:"slot_width_multiplier" json:"slot_width_multiplier"`
	BlockPadding        float64  `toml:"block_padding" yaml:"block_padding" json:"block_padding"`
	BlockXSpacing       float64  `toml:"block_x_spacing" yaml:"block_x_spacing" json:"block_x_spacing"`
	BlockYSpacing       float64  `toml:"block_y_spacing" yaml:"block_y_spacing" json:"block_y_spacing"`
	InitialX            float64  `toml:"initial_x" yaml:"initial_x" json:"initial_x"`
	InitialY            float64  `toml:"initial_y" yaml:"initial_y" json:"initial_y"`
	FlowToDataGap       float64  `toml:"flow_to_data_gap" yaml:"flow_to_data_gap" json:"flow_to_data_gap"`
	DataStackGap        float64  `toml:"data_stack_gap" yaml:"data_stack_gap" json:"data_stack_gap"`
	ComponentNodeGap    float64  `toml:"component_node_gap" yaml:"component_node_gap" json:"component_node_gap"`
	Palette             []string `toml:"palette" yaml:"palette" json:"palette"`
}

// Defaults returns the editor's standard geometry.
func Defaults() Params {
	return Params{
		NodeWidth:           180,
		NodeHeight:          80,
		SlotWidthMultiplier: 2,
		BlockPadding:        25,
		BlockXSpacing:       200,
		BlockYSpacing:       40,
		InitialX:            100,
		InitialY:            100,
		FlowToDataGap:       50,
		DataStackGap:        20,
		ComponentNodeGap:    20,
		Palette:             append([]string(nil), DefaultPalette...),
	}
}

// SlotWidth is the horizontal distance between adjacent columns.
func (p Params) SlotWidth() float64 { return p.NodeWidth * p.SlotWidthMultiplier }

// Color returns the palette entry for block i, cycling.
func (p Params) Color(i int) string {
	if len(p.Palette) == 0 {
		return ""
	}
	return p.Palette[i%len(p.Palette)]
}

// Validate rejects non-positive sizes, negative spacings, and malformed colors.
func (p Params) Validate() error {
	type field struct {
		name string
		v    float64
	}
	for _, f := range []field{
		{"node_width", p.NodeWidth},
		{"node_height", p.NodeHeight},
		{"slot_width_multiplier", p.SlotWidthMultiplier},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be positive, got %v", f.name, f.v)
		}
	}
	nonNegative := []field{
		{"block_padding", p.BlockPadding},
		{"block_x_spacing", p.BlockXSpacing},
		{"block_y_spacing", p.BlockYSpacing},
		{"flow_to_data_gap", p.FlowToDataGap},
		{"data_stack_gap", p.DataStackGap},
		{"component_node_gap", p.ComponentNodeGap},
	}
	for _, f := range nonNegative {
		if f.v < 0 || math.IsNaN(f.v) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative, got %v", f.name, f.v)
		}
	}
	for _, c := range p.Palette {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	return nil
}

// HeightFunc estimates the render height of a node.
type HeightFunc func(g *model.Graph, id string) float64

// EstimateHeight mirrors the editor's node box: a header, one row per port row,
// and padding. Input ports take two rows each (label plus inline editor).
// An explicit Node.Height wins.
func EstimateHeight(g *model.Graph, id string) float64 {
	n, ok := g.Node(id)
	if !ok {
		return 0
	}
	if n.Height > 0 {
		return n.Height
	}
	rows := max(2*len(n.Inputs), len(n.Outputs))
	header := RowHeight + NodePadding
	content := float64(rows)*RowHeight + NodePadding
	return header + content + HeaderPadding
}
