package ownership

import (
	"strings"
	"testing"

	"github.com/matzehuels/nodegraph/pkg/model"
)

type fakeTopology struct {
	pure map[string]bool
	out  map[string][]model.Edge
	in   map[string][]model.Edge
}

func (f fakeTopology) IsPureData(id string) bool        { return f.pure[id] }
func (f fakeTopology) DataOut(id string) []model.Edge { return f.out[id] }
func (f fakeTopology) DataIn(id string) []model.Edge  { return f.in[id] }

func edge(from, to string) model.Edge { return model.Edge{From: from, To: to} }

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		flow       []string
		skip       []string
		topo       fakeTopology
		node       string
		block      []string
		wantPlace  bool
		wantReason Reason
		wantDetail string
	}{
		{
			name: "ConsumedByFlowNode",
			flow: []string{"flow_1", "flow_2"},
			topo: fakeTopology{
				pure: map[string]bool{"data_1": true},
				out:  map[string][]model.Edge{"data_1": {edge("data_1", "flow_2")}},
			},
			node:       "data_1",
			block:      []string{"flow_1", "flow_2"},
			wantPlace:  true,
			wantReason: ConsumedByFlowNode,
		},
		{
			name: "ConsumedByPlacedDataNode",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_1": true, "data_2": true},
				out:  map[string][]model.Edge{"data_1": {edge("data_1", "data_2")}},
			},
			node:       "data_1",
			block:      []string{"flow_1", "data_2"},
			wantPlace:  true,
			wantReason: ConsumedByPlacedDataNode,
		},
		{
			name: "FlowConsumerWinsOverDataConsumer",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_1": true, "data_2": true},
				out: map[string][]model.Edge{"data_1": {
					edge("data_1", "data_2"),
					edge("data_1", "flow_1"),
				}},
			},
			node:       "data_1",
			block:      []string{"flow_1", "data_2"},
			wantPlace:  true,
			wantReason: ConsumedByFlowNode,
		},
		{
			name: "ConsumedByOtherBlock",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_1": true},
				out:  map[string][]model.Edge{"data_1": {edge("data_1", "flow_other_block")}},
			},
			node:       "data_1",
			block:      []string{"flow_1"},
			wantReason: NotConsumedByBlock,
		},
		{
			name: "ConsumerElsewhereIgnoresSource",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_1": true, "src": true},
				out:  map[string][]model.Edge{"data_1": {edge("data_1", "flow_other_block")}},
				in:   map[string][]model.Edge{"data_1": {edge("src", "data_1")}},
			},
			node:       "data_1",
			block:      []string{"flow_1", "src"},
			wantReason: NotConsumedByBlock,
		},
		{
			name: "OrphanWithSourceInBlock",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_orphan": true, "data_source": true},
				in:   map[string][]model.Edge{"data_orphan": {edge("data_source", "data_orphan")}},
			},
			node:       "data_orphan",
			block:      []string{"flow_1", "data_source"},
			wantPlace:  true,
			wantReason: OrphanWithSourceInBlock,
		},
		{
			name: "OrphanWithSourceElsewhere",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_orphan": true},
				in:   map[string][]model.Edge{"data_orphan": {edge("data_other_block", "data_orphan")}},
			},
			node:       "data_orphan",
			block:      []string{"flow_1"},
			wantReason: NotConsumedByBlock,
		},
		{
			name: "SkipBoundaryNode",
			flow: []string{"flow_1"},
			skip: []string{"data_boundary"},
			topo: fakeTopology{
				pure: map[string]bool{"data_boundary": true},
				out:  map[string][]model.Edge{"data_boundary": {edge("data_boundary", "flow_1")}},
			},
			node:       "data_boundary",
			block:      []string{"flow_1"},
			wantReason: SkipBoundaryNode,
		},
		{
			name:       "NotPureDataNode",
			flow:       []string{"flow_1"},
			topo:       fakeTopology{},
			node:       "some_node",
			block:      []string{"flow_1"},
			wantReason: NotPureDataNode,
		},
		{
			name: "CompletelyIsolated",
			flow: []string{"flow_1"},
			topo: fakeTopology{
				pure: map[string]bool{"data_isolated": true},
			},
			node:       "data_isolated",
			block:      []string{"flow_1"},
			wantReason: NotConsumedByBlock,
			wantDetail: "neither incoming nor outgoing edge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.topo, model.NewIDSet(tt.flow...), model.NewIDSet(tt.skip...))
			got := r.Resolve(tt.node, model.NewIDSet(tt.block...))

			if got.ShouldPlace != tt.wantPlace {
				t.Errorf("ShouldPlace = %v, want %v", got.ShouldPlace, tt.wantPlace)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %v, want %v", got.Reason, tt.wantReason)
			}
			if tt.wantDetail != "" && !strings.Contains(got.Detail, tt.wantDetail) {
				t.Errorf("Detail = %q, want it to contain %q", got.Detail, tt.wantDetail)
			}
		})
	}
}

func TestReasonString(t *testing.T) {
	tests := []struct {
		r    Reason
		want string
	}{
		{SkipBoundaryNode, "SKIP_BOUNDARY_NODE"},
		{NotPureDataNode, "NOT_PURE_DATA_NODE"},
		{ConsumedByFlowNode, "CONSUMED_BY_FLOW_NODE"},
		{ConsumedByPlacedDataNode, "CONSUMED_BY_PLACED_DATA_NODE"},
		{OrphanWithSourceInBlock, "ORPHAN_WITH_SOURCE_IN_BLOCK"},
		{NotConsumedByBlock, "NOT_CONSUMED_BY_BLOCK"},
		{Reason(42), "Reason(42)"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.r), got, tt.want)
		}
	}
}

func TestResolverOnGraph(t *testing.T) {
	g := model.New()
	_ = g.AddNode(model.Node{ID: "f", Kind: model.KindFlow})
	_ = g.AddNode(model.Node{ID: "d", Kind: model.KindData})
	_ = g.AddEdge(model.Edge{From: "d", To: "f"})

	r := NewResolver(g, model.NewIDSet("f"), nil)
	if got := r.Resolve("d", model.NewIDSet("f")); !got.ShouldPlace || got.Reason != ConsumedByFlowNode {
		t.Errorf("Resolve(d) = %+v, want placed by flow consumer", got)
	}
	if got := r.Resolve("f", model.NewIDSet("f")); got.Reason != NotPureDataNode {
		t.Errorf("Resolve(f) reason = %v, want %v", got.Reason, NotPureDataNode)
	}
}
