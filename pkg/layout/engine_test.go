package layout

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/layout/params"
	"github.com/matzehuels/nodegraph/pkg/model"
	"github.com/matzehuels/nodegraph/pkg/observability"
)

// etlGraph builds a two-block pipeline: load, clean and save in block 0 with a
// required gap before save, and notify in block 1.
func etlGraph(t *testing.T) *model.Graph {
	t.Helper()
	g := model.New()
	nodes := []model.Node{
		{ID: "load", Kind: model.KindFlow, Inputs: []string{"file"}, Outputs: []string{"rows"}},
		{ID: "clean", Kind: model.KindFlow, Inputs: []string{"rows", "min"}, Outputs: []string{"rows"}},
		{ID: "save", Kind: model.KindFlow, Inputs: []string{"dir"}},
		{ID: "notify", Kind: model.KindFlow, Inputs: []string{"body", "text"}},
		{ID: "path", Outputs: []string{"value"}},
		{ID: "limit", Outputs: []string{"value"}},
		{ID: "threshold", Inputs: []string{"base"}, Outputs: []string{"value"}},
		{ID: "fmt", Outputs: []string{"value"}},
		{ID: "out_dir", Inputs: []string{"fmt"}, Outputs: []string{"value"}},
		{ID: "summary", Inputs: []string{"rows"}, Outputs: []string{"value"}},
		{ID: "message", Outputs: []string{"value"}},
		{ID: "stray"},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	edges := []model.Edge{
		{From: "path", To: "load", ToPort: "file"},
		{From: "load", FromPort: "rows", To: "clean", ToPort: "rows"},
		{From: "limit", To: "threshold", ToPort: "base"},
		{From: "threshold", To: "clean", ToPort: "min"},
		{From: "fmt", To: "out_dir", ToPort: "fmt"},
		{From: "out_dir", To: "save", ToPort: "dir"},
		{From: "clean", FromPort: "rows", To: "summary", ToPort: "rows"},
		{From: "summary", To: "notify", ToPort: "body"},
		{From: "message", To: "notify", ToPort: "text"},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	g.Blocks = []model.BlockSpec{
		{
			FlowNodeIDs:  []string{"load", "clean", "save"},
			RequiredGaps: []model.Gap{{From: "clean", To: "save", Columns: 3}},
		},
		{FlowNodeIDs: []string{"notify"}},
	}
	return g
}

func runLayout(t *testing.T, g *model.Graph) *Result {
	t.Helper()
	res, err := New(params.Defaults(), nil).Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	return res
}

func TestLayoutPlacesEveryNode(t *testing.T) {
	g := etlGraph(t)
	runLayout(t, g)

	for _, n := range g.Nodes() {
		if n.Pos == nil {
			t.Errorf("node %s has no position", n.ID)
		}
	}
	if len(g.BasicBlocks) != 2 {
		t.Fatalf("len(BasicBlocks) = %d, want 2", len(g.BasicBlocks))
	}
}

func TestLayoutNoDuplicatePlacement(t *testing.T) {
	g := etlGraph(t)
	runLayout(t, g)

	owner := make(map[string]int)
	for _, b := range g.BasicBlocks {
		for _, id := range b.DataNodeIDs {
			if prev, dup := owner[id]; dup {
				t.Errorf("%s placed in blocks %d and %d", id, prev, b.Index)
			}
			owner[id] = b.Index
		}
	}
	for _, id := range g.DataNodeIDs() {
		if _, ok := owner[id]; !ok {
			t.Errorf("%s belongs to no block", id)
		}
	}
	if owner["summary"] != 1 || owner["message"] != 1 {
		t.Errorf("notify inputs in blocks %d and %d, want 1", owner["summary"], owner["message"])
	}
}

func TestLayoutColumnPrecedence(t *testing.T) {
	g := etlGraph(t)
	res := runLayout(t, g)

	for _, b := range res.Blocks {
		for _, info := range b.Chains {
			target, ok := b.Columns[info.TargetFlowID]
			if !ok {
				continue
			}
			for _, id := range info.Nodes {
				col, ok := b.Columns[id]
				if !ok {
					continue
				}
				if col >= target {
					t.Errorf("block %d chain %d: %s at column %d, target %s at %d",
						b.Index, info.ChainID, id, col, info.TargetFlowID, target)
				}
			}
		}
	}
}

func TestLayoutRequiredGap(t *testing.T) {
	g := etlGraph(t)
	res := runLayout(t, g)

	cols := res.Blocks[0].Columns
	if got := cols["save"] - cols["clean"]; got < 3 {
		t.Errorf("column gap clean->save = %d, want >= 3", got)
	}
	if got := cols["clean"] - cols["load"]; got != 1 {
		t.Errorf("column gap load->clean = %d, want 1", got)
	}
	clean, _ := g.Node("clean")
	save, _ := g.Node("save")
	if dx := save.Pos.X - clean.Pos.X; dx < 3*params.Defaults().SlotWidth() {
		t.Errorf("save.X - clean.X = %v, want >= three slots", dx)
	}
}

func TestLayoutRowsDoNotOverlap(t *testing.T) {
	g := etlGraph(t)
	res := runLayout(t, g)

	for _, b := range res.Blocks {
		type cell struct{ col, row int }
		used := make(map[cell]string)
		for _, id := range b.DataNodeIDs {
			for r := b.StackOrder[id]; r < b.StackOrder[id]+b.LayersOccupied[id]; r++ {
				c := cell{b.Columns[id], r}
				if other, taken := used[c]; taken {
					t.Errorf("block %d: %s and %s share column %d row %d", b.Index, other, id, c.col, r)
				}
				used[c] = id
			}
		}
	}
}

func TestLayoutTallDataNodesDoNotOverlap(t *testing.T) {
	g := model.New()
	nodes := []model.Node{
		{ID: "f", Kind: model.KindFlow, Inputs: []string{"a", "b"}},
		{ID: "A", Inputs: []string{"x", "y"}, Outputs: []string{"value"}},
		{ID: "B", Inputs: []string{"x", "y"}, Outputs: []string{"value"}},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []model.Edge{
		{From: "A", FromPort: "value", To: "f", ToPort: "a"},
		{From: "B", FromPort: "value", To: "f", ToPort: "b"},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	res := runLayout(t, g)
	p := params.Defaults()

	b := res.Blocks[0]
	for i, a := range b.DataNodeIDs {
		for _, c := range b.DataNodeIDs[i+1:] {
			if b.Columns[a] != b.Columns[c] {
				continue
			}
			na, _ := g.Node(a)
			nc, _ := g.Node(c)
			upper, lower := na, nc
			if lower.Pos.Y < upper.Pos.Y {
				upper, lower = lower, upper
			}
			end := upper.Pos.Y + params.EstimateHeight(g, upper.ID)
			if lower.Pos.Y < end+p.DataStackGap {
				t.Errorf("%s [%v, %v] and %s at %v overlap in column %d",
					upper.ID, upper.Pos.Y, end, lower.ID, lower.Pos.Y, b.Columns[a])
			}
		}
	}

	bb := g.BasicBlocks[0]
	for _, id := range b.DataNodeIDs {
		n, _ := g.Node(id)
		if bottom := n.Pos.Y + params.EstimateHeight(g, id); bottom > bb.Y+bb.Height {
			t.Errorf("%s bottom %v below block bottom %v", id, bottom, bb.Y+bb.Height)
		}
	}
}

func TestLayoutStacksUnconnectedBlocks(t *testing.T) {
	g := model.New()
	nodes := []model.Node{
		{ID: "open", Kind: model.KindFlow, Inputs: []string{"path"}, Outputs: []string{"file"}},
		{ID: "close", Kind: model.KindFlow, Inputs: []string{"file"}},
		{ID: "beep", Kind: model.KindFlow, Inputs: []string{"tone"}},
		{ID: "path", Outputs: []string{"value"}},
		{ID: "tone", Outputs: []string{"value"}},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []model.Edge{
		{From: "path", To: "open", ToPort: "path"},
		{From: "open", FromPort: "file", To: "close", ToPort: "file"},
		{From: "tone", To: "beep", ToPort: "tone"},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	g.Blocks = []model.BlockSpec{
		{FlowNodeIDs: []string{"open"}},
		{FlowNodeIDs: []string{"beep"}},
		{FlowNodeIDs: []string{"close"}},
	}

	p := params.Defaults()
	p.BlockYSpacing = 75
	if _, err := New(p, nil).Layout(context.Background(), g); err != nil {
		t.Fatal(err)
	}

	b0, b1, b2 := g.BasicBlocks[0], g.BasicBlocks[1], g.BasicBlocks[2]
	if b0.X != p.InitialX || b0.Y != p.InitialY {
		t.Errorf("block 0 at (%v, %v), want (%v, %v)", b0.X, b0.Y, p.InitialX, p.InitialY)
	}
	if want := b0.X + b0.Width + p.BlockXSpacing; b2.X != want || b2.Y != b0.Y {
		t.Errorf("block 2 at (%v, %v), want (%v, %v) beside block 0", b2.X, b2.Y, want, b0.Y)
	}
	if want := max(b0.Y+b0.Height, b2.Y+b2.Height) + p.BlockYSpacing; b1.X != p.InitialX || b1.Y != want {
		t.Errorf("block 1 at (%v, %v), want (%v, %v) below the first sequence", b1.X, b1.Y, p.InitialX, want)
	}

	for _, b := range g.BasicBlocks {
		for _, id := range append(append([]string(nil), b.FlowNodeIDs...), b.DataNodeIDs...) {
			n, _ := g.Node(id)
			if n.Pos.Y < b.Y || n.Pos.Y > b.Y+b.Height || n.Pos.X < b.X || n.Pos.X > b.X+b.Width {
				t.Errorf("%s at %v outside block %d", id, *n.Pos, b.Index)
			}
		}
	}
}

func TestLayoutGeometry(t *testing.T) {
	g := etlGraph(t)
	runLayout(t, g)
	p := params.Defaults()

	for _, id := range []string{"load", "clean", "save"} {
		n, _ := g.Node(id)
		if n.Pos.Y != p.InitialY+p.BlockPadding {
			t.Errorf("%s.Y = %v, want %v", id, n.Pos.Y, p.InitialY+p.BlockPadding)
		}
	}
	load, _ := g.Node("load")
	for _, id := range []string{"path", "limit", "threshold", "fmt", "out_dir"} {
		n, _ := g.Node(id)
		if n.Pos.Y <= load.Pos.Y {
			t.Errorf("%s.Y = %v, want below the flow band at %v", id, n.Pos.Y, load.Pos.Y)
		}
	}

	b0, b1 := g.BasicBlocks[0], g.BasicBlocks[1]
	if b0.X != p.InitialX {
		t.Errorf("block 0 X = %v, want %v", b0.X, p.InitialX)
	}
	if want := b0.X + b0.Width + p.BlockXSpacing; b1.X != want {
		t.Errorf("block 1 X = %v, want %v", b1.X, want)
	}
	if b0.Color != p.Palette[0] || b1.Color != p.Palette[1] {
		t.Errorf("block colors = %s, %s", b0.Color, b1.Color)
	}
	for _, b := range g.BasicBlocks {
		for _, id := range append(append([]string(nil), b.FlowNodeIDs...), b.DataNodeIDs...) {
			n, _ := g.Node(id)
			if n.Pos.X < b.X || n.Pos.X > b.X+b.Width {
				t.Errorf("%s.X = %v outside block %d [%v, %v]", id, n.Pos.X, b.Index, b.X, b.X+b.Width)
			}
		}
	}
}

func TestLayoutDeterministic(t *testing.T) {
	positions := func() map[string]model.Point {
		g := etlGraph(t)
		runLayout(t, g)
		out := make(map[string]model.Point)
		for _, n := range g.Nodes() {
			out[n.ID] = *n.Pos
		}
		return out
	}
	first := positions()
	for i := 0; i < 5; i++ {
		if got := positions(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n got %v\nwant %v", i, got, first)
		}
	}
}

func TestLayoutIsRepeatableOnSameGraph(t *testing.T) {
	g := etlGraph(t)
	runLayout(t, g)
	first := g.BasicBlocks
	runLayout(t, g)
	if !reflect.DeepEqual(g.BasicBlocks, first) {
		t.Errorf("second pass BasicBlocks = %v, want %v", g.BasicBlocks, first)
	}
}

func TestLayoutDataOnly(t *testing.T) {
	g := model.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := g.AddNode(model.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []model.Edge{{From: "a", To: "b"}, {From: "b", To: "c"}} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}

	res := runLayout(t, g)
	if len(res.Components) != 2 {
		t.Fatalf("len(Components) = %d, want 2", len(res.Components))
	}
	if got := len(res.Components[0].Layers); got != 3 {
		t.Errorf("first component layers = %d, want 3", got)
	}
	if got := res.Components[1].Nodes; !reflect.DeepEqual(got, []string{"d"}) {
		t.Errorf("second component = %v, want [d]", got)
	}
	if len(g.BasicBlocks) != 2 {
		t.Errorf("len(BasicBlocks) = %d, want 2", len(g.BasicBlocks))
	}
	if res.Debug["c"] == "" {
		t.Error("Debug[c] is empty")
	}
}

func TestResolveBlocks(t *testing.T) {
	g := model.New()
	for _, id := range []string{"f1", "f2", "f3"} {
		if err := g.AddNode(model.Node{ID: id, Kind: model.KindFlow}); err != nil {
			t.Fatal(err)
		}
	}

	got := ResolveBlocks(g)
	if len(got) != 1 || !reflect.DeepEqual(got[0].FlowNodeIDs, []string{"f1", "f2", "f3"}) {
		t.Errorf("ResolveBlocks() without specs = %v", got)
	}

	g.Blocks = []model.BlockSpec{{FlowNodeIDs: []string{"f2"}}}
	got = ResolveBlocks(g)
	if len(got) != 2 || !reflect.DeepEqual(got[1].FlowNodeIDs, []string{"f1", "f3"}) {
		t.Errorf("ResolveBlocks() with partial spec = %v", got)
	}

	g.Blocks = []model.BlockSpec{{FlowNodeIDs: []string{"f1", "f2", "f3"}}}
	if got = ResolveBlocks(g); len(got) != 1 {
		t.Errorf("ResolveBlocks() with full spec = %d blocks, want 1", len(got))
	}
}

func TestLayoutInvalidPartition(t *testing.T) {
	g := etlGraph(t)
	g.Blocks = append(g.Blocks, model.BlockSpec{FlowNodeIDs: []string{"load"}})

	_, err := New(params.Defaults(), nil).Layout(context.Background(), g)
	if !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("Layout() error = %v, want %s", err, errors.ErrCodeInvalidGraph)
	}
}

func TestLayoutInvalidParams(t *testing.T) {
	p := params.Defaults()
	p.NodeWidth = 0
	_, err := New(p, nil).Layout(context.Background(), etlGraph(t))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Layout() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestLayoutDebug(t *testing.T) {
	g := etlGraph(t)
	res := runLayout(t, g)
	for _, id := range g.NodeIDs() {
		if res.Debug[id] == "" {
			t.Errorf("Debug[%s] is empty", id)
		}
	}
}

type recordingHooks struct {
	observability.NoopLayoutHooks
	starts, blocks, completes int
	lastErr                   error
}

func (h *recordingHooks) OnLayoutStart(context.Context, int, int)      { h.starts++ }
func (h *recordingHooks) OnBlockPlaced(context.Context, int, int, int) { h.blocks++ }
func (h *recordingHooks) OnLayoutComplete(_ context.Context, _ time.Duration, err error) {
	h.completes++
	h.lastErr = err
}

func TestLayoutHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	runLayout(t, etlGraph(t))
	if hooks.starts != 1 || hooks.blocks != 2 || hooks.completes != 1 {
		t.Errorf("hooks = %d starts, %d blocks, %d completes, want 1, 2, 1", hooks.starts, hooks.blocks, hooks.completes)
	}

	g := etlGraph(t)
	g.Blocks = append(g.Blocks, model.BlockSpec{FlowNodeIDs: []string{"load"}})
	_, _ = New(params.Defaults(), nil).Layout(context.Background(), g)
	if hooks.lastErr == nil {
		t.Error("OnLayoutComplete did not receive the validation error")
	}
}
