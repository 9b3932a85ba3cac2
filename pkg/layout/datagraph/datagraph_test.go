package datagraph

import (
	"reflect"
	"testing"

	"github.com/matzehuels/nodegraph/pkg/layout/params"
	"github.com/matzehuels/nodegraph/pkg/model"
)

func buildGraph(t *testing.T, nodes []string, edges [][2]string) *model.Graph {
	t.Helper()
	g := model.New()
	for _, id := range nodes {
		if err := g.AddNode(model.Node{ID: id, Kind: model.KindData}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(model.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestComponentsChainPlusIsolated(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}})

	comps := Components(g)
	if len(comps) != 2 {
		t.Fatalf("len(Components) = %d, want 2", len(comps))
	}
	if want := [][]string{{"a"}, {"b"}, {"c"}}; !reflect.DeepEqual(comps[0].Layers, want) {
		t.Errorf("first component layers = %v, want %v", comps[0].Layers, want)
	}
	if want := [][]string{{"d"}}; !reflect.DeepEqual(comps[1].Layers, want) {
		t.Errorf("second component layers = %v, want %v", comps[1].Layers, want)
	}
	if want := []string{"d"}; !reflect.DeepEqual(comps[1].Nodes, want) {
		t.Errorf("second component nodes = %v, want %v", comps[1].Nodes, want)
	}
}

func TestComponentsOrderedByDeclaration(t *testing.T) {
	g := buildGraph(t, []string{"x", "p", "y", "q"}, [][2]string{{"q", "p"}, {"y", "x"}})

	comps := Components(g)
	if len(comps) != 2 {
		t.Fatalf("len(Components) = %d, want 2", len(comps))
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(comps[0].Nodes, want) {
		t.Errorf("comps[0].Nodes = %v, want %v", comps[0].Nodes, want)
	}
	if want := [][]string{{"y"}, {"x"}}; !reflect.DeepEqual(comps[0].Layers, want) {
		t.Errorf("comps[0].Layers = %v, want %v", comps[0].Layers, want)
	}
}

func TestLayersResidualCycle(t *testing.T) {
	g := buildGraph(t, []string{"s", "u", "v"}, [][2]string{{"s", "u"}, {"u", "v"}, {"v", "u"}})

	layers := Layers(g, []string{"s", "u", "v"})
	want := [][]string{{"s"}, {"u", "v"}}
	if !reflect.DeepEqual(layers, want) {
		t.Errorf("Layers() = %v, want %v", layers, want)
	}
}

func TestLayersSelfLoop(t *testing.T) {
	g := buildGraph(t, []string{"a"}, [][2]string{{"a", "a"}})
	if comps := Components(g); len(comps) != 1 || !reflect.DeepEqual(comps[0].Layers, [][]string{{"a"}}) {
		t.Errorf("Components() = %+v, want one component with layer [a]", comps)
	}
}

func TestLayoutPositions(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}})
	p := params.Defaults()
	height := func(*model.Graph, string) float64 { return 100 }

	Layout(g, p, height)

	pos := func(id string) model.Point {
		n, _ := g.Node(id)
		if n.Pos == nil {
			t.Fatalf("%s has no position", id)
		}
		return *n.Pos
	}

	slot := p.SlotWidth()
	x0 := p.InitialX + p.BlockPadding
	if got := pos("a"); got != (model.Point{X: x0, Y: p.InitialY + p.BlockPadding}) {
		t.Errorf("pos(a) = %v", got)
	}
	if got := pos("b"); got.X != x0+slot {
		t.Errorf("pos(b).X = %v, want %v", got.X, x0+slot)
	}
	if got, want := pos("c").Y-pos("b").Y, 100+p.ComponentNodeGap; got != want {
		t.Errorf("c below b by %v, want %v", got, want)
	}

	firstWidth := 2*slot + 2*p.BlockPadding
	wantDX := p.InitialX + firstWidth + p.BlockXSpacing + p.BlockPadding
	if got := pos("d").X; got != wantDX {
		t.Errorf("pos(d).X = %v, want %v", got, wantDX)
	}

	if len(g.BasicBlocks) != 2 {
		t.Fatalf("len(BasicBlocks) = %d, want 2", len(g.BasicBlocks))
	}
	if g.BasicBlocks[0].Color != p.Palette[0] || g.BasicBlocks[1].Color != p.Palette[1] {
		t.Errorf("block colors = %s, %s", g.BasicBlocks[0].Color, g.BasicBlocks[1].Color)
	}
	if g.BasicBlocks[0].Width != firstWidth {
		t.Errorf("block width = %v, want %v", g.BasicBlocks[0].Width, firstWidth)
	}
}

func TestLayoutEmpty(t *testing.T) {
	g := model.New()
	if comps := Layout(g, params.Defaults(), nil); comps != nil {
		t.Errorf("Layout(empty) = %v, want nil", comps)
	}
	if len(g.BasicBlocks) != 0 {
		t.Errorf("BasicBlocks = %v, want none", g.BasicBlocks)
	}
}
