package graph_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/model"
)

func ExampleWriteGraph() {
	g := model.New()
	_ = g.AddNode(model.Node{ID: "path", Outputs: []string{"value"}})
	_ = g.AddNode(model.Node{ID: "load", Kind: model.KindFlow, Inputs: []string{"file"}})
	_ = g.AddEdge(model.Edge{From: "path", FromPort: "value", To: "load", ToPort: "file"})

	var buf bytes.Buffer
	if err := graph.WriteGraph(g, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "path",
	//       "outputs": [
	//         "value"
	//       ]
	//     },
	//     {
	//       "id": "load",
	//       "kind": "flow",
	//       "inputs": [
	//         "file"
	//       ]
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "path",
	//       "from_port": "value",
	//       "to": "load",
	//       "to_port": "file"
	//     }
	//   ]
	// }
}

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [
			{"id": "path"},
			{"id": "load", "kind": "flow"},
			{"id": "save", "kind": "flow"}
		],
		"edges": [{"from": "path", "to": "load"}],
		"blocks": [{"flows": ["load", "save"], "gaps": [{"from": "load", "to": "save", "columns": 2}]}]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(graph.Summary(g))
	fmt.Println("Flow nodes:", g.FlowNodeIDs())
	// Output:
	// 3 nodes (2 flow), 1 edges, 1 blocks
	// Flow nodes: [load save]
}
