package projector

import (
	"historydash/app/service/store"
)

const (
	NodeWidth  = 180
	NodeHeight = 40

	nodeType   = "default"
	edgeStroke = "#94a3b8"
)

var palettes = map[store.ItemType]Palette{
	store.TypeCharacter: {Background: "#93c5fd", Border: "#60a5fa", Text: "#1e40af"},
	store.TypeTerm:      {Background: "#d8b4fe", Border: "#c084fc", Text: "#6b21a8"},
	store.TypeEvent:     {Background: "#fdba74", Border: "#fb923c", Text: "#9a3412"},
}

var neutralPalette = Palette{Background: "#e5e7eb", Border: "#9ca3af", Text: "#374151"}

func PaletteFor(t store.ItemType) Palette {
	if p, ok := palettes[t]; ok {
		return p
	}

	return neutralPalette
}

type Options struct {
	// KeepExternal keeps edges whose target is not among the projected items.
	KeepExternal bool
}

func EdgeID(sourceID, targetID string) string {
	return "e" + sourceID + "-" + targetID
}

// Project maps items to graph nodes and their relationships to edges. Positions are
// left at zero for the layout engine.
func Project(items []store.HistoricalItem, opts Options) Graph {
	graph := Graph{
		Nodes: make([]Node, 0, len(items)),
		Edges: make([]Edge, 0),
	}

	present := make(map[string]struct{}, len(items))
	for _, item := range items {
		present[item.ID] = struct{}{}
	}

	seenNodes := make(map[string]struct{}, len(items))
	seenEdges := make(map[string]struct{})

	for _, item := range items {
		if _, ok := seenNodes[item.ID]; ok {
			continue
		}
		seenNodes[item.ID] = struct{}{}

		graph.Nodes = append(graph.Nodes, projectNode(item))

		for _, rel := range item.Relationships {
			if _, ok := present[rel.TargetID]; !ok && !opts.KeepExternal {
				continue
			}

			id := EdgeID(item.ID, rel.TargetID)
			if _, ok := seenEdges[id]; ok {
				continue
			}
			seenEdges[id] = struct{}{}

			graph.Edges = append(graph.Edges, Edge{
				ID:       id,
				Source:   item.ID,
				Target:   rel.TargetID,
				Label:    rel.Description,
				Animated: true,
				Style:    EdgeStyle{Stroke: edgeStroke},
			})
		}
	}

	return graph
}

func projectNode(item store.HistoricalItem) Node {
	p := PaletteFor(item.Type)

	return Node{
		ID:   item.ID,
		Type: nodeType,
		Data: NodeData{
			Label:    item.Title,
			ItemType: item.Type,
		},
		Style: NodeStyle{
			Background:   p.Background,
			Color:        p.Text,
			Border:       "1px solid " + p.Border,
			BorderRadius: "8px",
			Padding:      "10px",
			Width:        NodeWidth,
			TextAlign:    "center",
		},
	}
}
