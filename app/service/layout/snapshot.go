package layout

import "historydash/app/service/projector"

// Snapshot holds manually arranged node positions keyed by item identifier.
type Snapshot map[string]projector.Position

func (s Snapshot) Clone() Snapshot {
	result := make(Snapshot, len(s))
	for id, pos := range s {
		result[id] = pos
	}

	return result
}

// Apply overrides the positions of nodes the snapshot knows and leaves the rest.
func Apply(g projector.Graph, snap Snapshot) projector.Graph {
	out := projector.Graph{
		Nodes: make([]projector.Node, len(g.Nodes)),
		Edges: g.Edges,
	}
	copy(out.Nodes, g.Nodes)

	for i := range out.Nodes {
		if pos, ok := snap[out.Nodes[i].ID]; ok {
			out.Nodes[i].Position = pos
		}
	}

	return out
}

// FromGraph captures the current node positions of g.
func FromGraph(g projector.Graph) Snapshot {
	result := make(Snapshot, len(g.Nodes))
	for _, node := range g.Nodes {
		result[node.ID] = node.Position
	}

	return result
}
