// Package layout assigns coordinates to projected graph nodes with a layered
// (Sugiyama style) algorithm: break cycles, rank by longest path, reduce crossings
// with barycenter sweeps, then place ranks on a grid.
package layout

import (
	"historydash/app/service/projector"
	"sort"
)

type Direction string

const (
	TopBottom Direction = "TB"
	LeftRight Direction = "LR"
)

const orderingSweeps = 4

type Options struct {
	Direction  Direction
	NodeWidth  float64
	NodeHeight float64
	NodeSep    float64
	RankSep    float64
}

func DefaultOptions() Options {
	return Options{
		Direction:  TopBottom,
		NodeWidth:  projector.NodeWidth,
		NodeHeight: projector.NodeHeight,
		NodeSep:    50,
		RankSep:    50,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Direction != LeftRight {
		o.Direction = TopBottom
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = def.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = def.NodeHeight
	}
	if o.NodeSep < 0 {
		o.NodeSep = def.NodeSep
	}
	if o.RankSep < 0 {
		o.RankSep = def.RankSep
	}

	return o
}

// Layout returns a copy of g with every node positioned. Positions are the top-left
// corner of the node box. The result depends only on the node and edge order of g.
func Layout(g projector.Graph, opts Options) projector.Graph {
	opts = opts.withDefaults()

	out := projector.Graph{
		Nodes: make([]projector.Node, len(g.Nodes)),
		Edges: g.Edges,
	}
	copy(out.Nodes, g.Nodes)

	n := len(out.Nodes)
	if n == 0 {
		return out
	}

	index := make(map[string]int, n)
	for i, node := range out.Nodes {
		index[node.ID] = i
	}

	edges := make([][2]int, 0, len(g.Edges))
	for _, e := range g.Edges {
		u, okU := index[e.Source]
		v, okV := index[e.Target]
		if !okU || !okV || u == v {
			continue
		}
		edges = append(edges, [2]int{u, v})
	}

	succ, pred := adjacency(n, breakCycles(n, edges))
	ranks := longestPathRanks(n, succ, pred)
	layers := orderLayers(n, ranks, succ, pred)

	for _, pos := range place(layers, opts) {
		out.Nodes[pos.node].Position = pos.position
	}

	return out
}

// breakCycles reverses every edge that closes a cycle during a depth first walk.
func breakCycles(n int, edges [][2]int) [][2]int {
	out := make([][]int, n)
	for _, e := range edges {
		out[e[0]] = append(out[e[0]], e[1])
	}

	const (
		white = iota
		grey
		black
	)

	state := make([]int, n)
	back := make(map[[2]int]bool)

	var visit func(u int)
	visit = func(u int) {
		state[u] = grey
		for _, v := range out[u] {
			switch state[v] {
			case white:
				visit(v)
			case grey:
				back[[2]int{u, v}] = true
			}
		}
		state[u] = black
	}

	for u := 0; u < n; u++ {
		if state[u] == white {
			visit(u)
		}
	}

	result := make([][2]int, 0, len(edges))
	for _, e := range edges {
		if back[e] {
			result = append(result, [2]int{e[1], e[0]})
			continue
		}
		result = append(result, e)
	}

	return result
}

func adjacency(n int, edges [][2]int) (succ, pred [][]int) {
	succ = make([][]int, n)
	pred = make([][]int, n)

	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true

		succ[e[0]] = append(succ[e[0]], e[1])
		pred[e[1]] = append(pred[e[1]], e[0])
	}

	return succ, pred
}

func longestPathRanks(n int, succ, pred [][]int) []int {
	ranks := make([]int, n)
	indegree := make([]int, n)
	for v := 0; v < n; v++ {
		indegree[v] = len(pred[v])
	}

	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range succ[u] {
			if ranks[u]+1 > ranks[v] {
				ranks[v] = ranks[u] + 1
			}
			indegree[v]--
			if indegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	return ranks
}

func orderLayers(n int, ranks []int, succ, pred [][]int) [][]int {
	maxRank := 0
	for _, r := range ranks {
		maxRank = max(maxRank, r)
	}

	layers := make([][]int, maxRank+1)
	for v := 0; v < n; v++ {
		layers[ranks[v]] = append(layers[ranks[v]], v)
	}

	order := make([]float64, n)
	reindex := func(layer []int) {
		for i, v := range layer {
			order[v] = float64(i)
		}
	}
	for _, layer := range layers {
		reindex(layer)
	}

	sortByBarycenter := func(layer []int, neighbours [][]int) {
		bary := make(map[int]float64, len(layer))
		for _, v := range layer {
			if len(neighbours[v]) == 0 {
				bary[v] = order[v]
				continue
			}

			sum := 0.0
			for _, u := range neighbours[v] {
				sum += order[u]
			}
			bary[v] = sum / float64(len(neighbours[v]))
		}

		sort.SliceStable(layer, func(i, j int) bool {
			return bary[layer[i]] < bary[layer[j]]
		})
		reindex(layer)
	}

	for i := 0; i < orderingSweeps; i++ {
		if i%2 == 0 {
			for r := 1; r <= maxRank; r++ {
				sortByBarycenter(layers[r], pred)
			}
		} else {
			for r := maxRank - 1; r >= 0; r-- {
				sortByBarycenter(layers[r], succ)
			}
		}
	}

	return layers
}

type placement struct {
	node     int
	position projector.Position
}

func place(layers [][]int, opts Options) []placement {
	// along: size of a node inside its rank, across: size in rank direction
	along, across := opts.NodeWidth, opts.NodeHeight
	if opts.Direction == LeftRight {
		along, across = opts.NodeHeight, opts.NodeWidth
	}

	span := func(count int) float64 {
		return float64(count)*along + float64(count-1)*opts.NodeSep
	}

	widest := 0.0
	for _, layer := range layers {
		widest = max(widest, span(len(layer)))
	}

	result := make([]placement, 0)
	for r, layer := range layers {
		offset := (widest - span(len(layer))) / 2

		for i, v := range layer {
			inRank := offset + float64(i)*(along+opts.NodeSep) + along/2
			rankPos := float64(r)*(across+opts.RankSep) + across/2

			cx, cy := inRank, rankPos
			if opts.Direction == LeftRight {
				cx, cy = rankPos, inRank
			}

			result = append(result, placement{
				node: v,
				position: projector.Position{
					X: cx - opts.NodeWidth/2,
					Y: cy - opts.NodeHeight/2,
				},
			})
		}
	}

	return result
}
