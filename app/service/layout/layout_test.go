package layout

import (
	"historydash/app/service/projector"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphOf(ids []string, edges [][2]string) projector.Graph {
	g := projector.Graph{}
	for _, id := range ids {
		g.Nodes = append(g.Nodes, projector.Node{ID: id})
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, projector.Edge{ID: projector.EdgeID(e[0], e[1]), Source: e[0], Target: e[1]})
	}

	return g
}

func positions(g projector.Graph) map[string]projector.Position {
	result := make(map[string]projector.Position, len(g.Nodes))
	for _, n := range g.Nodes {
		result[n.ID] = n.Position
	}

	return result
}

func TestLayoutChain(t *testing.T) {
	g := Layout(graphOf([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}), DefaultOptions())

	pos := positions(g)
	assert.Equal(t, projector.Position{X: 0, Y: 0}, pos["a"])
	assert.Equal(t, projector.Position{X: 0, Y: 90}, pos["b"])
	assert.Equal(t, projector.Position{X: 0, Y: 180}, pos["c"])
}

func TestLayoutDiamondCentersNarrowRanks(t *testing.T) {
	g := Layout(graphOf(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	), DefaultOptions())

	pos := positions(g)
	assert.Equal(t, projector.Position{X: 115, Y: 0}, pos["a"])
	assert.Equal(t, projector.Position{X: 0, Y: 90}, pos["b"])
	assert.Equal(t, projector.Position{X: 230, Y: 90}, pos["c"])
	assert.Equal(t, projector.Position{X: 115, Y: 180}, pos["d"])
}

func TestLayoutDisconnectedNodesShareRank(t *testing.T) {
	g := Layout(graphOf([]string{"a", "b", "c"}, nil), DefaultOptions())

	pos := positions(g)
	assert.Equal(t, projector.Position{X: 0, Y: 0}, pos["a"])
	assert.Equal(t, projector.Position{X: 230, Y: 0}, pos["b"])
	assert.Equal(t, projector.Position{X: 460, Y: 0}, pos["c"])
}

func TestLayoutBreaksCycles(t *testing.T) {
	g := Layout(graphOf([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}}), DefaultOptions())

	pos := positions(g)
	assert.Less(t, pos["a"].Y, pos["b"].Y)
	assert.Less(t, pos["b"].Y, pos["c"].Y)
}

func TestLayoutLeftRight(t *testing.T) {
	opts := DefaultOptions()
	opts.Direction = LeftRight

	g := Layout(graphOf([]string{"a", "b"}, [][2]string{{"a", "b"}}), opts)

	pos := positions(g)
	assert.Equal(t, projector.Position{X: 0, Y: 0}, pos["a"])
	assert.Equal(t, projector.Position{X: 230, Y: 0}, pos["b"])
}

func TestLayoutIsDeterministicAndPure(t *testing.T) {
	in := graphOf(
		[]string{"1", "2", "3", "4", "5"},
		[][2]string{{"1", "2"}, {"1", "5"}, {"5", "1"}, {"3", "2"}, {"4", "9"}, {"2", "2"}},
	)

	first := Layout(in, DefaultOptions())
	second := Layout(in, DefaultOptions())
	assert.Equal(t, first, second)

	for _, n := range in.Nodes {
		assert.Equal(t, projector.Position{}, n.Position)
	}
	assert.Equal(t, in.Edges, first.Edges)
}

func TestLayoutEmpty(t *testing.T) {
	g := Layout(projector.Graph{}, Options{})
	assert.Empty(t, g.Nodes)
}

func TestApplySnapshot(t *testing.T) {
	g := Layout(graphOf([]string{"a", "b"}, [][2]string{{"a", "b"}}), DefaultOptions())

	moved := Apply(g, Snapshot{"b": {X: 500, Y: 7}, "gone": {X: 1, Y: 1}})

	pos := positions(moved)
	assert.Equal(t, projector.Position{X: 0, Y: 0}, pos["a"])
	assert.Equal(t, projector.Position{X: 500, Y: 7}, pos["b"])
	assert.Equal(t, projector.Position{X: 0, Y: 90}, positions(g)["b"])

	snap := FromGraph(moved)
	require.Len(t, snap, 2)
	assert.Equal(t, projector.Position{X: 500, Y: 7}, snap["b"])
}
