package graph

import (
	"historydash/app/config"
	"historydash/app/service/layout"
	"historydash/app/service/projector"
	"historydash/app/service/queue"
	"historydash/app/service/snapshot"
	"historydash/app/service/store"
	"historydash/app/service/view"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInjector(t *testing.T) *do.Injector {
	t.Helper()

	di := do.New()
	do.ProvideValue(di, &config.Config{Data: config.Data{
		Dir:        t.TempDir(),
		LayoutFile: "graph_layout.json",
		QueueSize:  4,
	}})
	do.Provide(di, store.New)
	do.Provide(di, queue.New)
	do.Provide(di, snapshot.New)
	do.Provide(di, New)

	return di
}

func seed(t *testing.T, st *store.Service) (string, string, string) {
	t.Helper()

	a, err := st.Add(store.NewItem{Title: "الأمير عبد القادر", Type: store.TypeCharacter, Importance: store.ImportanceHigh})
	require.NoError(t, err)
	b, err := st.Add(store.NewItem{Title: "معاهدة تافنة", Type: store.TypeEvent})
	require.NoError(t, err)
	c, err := st.Add(store.NewItem{Title: "الزمالة", Type: store.TypeTerm, Importance: store.ImportanceLow})
	require.NoError(t, err)

	_, err = st.Connect(a, b, "وقع")
	require.NoError(t, err)
	_, err = st.Connect(a, c, "أسس")
	require.NoError(t, err)

	return a, b, c
}

func nodeByID(g projector.Graph, id string) (projector.Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return projector.Node{}, false
}

func TestBuild(t *testing.T) {
	di := newTestInjector(t)
	a, b, c := seed(t, do.MustInvoke[*store.Service](di))

	g := do.MustInvoke[*Service](di).Build(Query{})
	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)

	root, _ := nodeByID(g, a)
	left, _ := nodeByID(g, b)
	right, _ := nodeByID(g, c)
	assert.Equal(t, 0.0, root.Position.Y)
	assert.Equal(t, 90.0, left.Position.Y)
	assert.Equal(t, 90.0, right.Position.Y)
	assert.Less(t, left.Position.X, right.Position.X)
}

func TestBuildFiltered(t *testing.T) {
	di := newTestInjector(t)
	a, _, _ := seed(t, do.MustInvoke[*store.Service](di))

	g := do.MustInvoke[*Service](di).Build(Query{Criteria: view.Criteria{Importance: "high"}})
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, a, g.Nodes[0].ID)
	assert.Empty(t, g.Edges)
}

func TestSaveLayoutAppliesToBuild(t *testing.T) {
	di := newTestInjector(t)
	a, b, _ := seed(t, do.MustInvoke[*store.Service](di))
	svc := do.MustInvoke[*Service](di)

	kept, err := svc.SaveLayout(layout.Snapshot{
		a:         {X: 500, Y: 600},
		"missing": {X: 1, Y: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, kept)

	g := svc.Build(Query{})
	root, _ := nodeByID(g, a)
	assert.Equal(t, projector.Position{X: 500, Y: 600}, root.Position)

	other, _ := nodeByID(g, b)
	assert.Equal(t, 90.0, other.Position.Y)

	fresh := svc.Build(Query{Fresh: true})
	root, _ = nodeByID(fresh, a)
	assert.Equal(t, 0.0, root.Position.Y)

	_, ok := do.MustInvoke[*snapshot.Service](di).Get()["missing"]
	assert.False(t, ok)
}
