package snapshot

import (
	"encoding/json"
	"historydash/app/config"
	"historydash/app/service/layout"
	"historydash/app/service/projector"
	"historydash/app/service/queue"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInjector(t *testing.T, dir string) *do.Injector {
	t.Helper()

	di := do.New()
	do.ProvideValue(di, &config.Config{Data: config.Data{
		Dir:        dir,
		LayoutFile: "graph_layout.json",
		QueueSize:  4,
	}})
	do.Provide(di, queue.New)
	do.Provide(di, New)

	return di
}

func TestSaveEnqueuesMergedSnapshot(t *testing.T) {
	dir := t.TempDir()
	di := newTestInjector(t, dir)
	s := do.MustInvoke[*Service](di)

	require.NoError(t, s.Save(layout.Snapshot{"a": {X: 1, Y: 2}}))
	require.NoError(t, s.Save(layout.Snapshot{"b": {X: 3, Y: 4}}))

	assert.Equal(t, layout.Snapshot{"a": {X: 1, Y: 2}, "b": {X: 3, Y: 4}}, s.Get())

	ch := do.MustInvoke[*queue.Service](di).Channel()
	<-ch
	w := <-ch
	assert.Equal(t, filepath.Join(dir, "graph_layout.json"), w.Path)

	var written layout.Snapshot
	require.NoError(t, json.Unmarshal(w.Data, &written))
	assert.Equal(t, s.Get(), written)
}

func TestGetReturnsCopy(t *testing.T) {
	s := do.MustInvoke[*Service](newTestInjector(t, t.TempDir()))
	require.NoError(t, s.Save(layout.Snapshot{"a": {X: 1, Y: 2}}))

	snap := s.Get()
	snap["a"] = projector.Position{X: 100}

	assert.Equal(t, projector.Position{X: 1, Y: 2}, s.Get()["a"])
}

func TestSaveRejectsBadPositions(t *testing.T) {
	s := do.MustInvoke[*Service](newTestInjector(t, t.TempDir()))

	assert.ErrorIs(t, s.Save(layout.Snapshot{"a": {X: math.NaN()}}), ErrInvalidSnapshot)
	assert.ErrorIs(t, s.Save(layout.Snapshot{"a": {Y: math.Inf(1)}}), ErrInvalidSnapshot)
	assert.ErrorIs(t, s.Save(layout.Snapshot{"": {}}), ErrInvalidSnapshot)
	assert.Empty(t, s.Get())
}

func TestNewLoadsExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph_layout.json"), []byte(`{"x":{"x":5,"y":6}}`), 0644))

	s := do.MustInvoke[*Service](newTestInjector(t, dir))

	assert.Equal(t, layout.Snapshot{"x": {X: 5, Y: 6}}, s.Get())
}

func TestNewIgnoresCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph_layout.json"), []byte("{"), 0644))

	s := do.MustInvoke[*Service](newTestInjector(t, dir))

	assert.Empty(t, s.Get())
}
