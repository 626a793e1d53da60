package agent

import (
	"context"
	"encoding/json"
	"historydash/app/config"
	"historydash/app/service/extract"
	"historydash/app/service/extract/extracttest"
	"historydash/app/service/graph"
	"historydash/app/service/ingest"
	"historydash/app/service/projector"
	"historydash/app/service/queue"
	"historydash/app/service/resolver"
	"historydash/app/service/snapshot"
	"historydash/app/service/store"
	"testing"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extraction = `{"characters":[{"title":"الأمير عبد القادر","connections":[{"target":"معاهدة تافنة","relationship":"وقع"}]}],"events":[{"title":"معاهدة تافنة","year":"1837"}],"terms":[]}`

func newTestService(t *testing.T) *Service {
	t.Helper()

	cfg := &config.Config{
		Extract: config.Extract{Timeout: time.Second, UnresolvedPolicy: "stub", MaxTextLength: 1000},
		Data:    config.Data{Dir: t.TempDir(), LayoutFile: "graph_layout.json", QueueSize: 4},
	}
	extractSvc, err := extract.NewWithModel(cfg, extracttest.NewModel(extraction))
	require.NoError(t, err)

	di := do.New()
	do.ProvideValue(di, cfg)
	do.ProvideValue(di, extractSvc)
	do.Provide(di, store.New)
	do.Provide(di, queue.New)
	do.Provide(di, snapshot.New)
	do.Provide(di, graph.New)
	do.Provide(di, resolver.New)
	do.Provide(di, ingest.New)
	do.Provide(di, New)

	return do.MustInvoke[*Service](di)
}

func call(t *testing.T, handler server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()

	var req mcp.CallToolRequest
	req.Params.Arguments = args

	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	return text.Text, res.IsError
}

func TestToolNames(t *testing.T) {
	s := newTestService(t)

	names := pie.Map(s.tools(), func(tool server.ServerTool) string { return tool.Tool.Name })
	assert.ElementsMatch(t, []string{"list_items", "get_item", "add_item", "connect_items", "extract_text", "get_graph"}, names)
	assert.NotNil(t, s.Handler())
}

func TestAddConnectAndList(t *testing.T) {
	s := newTestService(t)

	out, isErr := call(t, s.addItem, map[string]any{"title": "بيجو", "type": "character", "importance": "high"})
	require.False(t, isErr, out)
	var a store.HistoricalItem
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, store.ImportanceHigh, a.Importance)

	out, isErr = call(t, s.addItem, map[string]any{"title": "معركة إسلي", "type": "event", "year": "1844"})
	require.False(t, isErr, out)
	var b store.HistoricalItem
	require.NoError(t, json.Unmarshal([]byte(out), &b))

	out, isErr = call(t, s.connectItems, map[string]any{"source_id": a.ID, "target_id": b.ID})
	require.False(t, isErr, out)
	assert.JSONEq(t, `{"added":true}`, out)

	out, isErr = call(t, s.listItems, map[string]any{"tab": "events"})
	require.False(t, isErr, out)
	var items []store.HistoricalItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)

	out, isErr = call(t, s.getItem, map[string]any{"id": a.ID})
	require.False(t, isErr, out)
	assert.Contains(t, out, store.PlaceholderRelationship)
	assert.Contains(t, out, "معركة إسلي")
}

func TestToolErrors(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name    string
		handler server.ToolHandlerFunc
		args    map[string]any
	}{
		{"MissingTitle", s.addItem, map[string]any{"type": "term"}},
		{"BadType", s.addItem, map[string]any{"title": "x", "type": "place"}},
		{"UnknownItem", s.getItem, map[string]any{"id": "missing"}},
		{"ConnectUnknown", s.connectItems, map[string]any{"source_id": "a", "target_id": "b"}},
		{"EmptyText", s.extractText, map[string]any{"text": "  "}},
		{"BadDirection", s.getGraph, map[string]any{"direction": "RL"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, isErr := call(t, tc.handler, tc.args)
			assert.True(t, isErr)
		})
	}
}

func TestExtractAndGraph(t *testing.T) {
	s := newTestService(t)

	out, isErr := call(t, s.extractText, map[string]any{"text": "وقع الأمير عبد القادر معاهدة تافنة"})
	require.False(t, isErr, out)
	var result resolver.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Items, 2)

	out, isErr = call(t, s.getGraph, map[string]any{})
	require.False(t, isErr, out)
	var g projector.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}
