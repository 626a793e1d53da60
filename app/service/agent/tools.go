package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"historydash/app/service/graph"
	"historydash/app/service/layout"
	"historydash/app/service/store"
	"historydash/app/service/view"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (s *Service) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_items",
				append(withCriteria(),
					mcp.WithDescription("List historical items, optionally filtered by tab, search query and importance."),
				)...,
			),
			Handler: s.listItems,
		},
		{
			Tool: mcp.NewTool("get_item",
				mcp.WithDescription("Get one item by id together with the items it relates to."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
			),
			Handler: s.getItem,
		},
		{
			Tool: mcp.NewTool("add_item",
				mcp.WithDescription("Add a new historical item. Returns the new item."),
				mcp.WithString("title", mcp.Required(), mcp.Description("Display title")),
				mcp.WithString("type", mcp.Required(), mcp.Enum("character", "event", "term")),
				mcp.WithString("description", mcp.Description("Free text description")),
				mcp.WithString("importance", mcp.Enum("high", "medium", "low"), mcp.Description("Defaults to medium")),
				mcp.WithString("year", mcp.Description("Year or range such as 1808-1883")),
			),
			Handler: s.addItem,
		},
		{
			Tool: mcp.NewTool("connect_items",
				mcp.WithDescription("Add a directed relationship from one item to another. Connecting an already connected pair does nothing."),
				mcp.WithString("source_id", mcp.Required()),
				mcp.WithString("target_id", mcp.Required()),
				mcp.WithString("description", mcp.Description("How the source relates to the target")),
			),
			Handler: s.connectItems,
		},
		{
			Tool: mcp.NewTool("extract_text",
				mcp.WithDescription("Extract characters, events and terms from free text with the language model and add them with their relationships."),
				mcp.WithString("text", mcp.Required(), mcp.Description("Source text, usually Arabic")),
			),
			Handler: s.extractText,
		},
		{
			Tool: mcp.NewTool("get_graph",
				append(withCriteria(),
					mcp.WithDescription("Get the relationship graph with laid out node positions."),
					mcp.WithString("direction", mcp.Enum(string(layout.TopBottom), string(layout.LeftRight))),
				)...,
			),
			Handler: s.getGraph,
		},
	}
}

func withCriteria() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("tab", mcp.Enum("characters", "events", "terms"), mcp.Description("Item type tab, all types when omitted")),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of title or description")),
		mcp.WithString("importance", mcp.Enum("all", "high", "medium", "low")),
	}
}

func criteriaFrom(req mcp.CallToolRequest) view.Criteria {
	return view.Criteria{
		Tab:        req.GetString("tab", ""),
		Query:      req.GetString("query", ""),
		Importance: req.GetString("importance", ""),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(tool string, err error) *mcp.CallToolResult {
	slog.Debug("Tool call failed", "tool", tool, "error", err)

	return mcp.NewToolResultError(err.Error())
}

func (s *Service) listItems(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(view.Filter(s.storeSvc.List(), criteriaFrom(req)))
}

func (s *Service) getItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return errorResult("get_item", err), nil
	}

	item, ok := s.storeSvc.Get(id)
	if !ok {
		return errorResult("get_item", fmt.Errorf("%w: %s", store.ErrNotFound, id)), nil
	}

	related, err := s.storeSvc.Related(id)
	if err != nil {
		return errorResult("get_item", err), nil
	}

	return jsonResult(map[string]any{
		"item":    item,
		"related": related,
	})
}

func (s *Service) addItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return errorResult("add_item", err), nil
	}
	itemType, err := req.RequireString("type")
	if err != nil {
		return errorResult("add_item", err), nil
	}

	id, err := s.storeSvc.Add(store.NewItem{
		Title:       title,
		Description: req.GetString("description", ""),
		Type:        store.ItemType(itemType),
		Importance:  store.Importance(req.GetString("importance", "")),
		Year:        req.GetString("year", ""),
	})
	if err != nil {
		return errorResult("add_item", err), nil
	}

	item, _ := s.storeSvc.Get(id)

	return jsonResult(item)
}

func (s *Service) connectItems(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source_id")
	if err != nil {
		return errorResult("connect_items", err), nil
	}
	target, err := req.RequireString("target_id")
	if err != nil {
		return errorResult("connect_items", err), nil
	}

	added, err := s.storeSvc.Connect(source, target, req.GetString("description", ""))
	if err != nil {
		return errorResult("connect_items", err), nil
	}

	return jsonResult(map[string]bool{"added": added})
}

func (s *Service) extractText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return errorResult("extract_text", err), nil
	}

	result, err := s.ingestSvc.Ingest(ctx, text)
	if err != nil {
		return errorResult("extract_text", err), nil
	}

	return jsonResult(result)
}

func (s *Service) getGraph(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction := layout.Direction(req.GetString("direction", ""))
	if direction != "" && direction != layout.TopBottom && direction != layout.LeftRight {
		return errorResult("get_graph", fmt.Errorf("unknown direction %q", direction)), nil
	}

	return jsonResult(s.graphSvc.Build(graph.Query{
		Criteria:  criteriaFrom(req),
		Direction: direction,
	}))
}
