package api

import (
	"fmt"
	"historydash/app/service/graph"
	"historydash/app/service/layout"
	"historydash/app/service/store"
	"historydash/app/service/view"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
)

const exportFileName = "historical_data.json"

type connectRequest struct {
	TargetID    string `json:"targetId"`
	Description string `json:"description"`
}

type extractRequest struct {
	Text string `json:"text"`
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %w", store.ErrMalformed, err)
	}

	return nil
}

func parseCriteria(c *fiber.Ctx) (view.Criteria, error) {
	var criteria view.Criteria
	if err := c.QueryParser(&criteria); err != nil {
		return view.Criteria{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	return criteria, nil
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"items":    s.storeSvc.Len(),
		"revision": s.storeSvc.Revision(),
	})
}

func (s *Server) listItems(c *fiber.Ctx) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return err
	}

	return c.JSON(view.Filter(s.storeSvc.List(), criteria))
}

func (s *Server) createItem(c *fiber.Ctx) error {
	var input store.NewItem
	if err := parseBody(c, &input); err != nil {
		return err
	}

	id, err := s.storeSvc.Add(input)
	if err != nil {
		return err
	}

	item, _ := s.storeSvc.Get(id)

	return c.Status(fiber.StatusCreated).JSON(item)
}

func (s *Server) getItem(c *fiber.Ctx) error {
	id := c.Params("id")

	item, ok := s.storeSvc.Get(id)
	if !ok {
		return oops.In("api").With("id", id).Wrapf(store.ErrNotFound, "get item")
	}

	return c.JSON(item)
}

func (s *Server) updateItem(c *fiber.Ctx) error {
	id := c.Params("id")

	var patch store.ItemPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}

	if err := s.storeSvc.Update(id, patch); err != nil {
		return err
	}

	item, _ := s.storeSvc.Get(id)

	return c.JSON(item)
}

func (s *Server) relatedItems(c *fiber.Ctx) error {
	related, err := s.storeSvc.Related(c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(related)
}

func (s *Server) connectItems(c *fiber.Ctx) error {
	var req connectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	added, err := s.storeSvc.Connect(c.Params("id"), req.TargetID, req.Description)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if added {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(fiber.Map{"added": added})
}

func (s *Server) timeline(c *fiber.Ctx) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return err
	}

	return c.JSON(view.Timeline(view.Filter(s.storeSvc.List(), criteria)))
}

func (s *Server) graphView(c *fiber.Ctx) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return err
	}

	direction := layout.Direction(c.Query("direction"))
	if direction != "" && direction != layout.TopBottom && direction != layout.LeftRight {
		return fmt.Errorf("%w: unknown direction %q", ErrBadRequest, direction)
	}

	return c.JSON(s.graphSvc.Build(graph.Query{
		Criteria:  criteria,
		Direction: direction,
		Fresh:     c.QueryBool("fresh"),
	}))
}

func (s *Server) saveLayout(c *fiber.Ctx) error {
	var positions layout.Snapshot
	if err := parseBody(c, &positions); err != nil {
		return err
	}

	saved, err := s.graphSvc.SaveLayout(positions)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"saved": saved})
}

func (s *Server) extractText(c *fiber.Ctx) error {
	var req extractRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.ingestSvc.Ingest(c.UserContext(), req.Text)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) cancelExtract(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"cancelled": s.ingestSvc.Cancel()})
}

func (s *Server) export(c *fiber.Ctx) error {
	data, err := s.storeSvc.Export()
	if err != nil {
		return err
	}

	c.Attachment(exportFileName)

	return c.Send(data)
}

func (s *Server) importItems(c *fiber.Ctx) error {
	n, err := s.storeSvc.Import(c.Body())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"imported": n})
}
