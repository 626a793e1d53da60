package api

import (
	"errors"
	"historydash/app/service/extract"
	"historydash/app/service/ingest"
	"historydash/app/service/resolver"
	"historydash/app/service/snapshot"
	"historydash/app/service/store"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

var ErrBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps domain errors to HTTP status codes. Pipeline errors are checked
// first because they wrap the store errors that caused them.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ingest.ErrBusy), errors.Is(err, ingest.ErrDiscarded):
		return fiber.StatusConflict
	case errors.Is(err, resolver.ErrResolution):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, extract.ErrExtractionFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID):
		return fiber.StatusConflict
	case errors.Is(err, store.ErrInvalidItem),
		errors.Is(err, store.ErrInvalidRelationship),
		errors.Is(err, store.ErrDanglingTarget),
		errors.Is(err, store.ErrMalformed),
		errors.Is(err, extract.ErrInvalidText),
		errors.Is(err, snapshot.ErrInvalidSnapshot),
		errors.Is(err, ErrBadRequest):
		return fiber.StatusBadRequest
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	return fiber.StatusInternalServerError
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusOf(err)

	switch {
	case code >= fiber.StatusInternalServerError && code != fiber.StatusBadGateway:
		slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	case code >= fiber.StatusInternalServerError:
		slog.Warn("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	default:
		slog.Debug("Request rejected", "method", c.Method(), "path", c.Path(), "status", code, "error", err)
	}

	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
