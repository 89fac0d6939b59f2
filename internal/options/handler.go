package options

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes dropdown list endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs an options HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Positions handles GET /api/positions.
func (h *Handler) Positions(c *fiber.Ctx) error {
	return h.respond(c, "positions", h.service.Positions)
}

// Provinces handles GET /api/provinces.
func (h *Handler) Provinces(c *fiber.Ctx) error {
	return h.respond(c, "provinces", h.service.Provinces)
}

// Statuses handles GET /api/status-options.
func (h *Handler) Statuses(c *fiber.Ctx) error {
	return h.respond(c, "statuses", h.service.Statuses)
}

func (h *Handler) respond(c *fiber.Ctx, field string, list func(context.Context) ([]string, error)) error {
	values, err := list(c.UserContext())
	if err == nil {
		return c.Status(http.StatusOK).JSON(fiber.Map{field: values})
	}

	message := err.Error()
	if !errors.Is(err, ErrEmpty) {
		if h.logger != nil {
			h.logger.Error("options lookup failed", slog.String("list", field), slog.Any("error", err))
		}
		message = (&EmptyError{Kind: kindOf(field)}).Error()
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{field: []string{}, "message": message})
}

func kindOf(field string) string {
	for kind, plural := range plurals {
		if plural == field {
			return kind
		}
	}
	return field
}
