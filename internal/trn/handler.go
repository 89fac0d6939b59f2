package trn

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/trn-portal/trn_portal/internal/options"
)

// Handler exposes TRN endpoints. Domain failures answer 200 with success=false.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a TRN HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type searchRequest struct {
	TRN string `json:"trn"`
}

type updateRequest struct {
	RowNumber       int    `json:"rowNumber"`
	TRN             string `json:"trn"`
	Status          string `json:"status"`
	NewTRN          string `json:"newTrn"`
	DateOfRecapture string `json:"dateOfRecapture"`
}

var messages = map[error]string{
	ErrInvalidTRN:    "Invalid TRN",
	ErrInvalidNewTRN: "Invalid new TRN",
	ErrInvalidStatus: "Invalid status",
	ErrInvalidDate:   "Invalid date of recapture",
	ErrInvalidRow:    "Invalid row number",
	ErrNotFound:      "TRN not found",
	ErrRowMismatch:   "TRN does not match row",
}

// Search handles POST /api/trn-search.
func (h *Handler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "Invalid request")
	}
	rec, err := h.service.Search(c.UserContext(), req.TRN)
	if err != nil {
		return h.failure(c, "trn.search", err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "record": rec})
}

// Update handles POST /api/trn-update.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, "Invalid request")
	}
	rec, err := h.service.Update(c.UserContext(), UpdateInput{
		RowNumber:       req.RowNumber,
		TRN:             req.TRN,
		Status:          req.Status,
		NewTRN:          req.NewTRN,
		DateOfRecapture: req.DateOfRecapture,
	})
	if err != nil {
		return h.failure(c, "trn.update", err)
	}
	if h.logger != nil {
		h.logger.Info("trn.update completed",
			slog.Int("row_number", rec.RowNumber),
			slog.String("status", rec.Status),
		)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "Record updated"})
}

func (h *Handler) failure(c *fiber.Ctx, op string, err error) error {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return fail(c, msg)
		}
	}
	var empty *options.EmptyError
	if errors.As(err, &empty) {
		return fail(c, empty.Error())
	}
	if h.logger != nil {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	return fail(c, "Unable to reach the records store. Please try again.")
}

func fail(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": false, "message": message})
}
