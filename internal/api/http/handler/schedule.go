package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_availability/internal/availability"
	"github.com/Alijeyrad/simorq_availability/internal/schedule"
	"github.com/Alijeyrad/simorq_availability/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_availability/pkg/reqctx"
)

type ScheduleHandler struct {
	svc scheduling.Service
}

func NewScheduleHandler(svc scheduling.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

func mapScheduleError(c fiber.Ctx, err error) error {
	var verr *scheduling.ValidationError
	var cerr *availability.ComputationError
	switch {
	case errors.As(err, &verr):
		return unprocessable(c, verr.Issues)
	case errors.Is(err, scheduling.ErrScheduleNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrServiceNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrVersionConflict):
		return conflict(c, err.Error())
	case errors.Is(err, availability.ErrInvalidRange):
		return badRequest(c, err.Error())
	case errors.As(err, &cerr):
		return internalError(c)
	default:
		reqctx.Logger(c.Context()).Error("unhandled scheduling error", "err", err)
		return internalError(c)
	}
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// POST /schedules/validate
func (h *ScheduleHandler) Validate(c fiber.Ctx) error {
	var doc schedule.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "invalid request body")
	}

	issues := h.svc.ValidateSchedule(doc)
	return ok(c, fiber.Map{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// POST /schedules/stats
func (h *ScheduleHandler) DocumentStats(c fiber.Ctx) error {
	var doc schedule.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "invalid request body")
	}

	stats, err := h.svc.DocumentStats(doc)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, stats)
}

// ---------------------------------------------------------------------------
// Stored schedules
// ---------------------------------------------------------------------------

// GET /professionals/:pid/schedule
func (h *ScheduleHandler) Get(c fiber.Ctx) error {
	s, err := h.svc.GetSchedule(c.Context(), c.Params("pid"))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, schedule.FromSchedule(s))
}

// PUT /professionals/:pid/schedule
//
// The body is a full schedule document; its version is the one the editor
// last read, 0 when creating.
func (h *ScheduleHandler) Save(c fiber.Ctx) error {
	var doc schedule.Document
	if err := c.Bind().JSON(&doc); err != nil {
		return badRequest(c, "invalid request body")
	}
	if doc.Version < 0 {
		return badRequest(c, "version must not be negative")
	}

	s, err := h.svc.SaveSchedule(c.Context(), c.Params("pid"), doc, doc.Version)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, schedule.FromSchedule(s))
}

// GET /professionals/:pid/schedule/stats
func (h *ScheduleHandler) Stats(c fiber.Ctx) error {
	stats, err := h.svc.ScheduleStats(c.Context(), c.Params("pid"))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, stats)
}

// POST /schedules/:id/duplicate
func (h *ScheduleHandler) Duplicate(c fiber.Ctx) error {
	var body struct {
		TargetProfessionalID string `json:"target_professional_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.TargetProfessionalID == "" {
		return badRequest(c, "target_professional_id is required")
	}

	id, err := h.svc.DuplicateSchedule(c.Context(), c.Params("id"), body.TargetProfessionalID)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return created(c, fiber.Map{"schedule_id": id})
}
