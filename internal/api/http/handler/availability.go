package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
	"github.com/Alijeyrad/simorq_availability/internal/service/scheduling"
)

type AvailabilityHandler struct {
	svc scheduling.Service
}

func NewAvailabilityHandler(svc scheduling.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// GET /professionals/:pid/availability?start_date=&end_date=&service_id=
func (h *AvailabilityHandler) List(c fiber.Ctx) error {
	var q struct {
		StartDate string `query:"start_date"`
		EndDate   string `query:"end_date"`
		ServiceID string `query:"service_id"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}
	if q.StartDate == "" || q.EndDate == "" {
		return badRequest(c, "start_date and end_date are required")
	}

	start, err := schedule.ParseDate(q.StartDate)
	if err != nil {
		return badRequest(c, "start_date: "+err.Error())
	}
	end, err := schedule.ParseDate(q.EndDate)
	if err != nil {
		return badRequest(c, "end_date: "+err.Error())
	}

	res, err := h.svc.ComputeAvailability(c.Context(), scheduling.AvailabilityQuery{
		ProfessionalID: c.Params("pid"),
		StartDate:      start,
		EndDate:        end,
		ServiceID:      q.ServiceID,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, res)
}
