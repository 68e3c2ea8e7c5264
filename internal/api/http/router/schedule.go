package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_availability/internal/api/http/handler"
)

func (r *Router) registerScheduleRoutes(api fiber.Router, sh *handler.ScheduleHandler) {
	// Stateless document checks for the schedule editor
	schedules := api.Group("/schedules")
	schedules.Post("/validate", sh.Validate)
	schedules.Post("/stats", sh.DocumentStats)
	schedules.Post("/:id/duplicate", sh.Duplicate)

	pro := api.Group("/professionals/:pid")
	pro.Get("/schedule", sh.Get)
	pro.Put("/schedule", sh.Save)
	pro.Get("/schedule/stats", sh.Stats)
}
