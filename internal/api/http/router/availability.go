package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_availability/internal/api/http/handler"
)

func (r *Router) registerAvailabilityRoutes(api fiber.Router, ah *handler.AvailabilityHandler, limit fiber.Handler) {
	// Public: booking pages poll this, so it is rate limited per client
	api.Get("/professionals/:pid/availability", limit, ah.List)
}
