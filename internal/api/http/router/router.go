package router

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_availability/config"
	"github.com/Alijeyrad/simorq_availability/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_availability/internal/api/http/middleware"
	"github.com/Alijeyrad/simorq_availability/internal/service/scheduling"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	SchedulingSvc scheduling.Service
	DB            *sql.DB       `optional:"true"`
	Redis         *redis.Client `optional:"true"`
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	limit := middleware.NewLimiter(r.p.Redis, r.p.Cfg.RateLimit.RequestsPerMinute, handler.TooManyRequests)

	// 3. Handlers
	scheduleH := handler.NewScheduleHandler(r.p.SchedulingSvc)
	availabilityH := handler.NewAvailabilityHandler(r.p.SchedulingSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerScheduleRoutes(api, scheduleH)
	r.registerAvailabilityRoutes(api, availabilityH, limit)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return r.ready(c.Context()) },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

// ready reports whether the configured backing stores answer.
func (r *Router) ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if r.p.DB != nil && r.p.DB.PingContext(ctx) != nil {
		return false
	}
	if r.p.Redis != nil && r.p.Redis.Ping(ctx).Err() != nil {
		return false
	}
	return true
}
