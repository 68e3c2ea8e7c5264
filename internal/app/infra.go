package app

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_availability/config"
	"github.com/Alijeyrad/simorq_availability/internal/repository"
	"github.com/Alijeyrad/simorq_availability/internal/schedule"
	"github.com/Alijeyrad/simorq_availability/pkg/constants"
	"github.com/Alijeyrad/simorq_availability/pkg/database"
	"github.com/Alijeyrad/simorq_availability/pkg/events"
	"github.com/Alijeyrad/simorq_availability/pkg/observability"
	redispkg "github.com/Alijeyrad/simorq_availability/pkg/redis"
)

// InfraModule provides all infrastructure dependencies. Stores that the
// configuration does not ask for are provided as nil.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideDatabase),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideRepositories),
)

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	if cfg.Storage.Driver != constants.StorageDriverPostgres {
		return nil, nil
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return db.Close()
		},
	})
	return db, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Storage.CacheEnabled {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if !cfg.Nats.Enabled {
		return nil, nil
	}
	nc, err := events.Connect(cfg.Nats)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

// ProvidePublisher falls back to a no-op publisher when NATS is disabled.
func ProvidePublisher(nc *nats.Conn) events.Publisher {
	if nc == nil {
		return events.Nop{}
	}
	return nc
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// Repositories groups the stores picked by storage.driver. ServiceCache is
// nil unless the redis cache is enabled.
type Repositories struct {
	fx.Out

	Schedules    repository.ScheduleRepository
	Services     repository.ServiceRepository
	ServiceCache repository.ServiceCache
}

func ProvideRepositories(cfg *config.Config, db *sql.DB, rdb *redis.Client) Repositories {
	if cfg.Storage.Driver == constants.StorageDriverMemory {
		slog.Warn("using in-memory storage; schedules are lost on restart", "services", len(cfg.Storage.Services))
		services := make([]schedule.ServiceDuration, 0, len(cfg.Storage.Services))
		for _, svc := range cfg.Storage.Services {
			services = append(services, schedule.ServiceDuration{
				ServiceID:       svc.ID,
				DurationMinutes: svc.DurationMinutes,
				BufferBefore:    svc.BufferBefore,
				BufferAfter:     svc.BufferAfter,
			})
		}
		return Repositories{
			Schedules: repository.NewMemoryScheduleRepository(),
			Services:  repository.NewMemoryServiceRepository(services...),
		}
	}

	var (
		schedules repository.ScheduleRepository = repository.NewPostgresScheduleRepository(db)
		services  repository.ServiceRepository  = repository.NewPostgresServiceRepository(db)
	)
	if rdb == nil {
		return Repositories{Schedules: schedules, Services: services}
	}

	ttl := cfg.Storage.CacheTTL()
	cachedServices := repository.NewCachedServiceRepository(services, rdb, ttl)
	return Repositories{
		Schedules:    repository.NewCachedScheduleRepository(schedules, rdb, ttl),
		Services:     cachedServices,
		ServiceCache: cachedServices,
	}
}
