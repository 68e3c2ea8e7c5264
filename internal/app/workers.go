package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_availability/config"
	"github.com/Alijeyrad/simorq_availability/internal/repository"
	"github.com/Alijeyrad/simorq_availability/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_availability/pkg/constants"
	"github.com/Alijeyrad/simorq_availability/pkg/events"
)

// WorkerModule registers the background workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	NC           *nats.Conn `optional:"true"`
	Scheduling   scheduling.Service
	ServiceCache repository.ServiceCache `optional:"true"`
}

func RegisterWorkers(p WorkerParams) {
	var (
		c    *cron.Cron
		subs []*nats.Subscription
	)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Cfg.Scheduling.PruneEnabled {
				var err error
				if c, err = startPruneWorker(p.Cfg.Scheduling.PruneCron, p.Scheduling); err != nil {
					return err
				}
			}
			if p.NC != nil && p.ServiceCache != nil {
				sub, err := startServiceCacheWorker(p.NC, p.ServiceCache)
				if err != nil {
					return err
				}
				subs = append(subs, sub)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			for _, sub := range subs {
				_ = sub.Unsubscribe()
			}
			if c != nil {
				// wait for a running prune before the stores close
				select {
				case <-c.Stop().Done():
				case <-ctx.Done():
				}
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// prune_worker
// ---------------------------------------------------------------------------

func startPruneWorker(spec string, svc scheduling.Service) (*cron.Cron, error) {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() { runPrune(context.Background(), svc, time.Now()) }); err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("prune_worker: started", "schedule", spec)
	return c, nil
}

func runPrune(ctx context.Context, svc scheduling.Service, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	removed, err := svc.PruneExceptions(ctx, now)
	if err != nil {
		slog.Error("prune_worker: run failed", "removed", removed, "err", err)
		return
	}
	slog.Debug("prune_worker: run finished", "removed", removed)
}

// ---------------------------------------------------------------------------
// service_cache_worker
// ---------------------------------------------------------------------------

// startServiceCacheWorker drops cached service durations when the catalogue
// announces a change on simorq.service.updated.<service id>.
func startServiceCacheWorker(nc *nats.Conn, cache repository.ServiceCache) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(events.Wildcard(constants.SubjectServiceUpdated), func(msg *nats.Msg) {
		evictService(context.Background(), cache, msg.Subject)
	})
	if err != nil {
		slog.Error("service_cache_worker: subscribe service.updated failed", "err", err)
		return nil, err
	}
	slog.Info("service_cache_worker: started")
	return sub, nil
}

func evictService(ctx context.Context, cache repository.ServiceCache, subject string) {
	serviceID := events.LastToken(subject)
	if serviceID == "" || serviceID == "*" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cache.Evict(ctx, serviceID); err != nil {
		slog.Warn("service_cache_worker: evict failed", "service_id", serviceID, "err", err)
	}
}
