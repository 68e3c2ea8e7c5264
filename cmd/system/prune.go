package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_availability/internal/repository"
	"github.com/Alijeyrad/simorq_availability/internal/schedule"
	"github.com/Alijeyrad/simorq_availability/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_availability/pkg/database"
	"github.com/Alijeyrad/simorq_availability/pkg/events"
	"github.com/Alijeyrad/simorq_availability/pkg/logs"
	redispkg "github.com/Alijeyrad/simorq_availability/pkg/redis"
)

func NewPruneExceptionsCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune-exceptions",
		Short: "Remove schedule exceptions dated before each professional's today",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			logger, flush := logs.New(cfg)
			defer flush()
			slog.SetDefault(logger)

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			var schedules repository.ScheduleRepository = repository.NewPostgresScheduleRepository(db)
			if cfg.Storage.CacheEnabled {
				rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
				if err != nil {
					return fmt.Errorf("failed to connect to redis: %w", err)
				}
				defer rdb.Close()
				schedules = repository.NewCachedScheduleRepository(schedules, rdb, cfg.Storage.CacheTTL())
			}

			var pub events.Publisher = events.Nop{}
			if cfg.Nats.Enabled {
				nc, err := events.Connect(cfg.Nats)
				if err != nil {
					return err
				}
				defer nc.Drain()
				pub = nc
			}

			if dryRun {
				return reportPrunable(cmd.Context(), schedules)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			svc := scheduling.New(schedules, repository.NewPostgresServiceRepository(db), pub, scheduling.Config{})
			removed, err := svc.PruneExceptions(ctx, time.Now())
			fmt.Printf("Removed %d past exceptions.\n", removed)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report how many exceptions would be removed")

	return cmd
}

func reportPrunable(ctx context.Context, schedules repository.ScheduleRepository) error {
	all, err := schedules.List(ctx)
	if err != nil {
		return err
	}
	total := 0
	now := time.Now()
	for _, s := range all {
		loc, err := s.Location()
		if err != nil {
			continue
		}
		total += s.PruneExceptionsBefore(schedule.DateOf(now.In(loc)))
	}
	fmt.Printf("%d past exceptions across %d schedules would be removed.\n", total, len(all))
	return nil
}
