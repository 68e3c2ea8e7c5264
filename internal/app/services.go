package app

import (
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_availability/config"
	"github.com/Alijeyrad/simorq_availability/internal/repository"
	"github.com/Alijeyrad/simorq_availability/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_availability/pkg/events"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(ProvideSchedulingService),
)

func ProvideSchedulingService(
	schedules repository.ScheduleRepository,
	services repository.ServiceRepository,
	pub events.Publisher,
	cfg *config.Config,
) scheduling.Service {
	return scheduling.New(schedules, services, pub, scheduling.Config{
		MaxRangeDays: cfg.Scheduling.MaxRangeDays,
	})
}
