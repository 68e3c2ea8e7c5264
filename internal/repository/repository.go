// Package repository persists schedule aggregates and reads service
// durations. Every implementation stores and returns copies; callers own the
// *schedule.Schedule they receive.
package repository

import (
	"context"
	"errors"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
)

// ScheduleRepository stores one schedule per professional.
type ScheduleRepository interface {
	GetByProfessional(ctx context.Context, professionalID string) (*schedule.Schedule, error)
	GetByID(ctx context.Context, id string) (*schedule.Schedule, error)

	// Save replaces the professional's schedule when the stored version equals
	// expectedVersion (0 when none is stored yet). On success s.Version is
	// expectedVersion+1. A mismatch returns ErrVersionConflict.
	Save(ctx context.Context, s *schedule.Schedule, expectedVersion int64) error

	List(ctx context.Context) ([]*schedule.Schedule, error)
}

// ServiceRepository reads the duration of bookable services. Service
// definitions are owned elsewhere; this side only reads them.
type ServiceRepository interface {
	Get(ctx context.Context, serviceID string) (*schedule.ServiceDuration, error)
}

// ServiceCache is implemented by service repositories that keep a local copy
// which must be dropped when the owning system changes a service.
type ServiceCache interface {
	Evict(ctx context.Context, serviceID string) error
}
