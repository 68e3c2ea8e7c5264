package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

// MemoryScheduleRepository keeps schedules in process memory.
type MemoryScheduleRepository struct {
	mu     sync.RWMutex
	byPro  map[string]*schedule.Schedule
	proFor map[string]string // schedule id -> professional id
}

func NewMemoryScheduleRepository() *MemoryScheduleRepository {
	return &MemoryScheduleRepository{
		byPro:  make(map[string]*schedule.Schedule),
		proFor: make(map[string]string),
	}
}

func (r *MemoryScheduleRepository) GetByProfessional(_ context.Context, professionalID string) (*schedule.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byPro[professionalID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryScheduleRepository) GetByID(_ context.Context, id string) (*schedule.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pro, ok := r.proFor[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.byPro[pro].Clone(), nil
}

func (r *MemoryScheduleRepository) Save(_ context.Context, s *schedule.Schedule, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	prev, exists := r.byPro[s.ProfessionalID]
	if exists {
		current = prev.Version
	}
	if current != expectedVersion {
		return ErrVersionConflict
	}
	if other, taken := r.proFor[s.ID]; taken && other != s.ProfessionalID {
		return ErrVersionConflict
	}

	s.Version = expectedVersion + 1
	if exists {
		delete(r.proFor, prev.ID)
	}
	r.byPro[s.ProfessionalID] = s.Clone()
	r.proFor[s.ID] = s.ProfessionalID
	return nil
}

func (r *MemoryScheduleRepository) List(_ context.Context) ([]*schedule.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*schedule.Schedule, 0, len(r.byPro))
	for _, s := range r.byPro {
		out = append(out, s.Clone())
	}
	slices.SortFunc(out, func(a, b *schedule.Schedule) int { return cmp.Compare(a.ProfessionalID, b.ProfessionalID) })
	return out, nil
}

// MemoryServiceRepository keeps service durations in process memory.
type MemoryServiceRepository struct {
	mu       sync.RWMutex
	services map[string]schedule.ServiceDuration
}

func NewMemoryServiceRepository(services ...schedule.ServiceDuration) *MemoryServiceRepository {
	r := &MemoryServiceRepository{services: make(map[string]schedule.ServiceDuration, len(services))}
	for _, svc := range services {
		r.services[svc.ServiceID] = svc
	}
	return r
}

func (r *MemoryServiceRepository) Get(_ context.Context, serviceID string) (*schedule.ServiceDuration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[serviceID]
	if !ok {
		return nil, ErrNotFound
	}
	return &svc, nil
}

// Put adds or replaces a service duration.
func (r *MemoryServiceRepository) Put(svc schedule.ServiceDuration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.ServiceID] = svc
}
