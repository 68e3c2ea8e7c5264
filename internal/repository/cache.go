package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

const (
	scheduleKeyPrefix = "availability:schedule:"
	epochKeyPrefix    = "availability:schedule-epoch:"
	serviceKeyPrefix  = "availability:service:"
)

func scheduleKey(professionalID string) string { return scheduleKeyPrefix + professionalID }
func serviceKey(serviceID string) string       { return serviceKeyPrefix + serviceID }
func epochKey(professionalID string) string    { return epochKeyPrefix + professionalID }

// CachedScheduleRepository is a read-through redis cache keyed by
// professional. Writes go to the wrapped repository and drop the cached
// entry. Every invalidation bumps a per-professional epoch; a fill only lands
// while the epoch read before loading is still current. Cache failures are
// logged and never fail a request.
type CachedScheduleRepository struct {
	next ScheduleRepository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedScheduleRepository(next ScheduleRepository, rdb *redis.Client, ttl time.Duration) *CachedScheduleRepository {
	return &CachedScheduleRepository{next: next, rdb: rdb, ttl: ttl}
}

func (r *CachedScheduleRepository) GetByProfessional(ctx context.Context, professionalID string) (*schedule.Schedule, error) {
	key := scheduleKey(professionalID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var doc schedule.Document
		if err := json.Unmarshal(raw, &doc); err == nil {
			if s, issues := doc.ToSchedule(); len(issues) == 0 {
				return s, nil
			}
		}
		slog.Warn("schedule cache: dropping unreadable entry", "key", key)
		r.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("schedule cache: get failed", "key", key, "err", err)
	}

	epoch, epochErr := readEpoch(ctx, r.rdb, professionalID)

	s, err := r.next.GetByProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if epochErr == nil {
		r.store(ctx, professionalID, epoch, s)
	}
	return s, nil
}

// GetByID is not cached; it is only used by duplication.
func (r *CachedScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedScheduleRepository) Save(ctx context.Context, s *schedule.Schedule, expectedVersion int64) error {
	if err := r.next.Save(ctx, s, expectedVersion); err != nil {
		return err
	}
	r.Invalidate(ctx, s.ProfessionalID)
	return nil
}

func (r *CachedScheduleRepository) List(ctx context.Context) ([]*schedule.Schedule, error) {
	return r.next.List(ctx)
}

// Invalidate drops the cached schedule of a professional and bumps its epoch.
func (r *CachedScheduleRepository) Invalidate(ctx context.Context, professionalID string) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, epochKey(professionalID))
		pipe.Del(ctx, scheduleKey(professionalID))
		return nil
	})
	if err != nil {
		slog.Warn("schedule cache: invalidate failed", "professional_id", professionalID, "err", err)
	}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readEpoch(ctx context.Context, c stringGetter, professionalID string) (int64, error) {
	n, err := c.Get(ctx, epochKey(professionalID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// store fills the cache unless the professional was invalidated after epoch
// was read.
func (r *CachedScheduleRepository) store(ctx context.Context, professionalID string, epoch int64, s *schedule.Schedule) {
	key := scheduleKey(professionalID)
	raw, err := json.Marshal(schedule.FromSchedule(s))
	if err != nil {
		slog.Warn("schedule cache: encode failed", "key", key, "err", err)
		return
	}

	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readEpoch(ctx, tx, professionalID)
		if err != nil {
			return err
		}
		if current != epoch {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, r.ttl)
			return nil
		})
		return err
	}, epochKey(professionalID))

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		slog.Debug("schedule cache: skipped fill after concurrent save", "key", key)
	default:
		slog.Warn("schedule cache: set failed", "key", key, "err", err)
	}
}

var errStaleFill = errors.New("schedule changed during fill")

// cachedService is the cached form of a ServiceDuration.
type cachedService struct {
	DurationMinutes int `json:"duration_minutes"`
	BufferBefore    int `json:"buffer_before"`
	BufferAfter     int `json:"buffer_after"`
}

// CachedServiceRepository is a read-through redis cache for service
// durations. Entries are evicted when the owning system announces a change.
type CachedServiceRepository struct {
	next ServiceRepository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedServiceRepository(next ServiceRepository, rdb *redis.Client, ttl time.Duration) *CachedServiceRepository {
	return &CachedServiceRepository{next: next, rdb: rdb, ttl: ttl}
}

func (r *CachedServiceRepository) Get(ctx context.Context, serviceID string) (*schedule.ServiceDuration, error) {
	key := serviceKey(serviceID)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var c cachedService
		if err := json.Unmarshal(raw, &c); err == nil {
			return &schedule.ServiceDuration{
				ServiceID:       serviceID,
				DurationMinutes: c.DurationMinutes,
				BufferBefore:    c.BufferBefore,
				BufferAfter:     c.BufferAfter,
			}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("service cache: get failed", "key", key, "err", err)
	}

	svc, err := r.next.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	raw, _ = json.Marshal(cachedService{
		DurationMinutes: svc.DurationMinutes,
		BufferBefore:    svc.BufferBefore,
		BufferAfter:     svc.BufferAfter,
	})
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		slog.Warn("service cache: set failed", "key", key, "err", err)
	}
	return svc, nil
}

func (r *CachedServiceRepository) Evict(ctx context.Context, serviceID string) error {
	if err := r.rdb.Del(ctx, serviceKey(serviceID)).Err(); err != nil {
		return fmt.Errorf("evict service %s: %w", serviceID, err)
	}
	return nil
}
