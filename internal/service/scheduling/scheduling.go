package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Alijeyrad/simorq_availability/internal/availability"
	"github.com/Alijeyrad/simorq_availability/internal/repository"
	"github.com/Alijeyrad/simorq_availability/internal/schedule"
	"github.com/Alijeyrad/simorq_availability/pkg/events"
	"github.com/Alijeyrad/simorq_availability/pkg/reqctx"
)

const instrumentationName = "github.com/Alijeyrad/simorq_availability/internal/service/scheduling"

// DefaultMaxRangeDays bounds a single availability query.
const DefaultMaxRangeDays = 92

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type AvailabilityQuery struct {
	ProfessionalID string
	StartDate      schedule.Date
	EndDate        schedule.Date
	ServiceID      string    // optional
	Now            time.Time // zero means the service clock
}

type ClosedDay struct {
	Date   schedule.Date `json:"date"`
	Reason string        `json:"reason"`
}

type AvailabilityResult struct {
	ProfessionalID string                          `json:"professional_id"`
	ScheduleID     string                          `json:"schedule_id"`
	Timezone       string                          `json:"timezone"`
	StartDate      schedule.Date                   `json:"start_date"`
	EndDate        schedule.Date                   `json:"end_date"`
	SlotMinutes    int                             `json:"slot_minutes"`
	Slots          []availability.AvailabilitySlot `json:"slots"`
	ClosedDays     []ClosedDay                     `json:"closed_days"`
}

type Config struct {
	MaxRangeDays int
	Now          func() time.Time
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Validation and stats over submitted documents
	ValidateSchedule(doc schedule.Document) []schedule.ValidationIssue
	DocumentStats(doc schedule.Document) (schedule.Stats, error)
	ComputeStats(s *schedule.Schedule) schedule.Stats

	// Stored schedules
	GetSchedule(ctx context.Context, professionalID string) (*schedule.Schedule, error)
	SaveSchedule(ctx context.Context, professionalID string, doc schedule.Document, expectedVersion int64) (*schedule.Schedule, error)
	ScheduleStats(ctx context.Context, professionalID string) (schedule.Stats, error)
	DuplicateSchedule(ctx context.Context, sourceScheduleID, targetProfessionalID string) (string, error)

	// Availability
	ComputeAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityResult, error)

	// Maintenance
	PruneExceptions(ctx context.Context, now time.Time) (int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	schedules repository.ScheduleRepository
	services  repository.ServiceRepository
	events    events.Publisher
	cfg       Config

	tracer       trace.Tracer
	slotsEmitted metric.Int64Counter
	queryDays    metric.Int64Histogram
}

func New(schedules repository.ScheduleRepository, services repository.ServiceRepository, pub events.Publisher, cfg Config) Service {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = DefaultMaxRangeDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if pub == nil {
		pub = events.Nop{}
	}

	meter := otel.Meter(instrumentationName)
	slotsEmitted, _ := meter.Int64Counter(
		"availability_slots_emitted",
		metric.WithDescription("Bookable slots returned by availability queries"),
		metric.WithUnit("{slot}"),
	)
	queryDays, _ := meter.Int64Histogram(
		"availability_query_days",
		metric.WithDescription("Dates covered by one availability query"),
		metric.WithUnit("d"),
	)

	return &schedulingService{
		schedules:    schedules,
		services:     services,
		events:       pub,
		cfg:          cfg,
		tracer:       otel.Tracer(instrumentationName),
		slotsEmitted: slotsEmitted,
		queryDays:    queryDays,
	}
}

// ---------------------------------------------------------------------------
// Validation & stats
// ---------------------------------------------------------------------------

func (s *schedulingService) ValidateSchedule(doc schedule.Document) []schedule.ValidationIssue {
	_, issues := parseDocument(doc)
	return issues
}

func (s *schedulingService) DocumentStats(doc schedule.Document) (schedule.Stats, error) {
	sch, issues := parseDocument(doc)
	if len(issues) > 0 {
		return schedule.Stats{}, &ValidationError{Issues: issues}
	}
	return schedule.ComputeStats(sch), nil
}

func (s *schedulingService) ComputeStats(sch *schedule.Schedule) schedule.Stats {
	return schedule.ComputeStats(sch)
}

// parseDocument reports format problems first, then rule violations of the
// parsed aggregate. The returned slice is never nil.
func parseDocument(doc schedule.Document) (*schedule.Schedule, []schedule.ValidationIssue) {
	sch, issues := doc.ToSchedule()
	issues = append(issues, schedule.Validate(sch)...)
	if issues == nil {
		issues = []schedule.ValidationIssue{}
	}
	return sch, issues
}

// ---------------------------------------------------------------------------
// Stored schedules
// ---------------------------------------------------------------------------

func (s *schedulingService) GetSchedule(ctx context.Context, professionalID string) (*schedule.Schedule, error) {
	sch, err := s.schedules.GetByProfessional(ctx, professionalID)
	if err != nil {
		return nil, mapRepoError(err, ErrScheduleNotFound, "get schedule")
	}
	return sch, nil
}

func (s *schedulingService) ScheduleStats(ctx context.Context, professionalID string) (schedule.Stats, error) {
	sch, err := s.GetSchedule(ctx, professionalID)
	if err != nil {
		return schedule.Stats{}, err
	}
	return schedule.ComputeStats(sch), nil
}

// SaveSchedule replaces a professional's schedule with doc as a whole.
// expectedVersion is the version the caller last read, 0 for a first save.
func (s *schedulingService) SaveSchedule(ctx context.Context, professionalID string, doc schedule.Document, expectedVersion int64) (*schedule.Schedule, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.SaveSchedule", trace.WithAttributes(
		attribute.String("professional_id", professionalID),
		attribute.Int64("expected_version", expectedVersion),
	))
	defer span.End()

	switch doc.ProfessionalID {
	case "":
		doc.ProfessionalID = professionalID
	case professionalID:
	default:
		return nil, &ValidationError{Issues: []schedule.ValidationIssue{{
			Field:   "professional_id",
			Code:    schedule.CodeInvalid,
			Message: "does not match the professional in the request path",
		}}}
	}

	sch, issues := parseDocument(doc)
	if len(issues) > 0 {
		span.SetAttributes(attribute.Int("issues", len(issues)))
		return nil, &ValidationError{Issues: issues}
	}

	current, err := s.schedules.GetByProfessional(ctx, professionalID)
	switch {
	case err == nil:
		sch.ID = current.ID
	case errors.Is(err, repository.ErrNotFound):
		sch.ID = uuid.NewString()
	default:
		return nil, s.fail(span, fmt.Errorf("load current schedule: %w", err))
	}
	sch.UpdatedAt = s.cfg.Now().UTC()

	if err := s.schedules.Save(ctx, sch, expectedVersion); err != nil {
		return nil, s.fail(span, mapRepoError(err, ErrScheduleNotFound, "save schedule"))
	}

	reqctx.Logger(ctx).Info("schedule saved",
		"professional_id", professionalID,
		"schedule_id", sch.ID,
		"version", sch.Version,
	)
	s.publishUpdated(ctx, sch)
	return sch, nil
}

// DuplicateSchedule replaces the target professional's schedule with a deep
// copy of the source under a new id. Nothing of the target's previous
// schedule survives.
func (s *schedulingService) DuplicateSchedule(ctx context.Context, sourceScheduleID, targetProfessionalID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.DuplicateSchedule", trace.WithAttributes(
		attribute.String("source_schedule_id", sourceScheduleID),
		attribute.String("target_professional_id", targetProfessionalID),
	))
	defer span.End()

	src, err := s.schedules.GetByID(ctx, sourceScheduleID)
	if err != nil {
		return "", s.fail(span, mapRepoError(err, ErrScheduleNotFound, "get source schedule"))
	}

	dup := src.Clone()
	dup.ID = uuid.NewString()
	dup.ProfessionalID = targetProfessionalID
	dup.UpdatedAt = s.cfg.Now().UTC()
	if issues := schedule.Validate(dup); len(issues) > 0 {
		return "", &ValidationError{Issues: issues}
	}

	var expected int64
	target, err := s.schedules.GetByProfessional(ctx, targetProfessionalID)
	switch {
	case err == nil:
		expected = target.Version
	case errors.Is(err, repository.ErrNotFound):
	default:
		return "", s.fail(span, fmt.Errorf("load target schedule: %w", err))
	}

	if err := s.schedules.Save(ctx, dup, expected); err != nil {
		return "", s.fail(span, mapRepoError(err, ErrScheduleNotFound, "save duplicated schedule"))
	}

	reqctx.Logger(ctx).Info("schedule duplicated",
		"source_schedule_id", sourceScheduleID,
		"target_professional_id", targetProfessionalID,
		"schedule_id", dup.ID,
	)
	s.publishUpdated(ctx, dup)
	return dup.ID, nil
}

// ---------------------------------------------------------------------------
// Availability
// ---------------------------------------------------------------------------

func (s *schedulingService) ComputeAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityResult, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.ComputeAvailability", trace.WithAttributes(
		attribute.String("professional_id", q.ProfessionalID),
		attribute.String("start_date", q.StartDate.String()),
		attribute.String("end_date", q.EndDate.String()),
		attribute.String("service_id", q.ServiceID),
	))
	defer span.End()

	r := availability.DateRange{Start: q.StartDate, End: q.EndDate}
	if err := s.checkRange(r); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var (
		sch *schedule.Schedule
		svc *schedule.ServiceDuration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sch, err = s.schedules.GetByProfessional(gctx, q.ProfessionalID)
		return mapRepoError(err, ErrScheduleNotFound, "get schedule")
	})
	if q.ServiceID != "" {
		g.Go(func() error {
			var err error
			svc, err = s.services.Get(gctx, q.ServiceID)
			return mapRepoError(err, ErrServiceNotFound, "get service")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, err)
	}

	now := q.Now
	if now.IsZero() {
		now = s.cfg.Now()
	}

	days, err := availability.Resolve(sch, r, now, svc)
	if err != nil {
		return nil, s.computationFailed(ctx, span, q, err)
	}
	slotSize := availability.SlotSize(sch, svc)
	slots, err := availability.Generate(days, slotSize)
	if err != nil {
		return nil, s.computationFailed(ctx, span, q, err)
	}

	closed := []ClosedDay{}
	for _, d := range days {
		if d.ClosedReason != "" {
			closed = append(closed, ClosedDay{Date: d.Date, Reason: d.ClosedReason})
		}
	}

	span.SetAttributes(attribute.Int("slots", len(slots)))
	s.slotsEmitted.Add(ctx, int64(len(slots)))
	s.queryDays.Record(ctx, int64(r.Days()))

	return &AvailabilityResult{
		ProfessionalID: q.ProfessionalID,
		ScheduleID:     sch.ID,
		Timezone:       sch.Timezone,
		StartDate:      q.StartDate,
		EndDate:        q.EndDate,
		SlotMinutes:    slotSize,
		Slots:          slots,
		ClosedDays:     closed,
	}, nil
}

func (s *schedulingService) checkRange(r availability.DateRange) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", availability.ErrInvalidRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", availability.ErrInvalidRange, r.End, r.Start)
	}
	if n := r.Days(); n > s.cfg.MaxRangeDays {
		return fmt.Errorf("%w: %d days requested, at most %d allowed", availability.ErrInvalidRange, n, s.cfg.MaxRangeDays)
	}
	return nil
}

func (s *schedulingService) computationFailed(ctx context.Context, span trace.Span, q AvailabilityQuery, err error) error {
	var cerr *availability.ComputationError
	if errors.As(err, &cerr) {
		reqctx.Logger(ctx).Error("availability computation failed",
			"professional_id", q.ProfessionalID,
			"op", cerr.Op,
			"err", cerr.Err,
		)
	}
	return s.fail(span, err)
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

// PruneExceptions drops exceptions dated before each schedule's local today.
// A schedule edited concurrently is skipped and picked up on the next run.
func (s *schedulingService) PruneExceptions(ctx context.Context, now time.Time) (int, error) {
	all, err := s.schedules.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list schedules: %w", err)
	}

	var (
		total int
		errs  []error
	)
	for _, sch := range all {
		loc, err := sch.Location()
		if err != nil {
			reqctx.Logger(ctx).Warn("prune: skipping schedule with bad time zone", "schedule_id", sch.ID, "timezone", sch.Timezone)
			continue
		}
		removed := sch.PruneExceptionsBefore(schedule.DateOf(now.In(loc)))
		if removed == 0 {
			continue
		}

		sch.UpdatedAt = now.UTC()
		err = s.schedules.Save(ctx, sch, sch.Version)
		switch {
		case err == nil:
			total += removed
			s.publishUpdated(ctx, sch)
		case errors.Is(err, repository.ErrVersionConflict):
			reqctx.Logger(ctx).Info("prune: schedule changed concurrently, skipping", "schedule_id", sch.ID)
		default:
			errs = append(errs, fmt.Errorf("prune schedule %s: %w", sch.ID, err))
		}
	}

	reqctx.Logger(ctx).Info("prune: finished", "schedules", len(all), "exceptions_removed", total)
	return total, errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *schedulingService) publishUpdated(ctx context.Context, sch *schedule.Schedule) {
	err := events.PublishScheduleUpdated(s.events, events.ScheduleUpdated{
		ScheduleID:     sch.ID,
		ProfessionalID: sch.ProfessionalID,
		Version:        sch.Version,
		UpdatedAt:      sch.UpdatedAt,
	})
	if err != nil {
		reqctx.Logger(ctx).Warn("publish schedule.updated failed", "schedule_id", sch.ID, "err", err)
	}
}

func (s *schedulingService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// mapRepoError translates repository sentinels into service errors.
func mapRepoError(err, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrVersionConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
