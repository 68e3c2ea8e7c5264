package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Alijeyrad/simorq_availability/internal/schedule"
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresScheduleRepository stores each schedule as one JSONB document.
type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

const selectSchedule = `SELECT id, version, document, updated_at FROM schedules`

func (r *PostgresScheduleRepository) GetByProfessional(ctx context.Context, professionalID string) (*schedule.Schedule, error) {
	row := r.db.QueryRowContext(ctx, selectSchedule+` WHERE professional_id = $1`, professionalID)
	return scanSchedule(row)
}

func (r *PostgresScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	row := r.db.QueryRowContext(ctx, selectSchedule+` WHERE id = $1`, id)
	return scanSchedule(row)
}

func (r *PostgresScheduleRepository) Save(ctx context.Context, s *schedule.Schedule, expectedVersion int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save schedule: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM schedules WHERE professional_id = $1 FOR UPDATE`,
		s.ProfessionalID,
	).Scan(&current)
	exists := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return fmt.Errorf("lock schedule: %w", err)
	}
	if current != expectedVersion {
		return ErrVersionConflict
	}

	next := *s
	next.Version = expectedVersion + 1
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(schedule.FromSchedule(&next))
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE schedules SET id = $1, version = $2, document = $3, updated_at = $4 WHERE professional_id = $5`,
			next.ID, next.Version, doc, next.UpdatedAt, next.ProfessionalID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schedules (id, professional_id, version, document, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			next.ID, next.ProfessionalID, next.Version, doc, next.UpdatedAt)
	}
	if err != nil {
		// A concurrent first save for the same professional loses the race.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrVersionConflict
		}
		return fmt.Errorf("write schedule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule: %w", err)
	}
	s.Version, s.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (r *PostgresScheduleRepository) List(ctx context.Context) ([]*schedule.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, selectSchedule+` ORDER BY professional_id`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []*schedule.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (*schedule.Schedule, error) {
	var (
		id        string
		version   int64
		raw       []byte
		updatedAt time.Time
	)
	if err := row.Scan(&id, &version, &raw, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return decodeSchedule(raw, id, version, updatedAt)
}

// decodeSchedule rebuilds an aggregate from its stored document. Columns win
// over the copies embedded in the document.
func decodeSchedule(raw []byte, id string, version int64, updatedAt time.Time) (*schedule.Schedule, error) {
	var doc schedule.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode schedule %s: %w", id, err)
	}
	s, issues := doc.ToSchedule()
	if len(issues) > 0 {
		return nil, fmt.Errorf("decode schedule %s: %w", id, issues[0])
	}
	s.ID, s.Version, s.UpdatedAt = id, version, updatedAt
	return s, nil
}

// PostgresServiceRepository reads service durations from the
// service_durations table.
type PostgresServiceRepository struct {
	db *sql.DB
}

func NewPostgresServiceRepository(db *sql.DB) *PostgresServiceRepository {
	return &PostgresServiceRepository{db: db}
}

func (r *PostgresServiceRepository) Get(ctx context.Context, serviceID string) (*schedule.ServiceDuration, error) {
	svc := schedule.ServiceDuration{ServiceID: serviceID}
	err := r.db.QueryRowContext(ctx,
		`SELECT duration_minutes, buffer_before, buffer_after FROM service_durations WHERE service_id = $1`,
		serviceID,
	).Scan(&svc.DurationMinutes, &svc.BufferBefore, &svc.BufferAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", serviceID, err)
	}
	return &svc, nil
}
