// Package calendar persists the schedule enrollments handed over by the
// enrollment coordinator. It only records who is enrolled in what; firing
// alerts at wall-clock time is a separate concern served from these rows.
package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Enrollment is one entity's membership in a schedule.
type Enrollment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	EntityID      string    `db:"entity_id" json:"entity_id"`
	ProviderID    string    `db:"provider_id" json:"provider_id"`
	ScheduleName  string    `db:"schedule_name" json:"schedule_name"`
	Milestone     string    `db:"milestone" json:"milestone"`
	ReferenceDate string    `db:"reference_date" json:"reference_date"`
	EnrolledAt    time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// Scheduler stores calendar enrollments in Postgres. One row per
// (entity, schedule); re-enrolling into the same schedule moves the row to
// the new milestone instead of stacking a second one.
type Scheduler struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewScheduler(pool *pgxpool.Pool, logger zerolog.Logger) *Scheduler {
	return &Scheduler{pool: pool, logger: logger}
}

func (s *Scheduler) EnrollIntoSchedule(ctx context.Context, entityID, scheduleName, milestone, referenceDate string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO calendar_enrollment (id, entity_id, schedule_name, milestone, reference_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entity_id, schedule_name)
		DO UPDATE SET milestone = EXCLUDED.milestone,
			reference_date = EXCLUDED.reference_date,
			enrolled_at = NOW()`,
		uuid.New(), entityID, scheduleName, milestone, referenceDate)
	if err != nil {
		return err
	}
	s.logger.Debug().
		Str("entity_id", entityID).
		Str("schedule", scheduleName).
		Str("milestone", milestone).
		Msg("calendar enrollment recorded")
	return nil
}

func (s *Scheduler) UnenrollFromSchedule(ctx context.Context, entityID, providerID, scheduleName string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM calendar_enrollment WHERE entity_id = $1 AND schedule_name = $2`,
		entityID, scheduleName)
	return err
}

func (s *Scheduler) UnenrollFromAllSchedules(ctx context.Context, entityID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM calendar_enrollment WHERE entity_id = $1`, entityID)
	return err
}

// ListByEntity returns the entity's current enrollments, oldest first.
func (s *Scheduler) ListByEntity(ctx context.Context, entityID string) ([]*Enrollment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_id, COALESCE(provider_id, ''), schedule_name,
			COALESCE(milestone, ''), reference_date::text, enrolled_at
		FROM calendar_enrollment WHERE entity_id = $1 ORDER BY enrolled_at`,
		entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.EntityID, &e.ProviderID, &e.ScheduleName,
			&e.Milestone, &e.ReferenceDate, &e.EnrolledAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}
