package schedulelog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schedule_log (id, beneficiary_type, entity_id, instance_id, provider_id,
			schedule_name, milestone, status, start_date, due_date,
			reference_schedule, previous_action_timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.BeneficiaryType, e.EntityID, e.InstanceID, e.ProviderID,
		e.ScheduleName, e.Milestone, e.Status, e.StartDate, e.DueDate,
		e.ReferenceSchedule, e.PreviousActionTimestamp)
	if err != nil {
		return fmt.Errorf("append schedule log entry for %s/%s: %w", e.EntityID, e.ScheduleName, err)
	}
	return nil
}

func (r *repoPG) ListByEntity(ctx context.Context, entityID, scheduleName string) ([]*Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, beneficiary_type, entity_id, instance_id, provider_id,
			schedule_name, milestone, status, start_date, due_date,
			reference_schedule, previous_action_timestamp, recorded_at
		FROM schedule_log
		WHERE entity_id = $1 AND schedule_name = $2
		ORDER BY recorded_at ASC`,
		entityID, scheduleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.BeneficiaryType, &e.EntityID, &e.InstanceID, &e.ProviderID,
			&e.ScheduleName, &e.Milestone, &e.Status, &e.StartDate, &e.DueDate,
			&e.ReferenceSchedule, &e.PreviousActionTimestamp, &e.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}
