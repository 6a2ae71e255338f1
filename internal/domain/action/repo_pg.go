package action

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const actionCols = `id, entity_id, provider_id, schedule_name, milestone, status,
	start_date, due_date, expiry_date, revision, timestamp_ms, created_at`

func scanAction(row pgx.Row) (*Action, error) {
	var a Action
	err := row.Scan(&a.ID, &a.EntityID, &a.ProviderID, &a.ScheduleName, &a.Milestone, &a.Status,
		&a.StartDate, &a.DueDate, &a.ExpiryDate, &a.Revision, &a.Timestamp, &a.CreatedAt)
	return &a, err
}

func (r *repoPG) FindCurrent(ctx context.Context, entityID, providerID, scheduleName string) (*Action, error) {
	a, err := scanAction(r.pool.QueryRow(ctx, `
		SELECT `+actionCols+` FROM action
		WHERE entity_id = $1 AND provider_id = $2 AND schedule_name = $3 AND status <> 'closed'`,
		entityID, providerID, scheduleName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) Upsert(ctx context.Context, a *Action) (*Action, error) {
	a.ID = uuid.New()
	a.Revision = 1
	a.Timestamp = time.Now().UnixMilli()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO action (id, entity_id, provider_id, schedule_name, milestone, status,
			start_date, due_date, expiry_date, revision, timestamp_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.EntityID, a.ProviderID, a.ScheduleName, a.Milestone, a.Status,
		a.StartDate, a.DueDate, a.ExpiryDate, a.Revision, a.Timestamp)
	if err != nil {
		// The partial unique index on non-closed rows rejects a second open
		// alert for the same key.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}

	return scanAction(r.pool.QueryRow(ctx, `SELECT `+actionCols+` FROM action WHERE id = $1`, a.ID))
}

func (r *repoPG) FindAll(ctx context.Context, providerID, entityID, scheduleName string) ([]*Action, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+actionCols+` FROM action
		WHERE provider_id = $1 AND entity_id = $2 AND schedule_name = $3
		ORDER BY timestamp_ms DESC`,
		providerID, entityID, scheduleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Close(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE action SET status = 'closed', revision = revision + 1
		WHERE id = $1 AND status <> 'closed'`, id)
	return err
}

func (r *repoPG) CloseAllForEntity(ctx context.Context, entityID, providerID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE action SET status = 'closed', revision = revision + 1
		WHERE entity_id = $1 AND provider_id = $2 AND status <> 'closed'`,
		entityID, providerID)
	return err
}

func (r *repoPG) ListOpenByProvider(ctx context.Context, providerID string, limit, offset int) ([]*Action, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM action WHERE provider_id = $1 AND status <> 'closed'`,
		providerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+actionCols+` FROM action
		WHERE provider_id = $1 AND status <> 'closed'
		ORDER BY due_date ASC NULLS LAST LIMIT $2 OFFSET $3`,
		providerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
