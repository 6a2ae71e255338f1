package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) Append(ctx context.Context, ind *Indicator) error {
	ind.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO report_indicator (id, entity_id, provider_id, indicator, reported_on)
		VALUES ($1, $2, $3, $4, $5)`,
		ind.ID, ind.EntityID, ind.ProviderID, ind.Indicator, ind.ReportedOn)
	if err != nil {
		return fmt.Errorf("append indicator %s for %s: %w", ind.Indicator, ind.EntityID, err)
	}
	return nil
}

func (r *repoPG) ListByEntity(ctx context.Context, entityID string) ([]*Indicator, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_id, provider_id, indicator, reported_on::text, created_at
		FROM report_indicator WHERE entity_id = $1 ORDER BY created_at DESC`,
		entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Indicator
	for rows.Next() {
		var ind Indicator
		if err := rows.Scan(&ind.ID, &ind.EntityID, &ind.ProviderID,
			&ind.Indicator, &ind.ReportedOn, &ind.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &ind)
	}
	return items, rows.Err()
}
