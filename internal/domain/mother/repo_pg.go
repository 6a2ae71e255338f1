package mother

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const motherCols = `id, case_id, COALESCE(ec_case_id, ''), COALESCE(thayi_card_number, ''),
	provider_id, last_menstrual_period, expected_delivery_date, details, is_closed,
	created_at, updated_at`

func scanMother(row pgx.Row) (*Mother, error) {
	var m Mother
	err := row.Scan(&m.ID, &m.CaseID, &m.ECCaseID, &m.ThayiCardNumber,
		&m.ProviderID, &m.LastMenstrualPeriod, &m.ExpectedDeliveryDate, &m.Details,
		&m.IsClosed, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Mother) error {
	m.ID = uuid.New()
	if m.Details == nil {
		m.Details = map[string]string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mother (id, case_id, ec_case_id, thayi_card_number, provider_id,
			last_menstrual_period, expected_delivery_date, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.CaseID, m.ECCaseID, m.ThayiCardNumber, m.ProviderID,
		m.LastMenstrualPeriod, m.ExpectedDeliveryDate, m.Details)
	return err
}

func (r *repoPG) GetByCaseID(ctx context.Context, caseID string) (*Mother, error) {
	m, err := scanMother(r.pool.QueryRow(ctx,
		`SELECT `+motherCols+` FROM mother WHERE case_id = $1`, caseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) Update(ctx context.Context, m *Mother) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mother SET ec_case_id = $2, thayi_card_number = $3,
			last_menstrual_period = $4, expected_delivery_date = $5,
			details = $6, updated_at = NOW()
		WHERE case_id = $1`,
		m.CaseID, m.ECCaseID, m.ThayiCardNumber,
		m.LastMenstrualPeriod, m.ExpectedDeliveryDate, m.Details)
	return err
}

func (r *repoPG) MarkClosed(ctx context.Context, caseID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mother SET is_closed = TRUE, updated_at = NOW()
		WHERE case_id = $1 AND NOT is_closed`, caseID)
	return err
}

func (r *repoPG) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*Mother, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mother WHERE provider_id = $1 AND NOT is_closed`,
		providerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+motherCols+` FROM mother
		WHERE provider_id = $1 AND NOT is_closed
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		providerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Mother
	for rows.Next() {
		m, err := scanMother(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
