package child

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const childCols = `id, case_id, mother_case_id, COALESCE(thayi_card_number, ''),
	COALESCE(name, ''), provider_id, date_of_birth, COALESCE(gender, ''),
	immunizations_given, details, is_closed, created_at, updated_at`

func scanChild(row pgx.Row) (*Child, error) {
	var c Child
	err := row.Scan(&c.ID, &c.CaseID, &c.MotherCaseID, &c.ThayiCardNumber,
		&c.Name, &c.ProviderID, &c.DateOfBirth, &c.Gender,
		&c.ImmunizationsGiven, &c.Details, &c.IsClosed, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Child) error {
	c.ID = uuid.New()
	if c.Details == nil {
		c.Details = map[string]string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO child (id, case_id, mother_case_id, thayi_card_number, name,
			provider_id, date_of_birth, gender, immunizations_given, details)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.CaseID, c.MotherCaseID, c.ThayiCardNumber, c.Name,
		c.ProviderID, c.DateOfBirth, c.Gender, c.ImmunizationsGiven, c.Details)
	return err
}

func (r *repoPG) GetByCaseID(ctx context.Context, caseID string) (*Child, error) {
	c, err := scanChild(r.pool.QueryRow(ctx,
		`SELECT `+childCols+` FROM child WHERE case_id = $1`, caseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) Update(ctx context.Context, c *Child) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE child SET thayi_card_number = $2, name = $3, date_of_birth = $4,
			gender = $5, immunizations_given = $6, details = $7, updated_at = NOW()
		WHERE case_id = $1`,
		c.CaseID, c.ThayiCardNumber, c.Name, c.DateOfBirth,
		c.Gender, c.ImmunizationsGiven, c.Details)
	return err
}

func (r *repoPG) MarkClosed(ctx context.Context, caseID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE child SET is_closed = TRUE, updated_at = NOW()
		WHERE case_id = $1 AND NOT is_closed`, caseID)
	return err
}

func (r *repoPG) ListByMother(ctx context.Context, motherCaseID string) ([]*Child, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+childCols+` FROM child
		WHERE mother_case_id = $1 ORDER BY created_at`, motherCaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
