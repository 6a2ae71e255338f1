package mother

import (
	"time"

	"github.com/google/uuid"
)

// gestationDays is the nominal pregnancy length used to derive the last
// menstrual period from an expected delivery date when only the latter was
// reported.
const gestationDays = 280

// Mother is one registered pregnancy case.
type Mother struct {
	ID                   uuid.UUID         `db:"id" json:"id"`
	CaseID               string            `db:"case_id" json:"case_id"`
	ECCaseID             string            `db:"ec_case_id" json:"ec_case_id,omitempty"`
	ThayiCardNumber      string            `db:"thayi_card_number" json:"thayi_card_number,omitempty"`
	ProviderID           string            `db:"provider_id" json:"provider_id"`
	LastMenstrualPeriod  *time.Time        `db:"last_menstrual_period" json:"last_menstrual_period,omitempty"`
	ExpectedDeliveryDate *time.Time        `db:"expected_delivery_date" json:"expected_delivery_date,omitempty"`
	Details              map[string]string `db:"details" json:"details,omitempty"`
	IsClosed             bool              `db:"is_closed" json:"is_closed"`
	CreatedAt            time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updated_at"`
}

// ReferenceDate returns the date antenatal milestone windows are measured
// from: the last menstrual period when reported, otherwise 280 days before
// the expected delivery date. ok is false when neither date is known.
func (m *Mother) ReferenceDate() (time.Time, bool) {
	if m.LastMenstrualPeriod != nil {
		return *m.LastMenstrualPeriod, true
	}
	if m.ExpectedDeliveryDate != nil {
		return m.ExpectedDeliveryDate.AddDate(0, 0, -gestationDays), true
	}
	return time.Time{}, false
}

// MergeDetails folds newly reported form fields into the stored details,
// newer values winning.
func (m *Mother) MergeDetails(fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	if m.Details == nil {
		m.Details = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		m.Details[k] = v
	}
}
