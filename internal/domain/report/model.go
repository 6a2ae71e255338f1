package report

import (
	"time"

	"github.com/google/uuid"
)

// Indicator names produced by rule evaluation.
const (
	IndicatorHomeDelivery = "D_HOM"
	IndicatorHypertension = "HYP"
	IndicatorPentavalent2 = "PENT2"
	IndicatorVitaminA3    = "VIT_A_3"
)

// Indicator is one reporting fact recorded for an entity when a rule matched
// the fields of a visit.
type Indicator struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	Indicator  string    `db:"indicator" json:"indicator"`
	ReportedOn string    `db:"reported_on" json:"reported_on"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Binding ties a rule name to the indicator recorded when the rule matches.
type Binding struct {
	Rule      string
	Indicator string
}
