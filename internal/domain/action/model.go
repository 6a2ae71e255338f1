package action

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an alert record.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusDue      Status = "due"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusDue, StatusClosed:
		return true
	}
	return false
}

// BeneficiaryType identifies which register an entity belongs to.
type BeneficiaryType string

const (
	BeneficiaryMother BeneficiaryType = "mother"
	BeneficiaryChild  BeneficiaryType = "child"
)

// Action is the current alert state for one (entity, provider, schedule)
// tuple. At most one non-closed Action exists per tuple at any time. A
// milestone change never rewrites an Action in place; the coordinator closes
// the old record and writes a new one, so closed rows form the per-key
// history.
type Action struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	EntityID     string     `db:"entity_id" json:"entity_id"`
	ProviderID   string     `db:"provider_id" json:"provider_id"`
	ScheduleName string     `db:"schedule_name" json:"schedule_name"`
	Milestone    string     `db:"milestone" json:"milestone"`
	Status       Status     `db:"status" json:"status"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	DueDate      *time.Time `db:"due_date" json:"due_date,omitempty"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	Revision     int        `db:"revision" json:"revision"`
	// Timestamp is assigned by the store on insert (milliseconds since the
	// epoch) and is the record's identity for schedule-log cross references.
	Timestamp int64     `db:"timestamp_ms" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Open reports whether the record is still active.
func (a *Action) Open() bool { return a.Status != StatusClosed }
