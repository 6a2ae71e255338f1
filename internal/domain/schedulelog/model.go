// Package schedulelog is the append-only audit trail of alert transitions.
// The action store reflects only current state; these entries are the
// system's sole source of historical truth, so they are never mutated or
// deleted and a failed append always propagates to the caller.
package schedulelog

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcare/mcare/internal/domain/action"
)

// Entry records one alert transition (an open or a close).
type Entry struct {
	ID              uuid.UUID              `db:"id" json:"id"`
	BeneficiaryType action.BeneficiaryType `db:"beneficiary_type" json:"beneficiary_type"`
	EntityID        string                 `db:"entity_id" json:"entity_id"`
	InstanceID      string                 `db:"instance_id" json:"instance_id"`
	ProviderID      string                 `db:"provider_id" json:"provider_id"`
	ScheduleName    string                 `db:"schedule_name" json:"schedule_name"`
	Milestone       string                 `db:"milestone" json:"milestone"`
	Status          action.Status          `db:"status" json:"status"`
	StartDate       *time.Time             `db:"start_date" json:"start_date,omitempty"`
	DueDate         *time.Time             `db:"due_date" json:"due_date,omitempty"`
	// ReferenceSchedule names the schedule whose enrollment triggered this
	// transition; usually the same as ScheduleName.
	ReferenceSchedule string `db:"reference_schedule" json:"reference_schedule"`
	// PreviousActionTimestamp links to the Action this transition superseded;
	// zero when the entry opens the first Action for its key.
	PreviousActionTimestamp int64     `db:"previous_action_timestamp" json:"previous_action_timestamp"`
	RecordedAt              time.Time `db:"recorded_at" json:"recorded_at"`
}
