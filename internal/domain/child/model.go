package child

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Child is one registered child case, linked to its mother's case.
type Child struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	CaseID             string            `db:"case_id" json:"case_id"`
	MotherCaseID       string            `db:"mother_case_id" json:"mother_case_id"`
	ThayiCardNumber    string            `db:"thayi_card_number" json:"thayi_card_number,omitempty"`
	Name               string            `db:"name" json:"name,omitempty"`
	ProviderID         string            `db:"provider_id" json:"provider_id"`
	DateOfBirth        *time.Time        `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender             string            `db:"gender" json:"gender,omitempty"`
	ImmunizationsGiven string            `db:"immunizations_given" json:"immunizations_given"`
	Details            map[string]string `db:"details" json:"details,omitempty"`
	IsClosed           bool              `db:"is_closed" json:"is_closed"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// IsImmunizationGiven reports whether the immunization code appears in the
// space-separated list of immunizations reported for the child.
func (c *Child) IsImmunizationGiven(code string) bool {
	for _, got := range strings.Fields(c.ImmunizationsGiven) {
		if strings.EqualFold(got, code) {
			return true
		}
	}
	return false
}

// BirthImmunization pairs an immunization code with the visit code its
// missing-at-birth alert is raised under.
type BirthImmunization struct {
	Code      string
	VisitCode string
}

// BirthImmunizations are the doses expected at birth. A child registered
// without one of these gets an alert due two days after birth.
func BirthImmunizations() []BirthImmunization {
	return []BirthImmunization{
		{Code: "opv_0", VisitCode: "OPV 0"},
		{Code: "bcg", VisitCode: "BCG"},
		{Code: "hepb_0", VisitCode: "HEP B0"},
	}
}

// ChildSchedules are the recurring immunization programs a child is enrolled
// into at registration, referenced from the date of birth.
func ChildSchedules() []string {
	return []string{"BCG", "OPV", "Pentavalent", "Measles"}
}

// ScheduleForImmunization maps an immunization code to the program it
// satisfies, or "" when no program covers it.
func ScheduleForImmunization(code string) string {
	code = strings.ToLower(code)
	switch {
	case code == "bcg":
		return "BCG"
	case strings.HasPrefix(code, "opv"):
		return "OPV"
	case strings.HasPrefix(code, "pentavalent"):
		return "Pentavalent"
	case strings.HasPrefix(code, "measles"):
		return "Measles"
	}
	return ""
}
