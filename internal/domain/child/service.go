package child

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcare/mcare/internal/domain/mother"
)

const (
	// birthAlertDueDays is how long after birth a missing birth dose
	// becomes due; birthAlertWindowDays how long the alert stays live.
	birthAlertDueDays    = 2
	birthAlertWindowDays = 7

	dateLayout = "2006-01-02"
)

// MotherRegistry looks up the mother a child is registered under.
type MotherRegistry interface {
	Get(ctx context.Context, caseID string) (*mother.Mother, error)
}

// AlertService raises and closes one-off alerts.
type AlertService interface {
	RaiseAlert(ctx context.Context, entityID, providerID, visitCode string, due, expiry time.Time) error
	CloseAlert(ctx context.Context, entityID, providerID, visitCode string) error
	CloseAllForEntity(ctx context.Context, entityID, providerID string) error
}

// CalendarScheduler mirrors the enrollment package's scheduler contract for
// the recurring child immunization programs.
type CalendarScheduler interface {
	EnrollIntoSchedule(ctx context.Context, entityID, scheduleName, milestone, referenceDate string) error
	UnenrollFromSchedule(ctx context.Context, entityID, providerID, scheduleName string) error
	UnenrollFromAllSchedules(ctx context.Context, entityID string) error
}

// Service runs the child workflow: registration checks the mother exists,
// raises alerts for birth doses not yet given and enrolls the child into the
// immunization programs; immunization updates close the satisfied alerts.
type Service struct {
	repo     Repository
	mothers  MotherRegistry
	alerts   AlertService
	calendar CalendarScheduler
	logger   zerolog.Logger
}

func NewService(repo Repository, mothers MotherRegistry, alerts AlertService, calendar CalendarScheduler, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		mothers:  mothers,
		alerts:   alerts,
		calendar: calendar,
		logger:   logger,
	}
}

// Register persists the child, raises an alert for every birth immunization
// not reported given and enrolls the child into the recurring programs.
// Registration against an unregistered mother is logged and skipped.
func (s *Service) Register(ctx context.Context, c *Child) error {
	if c.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}
	if c.MotherCaseID == "" {
		return fmt.Errorf("mother_case_id is required")
	}
	if c.ProviderID == "" {
		return fmt.Errorf("provider_id is required")
	}

	m, err := s.mothers.Get(ctx, c.MotherCaseID)
	if err != nil {
		return fmt.Errorf("find mother %s: %w", c.MotherCaseID, err)
	}
	if m == nil {
		s.logger.Warn().
			Str("case_id", c.CaseID).
			Str("mother_case_id", c.MotherCaseID).
			Msg("child registration for unregistered mother, skipping")
		return nil
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("register child %s: %w", c.CaseID, err)
	}
	s.logger.Info().Str("case_id", c.CaseID).Str("provider_id", c.ProviderID).Msg("child registered")

	if c.DateOfBirth == nil {
		s.logger.Warn().Str("case_id", c.CaseID).Msg("no date of birth reported, skipping birth alerts")
		return nil
	}

	if err := s.raiseBirthAlerts(ctx, c); err != nil {
		return err
	}
	return s.enrollSchedules(ctx, c)
}

// UpdateImmunizations records newly reported doses: the child's given list is
// replaced, the one-off alert for each newly given birth dose is closed
// (idempotently) and the satisfied program enrollments are removed. An update
// for an unregistered child is logged and skipped.
func (s *Service) UpdateImmunizations(ctx context.Context, caseID, providerID, immunizationsGiven string) error {
	c, err := s.repo.GetByCaseID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("find child %s: %w", caseID, err)
	}
	if c == nil {
		s.logger.Warn().Str("case_id", caseID).Msg("immunization update for unregistered child, skipping")
		return nil
	}

	previous := c.ImmunizationsGiven
	c.ImmunizationsGiven = immunizationsGiven
	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("update child %s: %w", caseID, err)
	}

	for _, code := range newlyGiven(previous, immunizationsGiven) {
		for _, bi := range BirthImmunizations() {
			if strings.EqualFold(bi.Code, code) {
				if err := s.alerts.CloseAlert(ctx, caseID, providerID, bi.VisitCode); err != nil {
					return err
				}
			}
		}
		if sched := ScheduleForImmunization(code); sched != "" {
			if err := s.calendar.UnenrollFromSchedule(ctx, caseID, providerID, sched); err != nil {
				return fmt.Errorf("unenroll %s from %s: %w", caseID, sched, err)
			}
		}
	}
	return nil
}

// CloseCase ends the child case: every open alert the provider holds for it
// is closed, all program enrollments are removed and the record is flagged
// closed. Closing an unregistered case is logged and skipped.
func (s *Service) CloseCase(ctx context.Context, caseID, providerID string) error {
	c, err := s.repo.GetByCaseID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("find child %s: %w", caseID, err)
	}
	if c == nil {
		s.logger.Warn().Str("case_id", caseID).Msg("close for unregistered child, skipping")
		return nil
	}

	if err := s.alerts.CloseAllForEntity(ctx, caseID, providerID); err != nil {
		return err
	}
	if err := s.calendar.UnenrollFromAllSchedules(ctx, caseID); err != nil {
		return fmt.Errorf("unenroll child %s: %w", caseID, err)
	}
	if err := s.repo.MarkClosed(ctx, caseID); err != nil {
		return fmt.Errorf("close child %s: %w", caseID, err)
	}
	s.logger.Info().Str("case_id", caseID).Msg("child case closed")
	return nil
}

// Get returns the child record for the case, or (nil, nil) when absent.
func (s *Service) Get(ctx context.Context, caseID string) (*Child, error) {
	return s.repo.GetByCaseID(ctx, caseID)
}

// Siblings returns the children registered under a mother's case.
func (s *Service) Siblings(ctx context.Context, motherCaseID string) ([]*Child, error) {
	return s.repo.ListByMother(ctx, motherCaseID)
}

func (s *Service) raiseBirthAlerts(ctx context.Context, c *Child) error {
	due := c.DateOfBirth.AddDate(0, 0, birthAlertDueDays)
	expiry := due.AddDate(0, 0, birthAlertWindowDays)
	for _, bi := range BirthImmunizations() {
		if c.IsImmunizationGiven(bi.Code) {
			continue
		}
		if err := s.alerts.RaiseAlert(ctx, c.CaseID, c.ProviderID, bi.VisitCode, due, expiry); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enrollSchedules(ctx context.Context, c *Child) error {
	ref := c.DateOfBirth.Format(dateLayout)
	for _, sched := range ChildSchedules() {
		if err := s.calendar.EnrollIntoSchedule(ctx, c.CaseID, sched, "", ref); err != nil {
			return fmt.Errorf("enroll %s into %s: %w", c.CaseID, sched, err)
		}
	}
	return nil
}

// newlyGiven returns the codes present in the current space-separated list
// but absent from the previous one.
func newlyGiven(previous, current string) []string {
	seen := make(map[string]bool)
	for _, code := range strings.Fields(previous) {
		seen[strings.ToLower(code)] = true
	}
	var out []string
	for _, code := range strings.Fields(current) {
		if !seen[strings.ToLower(code)] {
			out = append(out, code)
		}
	}
	return out
}
