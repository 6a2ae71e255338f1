package mother

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcare/mcare/internal/domain/action"
	"github.com/mcare/mcare/internal/domain/enrollment"
	"github.com/mcare/mcare/internal/platform/rules"
)

// Enroller drives milestone enrollment for registered cases.
type Enroller interface {
	Enroll(ctx context.Context, req enrollment.EnrollRequest) error
	UnenrollAll(ctx context.Context, entityID string) error
}

// AlertCloser closes the open alerts a provider holds for an entity.
type AlertCloser interface {
	CloseAllForEntity(ctx context.Context, entityID, providerID string) error
}

// IndicatorRecorder evaluates reporting rules over visit fields.
type IndicatorRecorder interface {
	Evaluate(ctx context.Context, entityID, providerID string, fields rules.Fields) error
}

// Service runs the antenatal workflow: registration enrolls the case into the
// ANC schedule, each visit refreshes details and reporting indicators and
// re-evaluates the milestone, case closure tears everything down.
type Service struct {
	repo     Repository
	enroller Enroller
	alerts   AlertCloser
	reports  IndicatorRecorder
	schedule enrollment.Schedule
	logger   zerolog.Logger

	now func() time.Time
}

func NewService(repo Repository, enroller Enroller, alerts AlertCloser, reports IndicatorRecorder, schedule enrollment.Schedule, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		enroller: enroller,
		alerts:   alerts,
		reports:  reports,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Register persists the mother and enrolls her into the correct ANC
// milestone. A case with no usable reference date is stored but not enrolled.
func (s *Service) Register(ctx context.Context, m *Mother) error {
	if m.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}
	if m.ProviderID == "" {
		return fmt.Errorf("provider_id is required")
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("register mother %s: %w", m.CaseID, err)
	}
	s.logger.Info().Str("case_id", m.CaseID).Str("provider_id", m.ProviderID).Msg("mother registered")

	return s.enroll(ctx, m)
}

// ANCVisit records one antenatal visit: merge the reported fields into the
// case details, record reporting indicators and re-evaluate the milestone. A
// visit against an unregistered case is logged and skipped, never an error.
func (s *Service) ANCVisit(ctx context.Context, caseID, providerID string, fields map[string]string) error {
	m, err := s.repo.GetByCaseID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("find mother %s: %w", caseID, err)
	}
	if m == nil {
		s.logger.Warn().Str("case_id", caseID).Msg("anc visit for unregistered mother, skipping")
		return nil
	}

	m.MergeDetails(fields)
	if err := s.repo.Update(ctx, m); err != nil {
		return fmt.Errorf("update mother %s: %w", caseID, err)
	}

	if err := s.reports.Evaluate(ctx, caseID, providerID, rules.Fields(fields)); err != nil {
		return fmt.Errorf("record indicators for %s: %w", caseID, err)
	}

	return s.enroll(ctx, m)
}

// CloseCase ends the pregnancy case: every open alert the provider holds for
// it is closed, all schedule enrollments are removed and the record is
// flagged closed. Closing an unregistered case is logged and skipped.
func (s *Service) CloseCase(ctx context.Context, caseID, providerID string) error {
	m, err := s.repo.GetByCaseID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("find mother %s: %w", caseID, err)
	}
	if m == nil {
		s.logger.Warn().Str("case_id", caseID).Msg("close for unregistered mother, skipping")
		return nil
	}

	if err := s.alerts.CloseAllForEntity(ctx, caseID, providerID); err != nil {
		return err
	}
	if err := s.enroller.UnenrollAll(ctx, caseID); err != nil {
		return fmt.Errorf("unenroll mother %s: %w", caseID, err)
	}
	if err := s.repo.MarkClosed(ctx, caseID); err != nil {
		return fmt.Errorf("close mother %s: %w", caseID, err)
	}
	s.logger.Info().Str("case_id", caseID).Msg("mother case closed")
	return nil
}

// Get returns the mother record for the case, or (nil, nil) when absent.
func (s *Service) Get(ctx context.Context, caseID string) (*Mother, error) {
	return s.repo.GetByCaseID(ctx, caseID)
}

// List returns a provider's open cases.
func (s *Service) List(ctx context.Context, providerID string, limit, offset int) ([]*Mother, int, error) {
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}

func (s *Service) enroll(ctx context.Context, m *Mother) error {
	ref, ok := m.ReferenceDate()
	if !ok {
		s.logger.Warn().Str("case_id", m.CaseID).Msg("no reference date reported, skipping enrollment")
		return nil
	}
	return s.enroller.Enroll(ctx, enrollment.EnrollRequest{
		Schedule:        s.schedule,
		BeneficiaryType: action.BeneficiaryMother,
		EntityID:        m.CaseID,
		ProviderID:      m.ProviderID,
		InstanceID:      m.ID.String(),
		ReferenceDate:   ref,
		StartDate:       s.now().Format("2006-01-02"),
	})
}
