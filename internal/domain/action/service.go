package action

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcare/mcare/internal/platform/telemetry"
)

// Service manages one-off alerts: notifications raised directly by a reported
// event (e.g. a missing birth immunization) rather than by the milestone
// cascade. Their only lifecycle is none -> upcoming -> closed.
type Service struct {
	repo    Repository
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

func NewService(repo Repository, metrics *telemetry.Metrics, logger zerolog.Logger) *Service {
	return &Service{repo: repo, metrics: metrics, logger: logger}
}

// RaiseAlert opens a one-off alert for the visit code. If an open alert
// already exists for the key the call is a no-op, keeping raise idempotent.
func (s *Service) RaiseAlert(ctx context.Context, entityID, providerID, visitCode string, due, expiry time.Time) error {
	current, err := s.repo.FindCurrent(ctx, entityID, providerID, visitCode)
	if err != nil {
		return fmt.Errorf("find current alert: %w", err)
	}
	if current != nil {
		return nil
	}

	a := &Action{
		EntityID:     entityID,
		ProviderID:   providerID,
		ScheduleName: visitCode,
		Milestone:    visitCode,
		Status:       StatusUpcoming,
		DueDate:      &due,
		ExpiryDate:   &expiry,
	}
	if _, err := s.repo.Upsert(ctx, a); err != nil {
		return fmt.Errorf("raise alert %s for %s: %w", visitCode, entityID, err)
	}

	s.metrics.AlertRaised(visitCode)
	s.logger.Info().
		Str("entity_id", entityID).
		Str("visit_code", visitCode).
		Time("due", due).
		Msg("one-off alert raised")
	return nil
}

// CloseAlert closes the open one-off alert for the visit code. Closing an
// absent or already-closed alert is a no-op, not an error.
func (s *Service) CloseAlert(ctx context.Context, entityID, providerID, visitCode string) error {
	current, err := s.repo.FindCurrent(ctx, entityID, providerID, visitCode)
	if err != nil {
		return fmt.Errorf("find current alert: %w", err)
	}
	if current == nil {
		return nil
	}

	if err := s.repo.Close(ctx, current.ID); err != nil {
		return fmt.Errorf("close alert %s for %s: %w", visitCode, entityID, err)
	}

	s.metrics.AlertClosed(visitCode)
	s.logger.Info().
		Str("entity_id", entityID).
		Str("visit_code", visitCode).
		Msg("one-off alert closed")
	return nil
}

// CloseAllForEntity closes every open alert the provider holds for the
// entity. Used by case-closure workflows.
func (s *Service) CloseAllForEntity(ctx context.Context, entityID, providerID string) error {
	if err := s.repo.CloseAllForEntity(ctx, entityID, providerID); err != nil {
		return fmt.Errorf("close alerts for %s: %w", entityID, err)
	}
	return nil
}

// History returns every alert record for the key, newest first.
func (s *Service) History(ctx context.Context, providerID, entityID, scheduleName string) ([]*Action, error) {
	return s.repo.FindAll(ctx, providerID, entityID, scheduleName)
}

// OpenAlerts returns a provider's open alerts ordered by due date.
func (s *Service) OpenAlerts(ctx context.Context, providerID string, limit, offset int) ([]*Action, int, error) {
	return s.repo.ListOpenByProvider(ctx, providerID, limit, offset)
}
