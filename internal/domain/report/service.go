package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcare/mcare/internal/platform/rules"
)

// Service evaluates rule bindings against the field bag reported with a visit
// and records an indicator row for every rule that matches.
type Service struct {
	repo     Repository
	registry *rules.Registry
	bindings []Binding
	logger   zerolog.Logger

	now func() time.Time
}

// DefaultBindings covers the built-in rules.
func DefaultBindings() []Binding {
	return []Binding{
		{Rule: rules.DeliveryHappenedAtHome, Indicator: IndicatorHomeDelivery},
		{Rule: rules.HypertensionDetectedFirstTime, Indicator: IndicatorHypertension},
		{Rule: rules.Pentavalent2Given, Indicator: IndicatorPentavalent2},
		{Rule: rules.VitaminA3DoseGiven, Indicator: IndicatorVitaminA3},
	}
}

func NewService(repo Repository, registry *rules.Registry, bindings []Binding, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		bindings: bindings,
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate runs every binding's rule over the fields and appends an indicator
// for each match. An unknown rule name is a configuration error and fails the
// call; rule evaluation itself cannot fail.
func (s *Service) Evaluate(ctx context.Context, entityID, providerID string, fields rules.Fields) error {
	reportedOn := s.now().Format("2006-01-02")
	for _, b := range s.bindings {
		rule, err := s.registry.Lookup(b.Rule)
		if err != nil {
			return fmt.Errorf("binding for indicator %s: %w", b.Indicator, err)
		}
		if !rule(fields) {
			continue
		}
		ind := &Indicator{
			EntityID:   entityID,
			ProviderID: providerID,
			Indicator:  b.Indicator,
			ReportedOn: reportedOn,
		}
		if err := s.repo.Append(ctx, ind); err != nil {
			return err
		}
		s.logger.Info().
			Str("entity_id", entityID).
			Str("indicator", b.Indicator).
			Msg("report indicator recorded")
	}
	return nil
}

// Indicators returns the indicators recorded for an entity.
func (s *Service) Indicators(ctx context.Context, entityID string) ([]*Indicator, error) {
	return s.repo.ListByEntity(ctx, entityID)
}
