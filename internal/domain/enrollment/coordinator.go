package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcare/mcare/internal/domain/action"
	"github.com/mcare/mcare/internal/domain/schedulelog"
	"github.com/mcare/mcare/internal/platform/telemetry"
)

// maxEnrollAttempts bounds retries when concurrent writers race on the
// action store.
const maxEnrollAttempts = 3

// startDateLayout is the ISO calendar date format for enroll start dates.
const startDateLayout = "2006-01-02"

// ActionStore is the alert-record collaborator consumed by the coordinator.
type ActionStore interface {
	FindCurrent(ctx context.Context, entityID, providerID, scheduleName string) (*action.Action, error)
	Upsert(ctx context.Context, a *action.Action) (*action.Action, error)
	Close(ctx context.Context, id uuid.UUID) error
}

// TransitionLog is the append-only audit sink.
type TransitionLog interface {
	Append(ctx context.Context, e *schedulelog.Entry) error
}

// CalendarScheduler is the external scheduler that fires alerts at wall-clock
// time. It is informed about milestone changes, never consulted.
type CalendarScheduler interface {
	EnrollIntoSchedule(ctx context.Context, entityID, scheduleName, milestone, referenceDate string) error
	UnenrollFromSchedule(ctx context.Context, entityID, providerID, scheduleName string) error
	UnenrollFromAllSchedules(ctx context.Context, entityID string) error
}

// EnrollRequest carries one enrollment of an entity into a schedule.
type EnrollRequest struct {
	Schedule        Schedule
	BeneficiaryType action.BeneficiaryType
	EntityID        string
	ProviderID      string
	InstanceID      string
	ReferenceDate   time.Time
	// StartDate is the caller-supplied ISO calendar date the alert window
	// opens on. An unparseable value fails the enrollment before any store
	// write.
	StartDate string
}

// Coordinator owns the write path to actions and schedule log entries. It
// serializes the close-then-open sequence per (entity, provider, schedule)
// key so that at most one non-closed action ever exists for a key.
type Coordinator struct {
	store    ActionStore
	log      TransitionLog
	calendar CalendarScheduler
	metrics  *telemetry.Metrics
	logger   zerolog.Logger

	// now is swappable for tests.
	now func() time.Time

	locks sync.Map // "entity|provider|schedule" -> *sync.Mutex
}

func NewCoordinator(store ActionStore, log TransitionLog, calendar CalendarScheduler, metrics *telemetry.Metrics, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		log:      log,
		calendar: calendar,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *Coordinator) lock(entityID, providerID, scheduleName string) *sync.Mutex {
	key := entityID + "|" + providerID + "|" + scheduleName
	mu, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Enroll places the entity into the correct milestone of the schedule. If an
// alert is already active for the key it is closed first, and both
// transitions are written to the schedule log. When no milestone window
// matches the reference date the call is a warn-logged no-op.
func (c *Coordinator) Enroll(ctx context.Context, req EnrollRequest) error {
	start, err := time.Parse(startDateLayout, req.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start date %q: %v", ErrMalformedScheduleInput, req.StartDate, err)
	}

	now := c.now()
	stage, ok := req.Schedule.Resolve(req.ReferenceDate, now)
	if !ok {
		c.logger.Warn().
			Str("entity_id", req.EntityID).
			Str("schedule", req.Schedule.Name).
			Time("reference_date", req.ReferenceDate).
			Msg("no applicable milestone, skipping enrollment")
		return nil
	}

	mu := c.lock(req.EntityID, req.ProviderID, req.Schedule.Name)
	mu.Lock()
	defer mu.Unlock()

	c.logger.Info().
		Str("entity_id", req.EntityID).
		Str("schedule", req.Schedule.Name).
		Str("milestone", stage.Milestone).
		Msg("enrolling into schedule milestone")

	dueDate := now.Add(time.Duration(stage.NominalHours) * time.Hour)

	var lastErr error
	for attempt := 0; attempt < maxEnrollAttempts; attempt++ {
		err := c.replaceCurrent(ctx, req, stage, start, dueDate)
		if err == nil {
			lastErr = nil
			break
		}
		if !errors.Is(err, action.ErrConflict) {
			return err
		}
		c.metrics.StoreConflict()
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("%w: enroll %s into %s: %v", ErrStoreConflict, req.EntityID, req.Schedule.Name, lastErr)
	}

	c.metrics.EnrollmentPerformed(req.Schedule.Name, stage.Milestone)

	if err := c.calendar.EnrollIntoSchedule(ctx, req.EntityID, req.Schedule.Name, stage.Milestone, req.ReferenceDate.Format(startDateLayout)); err != nil {
		return fmt.Errorf("calendar enroll %s into %s: %w", req.EntityID, req.Schedule.Name, err)
	}
	return nil
}

// replaceCurrent performs one close-then-open attempt: close the active
// action (audited), insert the replacement, re-read it for its
// store-assigned timestamp and audit the open. Runs under the per-key lock.
func (c *Coordinator) replaceCurrent(ctx context.Context, req EnrollRequest, stage Stage, start, dueDate time.Time) error {
	prev, err := c.store.FindCurrent(ctx, req.EntityID, req.ProviderID, req.Schedule.Name)
	if err != nil {
		return fmt.Errorf("find current action: %w", err)
	}

	var prevTimestamp int64
	if prev != nil {
		prevTimestamp = prev.Timestamp
		closing := &schedulelog.Entry{
			BeneficiaryType:         req.BeneficiaryType,
			EntityID:                req.EntityID,
			InstanceID:              req.InstanceID,
			ProviderID:              req.ProviderID,
			ScheduleName:            req.Schedule.Name,
			Milestone:               prev.Milestone,
			Status:                  action.StatusClosed,
			StartDate:               prev.StartDate,
			DueDate:                 prev.DueDate,
			ReferenceSchedule:       req.Schedule.Name,
			PreviousActionTimestamp: prev.Timestamp,
		}
		if err := c.log.Append(ctx, closing); err != nil {
			c.metrics.AuditWriteError()
			return fmt.Errorf("%w: close transition for %s: %v", ErrLogWriteFailure, req.EntityID, err)
		}
		if err := c.store.Close(ctx, prev.ID); err != nil {
			return fmt.Errorf("close action %s: %w", prev.ID, err)
		}
		c.metrics.AlertClosed(req.Schedule.Name)
	}

	next := &action.Action{
		EntityID:     req.EntityID,
		ProviderID:   req.ProviderID,
		ScheduleName: req.Schedule.Name,
		Milestone:    stage.Milestone,
		Status:       action.StatusUpcoming,
		StartDate:    &start,
		DueDate:      &dueDate,
	}
	if _, err := c.store.Upsert(ctx, next); err != nil {
		return err
	}

	// Re-read the stored record so the audit entry carries the
	// store-assigned timestamp, not a locally computed one.
	written, err := c.store.FindCurrent(ctx, req.EntityID, req.ProviderID, req.Schedule.Name)
	if err != nil {
		return fmt.Errorf("re-read written action: %w", err)
	}
	if written == nil {
		return fmt.Errorf("re-read written action for %s/%s: record vanished", req.EntityID, req.Schedule.Name)
	}

	opening := &schedulelog.Entry{
		BeneficiaryType:         req.BeneficiaryType,
		EntityID:                req.EntityID,
		InstanceID:              req.InstanceID,
		ProviderID:              req.ProviderID,
		ScheduleName:            req.Schedule.Name,
		Milestone:               stage.Milestone,
		Status:                  action.StatusUpcoming,
		StartDate:               written.StartDate,
		DueDate:                 written.DueDate,
		ReferenceSchedule:       req.Schedule.Name,
		PreviousActionTimestamp: prevTimestamp,
	}
	if err := c.log.Append(ctx, opening); err != nil {
		c.metrics.AuditWriteError()
		return fmt.Errorf("%w: open transition for %s: %v", ErrLogWriteFailure, req.EntityID, err)
	}

	c.metrics.AlertRaised(req.Schedule.Name)
	return nil
}

// Unenroll removes the entity's future alerts for one schedule from the
// calendar scheduler. Action store history is left untouched; closure of
// individual actions is an explicit case-closure operation.
func (c *Coordinator) Unenroll(ctx context.Context, entityID, providerID, scheduleName string) error {
	c.logger.Info().
		Str("entity_id", entityID).
		Str("schedule", scheduleName).
		Msg("unenrolling from schedule")
	return c.calendar.UnenrollFromSchedule(ctx, entityID, providerID, scheduleName)
}

// UnenrollAll removes every future alert for the entity from the calendar
// scheduler. Same non-rewriting note as Unenroll.
func (c *Coordinator) UnenrollAll(ctx context.Context, entityID string) error {
	c.logger.Info().Str("entity_id", entityID).Msg("unenrolling from all schedules")
	return c.calendar.UnenrollFromAllSchedules(ctx, entityID)
}
