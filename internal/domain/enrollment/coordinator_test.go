package enrollment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mcare/mcare/internal/domain/action"
	"github.com/mcare/mcare/internal/domain/schedulelog"
)

// -- Mock collaborators --

type mockStore struct {
	mu      sync.Mutex
	actions map[uuid.UUID]*action.Action
	nextTS  int64

	failUpserts int // number of leading Upsert calls to reject with ErrConflict
}

func newMockStore() *mockStore {
	return &mockStore{actions: make(map[uuid.UUID]*action.Action), nextTS: 1000}
}

func (m *mockStore) FindCurrent(_ context.Context, entityID, providerID, scheduleName string) (*action.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actions {
		if a.EntityID == entityID && a.ProviderID == providerID && a.ScheduleName == scheduleName && a.Open() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) Upsert(_ context.Context, a *action.Action) (*action.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpserts > 0 {
		m.failUpserts--
		return nil, action.ErrConflict
	}
	for _, existing := range m.actions {
		if existing.EntityID == a.EntityID && existing.ProviderID == a.ProviderID &&
			existing.ScheduleName == a.ScheduleName && existing.Open() {
			return nil, action.ErrConflict
		}
	}
	a.ID = uuid.New()
	a.Revision = 1
	m.nextTS++
	a.Timestamp = m.nextTS
	a.CreatedAt = time.Now()
	m.actions[a.ID] = a
	return a, nil
}

func (m *mockStore) Close(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.actions[id]; ok && a.Open() {
		a.Status = action.StatusClosed
		a.Revision++
	}
	return nil
}

func (m *mockStore) open() []*action.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*action.Action
	for _, a := range m.actions {
		if a.Open() {
			out = append(out, a)
		}
	}
	return out
}

type mockLog struct {
	mu      sync.Mutex
	entries []*schedulelog.Entry
	failing bool
}

func (m *mockLog) Append(_ context.Context, e *schedulelog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("sink unavailable")
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockLog) all() []*schedulelog.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*schedulelog.Entry(nil), m.entries...)
}

type mockCalendar struct {
	mu         sync.Mutex
	enrolled   []string // "entity|schedule|milestone"
	unenrolled []string
}

func (m *mockCalendar) EnrollIntoSchedule(_ context.Context, entityID, scheduleName, milestone, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrolled = append(m.enrolled, entityID+"|"+scheduleName+"|"+milestone)
	return nil
}

func (m *mockCalendar) UnenrollFromSchedule(_ context.Context, entityID, providerID, scheduleName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unenrolled = append(m.unenrolled, entityID+"|"+scheduleName)
	return nil
}

func (m *mockCalendar) UnenrollFromAllSchedules(_ context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unenrolled = append(m.unenrolled, entityID+"|*")
	return nil
}

// -- Fixtures --

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestCoordinator(store ActionStore, log TransitionLog, cal CalendarScheduler) *Coordinator {
	c := NewCoordinator(store, log, cal, nil, zerolog.Nop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func ancRequest(daysBeforeNow int) EnrollRequest {
	return EnrollRequest{
		Schedule:        ANCSchedule(168, 168, 168, 96),
		BeneficiaryType: action.BeneficiaryMother,
		EntityID:        "case-1",
		ProviderID:      "anm-9",
		InstanceID:      "v1",
		ReferenceDate:   fixedNow.AddDate(0, 0, -daysBeforeNow),
		StartDate:       fixedNow.Format("2006-01-02"),
	}
}

// -- Tests --

func TestEnroll_FirstEnrollmentOpensANC1(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)

	if err := coord.Enroll(context.Background(), ancRequest(100)); err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	open := store.open()
	if len(open) != 1 {
		t.Fatalf("open actions = %d, want 1", len(open))
	}
	got := open[0]
	if got.Milestone != "ANC 1" {
		t.Errorf("milestone = %q, want ANC 1", got.Milestone)
	}
	if got.Status != action.StatusUpcoming {
		t.Errorf("status = %v, want upcoming", got.Status)
	}
	wantDue := fixedNow.Add(168 * time.Hour)
	if !got.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", got.DueDate, wantDue)
	}

	entries := log.all()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	if entries[0].PreviousActionTimestamp != 0 {
		t.Errorf("previous action timestamp = %d, want 0 on first open", entries[0].PreviousActionTimestamp)
	}
	if entries[0].Status != action.StatusUpcoming || entries[0].Milestone != "ANC 1" {
		t.Errorf("opening entry = %+v", entries[0])
	}

	if len(cal.enrolled) != 1 || cal.enrolled[0] != "case-1|ANC|ANC 1" {
		t.Errorf("calendar enrollments = %v", cal.enrolled)
	}
}

func TestEnroll_MilestoneChangeClosesPrior(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)
	ctx := context.Background()

	if err := coord.Enroll(ctx, ancRequest(100)); err != nil { // ANC 1
		t.Fatal(err)
	}
	firstOpen := store.open()[0]
	firstTS := firstOpen.Timestamp

	if err := coord.Enroll(ctx, ancRequest(200)); err != nil { // ANC 2
		t.Fatal(err)
	}

	open := store.open()
	if len(open) != 1 {
		t.Fatalf("open actions = %d, want 1 after milestone change", len(open))
	}
	if open[0].Milestone != "ANC 2" {
		t.Errorf("current milestone = %q, want ANC 2", open[0].Milestone)
	}

	entries := log.all()
	// open ANC 1, close ANC 1, open ANC 2: 2 changes * 2 - 1.
	if len(entries) != 3 {
		t.Fatalf("log entries = %d, want 3", len(entries))
	}
	closing := entries[1]
	if closing.Status != action.StatusClosed || closing.Milestone != "ANC 1" {
		t.Errorf("closing entry = %+v", closing)
	}
	if closing.PreviousActionTimestamp != firstTS {
		t.Errorf("closing entry references timestamp %d, want %d", closing.PreviousActionTimestamp, firstTS)
	}
	opening := entries[2]
	if opening.Status != action.StatusUpcoming || opening.Milestone != "ANC 2" {
		t.Errorf("opening entry = %+v", opening)
	}
	if opening.PreviousActionTimestamp != firstTS {
		t.Errorf("opening entry previous timestamp = %d, want %d", opening.PreviousActionTimestamp, firstTS)
	}
}

func TestEnroll_NoMilestoneIsNoOp(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)

	if err := coord.Enroll(context.Background(), ancRequest(300)); err != nil {
		t.Fatalf("Enroll() past every window error = %v, want nil no-op", err)
	}
	if len(store.open()) != 0 {
		t.Error("no action should be written")
	}
	if len(log.all()) != 0 {
		t.Error("no log entry should be written")
	}
	if len(cal.enrolled) != 0 {
		t.Error("calendar must not be informed")
	}
}

func TestEnroll_MalformedStartDateFailsBeforeWrites(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)

	req := ancRequest(100)
	req.StartDate = "01-06-2024"
	err := coord.Enroll(context.Background(), req)
	if !errors.Is(err, ErrMalformedScheduleInput) {
		t.Fatalf("err = %v, want ErrMalformedScheduleInput", err)
	}
	if len(store.open()) != 0 || len(log.all()) != 0 || len(cal.enrolled) != 0 {
		t.Error("malformed input must abort before any write")
	}
}

func TestEnroll_LogFailurePropagates(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{failing: true}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)

	err := coord.Enroll(context.Background(), ancRequest(100))
	if !errors.Is(err, ErrLogWriteFailure) {
		t.Fatalf("err = %v, want ErrLogWriteFailure", err)
	}
	if len(cal.enrolled) != 0 {
		t.Error("calendar must not be informed after a failed audit write")
	}
}

func TestEnroll_RetriesStoreConflict(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	store.failUpserts = 2
	coord := newTestCoordinator(store, log, cal)

	if err := coord.Enroll(context.Background(), ancRequest(100)); err != nil {
		t.Fatalf("Enroll() should succeed after retries, got %v", err)
	}
	if len(store.open()) != 1 {
		t.Errorf("open actions = %d, want 1", len(store.open()))
	}
}

func TestEnroll_ConflictRetriesExhausted(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	store.failUpserts = maxEnrollAttempts
	coord := newTestCoordinator(store, log, cal)

	err := coord.Enroll(context.Background(), ancRequest(100))
	if !errors.Is(err, ErrStoreConflict) {
		t.Fatalf("err = %v, want ErrStoreConflict", err)
	}
}

func TestEnroll_ConcurrentCallsKeepSingleOpenAction(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.Enroll(context.Background(), ancRequest(100))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d error = %v", i, err)
		}
	}
	if open := store.open(); len(open) != 1 {
		t.Fatalf("open actions = %d, want exactly 1", len(open))
	}
	// Every enrollment is fully logged: the first opens, each later one
	// closes the previous and opens its own.
	if got, want := len(log.all()), 2*workers-1; got != want {
		t.Errorf("log entries = %d, want %d", got, want)
	}
}

func TestUnenroll_DelegatesToCalendar(t *testing.T) {
	store, log, cal := newMockStore(), &mockLog{}, &mockCalendar{}
	coord := newTestCoordinator(store, log, cal)
	ctx := context.Background()

	if err := coord.Unenroll(ctx, "case-1", "anm-9", ScheduleANC); err != nil {
		t.Fatal(err)
	}
	if err := coord.UnenrollAll(ctx, "case-1"); err != nil {
		t.Fatal(err)
	}
	if len(cal.unenrolled) != 2 || cal.unenrolled[0] != "case-1|ANC" || cal.unenrolled[1] != "case-1|*" {
		t.Errorf("unenrolled = %v", cal.unenrolled)
	}
	if len(store.open()) != 0 {
		t.Error("unenroll must not touch the action store")
	}
}
