package action

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	actions map[uuid.UUID]*Action
	nextTS  int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{actions: make(map[uuid.UUID]*Action), nextTS: 1000}
}

func (m *mockRepo) key(a *Action) string {
	return a.EntityID + "|" + a.ProviderID + "|" + a.ScheduleName
}

func (m *mockRepo) FindCurrent(_ context.Context, entityID, providerID, scheduleName string) (*Action, error) {
	for _, a := range m.actions {
		if a.EntityID == entityID && a.ProviderID == providerID && a.ScheduleName == scheduleName && a.Open() {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Upsert(_ context.Context, a *Action) (*Action, error) {
	for _, existing := range m.actions {
		if m.key(existing) == m.key(a) && existing.Open() {
			return nil, ErrConflict
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

func (m *mockRepo) FindAll(_ context.Context, providerID, entityID, scheduleName string) ([]*Action, error) {
	var items []*Action
	for _, a := range m.actions {
		if a.ProviderID == providerID && a.EntityID == entityID && a.ScheduleName == scheduleName {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp > items[j].Timestamp })
	return items, nil
}

func (m *mockRepo) Close(_ context.Context, id uuid.UUID) error {
	if a, ok := m.actions[id]; ok && a.Open() {
		a.Status = StatusClosed
		a.Revision++
	}
	return nil
}

func (m *mockRepo) CloseAllForEntity(_ context.Context, entityID, providerID string) error {
	for _, a := range m.actions {
		if a.EntityID == entityID && a.ProviderID == providerID && a.Open() {
			a.Status = StatusClosed
			a.Revision++
		}
	}
	return nil
}

func (m *mockRepo) ListOpenByProvider(_ context.Context, providerID string, limit, offset int) ([]*Action, int, error) {
	var items []*Action
	for _, a := range m.actions {
		if a.ProviderID == providerID && a.Open() {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) openCount() int {
	n := 0
	for _, a := range m.actions {
		if a.Open() {
			n++
		}
	}
	return n
}

// -- Tests --

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, nil, zerolog.Nop())
}

func TestRaiseAlert_CreatesUpcoming(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	due := time.Now().AddDate(0, 0, 2)
	expiry := due.AddDate(0, 0, 7)
	if err := svc.RaiseAlert(context.Background(), "case-1", "anm-9", "BCG", due, expiry); err != nil {
		t.Fatalf("RaiseAlert() error = %v", err)
	}

	current, _ := repo.FindCurrent(context.Background(), "case-1", "anm-9", "BCG")
	if current == nil {
		t.Fatal("no alert created")
	}
	if current.Status != StatusUpcoming {
		t.Errorf("Status = %v, want upcoming", current.Status)
	}
	if !current.DueDate.Equal(due) || !current.ExpiryDate.Equal(expiry) {
		t.Errorf("dates = %v/%v, want %v/%v", current.DueDate, current.ExpiryDate, due, expiry)
	}
}

func TestRaiseAlert_IdempotentWhileOpen(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	due := time.Now().AddDate(0, 0, 2)

	for i := 0; i < 3; i++ {
		if err := svc.RaiseAlert(context.Background(), "case-1", "anm-9", "BCG", due, due.AddDate(0, 0, 7)); err != nil {
			t.Fatalf("RaiseAlert() #%d error = %v", i, err)
		}
	}
	if repo.openCount() != 1 {
		t.Errorf("open alerts = %d, want 1", repo.openCount())
	}
}

func TestCloseAlert_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	// Closing a nonexistent alert is a no-op.
	if err := svc.CloseAlert(ctx, "case-1", "anm-9", "BCG"); err != nil {
		t.Fatalf("CloseAlert() on absent alert error = %v", err)
	}

	due := time.Now().AddDate(0, 0, 2)
	if err := svc.RaiseAlert(ctx, "case-1", "anm-9", "BCG", due, due.AddDate(0, 0, 7)); err != nil {
		t.Fatal(err)
	}
	if err := svc.CloseAlert(ctx, "case-1", "anm-9", "BCG"); err != nil {
		t.Fatalf("CloseAlert() error = %v", err)
	}
	if repo.openCount() != 0 {
		t.Fatalf("open alerts = %d, want 0", repo.openCount())
	}

	// Closing again changes nothing and does not fail.
	if err := svc.CloseAlert(ctx, "case-1", "anm-9", "BCG"); err != nil {
		t.Fatalf("repeat CloseAlert() error = %v", err)
	}
	history, _ := repo.FindAll(ctx, "anm-9", "case-1", "BCG")
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1", len(history))
	}
}

func TestCloseAllForEntity(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	due := time.Now().AddDate(0, 0, 2)

	for _, code := range []string{"BCG", "OPV 0", "HEP B0"} {
		if err := svc.RaiseAlert(ctx, "case-1", "anm-9", code, due, due.AddDate(0, 0, 7)); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.RaiseAlert(ctx, "case-2", "anm-9", "BCG", due, due.AddDate(0, 0, 7)); err != nil {
		t.Fatal(err)
	}

	if err := svc.CloseAllForEntity(ctx, "case-1", "anm-9"); err != nil {
		t.Fatalf("CloseAllForEntity() error = %v", err)
	}
	if repo.openCount() != 1 {
		t.Errorf("open alerts = %d, want 1 (case-2 untouched)", repo.openCount())
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusUpcoming, StatusDue, StatusClosed} {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false", s)
		}
	}
	if Status("open").Valid() {
		t.Error(`Status("open").Valid() = true, want false`)
	}
}
