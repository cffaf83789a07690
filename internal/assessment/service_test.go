package assessment

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"elderline/internal/question"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu       sync.Mutex
	attempts map[string]Attempt
	insertFn func(ctx context.Context, a Attempt) (*Attempt, error)
}

func newFakeStore() *fakeStore {
	return &fakeStore{attempts: make(map[string]Attempt)}
}

func (f *fakeStore) InsertAttempt(ctx context.Context, a Attempt) (*Attempt, error) {
	if f.insertFn != nil {
		return f.insertFn(ctx, a)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.attempts[a.UserID]; exists {
		return nil, ErrAttemptExists
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	f.attempts[a.UserID] = a
	return &a, nil
}

func (f *fakeStore) GetAttemptForUser(ctx context.Context, userID string) (*Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[userID]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return &a, nil
}

func (f *fakeStore) HasAttempt(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.attempts[userID]
	return ok, nil
}

type fakeProfiles struct {
	complete bool
	err      error
}

func (f *fakeProfiles) IsComplete(ctx context.Context, userID string) (bool, error) {
	return f.complete, f.err
}

func managerBank() *question.Bank {
	modules := []question.Module{
		{ID: "module1-co", Name: "Introduction & Role of Call Officer", Role: question.RoleCO, QuestionCount: 3},
		{ID: "pkt-co", Name: "PKT Assessment - Call Officer", Role: question.RoleCO, QuestionCount: 3},
		{ID: "pkt-fro", Name: "PKT Assessment - Field Officer", Role: question.RoleFRO, QuestionCount: 4},
	}
	questions := make([]question.Question, 0, 30)
	id := 1
	for _, cat := range []string{"Introduction", "Role of CO", "Health Services"} {
		for i := 0; i < 5; i++ {
			questions = append(questions, question.Question{
				ID: id, QuestionText: "q", CorrectOption: "A",
				Category: cat, Module: "module1-co", Role: question.RoleCO,
			})
			id++
		}
	}
	for i := 0; i < 5; i++ {
		questions = append(questions, question.Question{
			ID: id, QuestionText: "q", CorrectOption: "A",
			Category: "Field Intervention", Module: "pkt-co", Role: question.RoleCO,
		})
		id++
	}
	return question.NewBank(modules, questions)
}

func newTestManager(store attemptStore, profiles profileChecker) *Manager {
	return NewManager(ManagerConfig{
		Store:    store,
		Bank:     managerBank(),
		Profiles: profiles,
		Rng:      rand.New(rand.NewSource(1)),
	})
}

func TestStartTestEndorsementModuleDrawsFromCatalogue(t *testing.T) {
	m := newTestManager(newFakeStore(), &fakeProfiles{complete: true})

	// pkt-fro has no questions of its own; the paper must still be
	// issued from the wider catalogue at the endorsement threshold.
	view, err := m.StartTest(context.Background(), StartInput{UserID: "u1", ModuleID: "pkt-fro"})
	if err != nil {
		t.Fatalf("start endorsement test: %v", err)
	}
	if view.TotalQuestions != 4 {
		t.Fatalf("expected 4 sampled questions, got %d", view.TotalQuestions)
	}

	m.mu.Lock()
	s := m.sessions["u1"]
	m.mu.Unlock()
	if s == nil {
		t.Fatalf("expected live session")
	}
	if s.Threshold != QualifyThresholdEndorsement {
		t.Fatalf("expected threshold %d, got %d", QualifyThresholdEndorsement, s.Threshold)
	}
}

func TestStartTestIssuesPaper(t *testing.T) {
	m := newTestManager(newFakeStore(), &fakeProfiles{complete: true})

	view, err := m.StartTest(context.Background(), StartInput{UserID: "u1", ModuleID: "module1-co"})
	if err != nil {
		t.Fatalf("start test: %v", err)
	}
	if view.TotalQuestions != 3 {
		t.Fatalf("expected module paper of 3 questions, got %d", view.TotalQuestions)
	}
	if view.State != StateInProgress {
		t.Fatalf("expected in_progress, got %s", view.State)
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("expected 1 active session, got %d", m.ActiveSessions())
	}
}

func TestStartTestReentryKeepsPaper(t *testing.T) {
	m := newTestManager(newFakeStore(), &fakeProfiles{complete: true})

	first, err := m.StartTest(context.Background(), StartInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("start test: %v", err)
	}
	second, err := m.StartTest(context.Background(), StartInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("restart test: %v", err)
	}

	if len(first.Questions) != len(second.Questions) {
		t.Fatalf("expected same paper on re-entry")
	}
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("question %d changed on re-entry", i)
		}
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("expected single session, got %d", m.ActiveSessions())
	}
}

func TestStartTestGates(t *testing.T) {
	t.Run("profile incomplete", func(t *testing.T) {
		m := newTestManager(newFakeStore(), &fakeProfiles{complete: false})
		_, err := m.StartTest(context.Background(), StartInput{UserID: "u1"})
		if !errors.Is(err, ErrProfileIncomplete) {
			t.Fatalf("expected ErrProfileIncomplete, got %v", err)
		}
	})

	t.Run("already attempted", func(t *testing.T) {
		store := newFakeStore()
		store.attempts["u1"] = Attempt{ID: "a1", UserID: "u1"}
		m := newTestManager(store, &fakeProfiles{complete: true})
		_, err := m.StartTest(context.Background(), StartInput{UserID: "u1"})
		if !errors.Is(err, ErrAlreadyAttempted) {
			t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
		}
	})

	t.Run("unknown module", func(t *testing.T) {
		m := newTestManager(newFakeStore(), &fakeProfiles{complete: true})
		_, err := m.StartTest(context.Background(), StartInput{UserID: "u1", ModuleID: "module9-co"})
		if !errors.Is(err, ErrModuleNotFound) {
			t.Fatalf("expected ErrModuleNotFound, got %v", err)
		}
	})
}

func TestSubmitPersistsAndRetiresSession(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeProfiles{complete: true})

	view, err := m.StartTest(context.Background(), StartInput{UserID: "u1", ModuleID: "module1-co"})
	if err != nil {
		t.Fatalf("start test: %v", err)
	}
	for _, q := range view.Questions {
		if _, err := m.SelectAnswer("u1", q.ID, "A"); err != nil {
			t.Fatalf("select answer %d: %v", q.ID, err)
		}
	}

	res, err := m.Submit(context.Background(), "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Percentage != 100 || !res.Qualified {
		t.Fatalf("expected full marks, got %+v", res)
	}
	if m.ActiveSessions() != 0 {
		t.Fatalf("expected session retired, got %d active", m.ActiveSessions())
	}

	attempt, err := m.MyAttempt(context.Background(), "u1")
	if err != nil {
		t.Fatalf("my attempt: %v", err)
	}
	if attempt.Score != res.Score || attempt.ModuleID != "module1-co" {
		t.Fatalf("persisted attempt mismatch: %+v", attempt)
	}
	if attempt.CompletedAt.Before(attempt.StartedAt) {
		t.Fatalf("completed_at precedes started_at")
	}
}

func TestPKTModuleUsesEndorsementThreshold(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeProfiles{complete: true})

	view, err := m.StartTest(context.Background(), StartInput{UserID: "u1", ModuleID: "pkt-co"})
	if err != nil {
		t.Fatalf("start test: %v", err)
	}

	// Answer 2 of 3 correctly: 67% passes standard but not endorsement.
	for i, q := range view.Questions {
		opt := "A"
		if i == 0 {
			opt = "B"
		}
		if _, err := m.SelectAnswer("u1", q.ID, opt); err != nil {
			t.Fatalf("select answer: %v", err)
		}
	}

	res, err := m.Submit(context.Background(), "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Percentage != 67 {
		t.Fatalf("expected 67%%, got %d", res.Percentage)
	}
	if res.Qualified {
		t.Fatalf("67%% must not qualify on the endorsement track")
	}
}

func TestSubmitConflictWhenStoreRaces(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeProfiles{complete: true})

	view, err := m.StartTest(context.Background(), StartInput{UserID: "u1", ModuleID: "module1-co"})
	if err != nil {
		t.Fatalf("start test: %v", err)
	}
	for _, q := range view.Questions {
		if _, err := m.SelectAnswer("u1", q.ID, "A"); err != nil {
			t.Fatalf("select answer: %v", err)
		}
	}

	// Another session recorded an attempt between gate check and submit.
	store.mu.Lock()
	store.attempts["u1"] = Attempt{ID: "a-racer", UserID: "u1"}
	store.mu.Unlock()

	if _, err := m.Submit(context.Background(), "u1"); !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
	}
}

func TestSessionOpsWithoutSession(t *testing.T) {
	m := newTestManager(newFakeStore(), &fakeProfiles{complete: true})

	if _, err := m.GetSession("ghost"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, err := m.Next("ghost"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if _, err := m.Submit(context.Background(), "ghost"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}
