package assessment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"elderline/internal/question"
)

// DefaultQuestionCount is the paper size for the category-balanced general
// assessment.
const DefaultQuestionCount = 20

var (
	ErrAlreadyAttempted  = errors.New("test already completed")
	ErrNoActiveSession   = errors.New("no active test session")
	ErrProfileIncomplete = errors.New("profile details incomplete")
	ErrModuleNotFound    = errors.New("module not found")
)

// profileChecker gates test entry on the candidate having filled in their
// details form.
type profileChecker interface {
	IsComplete(ctx context.Context, userID string) (bool, error)
}

type attemptStore interface {
	InsertAttempt(ctx context.Context, a Attempt) (*Attempt, error)
	GetAttemptForUser(ctx context.Context, userID string) (*Attempt, error)
	HasAttempt(ctx context.Context, userID string) (bool, error)
}

// Manager owns the live sessions, one per candidate, and runs the attempt
// gate in front of them.
type Manager struct {
	store    attemptStore
	bank     *question.Bank
	profiles profileChecker

	mu       sync.Mutex
	sessions map[string]*Session
	rng      *rand.Rand

	now func() time.Time
}

type ManagerConfig struct {
	Store    attemptStore
	Bank     *question.Bank
	Profiles profileChecker

	// Rng and Now are injectable for tests; both default to real sources.
	Rng *rand.Rand
	Now func() time.Time
}

func NewManager(cfg ManagerConfig) *Manager {
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:    cfg.Store,
		bank:     cfg.Bank,
		profiles: cfg.Profiles,
		sessions: make(map[string]*Session),
		rng:      rng,
		now:      now,
	}
}

type StartInput struct {
	UserID   string
	ModuleID string
	Role     string
}

// StartTest issues a paper for the candidate. Re-entering with a session
// still in progress returns that session instead of a fresh paper, so a
// page reload does not reshuffle the questions. The attempt gate checks
// recorded attempts up front; the database unique index is the final word
// if two sessions slip through concurrently.
func (m *Manager) StartTest(ctx context.Context, in StartInput) (View, error) {
	m.mu.Lock()
	if s, ok := m.sessions[in.UserID]; ok && s.State() == StateInProgress {
		m.mu.Unlock()
		return s.Snapshot(), nil
	}
	m.mu.Unlock()

	if m.profiles != nil {
		complete, err := m.profiles.IsComplete(ctx, in.UserID)
		if err != nil {
			return View{}, fmt.Errorf("check profile: %w", err)
		}
		if !complete {
			return View{}, ErrProfileIncomplete
		}
	}

	exists, err := m.store.HasAttempt(ctx, in.UserID)
	if err != nil {
		return View{}, fmt.Errorf("check attempt gate: %w", err)
	}
	if exists {
		return View{}, ErrAlreadyAttempted
	}

	qs, threshold, err := m.buildPaper(in)
	if err != nil {
		return View{}, err
	}

	s := NewSession(SessionConfig{
		UserID:    in.UserID,
		ModuleID:  in.ModuleID,
		Role:      in.Role,
		Threshold: threshold,
		Questions: qs,
		OnSubmit:  m.persistResult,
		Now:       m.now,
	})

	m.mu.Lock()
	if prev, ok := m.sessions[in.UserID]; ok {
		prev.Dispose()
	}
	m.sessions[in.UserID] = s
	m.mu.Unlock()

	s.StartCountdown()
	return s.Snapshot(), nil
}

func (m *Manager) buildPaper(in StartInput) ([]question.Question, int, error) {
	m.mu.Lock()
	sampler := question.NewSampler(m.bank, m.rng)
	defer m.mu.Unlock()

	if in.ModuleID != "" {
		mod, ok := m.bank.ModuleByID(in.ModuleID)
		if !ok {
			return nil, 0, ErrModuleNotFound
		}
		count := mod.QuestionCount
		if count <= 0 {
			count = DefaultQuestionCount
		}
		qs := sampler.SampleFromModule(mod.ID, count)
		if len(qs) == 0 {
			// Endorsement and final papers carry no questions of their
			// own; they draw from the role pool, or the whole catalogue.
			qs = sampler.SampleFromRole(mod.Role, count)
		}
		if len(qs) == 0 {
			qs = sampler.Sample(count)
		}
		if len(qs) == 0 {
			return nil, 0, ErrModuleNotFound
		}
		return qs, thresholdForModule(mod.ID), nil
	}

	if in.Role != "" {
		qs := sampler.SampleFromRole(in.Role, DefaultQuestionCount)
		if len(qs) > 0 {
			return qs, QualifyThresholdStandard, nil
		}
	}

	return sampler.Sample(DefaultQuestionCount), QualifyThresholdStandard, nil
}

// PKT papers are the endorsement entry point and carry the higher bar.
func thresholdForModule(moduleID string) int {
	if strings.HasPrefix(moduleID, "pkt-") {
		return QualifyThresholdEndorsement
	}
	return QualifyThresholdStandard
}

func (m *Manager) persistResult(ctx context.Context, s *Session, res Result, manual bool) error {
	_, err := m.store.InsertAttempt(ctx, Attempt{
		UserID:         s.UserID,
		ModuleID:       s.ModuleID,
		Role:           s.Role,
		Score:          res.Score,
		TotalQuestions: res.Total,
		Percentage:     res.Percentage,
		Qualified:      res.Qualified,
		Answers:        res.Answers,
		StartedAt:      s.StartedAt(),
		CompletedAt:    m.now(),
	})
	if errors.Is(err, ErrAttemptExists) {
		// Lost the race to a parallel session; the recorded attempt stands.
		return ErrAlreadyAttempted
	}
	return err
}

func (m *Manager) session(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

func (m *Manager) GetSession(userID string) (View, error) {
	s, err := m.session(userID)
	if err != nil {
		return View{}, err
	}
	return s.Snapshot(), nil
}

func (m *Manager) SelectAnswer(userID string, questionID int, option string) (View, error) {
	s, err := m.session(userID)
	if err != nil {
		return View{}, err
	}
	if err := s.SelectAnswer(questionID, option); err != nil {
		return View{}, err
	}
	return s.Snapshot(), nil
}

func (m *Manager) Next(userID string) (View, error) {
	s, err := m.session(userID)
	if err != nil {
		return View{}, err
	}
	if err := s.Next(); err != nil {
		return View{}, err
	}
	return s.Snapshot(), nil
}

func (m *Manager) Previous(userID string) (View, error) {
	s, err := m.session(userID)
	if err != nil {
		return View{}, err
	}
	if err := s.Previous(); err != nil {
		return View{}, err
	}
	return s.Snapshot(), nil
}

// Submit finishes the candidate's session. On success the session is
// retired; on a refused or failed submit it stays live for another try.
func (m *Manager) Submit(ctx context.Context, userID string) (Result, error) {
	s, err := m.session(userID)
	if err != nil {
		return Result{}, err
	}
	res, err := s.Submit(ctx, true)
	if err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	if m.sessions[userID] == s {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	return res, nil
}

// MyAttempt returns the candidate's recorded attempt, if any.
func (m *Manager) MyAttempt(ctx context.Context, userID string) (*Attempt, error) {
	return m.store.GetAttemptForUser(ctx, userID)
}

// ActiveSessions reports how many sessions are currently live, for metrics.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
