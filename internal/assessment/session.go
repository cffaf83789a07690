package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"elderline/internal/question"
)

// TestDuration is how long a candidate gets once the paper is issued.
const TestDuration = 20 * time.Minute

type State string

const (
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

var (
	ErrAnswerRequired       = errors.New("current question must be answered first")
	ErrSessionFinished      = errors.New("session already submitted")
	ErrSubmitInFlight       = errors.New("submit already in progress")
	ErrQuestionNotInSession = errors.New("question not part of this test")
	ErrInvalidOption        = errors.New("selected option out of range")
)

// IncompleteError rejects a manual submit while questions remain unanswered.
// It carries the count so the handler can tell the candidate how many are
// left.
type IncompleteError struct {
	Remaining int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d questions still unanswered", e.Remaining)
}

// submitFunc persists a graded result. Called exactly once per session on
// the first accepted submit; a failure leaves the session in progress so
// the submit can be retried.
type submitFunc func(ctx context.Context, s *Session, res Result, manual bool) error

// Session is one candidate's in-flight test. All mutating methods are
// mutex-guarded; the countdown goroutine races candidate requests for the
// final submit and the state field is the idempotency guard.
type Session struct {
	UserID    string
	ModuleID  string
	Role      string
	Threshold int

	mu        sync.Mutex
	questions []question.Question
	inSet     map[int]struct{}
	answers   map[int]string
	current   int
	state     State
	startedAt time.Time
	deadline  time.Time
	result    *Result

	onSubmit    submitFunc
	now         func() time.Time
	done        chan struct{}
	disposeOnce sync.Once
}

type SessionConfig struct {
	UserID    string
	ModuleID  string
	Role      string
	Threshold int
	Questions []question.Question
	OnSubmit  submitFunc

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

func NewSession(cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = QualifyThresholdStandard
	}
	inSet := make(map[int]struct{}, len(cfg.Questions))
	for _, q := range cfg.Questions {
		inSet[q.ID] = struct{}{}
	}

	startedAt := now()
	return &Session{
		UserID:    cfg.UserID,
		ModuleID:  cfg.ModuleID,
		Role:      cfg.Role,
		Threshold: threshold,
		questions: append([]question.Question(nil), cfg.Questions...),
		inSet:     inSet,
		answers:   make(map[int]string),
		state:     StateInProgress,
		startedAt: startedAt,
		deadline:  startedAt.Add(TestDuration),
		onSubmit:  cfg.OnSubmit,
		now:       now,
		done:      make(chan struct{}),
	}
}

// SelectAnswer records or replaces the candidate's choice for a question.
func (s *Session) SelectAnswer(questionID int, option string) error {
	switch option {
	case "A", "B", "C", "D":
	default:
		return ErrInvalidOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if _, ok := s.inSet[questionID]; !ok {
		return ErrQuestionNotInSession
	}
	s.answers[questionID] = option
	return nil
}

// Next advances to the following question. The current question must be
// answered; navigation never skips past the last question.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if _, answered := s.answers[s.questions[s.current].ID]; !answered {
		return ErrAnswerRequired
	}
	if s.current < len(s.questions)-1 {
		s.current++
	}
	return nil
}

// Previous steps back one question, flooring at the first. Going back does
// not require the current question to be answered.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Submit grades the paper and hands the result to the persistence callback.
// A manual submit is refused while questions remain unanswered; the deadline
// path (manual=false) grades whatever is on the sheet. If persistence fails
// the session reverts to in progress so the submit can be retried.
func (s *Session) Submit(ctx context.Context, manual bool) (Result, error) {
	s.mu.Lock()
	switch s.state {
	case StateSubmitted:
		res := *s.result
		s.mu.Unlock()
		if manual {
			return Result{}, ErrSessionFinished
		}
		// Duplicate deadline fire; the first one already won.
		return res, nil
	case StateSubmitting:
		s.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}

	if manual {
		if remaining := len(s.questions) - len(s.answers); remaining > 0 {
			s.mu.Unlock()
			return Result{}, &IncompleteError{Remaining: remaining}
		}
	}

	s.state = StateSubmitting
	answers := make(map[int]string, len(s.answers))
	for id, opt := range s.answers {
		answers[id] = opt
	}
	questions := s.questions
	s.mu.Unlock()

	res := Score(answers, questions, s.Threshold)

	if s.onSubmit != nil {
		if err := s.onSubmit(ctx, s, res, manual); err != nil {
			s.mu.Lock()
			s.state = StateInProgress
			s.mu.Unlock()
			return Result{}, fmt.Errorf("persist result: %w", err)
		}
	}

	s.mu.Lock()
	s.state = StateSubmitted
	s.result = &res
	s.mu.Unlock()
	s.Dispose()

	return res, nil
}

// StartCountdown launches the 1 Hz deadline watcher. At expiry it submits
// on behalf of the candidate; when the session ends first the goroutine
// exits via the done channel. A failed submit reverts the session to in
// progress, so the watcher keeps ticking and tries again until persistence
// succeeds or the session is disposed.
func (s *Session) StartCountdown() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if s.State() != StateInProgress {
					return
				}
				if s.now().Before(s.deadline) {
					continue
				}
				if _, err := s.Submit(context.Background(), false); err == nil {
					return
				}
			}
		}
	}()
}

// Dispose stops the countdown goroutine. Safe to call more than once and
// after submit.
func (s *Session) Dispose() {
	s.disposeOnce.Do(func() { close(s.done) })
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// RemainingSeconds reports whole seconds until the deadline, floored at 0.
func (s *Session) RemainingSeconds() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return 0
	}
	remaining := s.deadline.Sub(s.now())
	if remaining <= 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

// View is a read-only snapshot of the session for the candidate UI. Correct
// options are stripped from the questions.
type View struct {
	ModuleID         string             `json:"module_id"`
	State            State              `json:"state"`
	Questions        []SessionQuestion  `json:"questions"`
	CurrentIndex     int                `json:"current_index"`
	Answers          map[int]string     `json:"answers"`
	Answered         int                `json:"answered"`
	TotalQuestions   int                `json:"total_questions"`
	StartedAt        time.Time          `json:"started_at"`
	RemainingSeconds int64              `json:"remaining_seconds"`
}

type SessionQuestion struct {
	ID           int    `json:"id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
	Category     string `json:"category"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	qs := make([]SessionQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		qs = append(qs, SessionQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			OptionA:      q.OptionA,
			OptionB:      q.OptionB,
			OptionC:      q.OptionC,
			OptionD:      q.OptionD,
			Category:     q.Category,
		})
	}
	answers := make(map[int]string, len(s.answers))
	for id, opt := range s.answers {
		answers[id] = opt
	}

	remaining := int64(0)
	if s.state == StateInProgress {
		if d := s.deadline.Sub(s.now()); d > 0 {
			remaining = int64(d.Seconds())
		}
	}

	return View{
		ModuleID:         s.ModuleID,
		State:            s.state,
		Questions:        qs,
		CurrentIndex:     s.current,
		Answers:          answers,
		Answered:         len(answers),
		TotalQuestions:   len(s.questions),
		StartedAt:        s.startedAt,
		RemainingSeconds: remaining,
	}
}

func (s *Session) requireInProgress() error {
	switch s.state {
	case StateInProgress:
		return nil
	case StateSubmitting:
		return ErrSubmitInFlight
	default:
		return ErrSessionFinished
	}
}
