package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"elderline/internal/assessment"
	"elderline/internal/question"
)

// ErrAttemptNotFound is the attempt store's sentinel, re-exported so
// handler code in this package matches on a local name.
var ErrAttemptNotFound = assessment.ErrAttemptNotFound

// AttemptRecord is one completed attempt joined with the candidate account
// and details form, as shown on the admin results table and in exports.
type AttemptRecord struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	FullName         string         `json:"full_name"`
	EmpID            string         `json:"emp_id"`
	Email            string         `json:"email"`
	FirstName        string         `json:"first_name,omitempty"`
	LastName         string         `json:"last_name,omitempty"`
	PhoneNumber      string         `json:"phone_number,omitempty"`
	Gender           string         `json:"gender,omitempty"`
	State            string         `json:"state,omitempty"`
	City             string         `json:"city,omitempty"`
	ProcessAllocated string         `json:"process_allocated,omitempty"`
	Designation      string         `json:"designation,omitempty"`
	FatherName       string         `json:"father_name,omitempty"`
	Address          string         `json:"address,omitempty"`
	Qualification    string         `json:"qualification,omitempty"`
	DateOfBirth      *time.Time     `json:"date_of_birth,omitempty"`
	ModuleID         string         `json:"module_id,omitempty"`
	Role             string         `json:"role,omitempty"`
	Score            int            `json:"score"`
	TotalQuestions   int            `json:"total_questions"`
	Percentage       int            `json:"percentage"`
	Qualified        bool           `json:"qualified"`
	Answers          map[int]string `json:"answers"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      time.Time      `json:"completed_at"`
}

type Service struct {
	db       *sql.DB
	attempts *assessment.Store
	bank     *question.Bank
}

func NewService(db *sql.DB, bank *question.Bank) *Service {
	return &Service{db: db, attempts: assessment.NewStore(db), bank: bank}
}

// ListAttemptRecords returns every completed attempt with the candidate's
// account and details joined in, newest first.
func (s *Service) ListAttemptRecords(ctx context.Context) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			a.id,
			a.user_id,
			COALESCE(u.full_name, ''),
			COALESCE(u.emp_id, ''),
			COALESCE(u.email, ''),
			COALESCE(d.first_name, ''),
			COALESCE(d.last_name, ''),
			COALESCE(d.phone_number, ''),
			COALESCE(d.gender, ''),
			COALESCE(d.state, ''),
			COALESCE(d.city, ''),
			COALESCE(d.process_allocated, ''),
			COALESCE(d.designation, ''),
			COALESCE(d.father_name, ''),
			COALESCE(d.address, ''),
			COALESCE(d.qualification, ''),
			d.date_of_birth,
			a.module_id,
			a.role,
			a.score,
			a.total_questions,
			a.percentage,
			a.qualified,
			a.answers,
			a.started_at,
			a.completed_at
		FROM test_attempts a
		LEFT JOIN users u ON u.id = a.user_id
		LEFT JOIN user_details d ON d.user_id = a.user_id
		ORDER BY a.completed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list attempt records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AttemptRecord
	for rows.Next() {
		var (
			rec         AttemptRecord
			dob         sql.NullTime
			answersJSON []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.FullName,
			&rec.EmpID,
			&rec.Email,
			&rec.FirstName,
			&rec.LastName,
			&rec.PhoneNumber,
			&rec.Gender,
			&rec.State,
			&rec.City,
			&rec.ProcessAllocated,
			&rec.Designation,
			&rec.FatherName,
			&rec.Address,
			&rec.Qualification,
			&dob,
			&rec.ModuleID,
			&rec.Role,
			&rec.Score,
			&rec.TotalQuestions,
			&rec.Percentage,
			&rec.Qualified,
			&answersJSON,
			&rec.StartedAt,
			&rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt record: %w", err)
		}
		if dob.Valid {
			rec.DateOfBirth = &dob.Time
		}
		if len(answersJSON) > 0 {
			if err := json.Unmarshal(answersJSON, &rec.Answers); err != nil {
				return nil, fmt.Errorf("decode answers: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt records: %w", err)
	}
	return out, nil
}

// ResetAttempt deletes an attempt so the candidate can sit the test again.
func (s *Service) ResetAttempt(ctx context.Context, attemptID string) error {
	return s.attempts.DeleteAttempt(ctx, attemptID)
}

func (s *Service) QuestionAnalysis(ctx context.Context) ([]QuestionAnalysis, error) {
	attempts, err := s.listAttempts(ctx)
	if err != nil {
		return nil, err
	}
	return AnalyzeQuestions(attempts, s.bank), nil
}

func (s *Service) ModuleAnalysis(ctx context.Context) ([]ModuleAnalysis, error) {
	attempts, err := s.listAttempts(ctx)
	if err != nil {
		return nil, err
	}
	return AnalyzeModules(attempts, s.bank), nil
}

func (s *Service) CategoryAnalysis(ctx context.Context) ([]CategoryAnalysis, error) {
	attempts, err := s.listAttempts(ctx)
	if err != nil {
		return nil, err
	}
	return AnalyzeCategories(attempts, s.bank), nil
}

func (s *Service) Suggestions(ctx context.Context) ([]Suggestion, error) {
	attempts, err := s.listAttempts(ctx)
	if err != nil {
		return nil, err
	}
	return Suggest(AnalyzeModules(attempts, s.bank)), nil
}

func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	attempts, err := s.listAttempts(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(attempts), nil
}

func (s *Service) listAttempts(ctx context.Context) ([]assessment.Attempt, error) {
	return s.attempts.ListAttempts(ctx)
}
