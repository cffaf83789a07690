// Package feedback stores candidate feedback and grievance submissions for
// admin review.
package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

// Feedback types mirror the options on the candidate form.
const (
	TypeComments    = "Comments"
	TypeSuggestions = "Suggestions"
	TypeQuestions   = "Questions"
	TypeGrievance   = "Grievance"
)

type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	FeedbackType string    `json:"feedback_type"`
	Message      string    `json:"message"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

type SubmitInput struct {
	UserID       string
	FeedbackType string
	Message      string
	FirstName    string
	LastName     string
	Email        string
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Entry, error) {
	in.FeedbackType = strings.TrimSpace(in.FeedbackType)
	in.Message = strings.TrimSpace(in.Message)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if !isValidType(in.FeedbackType) {
		return nil, fmt.Errorf("%w: unknown feedback type", ErrInvalidInput)
	}
	if in.Message == "" || in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: message and name are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	entry := &Entry{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		FeedbackType: in.FeedbackType,
		Message:      in.Message,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO feedback (id, user_id, feedback_type, message, first_name, last_name, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING created_at
	`, entry.ID, nullIfEmpty(entry.UserID), entry.FeedbackType, entry.Message,
		entry.FirstName, entry.LastName, entry.Email).Scan(&entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return entry, nil
}

// List returns submissions newest first, optionally filtered by type.
func (s *Service) List(ctx context.Context, feedbackType string) ([]Entry, error) {
	feedbackType = strings.TrimSpace(feedbackType)
	if feedbackType != "" && !isValidType(feedbackType) {
		return nil, fmt.Errorf("%w: unknown feedback type", ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(user_id::text, ''), feedback_type, message,
		       first_name, last_name, email, created_at
		FROM feedback
		WHERE ($1 = '' OR feedback_type = $1)
		ORDER BY created_at DESC
	`, feedbackType)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.FeedbackType, &e.Message,
			&e.FirstName, &e.LastName, &e.Email, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return out, nil
}

func isValidType(t string) bool {
	switch t {
	case TypeComments, TypeSuggestions, TypeQuestions, TypeGrievance:
		return true
	default:
		return false
	}
}

func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
