package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAttemptExists   = errors.New("attempt already recorded for user")
)

// Attempt is the persisted outcome of one completed test.
type Attempt struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	ModuleID       string         `json:"module_id,omitempty"`
	Role           string         `json:"role,omitempty"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     int            `json:"percentage"`
	Qualified      bool           `json:"qualified"`
	Answers        map[int]string `json:"answers"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// Store persists attempts in Postgres. One attempt per user is enforced by
// a unique index on user_id, which is what closes the two-tab race: the
// second insert loses with ErrAttemptExists no matter how the sessions
// interleaved.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (st *Store) InsertAttempt(ctx context.Context, a Attempt) (*Attempt, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	_, err = st.db.ExecContext(ctx, `
		INSERT INTO test_attempts (
			id,
			user_id,
			module_id,
			role,
			score,
			total_questions,
			percentage,
			qualified,
			answers,
			started_at,
			completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
	`, a.ID, a.UserID, a.ModuleID, a.Role, a.Score, a.TotalQuestions,
		a.Percentage, a.Qualified, answersJSON, a.StartedAt, a.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAttemptExists
		}
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return &a, nil
}

func (st *Store) GetAttemptForUser(ctx context.Context, userID string) (*Attempt, error) {
	row := st.db.QueryRowContext(ctx, `
		SELECT
			id,
			user_id,
			module_id,
			role,
			score,
			total_questions,
			percentage,
			qualified,
			answers,
			started_at,
			completed_at
		FROM test_attempts
		WHERE user_id = $1
	`, userID)

	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return a, nil
}

func (st *Store) HasAttempt(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := st.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM test_attempts WHERE user_id = $1)
	`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check attempt exists: %w", err)
	}
	return exists, nil
}

// ListAttempts returns every recorded attempt, newest first.
func (st *Store) ListAttempts(ctx context.Context) ([]Attempt, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT
			id,
			user_id,
			module_id,
			role,
			score,
			total_questions,
			percentage,
			qualified,
			answers,
			started_at,
			completed_at
		FROM test_attempts
		ORDER BY completed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	out := make([]Attempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

// DeleteAttempt removes a recorded attempt, which re-opens the one-attempt
// gate for that candidate.
func (st *Store) DeleteAttempt(ctx context.Context, attemptID string) error {
	res, err := st.db.ExecContext(ctx, `DELETE FROM test_attempts WHERE id = $1`, attemptID)
	if err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attempt rows: %w", err)
	}
	if n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var (
		a           Attempt
		moduleID    sql.NullString
		role        sql.NullString
		answersJSON []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&moduleID,
		&role,
		&a.Score,
		&a.TotalQuestions,
		&a.Percentage,
		&a.Qualified,
		&answersJSON,
		&a.StartedAt,
		&a.CompletedAt,
	); err != nil {
		return nil, err
	}
	a.ModuleID = moduleID.String
	a.Role = role.String
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	if a.Answers == nil {
		a.Answers = map[int]string{}
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
