// Package profile manages the candidate details form that must be filled
// in before a test can be started.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProfileNotFound = errors.New("profile not found")
)

type Service struct {
	db *sql.DB
}

type Details struct {
	UserID           string     `json:"user_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	PhoneNumber      string     `json:"phone_number"`
	Gender           string     `json:"gender,omitempty"`
	State            string     `json:"state"`
	City             string     `json:"city"`
	ProcessAllocated string     `json:"process_allocated,omitempty"`
	Designation      string     `json:"designation"`
	FatherName       string     `json:"father_name,omitempty"`
	Address          string     `json:"address,omitempty"`
	Qualification    string     `json:"qualification,omitempty"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type UpsertInput struct {
	FirstName        string
	LastName         string
	PhoneNumber      string
	Gender           string
	State            string
	City             string
	ProcessAllocated string
	Designation      string
	FatherName       string
	Address          string
	Qualification    string
	DateOfBirth      *time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, userID string) (*Details, error) {
	var (
		d   Details
		dob sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			user_id,
			first_name,
			last_name,
			phone_number,
			COALESCE(gender, ''),
			state,
			city,
			COALESCE(process_allocated, ''),
			designation,
			COALESCE(father_name, ''),
			COALESCE(address, ''),
			COALESCE(qualification, ''),
			date_of_birth,
			updated_at
		FROM user_details
		WHERE user_id = $1
	`, userID).Scan(
		&d.UserID,
		&d.FirstName,
		&d.LastName,
		&d.PhoneNumber,
		&d.Gender,
		&d.State,
		&d.City,
		&d.ProcessAllocated,
		&d.Designation,
		&d.FatherName,
		&d.Address,
		&d.Qualification,
		&dob,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if dob.Valid {
		d.DateOfBirth = &dob.Time
	}
	return &d, nil
}

// Upsert stores the details form, replacing any previous values.
func (s *Service) Upsert(ctx context.Context, userID string, in UpsertInput) (*Details, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.Designation = strings.TrimSpace(in.Designation)

	if in.FirstName == "" || in.LastName == "" || in.PhoneNumber == "" ||
		in.State == "" || in.City == "" || in.Designation == "" {
		return nil, ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_details (
			user_id,
			first_name,
			last_name,
			phone_number,
			gender,
			state,
			city,
			process_allocated,
			designation,
			father_name,
			address,
			qualification,
			date_of_birth,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone_number = EXCLUDED.phone_number,
			gender = EXCLUDED.gender,
			state = EXCLUDED.state,
			city = EXCLUDED.city,
			process_allocated = EXCLUDED.process_allocated,
			designation = EXCLUDED.designation,
			father_name = EXCLUDED.father_name,
			address = EXCLUDED.address,
			qualification = EXCLUDED.qualification,
			date_of_birth = EXCLUDED.date_of_birth,
			updated_at = now()
	`, userID, in.FirstName, in.LastName, in.PhoneNumber, nullIfEmpty(in.Gender),
		in.State, in.City, nullIfEmpty(in.ProcessAllocated), in.Designation,
		nullIfEmpty(in.FatherName), nullIfEmpty(in.Address), nullIfEmpty(in.Qualification),
		in.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return s.Get(ctx, userID)
}

// IsComplete reports whether the candidate has saved the required detail
// fields. The assessment gate calls this before issuing a paper.
func (s *Service) IsComplete(ctx context.Context, userID string) (bool, error) {
	var complete bool
	err := s.db.QueryRowContext(ctx, `
		SELECT
			first_name <> '' AND last_name <> '' AND phone_number <> ''
			AND state <> '' AND city <> '' AND designation <> ''
		FROM user_details
		WHERE user_id = $1
	`, userID).Scan(&complete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check profile complete: %w", err)
	}
	return complete, nil
}

func nullIfEmpty(v string) interface{} {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return v
}
