package auth

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	// These inputs fail before any query runs, so a nil db is fine.
	svc := NewService(nil, ServiceConfig{})

	tests := []struct {
		name    string
		in      RegisterInput
		wantErr error
	}{
		{
			name: "short password",
			in:   RegisterInput{Email: "a@b.org", EmpID: "EL1", FullName: "A B", Password: "short"},
			wantErr: ErrWeakPassword,
		},
		{
			name: "invalid email",
			in:   RegisterInput{Email: "not-an-email", EmpID: "EL1", FullName: "A B", Password: "longenough"},
		},
		{
			name: "missing employee id",
			in:   RegisterInput{Email: "a@b.org", FullName: "A B", Password: "longenough"},
		},
		{
			name: "missing full name",
			in:   RegisterInput{Email: "a@b.org", EmpID: "EL1", Password: "longenough"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEnsureAdminRejectsWeakPassword(t *testing.T) {
	svc := NewService(nil, ServiceConfig{})
	if err := svc.EnsureAdmin(context.Background(), "admin@elderline.local", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestEnsureAdminSkipsWhenUnconfigured(t *testing.T) {
	svc := NewService(nil, ServiceConfig{})
	if err := svc.EnsureAdmin(context.Background(), "", ""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
