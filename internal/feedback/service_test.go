package feedback

import (
	"context"
	"errors"
	"testing"
)

func TestSubmitValidation(t *testing.T) {
	// Validation runs before any query, so a nil db is fine here.
	svc := NewService(nil)

	tests := []struct {
		name string
		in   SubmitInput
	}{
		{
			name: "unknown type",
			in:   SubmitInput{FeedbackType: "Rant", Message: "m", FirstName: "A", LastName: "B", Email: "a@b.org"},
		},
		{
			name: "empty message",
			in:   SubmitInput{FeedbackType: TypeComments, FirstName: "A", LastName: "B", Email: "a@b.org"},
		},
		{
			name: "missing name",
			in:   SubmitInput{FeedbackType: TypeComments, Message: "m", Email: "a@b.org"},
		},
		{
			name: "bad email",
			in:   SubmitInput{FeedbackType: TypeComments, Message: "m", FirstName: "A", LastName: "B", Email: "not-an-email"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestListRejectsUnknownTypeFilter(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.List(context.Background(), "Rant"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
