package report

import (
	"errors"
	"testing"

	"elderline/internal/assessment"
)

// The admin reset path surfaces errors straight from the shared attempt
// store; the handler's 404 mapping only holds if this package's sentinel
// is the store's own.
func TestAttemptNotFoundMatchesStoreSentinel(t *testing.T) {
	if !errors.Is(ErrAttemptNotFound, assessment.ErrAttemptNotFound) {
		t.Fatalf("ErrAttemptNotFound does not match the attempt store sentinel")
	}
}
