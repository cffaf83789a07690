package profile

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"elderline/internal/auth"
)

func TestUpsertDetailsRequiresAuth(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/details", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.UpsertDetails(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpsertDetailsRejectsBadDateOfBirth(t *testing.T) {
	// The date is validated before the service runs.
	h := NewHandler(nil)

	body := `{"first_name":"Asha","last_name":"Rao","phone_number":"9999999999","state":"KA","city":"Bengaluru","designation":"CO","date_of_birth":"01-07-1990"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/details", strings.NewReader(body))
	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: "u1", Role: "candidate"}))

	rec := httptest.NewRecorder()
	h.UpsertDetails(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpsertDetailsRejectsMalformedBody(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile/details", strings.NewReader("{"))
	req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: "u1", Role: "candidate"}))

	rec := httptest.NewRecorder()
	h.UpsertDetails(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
