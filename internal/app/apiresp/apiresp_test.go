package apiresp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/test/start", nil)

	WriteError(rec, req, http.StatusConflict, "test already completed")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.OK {
		t.Fatalf("expected ok=false")
	}
	if env.Error == nil || env.Error.Code != "conflict" || env.Error.Message != "test already completed" {
		t.Fatalf("unexpected error payload: %+v", env.Error)
	}
}

func TestWriteErrorDefaultsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/session", nil)

	WriteError(rec, req, http.StatusNotFound, "")

	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Error == nil || env.Error.Message != http.StatusText(http.StatusNotFound) {
		t.Fatalf("unexpected error payload: %+v", env.Error)
	}
}

func TestWriteOKOmitsError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	WriteOK(rec, req, http.StatusOK, map[string]int{"n": 1})

	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.OK || env.Error != nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestErrorCodeFallback(t *testing.T) {
	if got := errorCode(http.StatusBadGateway); got != "error" {
		t.Fatalf("expected generic code, got %q", got)
	}
	if got := errorCode(http.StatusTooManyRequests); got != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", got)
	}
}
