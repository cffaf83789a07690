package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type mockReportService struct {
	listAttemptRecordsFn  func(ctx context.Context) ([]AttemptRecord, error)
	resetAttemptFn        func(ctx context.Context, attemptID string) error
	questionAnalysisFn    func(ctx context.Context) ([]QuestionAnalysis, error)
	moduleAnalysisFn      func(ctx context.Context) ([]ModuleAnalysis, error)
	categoryAnalysisFn    func(ctx context.Context) ([]CategoryAnalysis, error)
	suggestionsFn         func(ctx context.Context) ([]Suggestion, error)
	dashboardStatsFn      func(ctx context.Context) (Stats, error)
	exportAttemptsCSVFn   func(ctx context.Context) ([]byte, error)
	exportAttemptsExcelFn func(ctx context.Context) ([]byte, error)
}

func (m *mockReportService) ListAttemptRecords(ctx context.Context) ([]AttemptRecord, error) {
	if m.listAttemptRecordsFn != nil {
		return m.listAttemptRecordsFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockReportService) ResetAttempt(ctx context.Context, attemptID string) error {
	if m.resetAttemptFn != nil {
		return m.resetAttemptFn(ctx, attemptID)
	}
	return errors.New("not implemented")
}

func (m *mockReportService) QuestionAnalysis(ctx context.Context) ([]QuestionAnalysis, error) {
	if m.questionAnalysisFn != nil {
		return m.questionAnalysisFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockReportService) ModuleAnalysis(ctx context.Context) ([]ModuleAnalysis, error) {
	if m.moduleAnalysisFn != nil {
		return m.moduleAnalysisFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockReportService) CategoryAnalysis(ctx context.Context) ([]CategoryAnalysis, error) {
	if m.categoryAnalysisFn != nil {
		return m.categoryAnalysisFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockReportService) Suggestions(ctx context.Context) ([]Suggestion, error) {
	if m.suggestionsFn != nil {
		return m.suggestionsFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockReportService) DashboardStats(ctx context.Context) (Stats, error) {
	if m.dashboardStatsFn != nil {
		return m.dashboardStatsFn(ctx)
	}
	return Stats{}, errors.New("not implemented")
}

func (m *mockReportService) ExportAttemptsCSV(ctx context.Context) ([]byte, error) {
	if m.exportAttemptsCSVFn != nil {
		return m.exportAttemptsCSVFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockReportService) ExportAttemptsExcel(ctx context.Context) ([]byte, error) {
	if m.exportAttemptsExcelFn != nil {
		return m.exportAttemptsExcelFn(ctx)
	}
	return nil, errors.New("not implemented")
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestListAttemptsEmptyIsArray(t *testing.T) {
	h := &Handler{svc: &mockReportService{
		listAttemptRecordsFn: func(ctx context.Context) ([]AttemptRecord, error) {
			return nil, nil
		},
	}}

	rec := httptest.NewRecorder()
	h.ListAttempts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/attempts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if string(env.Data) != "[]" {
		t.Fatalf("expected empty array payload, got %s", env.Data)
	}
}

func TestResetAttempt(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		err      error
		wantCode int
	}{
		{name: "ok", id: "a1", wantCode: http.StatusOK},
		{name: "not found", id: "missing", err: ErrAttemptNotFound, wantCode: http.StatusNotFound},
		{name: "internal", id: "a1", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotID string
			h := &Handler{svc: &mockReportService{
				resetAttemptFn: func(ctx context.Context, attemptID string) error {
					gotID = attemptID
					return tc.err
				},
			}}

			r := chi.NewRouter()
			r.Delete("/api/v1/admin/attempts/{id}", h.ResetAttempt)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/attempts/"+tc.id, nil))

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
			if gotID != tc.id {
				t.Fatalf("expected service to receive id %q, got %q", tc.id, gotID)
			}
		})
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	h := &Handler{svc: &mockReportService{
		suggestionsFn: func(ctx context.Context) ([]Suggestion, error) {
			return []Suggestion{{Text: "ok", Topic: "General Performance", Status: SuggestionGood}}, nil
		},
	}}

	rec := httptest.NewRecorder()
	h.Suggestions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/analysis/suggestions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var got []Suggestion
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode suggestions: %v", err)
	}
	if len(got) != 1 || got[0].Status != SuggestionGood {
		t.Fatalf("unexpected suggestions: %+v", got)
	}
}

func TestExportCSVHeaders(t *testing.T) {
	h := &Handler{svc: &mockReportService{
		exportAttemptsCSVFn: func(ctx context.Context) ([]byte, error) {
			return []byte("Name,Employee ID\n"), nil
		},
	}}

	rec := httptest.NewRecorder()
	h.ExportCSV(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/attempts/export.csv", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "Name,Employee ID") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestExportExcelHeaders(t *testing.T) {
	h := &Handler{svc: &mockReportService{
		exportAttemptsExcelFn: func(ctx context.Context) ([]byte, error) {
			return []byte{0x50, 0x4b}, nil
		},
	}}

	rec := httptest.NewRecorder()
	h.ExportExcel(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/attempts/export.xlsx", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("unexpected content disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestDashboardStatsEndpoint(t *testing.T) {
	h := &Handler{svc: &mockReportService{
		dashboardStatsFn: func(ctx context.Context) (Stats, error) {
			return Stats{TotalAttempts: 4, Qualified: 3, NotQualified: 1, AverageScore: 72}, nil
		},
	}}

	rec := httptest.NewRecorder()
	h.DashboardStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))

	env := decodeEnvelope(t, rec)
	var got Stats
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.TotalAttempts != 4 || got.AverageScore != 72 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}
