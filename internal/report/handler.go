package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"elderline/internal/app/apiresp"
)

type reportService interface {
	ListAttemptRecords(ctx context.Context) ([]AttemptRecord, error)
	ResetAttempt(ctx context.Context, attemptID string) error
	QuestionAnalysis(ctx context.Context) ([]QuestionAnalysis, error)
	ModuleAnalysis(ctx context.Context) ([]ModuleAnalysis, error)
	CategoryAnalysis(ctx context.Context) ([]CategoryAnalysis, error)
	Suggestions(ctx context.Context) ([]Suggestion, error)
	DashboardStats(ctx context.Context) (Stats, error)
	ExportAttemptsCSV(ctx context.Context) ([]byte, error)
	ExportAttemptsExcel(ctx context.Context) ([]byte, error)
}

type Handler struct {
	svc reportService
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.ListAttemptRecords(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	if records == nil {
		records = []AttemptRecord{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: records})
}

func (h *Handler) ResetAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "attempt id is required"})
		return
	}

	if err := h.svc.ResetAttempt(r.Context(), id); err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: "attempt not found"})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]string{"status": "attempt reset"}})
}

func (h *Handler) QuestionAnalysis(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.QuestionAnalysis(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	if items == nil {
		items = []QuestionAnalysis{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) ModuleAnalysis(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ModuleAnalysis(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	if items == nil {
		items = []ModuleAnalysis{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) CategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.CategoryAnalysis(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	if items == nil {
		items = []CategoryAnalysis{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Suggestions(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	if items == nil {
		items = []Suggestion{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: items})
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: stats})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportAttemptsCSV(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	name := fmt.Sprintf("test_results_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportAttemptsExcel(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	name := fmt.Sprintf("test_results_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
