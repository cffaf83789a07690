package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"elderline/internal/app/apiresp"
	"elderline/internal/auth"
)

type feedbackService interface {
	Submit(ctx context.Context, in SubmitInput) (*Entry, error)
	List(ctx context.Context, feedbackType string) ([]Entry, error)
}

type Handler struct {
	svc feedbackService
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type submitRequest struct {
	FeedbackType string `json:"feedback_type"`
	Message      string `json:"message"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	in := SubmitInput{
		FeedbackType: req.FeedbackType,
		Message:      req.Message,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
	}
	if user, ok := auth.CurrentUser(r.Context()); ok {
		in.UserID = user.ID
	}

	entry, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: entry})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: entries})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
