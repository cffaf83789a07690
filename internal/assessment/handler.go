package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"elderline/internal/app/apiresp"
	"elderline/internal/auth"
)

type Handler struct {
	svc testService
}

type testService interface {
	StartTest(ctx context.Context, in StartInput) (View, error)
	GetSession(userID string) (View, error)
	SelectAnswer(userID string, questionID int, option string) (View, error)
	Next(userID string) (View, error)
	Previous(userID string) (View, error)
	Submit(ctx context.Context, userID string) (Result, error)
	MyAttempt(ctx context.Context, userID string) (*Attempt, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type startTestRequest struct {
	ModuleID string `json:"module_id"`
	Role     string `json:"role"`
}

type selectAnswerRequest struct {
	QuestionID int    `json:"question_id"`
	Option     string `json:"option"`
}

func NewHandler(svc testService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startTestRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}
	if user.Role == auth.RoleAdmin {
		writeJSON(w, r, http.StatusForbidden, response{OK: false, Error: "admins do not take tests"})
		return
	}

	view, err := h.svc.StartTest(r.Context(), StartInput{
		UserID:   user.ID,
		ModuleID: strings.TrimSpace(req.ModuleID),
		Role:     strings.ToUpper(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyAttempted):
			writeJSON(w, r, http.StatusConflict, response{OK: false, Error: "test already completed"})
		case errors.Is(err, ErrProfileIncomplete):
			writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Error: "complete your profile details before starting the test"})
		case errors.Is(err, ErrModuleNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: "module not found"})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	view, err := h.svc.GetSession(user.ID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: "no active test session"})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	var req selectAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if req.QuestionID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "question_id is required"})
		return
	}

	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	view, err := h.svc.SelectAnswer(user.ID, req.QuestionID, strings.ToUpper(strings.TrimSpace(req.Option)))
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	view, err := h.svc.Next(user.ID)
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	view, err := h.svc.Previous(user.ID)
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	res, err := h.svc.Submit(r.Context(), user.ID)
	if err != nil {
		var incomplete *IncompleteError
		switch {
		case errors.As(err, &incomplete):
			writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Error: incomplete.Error()})
		default:
			h.writeSessionError(w, r, err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: res})
}

// MyAttempt returns the caller's recorded result once their test is done.
func (h *Handler) MyAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	attempt, err := h.svc.MyAttempt(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: "no attempt recorded"})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: attempt})
}

func (h *Handler) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoActiveSession):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: "no active test session"})
	case errors.Is(err, ErrAnswerRequired):
		writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Error: "answer the current question before moving on"})
	case errors.Is(err, ErrQuestionNotInSession):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "question not part of this test"})
	case errors.Is(err, ErrInvalidOption):
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "option must be A, B, C, or D"})
	case errors.Is(err, ErrSessionFinished):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: "test already submitted"})
	case errors.Is(err, ErrSubmitInFlight):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: "submit already in progress"})
	case errors.Is(err, ErrAlreadyAttempted):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: "test already completed"})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
