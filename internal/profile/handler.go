package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"elderline/internal/app/apiresp"
	"elderline/internal/auth"
)

type Handler struct {
	svc *Service
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type upsertDetailsRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PhoneNumber      string `json:"phone_number"`
	Gender           string `json:"gender"`
	State            string `json:"state"`
	City             string `json:"city"`
	ProcessAllocated string `json:"process_allocated"`
	Designation      string `json:"designation"`
	FatherName       string `json:"father_name"`
	Address          string `json:"address"`
	Qualification    string `json:"qualification"`
	DateOfBirth      string `json:"date_of_birth"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}

	details, err := h.svc.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: "profile not found"})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: details})
}

func (h *Handler) UpsertDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}

	var req upsertDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "date_of_birth must be YYYY-MM-DD"})
			return
		}
		dob = &parsed
	}

	details, err := h.svc.Upsert(r.Context(), user.ID, UpsertInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneNumber:      req.PhoneNumber,
		Gender:           req.Gender,
		State:            req.State,
		City:             req.City,
		ProcessAllocated: req.ProcessAllocated,
		Designation:      req.Designation,
		FatherName:       req.FatherName,
		Address:          req.Address,
		Qualification:    req.Qualification,
		DateOfBirth:      dob,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "first_name, last_name, phone_number, state, city, designation are required"})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: details})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
