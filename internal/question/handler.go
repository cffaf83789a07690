package question

import (
	"net/http"
	"strings"

	"elderline/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	bank *Bank
}

func NewHandler(bank *Bank) *Handler {
	return &Handler{bank: bank}
}

// ListModules returns the module catalogue, optionally filtered by role.
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	role := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("role")))

	modules := h.bank.Modules()
	if role != "" {
		filtered := make([]Module, 0, len(modules))
		for _, m := range modules {
			if m.Role == role || m.Role == RoleBoth {
				filtered = append(filtered, m)
			}
		}
		modules = filtered
	}

	apiresp.WriteOK(w, r, http.StatusOK, modules)
}

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	m, ok := h.bank.ModuleByID(id)
	if !ok {
		apiresp.WriteError(w, r, http.StatusNotFound, "module not found")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, m)
}

// ListCategories returns distinct category names with their question counts.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	type categoryInfo struct {
		Name          string `json:"name"`
		QuestionCount int    `json:"question_count"`
	}

	dist := CategoryDistribution(h.bank.All())
	out := make([]categoryInfo, 0, len(dist))
	for _, name := range h.bank.Categories() {
		out = append(out, categoryInfo{Name: name, QuestionCount: dist[name]})
	}

	apiresp.WriteOK(w, r, http.StatusOK, out)
}
