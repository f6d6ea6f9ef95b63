package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type DashboardHandler struct {
	dashboard ports.DashboardService
}

func NewDashboardHandler(dashboard ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) RegisterProtected(r chi.Router) {
	r.Get("/dashboard", h.Get)
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.dashboard.Compute(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}
