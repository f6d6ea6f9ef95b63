package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type UserHandler struct {
	users    ports.UserService
	requests ports.DonationRequestService
	logger   *slog.Logger
}

func NewUserHandler(users ports.UserService, requests ports.DonationRequestService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, requests: requests, logger: logger}
}

type RegistrationRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	BloodGroup string `json:"bloodGroup,omitempty"`
	District   string `json:"district,omitempty"`
	Upazila    string `json:"upazila,omitempty"`
}

func (r RegistrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Avatar, is.URL),
		validation.Field(&r.BloodGroup, validBloodGroup),
	)
}

type ProfileRequest struct {
	Name       string `json:"name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	BloodGroup string `json:"bloodGroup,omitempty"`
	District   string `json:"district,omitempty"`
	Upazila    string `json:"upazila,omitempty"`
}

func (r ProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Avatar, is.URL),
		validation.Field(&r.BloodGroup, validBloodGroup),
	)
}

// StatusRequest carries a status literal or command. It is not validated
// here: each service decides whether an unknown or empty value is an error
// or a no-op.
type StatusRequest struct {
	Status string `json:"status"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

func (r RoleRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.Role, validation.Required))
}

type RoleResponse struct {
	Role domain.Role `json:"role"`
}

type ChangedResponse struct {
	Changed bool   `json:"changed"`
	Status  string `json:"status,omitempty"`
}

func (h *UserHandler) RegisterPublic(r chi.Router) {
	r.Post("/users", h.Register)
}

func (h *UserHandler) RegisterProtected(r chi.Router) {
	r.Get("/users", h.List)
	r.Get("/users/{email}", h.Profile)
	r.Put("/users/{email}", h.UpdateProfile)
	r.Get("/users/{email}/role", h.Role)
	r.Patch("/users/{email}/status", h.ChangeStatus)
	r.Patch("/users/{email}/role", h.ChangeRole)
	r.Get("/users/{email}/donation-requests", h.DonationRequests)
	r.Get("/users/{email}/donation-requests/recent", h.RecentDonationRequests)
}

// Register creates the user on first sign in. A repeated registration is
// not an error.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegistrationRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.users.Register(r.Context(), domain.User{
		Email:      req.Email,
		Name:       req.Name,
		Avatar:     req.Avatar,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "registration failed", "email", req.Email, "error", err)
		httputil.WriteError(w, err)
		return
	}

	if !created {
		httputil.WriteMessage(w, http.StatusOK, "user already exists")
		return
	}
	httputil.WriteMessage(w, http.StatusCreated, "user created")
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	users, err := h.users.List(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.Profile(r.Context(), id, chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req ProfileRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	err = h.users.UpdateProfile(r.Context(), id, chi.URLParam(r, "email"), domain.Profile{
		Name:       req.Name,
		Avatar:     req.Avatar,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "profile updated")
}

func (h *UserHandler) Role(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := h.users.Role(r.Context(), id, chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RoleResponse{Role: role})
}

// ChangeStatus takes {"status": "block"} or {"status": "unblock"}.
func (h *UserHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req StatusRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	changed, err := h.users.ChangeStatus(r.Context(), id, chi.URLParam(r, "email"), req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := ChangedResponse{Changed: changed}
	if st, ok := domain.StatusCommand(req.Status); ok && changed {
		resp.Status = string(st)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req RoleRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.users.ChangeRole(r.Context(), id, chi.URLParam(r, "email"), req.Role); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RoleResponse{Role: domain.Role(req.Role)})
}

func (h *UserHandler) DonationRequests(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.requests.ListOwn(r.Context(), id, chi.URLParam(r, "email"), r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *UserHandler) RecentDonationRequests(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.requests.Recent(r.Context(), id, chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}
