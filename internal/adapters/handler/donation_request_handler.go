package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

const dateLayout = "2006-01-02"

type DonationRequestHandler struct {
	requests ports.DonationRequestService
	logger   *slog.Logger
}

func NewDonationRequestHandler(requests ports.DonationRequestService, logger *slog.Logger) *DonationRequestHandler {
	return &DonationRequestHandler{requests: requests, logger: logger}
}

type CreateDonationRequest struct {
	RequesterName  string `json:"requesterName"`
	RecipientName  string `json:"recipientName"`
	District       string `json:"district"`
	Upazila        string `json:"upazila"`
	HospitalName   string `json:"hospitalName"`
	FullAddress    string `json:"fullAddress"`
	BloodGroup     string `json:"bloodGroup"`
	DonationDate   string `json:"donationDate"`
	DonationTime   string `json:"donationTime"`
	RequestMessage string `json:"requestMessage"`
	Status         string `json:"status,omitempty"`
}

func (r CreateDonationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RecipientName, validation.Required),
		validation.Field(&r.District, validation.Required),
		validation.Field(&r.Upazila, validation.Required),
		validation.Field(&r.BloodGroup, validation.Required, validBloodGroup),
		validation.Field(&r.DonationDate, validation.Required, validation.Date(dateLayout)),
		validation.Field(&r.DonationTime, validation.Required),
	)
}

type UpdateDonationRequest struct {
	RecipientName  *string `json:"recipientName"`
	District       *string `json:"district"`
	Upazila        *string `json:"upazila"`
	HospitalName   *string `json:"hospitalName"`
	FullAddress    *string `json:"fullAddress"`
	BloodGroup     *string `json:"bloodGroup"`
	DonationDate   *string `json:"donationDate"`
	DonationTime   *string `json:"donationTime"`
	RequestMessage *string `json:"requestMessage"`
}

func (r UpdateDonationRequest) Validate() error {
	return validation.Errors{
		"recipientName": optional(r.RecipientName),
		"bloodGroup":    optional(r.BloodGroup, validBloodGroup),
		"donationDate":  optional(r.DonationDate, validation.Date(dateLayout)),
	}.Filter()
}

type CreatedResponse struct {
	InsertedID string `json:"insertedId"`
}

func (h *DonationRequestHandler) RegisterPublic(r chi.Router) {
	r.Get("/donation-requests/search", h.Search)
	r.Get("/donation-requests/pending", h.ListPending)
}

func (h *DonationRequestHandler) RegisterProtected(r chi.Router) {
	r.Post("/donation-requests", h.Create)
	r.Get("/donation-requests", h.ListAll)
	r.Get("/donation-requests/{id}", h.Get)
	r.Put("/donation-requests/{id}", h.Update)
	r.Delete("/donation-requests/{id}", h.Delete)
	r.Patch("/donation-requests/{id}/status", h.ChangeStatus)
	r.Post("/donation-requests/{id}/donate", h.Donate)
}

func (h *DonationRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req CreateDonationRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reqID, err := h.requests.Create(r.Context(), id, domain.DonationRequest{
		RequesterName:  req.RequesterName,
		RecipientName:  req.RecipientName,
		District:       req.District,
		Upazila:        req.Upazila,
		HospitalName:   req.HospitalName,
		FullAddress:    req.FullAddress,
		BloodGroup:     req.BloodGroup,
		DonationDate:   req.DonationDate,
		DonationTime:   req.DonationTime,
		RequestMessage: req.RequestMessage,
		Status:         domain.RequestStatus(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{InsertedID: reqID})
}

func (h *DonationRequestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqs, err := h.requests.ListAll(r.Context(), id, r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *DonationRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.requests.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *DonationRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req UpdateDonationRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	err = h.requests.Update(r.Context(), id, chi.URLParam(r, "id"), domain.RequestPatch{
		RecipientName:  req.RecipientName,
		District:       req.District,
		Upazila:        req.Upazila,
		HospitalName:   req.HospitalName,
		FullAddress:    req.FullAddress,
		BloodGroup:     req.BloodGroup,
		DonationDate:   req.DonationDate,
		DonationTime:   req.DonationTime,
		RequestMessage: req.RequestMessage,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "donation request updated")
}

func (h *DonationRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.requests.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "donation request deleted")
}

func (h *DonationRequestHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
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
	if err := h.requests.ChangeStatus(r.Context(), id, chi.URLParam(r, "id"), req.Status); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChangedResponse{Changed: true, Status: req.Status})
}

func (h *DonationRequestHandler) Donate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.requests.Donate(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChangedResponse{Changed: true, Status: string(domain.RequestInProgress)})
}

// Search is public and matches on blood group and location.
func (h *DonationRequestHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reqs, err := h.requests.Search(r.Context(), domain.RequestFilter{
		BloodGroup: q.Get("bloodGroup"),
		District:   q.Get("district"),
		Upazila:    q.Get("upazila"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *DonationRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.ListPending(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}
