package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type FundHandler struct {
	funds    ports.FundService
	payments ports.PaymentService
	logger   *slog.Logger
}

func NewFundHandler(funds ports.FundService, payments ports.PaymentService, logger *slog.Logger) *FundHandler {
	return &FundHandler{funds: funds, payments: payments, logger: logger}
}

// Amount accepts either a JSON number or a numeric string and keeps the
// decimal text as sent, trimmed.
type Amount string

var (
	decimalText       = regexp.MustCompile(`^\d+(\.\d+)?$`)
	signedDecimalText = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Float64 parses an amount already matched against one of the decimal forms.
func (a Amount) Float64() (float64, error) {
	v, err := strconv.ParseFloat(string(a), 64)
	if err != nil {
		return 0, domain.Validation("amount: must be a decimal number")
	}
	return v, nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

type CreateFundRequest struct {
	Amount        Amount `json:"amount"`
	DonorName     string `json:"donorName"`
	TransactionID string `json:"transactionId"`
}

func (r CreateFundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required, validation.Match(decimalText).Error("must be a positive decimal number")),
		validation.Field(&r.TransactionID, validation.Required),
	)
}

// PaymentIntentRequest takes the amount in major units. Signed values pass
// decoding so the payment service rejects them with the rest of the
// non-positive amounts.
type PaymentIntentRequest struct {
	Amount Amount `json:"amount"`
}

func (r PaymentIntentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required, validation.Match(signedDecimalText).Error("must be a decimal number")),
	)
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (h *FundHandler) RegisterProtected(r chi.Router) {
	r.Post("/funds", h.Record)
	r.Get("/funds", h.List)
}

func (h *FundHandler) RegisterPayments(r chi.Router) {
	r.Post("/payments/intents", h.CreatePaymentIntent)
}

func (h *FundHandler) Record(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req CreateFundRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fundID, err := h.funds.Record(r.Context(), id, domain.Fund{
		Amount:        string(req.Amount),
		DonorName:     req.DonorName,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedResponse{InsertedID: fundID})
}

func (h *FundHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	funds, err := h.funds.List(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, funds)
}

func (h *FundHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req PaymentIntentRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := req.Amount.Float64()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	secret, err := h.payments.CreateIntent(r.Context(), id, amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PaymentIntentResponse{ClientSecret: secret})
}
