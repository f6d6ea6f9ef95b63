// Package httputil holds the JSON response and error helpers shared by the
// HTTP handlers and middleware.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type MessageResponse struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, MessageResponse{Message: msg})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"message": ...}. Upstream and unclassified
// errors get a generic message so store details do not leak.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	var derr *domain.Error
	switch {
	case status == http.StatusBadGateway:
		msg = "upstream service unavailable"
	case status == http.StatusInternalServerError:
		msg = "internal server error"
	case errors.As(err, &derr):
		msg = derr.Message
	}
	WriteMessage(w, status, msg)
}

// Decode reads a JSON body into dst and runs its ozzo rules when dst
// implements validation.Validatable. Failures come back as validation errors.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is empty")
		}
		return domain.Validation("invalid request body")
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return domain.Validation(err.Error())
		}
	}
	return nil
}
