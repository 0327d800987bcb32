// internal/adapters/in/http/handler/contact_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"musicore/internal/application/usecase"
)

const (
	contactMissingFields = "All fields (name, email, message) are required."
	contactSent          = "Success! Your message has been sent."
	contactFailed        = "Failed to send message due to a server error."
)

// ContactSubmitter is *usecase.ContactUsecase.
type ContactSubmitter interface {
	Submit(ctx context.Context, msg usecase.ContactMessage) error
}

// ContactHandler: POST /api/contact
type ContactHandler struct {
	UC ContactSubmitter
}

func NewContactHandler(uc ContactSubmitter) http.Handler {
	return &ContactHandler{UC: uc}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "Method " + r.Method + " Not Allowed",
		})
		return
	}
	if h == nil || h.UC == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": contactFailed})
		return
	}

	var msg usecase.ContactMessage
	if err := readJSON(r, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": contactMissingFields})
		return
	}

	err := h.UC.Submit(r.Context(), msg)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": contactSent})
	case errors.Is(err, usecase.ErrContactInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": contactMissingFields})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": contactFailed})
	}
}
