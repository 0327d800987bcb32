// internal/adapters/in/http/handler/revalidate_handler.go
package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Revalidator is *usecase.RevalidateUsecase.
type Revalidator interface {
	Revalidate(ctx context.Context, paths []string) (revalidated, failed []string)
}

// RevalidateHandler: POST /api/revalidate?secret=S  body {"paths":[...]}
type RevalidateHandler struct {
	UC     Revalidator
	Secret string
	log    *zap.Logger
}

func NewRevalidateHandler(uc Revalidator, secret string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevalidateHandler{UC: uc, Secret: secret, log: logger.Named("revalidate_handler")}
}

type revalidateRequest struct {
	Paths []string `json:"paths"`
}

func (h *RevalidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "Method Not Allowed. Use POST."})
		return
	}

	if !h.secretMatches(r.URL.Query().Get("secret")) {
		h.log.Warn("revalidate rejected: invalid token")
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
		return
	}

	var req revalidateRequest
	if err := readJSON(r, &req); err != nil || !validPaths(req.Paths) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Bad Request: 'paths' must be a non-empty array of strings.",
		})
		return
	}
	if h.UC == nil {
		internalError(w, "revalidate handler: usecase is nil")
		return
	}

	revalidated, failed := h.UC.Revalidate(r.Context(), req.Paths)
	if len(failed) > 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message":     "Some paths failed to revalidate.",
			"revalidated": revalidated,
			"failed":      failed,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"revalidated": true,
		"paths":       revalidated,
	})
}

// secretMatches never accepts when the server secret is unset.
func (h *RevalidateHandler) secretMatches(got string) bool {
	want := strings.TrimSpace(h.Secret)
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func validPaths(paths []string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return false
		}
	}
	return true
}
