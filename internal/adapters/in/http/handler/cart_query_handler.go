// internal/adapters/in/http/handler/cart_query_handler.go
package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"musicore/internal/adapters/in/http/middleware"
	"musicore/internal/application/query"
)

// CartReader is *query.CartQuery.
type CartReader interface {
	GetByUID(ctx context.Context, uid string) (query.CartView, error)
}

// CartQueryHandler exposes the caller's account cart.
//   - GET /api/me/cart (behind UserAuthMiddleware)
//
// A user with no stored cart gets an empty cart with 200.
type CartQueryHandler struct {
	Q   CartReader
	log *zap.Logger
}

func NewCartQueryHandler(q CartReader, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartQueryHandler{Q: q, log: logger.Named("cart_query_handler")}
}

func (h *CartQueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Q == nil {
		internalError(w, "cart query handler: query is nil")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	view, err := h.Q.GetByUID(r.Context(), uid)
	if err != nil {
		h.log.Error("cart query failed",
			zap.String("uid", maskUID(uid)),
			zap.String("requestId", middleware.RequestIDFrom(r.Context())),
			zap.Error(err),
		)
		internalError(w, "failed to load cart")
		return
	}

	writeJSON(w, http.StatusOK, view)
}
