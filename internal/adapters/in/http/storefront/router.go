// internal/adapters/in/http/storefront/router.go
package storefront

import (
	"net/http"

	"go.uber.org/zap"

	"musicore/internal/adapters/in/http/middleware"
)

// Deps is the storefront handler set.
type Deps struct {
	Catalog    http.Handler
	Contact    http.Handler
	Revalidate http.Handler

	// /api/me/* (wrapped with UserAuth)
	MeCart   http.Handler
	UserAuth *middleware.UserAuthMiddleware
}

// handleSafe registers pattern with h.
// If h is nil, it logs and registers NotFoundHandler instead so boot never crashes on a partial container.
func handleSafe(mux *http.ServeMux, log *zap.Logger, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Warn("nil handler; registering NotFoundHandler", zap.String("handler", name), zap.String("pattern", pattern))
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

// Register registers storefront routes onto mux.
func Register(mux *http.ServeMux, deps Deps, logger *zap.Logger) {
	if mux == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("router")

	// catalog (page cache)
	handleSafe(mux, log, "/api/products", deps.Catalog, "Catalog")
	handleSafe(mux, log, "/api/products/", deps.Catalog, "Catalog")
	handleSafe(mux, log, "/api/featured", deps.Catalog, "Catalog")
	handleSafe(mux, log, "/api/categories/", deps.Catalog, "Catalog")

	handleSafe(mux, log, "/api/revalidate", deps.Revalidate, "Revalidate")
	handleSafe(mux, log, "/api/contact", deps.Contact, "Contact")

	me := deps.MeCart
	if me != nil && deps.UserAuth != nil {
		me = deps.UserAuth.Handler(me)
	} else if me != nil {
		log.Warn("user auth not configured; /api/me routes disabled")
		me = nil
	}
	handleSafe(mux, log, "/api/me/cart", me, "MeCart")
}

// Wrap applies the storefront middleware chain: CORS → Recover → RequestID → h.
func Wrap(h http.Handler, allowedOrigin string, logger *zap.Logger) http.Handler {
	return middleware.CORS(allowedOrigin)(
		middleware.Recover(logger)(
			middleware.RequestID(logger)(h),
		),
	)
}
