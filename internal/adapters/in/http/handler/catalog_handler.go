// internal/adapters/in/http/handler/catalog_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"musicore/internal/application/query"
	productdom "musicore/internal/domain/product"
	"musicore/internal/platform/pagecache"
)

// PageSource serves rendered storefront pages (*pagecache.Cache).
type PageSource interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// CatalogHandler exposes cached storefront pages.
//   - GET /api/products[?category=x]
//   - GET /api/products/{slug}
//   - GET /api/featured
//   - GET /api/categories/{slug}
type CatalogHandler struct {
	Pages PageSource
	log   *zap.Logger
}

func NewCatalogHandler(pages PageSource, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{Pages: pages, log: logger.Named("catalog_handler")}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Pages == nil {
		internalError(w, "catalog handler: page source is nil")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	path, ok := pagePath(r)
	if !ok {
		notFound(w)
		return
	}

	body, err := h.Pages.Get(r.Context(), path)
	if err == nil {
		writeRaw(w, http.StatusOK, body)
		return
	}

	switch {
	case errors.Is(err, pagecache.ErrUnknownPage), errors.Is(err, productdom.ErrNotFound):
		notFound(w)
		return
	}

	page, perr := pagecache.ParsePath(path)
	if perr == nil {
		if empty, ok := query.EmptyPage(page); ok {
			h.log.Warn("catalog unavailable; serving empty page", zap.String("page", path), zap.Error(err))
			w.Header().Set("Cache-Control", "no-store")
			writeRaw(w, http.StatusOK, empty)
			return
		}
	}

	h.log.Error("page render failed", zap.String("page", path), zap.Error(err))
	internalError(w, "failed to load product")
}

// pagePath maps an API route onto its storefront page path.
func pagePath(r *http.Request) (string, bool) {
	p := strings.TrimRight(r.URL.Path, "/")

	switch p {
	case "/api/featured":
		return "/", true
	case "/api/products":
		if c := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))); c != "" {
			return "/category/" + c, true
		}
		return "/products", true
	}

	if slug, ok := strings.CutPrefix(p, "/api/products/"); ok {
		return slugPath("/products/", slug)
	}
	if slug, ok := strings.CutPrefix(p, "/api/categories/"); ok {
		return slugPath("/category/", strings.ToLower(slug))
	}
	return "", false
}

func slugPath(prefix, slug string) (string, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.Contains(slug, "/") {
		return "", false
	}
	return prefix + slug, true
}
