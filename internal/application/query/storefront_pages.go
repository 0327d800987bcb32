// internal/application/query/storefront_pages.go
package query

import (
	"context"
	"encoding/json"
	"fmt"

	productdom "musicore/internal/domain/product"
	"musicore/internal/platform/pagecache"
)

// HomePage is the "/" payload.
type HomePage struct {
	Featured []productdom.Product `json:"featured"`
}

// ProductListPage is the "/products" and "/category/{slug}" payload.
type ProductListPage struct {
	Category string               `json:"category,omitempty"`
	Products []productdom.Product `json:"products"`
}

// ProductPage is the "/products/{slug}" payload.
type ProductPage struct {
	Product productdom.Product `json:"product"`
}

// StorefrontPages renders storefront pages from the catalog; it is the page cache's Renderer.
type StorefrontPages struct {
	catalog *CatalogQuery
}

func NewStorefrontPages(catalog *CatalogQuery) *StorefrontPages {
	return &StorefrontPages{catalog: catalog}
}

func (s *StorefrontPages) Render(ctx context.Context, page pagecache.Page) ([]byte, error) {
	var payload any

	switch page.Kind {
	case pagecache.KindHome:
		items, err := s.catalog.ListFeatured(ctx)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", page.Path(), err)
		}
		payload = HomePage{Featured: nonNil(items)}

	case pagecache.KindProducts:
		items, err := s.catalog.ListProducts(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", page.Path(), err)
		}
		payload = ProductListPage{Products: nonNil(items)}

	case pagecache.KindCategory:
		items, err := s.catalog.ListProducts(ctx, page.Slug)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", page.Path(), err)
		}
		payload = ProductListPage{Category: page.Slug, Products: nonNil(items)}

	case pagecache.KindProduct:
		p, err := s.catalog.GetProductBySlug(ctx, page.Slug)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", page.Path(), err)
		}
		payload = ProductPage{Product: p}

	default:
		return nil, fmt.Errorf("%w: %q", pagecache.ErrUnknownPage, page.Kind)
	}

	return json.Marshal(payload)
}

// EmptyPage is the degraded payload served when the catalog cannot be read.
// Product detail pages have no degraded form (ok=false).
func EmptyPage(page pagecache.Page) ([]byte, bool) {
	var payload any
	switch page.Kind {
	case pagecache.KindHome:
		payload = HomePage{Featured: []productdom.Product{}}
	case pagecache.KindProducts:
		payload = ProductListPage{Products: []productdom.Product{}}
	case pagecache.KindCategory:
		payload = ProductListPage{Category: page.Slug, Products: []productdom.Product{}}
	default:
		return nil, false
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	return b, true
}

func nonNil(items []productdom.Product) []productdom.Product {
	if items == nil {
		return []productdom.Product{}
	}
	return items
}
