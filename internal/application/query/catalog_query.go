// internal/application/query/catalog_query.go
package query

import (
	"context"
	"errors"
	"strings"

	productdom "musicore/internal/domain/product"
)

// ImageResolver turns stored image refs into browser-usable URLs.
type ImageResolver interface {
	ResolveAll(ctx context.Context, refs []string) []string
}

// CatalogQuery is the catalog read model: repository reads with image URLs resolved.
type CatalogQuery struct {
	repo   productdom.Repository
	images ImageResolver
}

// NewCatalogQuery builds the query; images may be nil (refs are returned as stored).
func NewCatalogQuery(repo productdom.Repository, images ImageResolver) *CatalogQuery {
	return &CatalogQuery{repo: repo, images: images}
}

// ListProducts returns all products, or those tagged category (case-insensitive).
func (q *CatalogQuery) ListProducts(ctx context.Context, category string) ([]productdom.Product, error) {
	if q == nil || q.repo == nil {
		return nil, errors.New("catalog query repository is not configured")
	}
	items, err := q.repo.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	return q.resolveAll(ctx, items), nil
}

func (q *CatalogQuery) ListFeatured(ctx context.Context) ([]productdom.Product, error) {
	if q == nil || q.repo == nil {
		return nil, errors.New("catalog query repository is not configured")
	}
	items, err := q.repo.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	return q.resolveAll(ctx, items), nil
}

// GetProductBySlug returns product.ErrNotFound when no product carries slug.
func (q *CatalogQuery) GetProductBySlug(ctx context.Context, slug string) (productdom.Product, error) {
	if q == nil || q.repo == nil {
		return productdom.Product{}, errors.New("catalog query repository is not configured")
	}
	p, err := q.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return productdom.Product{}, err
	}
	return q.resolve(ctx, p), nil
}

func (q *CatalogQuery) GetProductByID(ctx context.Context, id string) (productdom.Product, error) {
	if q == nil || q.repo == nil {
		return productdom.Product{}, errors.New("catalog query repository is not configured")
	}
	p, err := q.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return productdom.Product{}, err
	}
	return q.resolve(ctx, p), nil
}

// GetByID lets the cart container hydrate items through the catalog.
func (q *CatalogQuery) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	return q.GetProductByID(ctx, id)
}

func (q *CatalogQuery) resolveAll(ctx context.Context, items []productdom.Product) []productdom.Product {
	out := make([]productdom.Product, 0, len(items))
	for _, p := range items {
		out = append(out, q.resolve(ctx, p))
	}
	return out
}

func (q *CatalogQuery) resolve(ctx context.Context, p productdom.Product) productdom.Product {
	if q.images == nil || len(p.ImageURLs) == 0 {
		return p
	}
	p.ImageURLs = q.images.ResolveAll(ctx, p.ImageURLs)
	return p
}
