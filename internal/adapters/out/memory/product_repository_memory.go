package memory

import (
	"context"
	"strings"
	"sync"

	productdom "musicore/internal/domain/product"
)

// ProductRepository is an in-process catalog (dev mode seed file / tests).
// List order is insertion order.
type ProductRepository struct {
	mu       sync.RWMutex
	products []productdom.Product
}

func NewProductRepository(products []productdom.Product) *ProductRepository {
	r := &ProductRepository{}
	r.Replace(products)
	return r
}

// Replace swaps the whole catalog.
func (r *ProductRepository) Replace(products []productdom.Product) {
	cp := make([]productdom.Product, len(products))
	copy(cp, products)

	r.mu.Lock()
	r.products = cp
	r.mu.Unlock()
}

func (r *ProductRepository) List(_ context.Context, category string) ([]productdom.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []productdom.Product{}
	for _, p := range r.products {
		if p.InCategory(category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) GetBySlug(_ context.Context, slug string) (productdom.Product, error) {
	slug = strings.TrimSpace(slug)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if slug != "" && p.Slug == slug {
			return p, nil
		}
	}
	return productdom.Product{}, productdom.ErrNotFound
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if id != "" && p.ID == id {
			return p, nil
		}
	}
	return productdom.Product{}, productdom.ErrNotFound
}

func (r *ProductRepository) ListFeatured(_ context.Context) ([]productdom.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []productdom.Product{}
	for _, p := range r.products {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out, nil
}
