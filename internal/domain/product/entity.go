// internal/domain/product/entity.go
package product

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("product: not found")
)

// Product is a catalog entry (document id = ID).
type Product struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Category    []string          `json:"category"`
	Specs       map[string]string `json:"specs"`
	ImageURLs   []string          `json:"imageUrls"`
	IsFeatured  bool              `json:"isFeatured"`
}

// InCategory reports whether the product carries tag (case-insensitive).
func (p Product) InCategory(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return true
	}
	for _, c := range p.Category {
		if strings.ToLower(strings.TrimSpace(c)) == tag {
			return true
		}
	}
	return false
}

// PrimaryImage returns the first image url, or "".
func (p Product) PrimaryImage() string {
	for _, u := range p.ImageURLs {
		if s := strings.TrimSpace(u); s != "" {
			return s
		}
	}
	return ""
}

// Repository is the catalog read port.
//
//   - List: category "" means all products; otherwise case-insensitive tag match.
//   - GetBySlug / GetByID: ErrNotFound when absent.
type Repository interface {
	List(ctx context.Context, category string) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	ListFeatured(ctx context.Context) ([]Product, error)
}
