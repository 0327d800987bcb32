// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	productdom "musicore/internal/domain/product"
)

// ProductRepositoryFS is a read-only Firestore implementation of product.Repository.
//
// Category tags are stored lower-case so that the array-contains filter is
// case-insensitive from the caller's point of view.
type ProductRepositoryFS struct {
	Client *firestore.Client
}

func NewProductRepositoryFS(client *firestore.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

// List returns every product, or those tagged with category when it is non-empty.
func (r *ProductRepositoryFS) List(ctx context.Context, category string) ([]productdom.Product, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	q := r.col().Query
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		q = q.Where("category", "array-contains", c)
	}
	return r.collect(ctx, q)
}

func (r *ProductRepositoryFS) ListFeatured(ctx context.Context) ([]productdom.Product, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	return r.collect(ctx, r.col().Where("isFeatured", "==", true))
}

func (r *ProductRepositoryFS) GetBySlug(ctx context.Context, slug string) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	it := r.col().Where("slug", "==", slug).Limit(1).Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return productdom.Product{}, productdom.ErrNotFound
	}
	if err != nil {
		return productdom.Product{}, fmt.Errorf("product_repository_fs: get by slug: %w", err)
	}
	return docToProduct(doc.Ref.ID, doc.Data()), nil
}

func (r *ProductRepositoryFS) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return docToProduct(snap.Ref.ID, snap.Data()), nil
}

func (r *ProductRepositoryFS) collect(ctx context.Context, q firestore.Query) ([]productdom.Product, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var out []productdom.Product
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("product_repository_fs: list: %w", err)
		}
		out = append(out, docToProduct(doc.Ref.ID, doc.Data()))
	}
	return out, nil
}

// ============================================================
// Helpers
// ============================================================

// docToProduct maps a product document; the document id wins over any stored "id" field.
func docToProduct(id string, data map[string]any) productdom.Product {
	getStr := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := data[k].(string); ok {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	return productdom.Product{
		ID:          id,
		Slug:        getStr("slug"),
		Name:        getStr("name"),
		Brand:       getStr("brand"),
		Description: getStr("description"),
		Price:       asFloat(data["price"]),
		Stock:       int(asInt64(data["stock"])),
		Category:    asStringSlice(data["category"]),
		Specs:       asStringMap(data["specs"]),
		ImageURLs:   asStringSlice(data["imageUrls"]),
		IsFeatured:  asBool(data["isFeatured"]),
	}
}

var _ productdom.Repository = (*ProductRepositoryFS)(nil)
