// internal/application/query/cart_query.go
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	cartdom "musicore/internal/domain/cart"
	productdom "musicore/internal/domain/product"
)

// RemoteCartReader is the read side of cart.RemoteStore.
type RemoteCartReader interface {
	Load(ctx context.Context, uid string) (cartdom.RemoteSnapshot, bool, error)
}

// CartView is the account cart as shown to its owner.
type CartView struct {
	UID       string             `json:"uid"`
	Items     []cartdom.LineItem `json:"items"`
	Count     int                `json:"count"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
}

// CartQuery assembles an account cart from the remote projection and the catalog.
type CartQuery struct {
	carts   RemoteCartReader
	catalog *CatalogQuery
}

func NewCartQuery(carts RemoteCartReader, catalog *CatalogQuery) *CartQuery {
	return &CartQuery{carts: carts, catalog: catalog}
}

// GetByUID returns an empty view when the user has no stored cart.
// Items missing from the catalog keep id and quantity only.
func (q *CartQuery) GetByUID(ctx context.Context, uid string) (CartView, error) {
	if q == nil || q.carts == nil {
		return CartView{}, errors.New("cart query is not configured")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return CartView{}, errors.New("cart query: uid is empty")
	}

	rec, found, err := q.carts.Load(ctx, uid)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{UID: uid, Items: []cartdom.LineItem{}}
	if !found {
		return view, nil
	}

	snap := cartdom.FromReduced(rec.Items, rec.Seq)
	for _, it := range snap.Items {
		if q.catalog != nil {
			p, err := q.catalog.GetProductByID(ctx, it.ProductID)
			switch {
			case err == nil:
				it = lineItem(p, it.Quantity)
			case !errors.Is(err, productdom.ErrNotFound):
				return CartView{}, err
			}
		}
		view.Items = append(view.Items, it)
	}
	view.Count = snap.Count()
	if !rec.UpdatedAt.IsZero() {
		t := rec.UpdatedAt.UTC()
		view.UpdatedAt = &t
	}
	return view, nil
}

func lineItem(p productdom.Product, qty int) cartdom.LineItem {
	return cartdom.LineItem{
		ProductID: p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Price:     p.Price,
		Brand:     p.Brand,
		ImageURL:  p.PrimaryImage(),
		Quantity:  qty,
	}
}
