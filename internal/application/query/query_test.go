package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicore/internal/adapters/out/memory"
	productdom "musicore/internal/domain/product"
	"musicore/internal/platform/pagecache"
)

type prefixResolver struct{}

func (prefixResolver) ResolveAll(_ context.Context, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, "https://img/"+strings.TrimLeft(r, "/"))
	}
	return out
}

type failingRepo struct{ productdom.Repository }

func (failingRepo) List(context.Context, string) ([]productdom.Product, error) {
	return nil, errors.New("firestore unavailable")
}

func (failingRepo) ListFeatured(context.Context) ([]productdom.Product, error) {
	return nil, errors.New("firestore unavailable")
}

func catalog() *CatalogQuery {
	repo := memory.NewProductRepository([]productdom.Product{
		{ID: "1", Slug: "strat", Name: "Strat", Category: []string{"guitars"}, ImageURLs: []string{"strat.png"}, IsFeatured: true},
		{ID: "2", Slug: "sr300", Name: "SR300", Category: []string{"bass"}},
	})
	return NewCatalogQuery(repo, prefixResolver{})
}

func TestCatalogQuery(t *testing.T) {
	ctx := context.Background()
	q := catalog()

	all, err := q.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"https://img/strat.png"}, all[0].ImageURLs)

	bass, err := q.ListProducts(ctx, " Bass ")
	require.NoError(t, err)
	require.Len(t, bass, 1)
	assert.Equal(t, "2", bass[0].ID)

	featured, err := q.ListFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)

	p, err := q.GetProductBySlug(ctx, "strat")
	require.NoError(t, err)
	assert.Equal(t, "https://img/strat.png", p.PrimaryImage())

	p, err = q.GetByID(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, p.ImageURLs)

	_, err = q.GetProductBySlug(ctx, "missing")
	assert.ErrorIs(t, err, productdom.ErrNotFound)
}

func TestCatalogQuery_NotConfigured(t *testing.T) {
	var q *CatalogQuery
	_, err := q.ListProducts(context.Background(), "")
	assert.Error(t, err)
}

func TestStorefrontPages_Render(t *testing.T) {
	ctx := context.Background()
	pages := NewStorefrontPages(catalog())

	b, err := pages.Render(ctx, pagecache.Page{Kind: pagecache.KindHome})
	require.NoError(t, err)
	var home HomePage
	require.NoError(t, json.Unmarshal(b, &home))
	require.Len(t, home.Featured, 1)
	assert.Equal(t, "strat", home.Featured[0].Slug)

	b, err = pages.Render(ctx, pagecache.Page{Kind: pagecache.KindCategory, Slug: "drums"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"drums","products":[]}`, string(b))

	b, err = pages.Render(ctx, pagecache.Page{Kind: pagecache.KindProduct, Slug: "sr300"})
	require.NoError(t, err)
	var pp ProductPage
	require.NoError(t, json.Unmarshal(b, &pp))
	assert.Equal(t, "SR300", pp.Product.Name)

	_, err = pages.Render(ctx, pagecache.Page{Kind: pagecache.KindProduct, Slug: "nope"})
	assert.ErrorIs(t, err, productdom.ErrNotFound)

	_, err = pages.Render(ctx, pagecache.Page{Kind: "bogus"})
	assert.ErrorIs(t, err, pagecache.ErrUnknownPage)
}

func TestStorefrontPages_RenderErrorSurfaces(t *testing.T) {
	pages := NewStorefrontPages(NewCatalogQuery(failingRepo{}, nil))
	_, err := pages.Render(context.Background(), pagecache.Page{Kind: pagecache.KindProducts})
	assert.Error(t, err)
}

func TestEmptyPage(t *testing.T) {
	b, ok := EmptyPage(pagecache.Page{Kind: pagecache.KindHome})
	require.True(t, ok)
	assert.JSONEq(t, `{"featured":[]}`, string(b))

	b, ok = EmptyPage(pagecache.Page{Kind: pagecache.KindCategory, Slug: "bass"})
	require.True(t, ok)
	assert.JSONEq(t, `{"category":"bass","products":[]}`, string(b))

	_, ok = EmptyPage(pagecache.Page{Kind: pagecache.KindProduct, Slug: "x"})
	assert.False(t, ok)
}
