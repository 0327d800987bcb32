package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	productdom "musicore/internal/domain/product"
)

const sampleSeed = `
products:
  - id: p1
    slug: fender-strat
    name: Stratocaster
    brand: Fender
    price: 1299.99
    stock: 3
    category: [Guitars, " Electric "]
    specs:
      body: alder
    imageUrls: [products/strat.png]
    isFeatured: true
  - id: p2
    slug: ibanez-sr
    name: SR300
    brand: Ibanez
    price: 399
    category: [bass]
`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseCatalog(t *testing.T) {
	got, err := ParseCatalog([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, productdom.Product{
		ID:         "p1",
		Slug:       "fender-strat",
		Name:       "Stratocaster",
		Brand:      "Fender",
		Price:      1299.99,
		Stock:      3,
		Category:   []string{"guitars", "electric"},
		Specs:      map[string]string{"body": "alder"},
		ImageURLs:  []string{"products/strat.png"},
		IsFeatured: true,
	}, got[0])
	assert.False(t, got[1].IsFeatured)
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "products: [",
		"missing slug":   "products:\n  - id: a\n",
		"duplicate id":   "products:\n  - {id: a, slug: x}\n  - {id: a, slug: y}\n",
		"duplicate slug": "products:\n  - {id: a, slug: x}\n  - {id: b, slug: x}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCatalogWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSeed), 0o600))

	reloaded := make(chan []productdom.Product, 4)
	w := NewCatalogWatcher(path, func(p []productdom.Product) { reloaded <- p }, nil)
	w.debounce = 20 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// invalid content is ignored
	require.NoError(t, os.WriteFile(path, []byte("products: ["), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - {id: x, slug: only}\n"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-reloaded:
			// a reload may observe the truncated file first
			if len(got) == 0 {
				continue
			}
			require.Len(t, got, 1)
			assert.Equal(t, "only", got[0].Slug)
			return
		case <-deadline:
			t.Fatal("catalog was not reloaded")
		}
	}
}

func TestCatalogWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	w := NewCatalogWatcher(path, nil, nil)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
