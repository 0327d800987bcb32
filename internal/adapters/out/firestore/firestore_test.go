package firestore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "musicore/internal/domain/cart"
	productdom "musicore/internal/domain/product"
)

func TestCartDocToData(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := cartdom.Snapshot{
		Items: []cartdom.LineItem{
			{ProductID: "A", Name: "Amp", Price: 10, Quantity: 2},
			{ProductID: "B", Name: "Bass", Quantity: 1},
		},
		Seq: 42,
	}

	got := cartDocToData(snap, ts)

	assert.Equal(t, int64(1), got["schemaVersion"])
	assert.Equal(t, int64(42), got["seq"])
	assert.Equal(t, ts, got["lastUpdated"])
	assert.Equal(t, []any{
		map[string]any{"productId": "A", "quantity": int64(2)},
		map[string]any{"productId": "B", "quantity": int64(1)},
	}, got["items"])
}

func TestCartDocFromData(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"schemaVersion": int64(1),
		"seq":           int64(9),
		"lastUpdated":   ts,
		"items": []any{
			map[string]any{"productId": "A", "quantity": int64(2)},
			map[string]any{"productId": " ", "quantity": int64(1)},
			map[string]any{"productId": "B", "quantity": float64(3)},
			map[string]any{"productId": "C", "quantity": int64(0)},
			map[string]any{"productId": "A", "quantity": int64(7)},
			"garbage",
		},
	}

	got, err := cartDocFromData(raw)
	require.NoError(t, err)

	assert.Equal(t, uint64(9), got.Seq)
	assert.Equal(t, ts, got.UpdatedAt)
	assert.Equal(t, []cartdom.ReducedItem{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 3},
	}, got.Items)
}

func TestCartDocFromData_Empty(t *testing.T) {
	got, err := cartDocFromData(nil)
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.Seq)

	got, err = cartDocFromData(map[string]any{"items": "not a list"})
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCartDocFromData_SchemaVersion(t *testing.T) {
	items := []any{map[string]any{"productId": "A", "quantity": int64(1)}}

	// written before schemaVersion existed
	got, err := cartDocFromData(map[string]any{"items": items})
	require.NoError(t, err)
	assert.Equal(t, []cartdom.ReducedItem{{ProductID: "A", Quantity: 1}}, got.Items)

	for _, v := range []any{int64(2), int64(0), "v3"} {
		_, err := cartDocFromData(map[string]any{"schemaVersion": v, "items": items})
		assert.ErrorIs(t, err, ErrUnsupportedCartSchema, "schemaVersion %v", v)
	}
}

func TestDocToProduct(t *testing.T) {
	p := docToProduct("doc-1", map[string]any{
		"id":          "ignored",
		"slug":        " strat ",
		"name":        "Stratocaster",
		"brand":       "Fender",
		"price":       int64(1299),
		"stock":       int64(4),
		"category":    []any{"guitars", "", "electric"},
		"specs":       map[string]any{"frets": int64(22), "body": "alder"},
		"imageUrls":   []any{"gs://bucket/strat.png"},
		"isFeatured":  true,
		"description": "A classic.",
	})

	assert.Equal(t, productdom.Product{
		ID:          "doc-1",
		Slug:        "strat",
		Name:        "Stratocaster",
		Brand:       "Fender",
		Description: "A classic.",
		Price:       1299,
		Stock:       4,
		Category:    []string{"guitars", "electric"},
		Specs:       map[string]string{"frets": "22", "body": "alder"},
		ImageURLs:   []string{"gs://bucket/strat.png"},
		IsFeatured:  true,
	}, p)
}

// ============================================================
// Emulator
// ============================================================

func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "musicore-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCartRepositoryFS_Emulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	repo := NewCartRepositoryFS(client, nil)
	uid := fmt.Sprintf("u-%d", time.Now().UnixNano())

	_, found, err := repo.Load(ctx, uid)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Save(ctx, uid, cartdom.Snapshot{
		Items: []cartdom.LineItem{{ProductID: "A", Name: "Amp", Quantity: 2}},
		Seq:   10,
	}))
	// lower seq is dropped
	require.NoError(t, repo.Save(ctx, uid, cartdom.Snapshot{Items: []cartdom.LineItem{}, Seq: 5}))

	rec, found, err := repo.Load(ctx, uid)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []cartdom.ReducedItem{{ProductID: "A", Quantity: 2}}, rec.Items)
	assert.Equal(t, uint64(10), rec.Seq)
	assert.False(t, rec.UpdatedAt.IsZero())

	require.NoError(t, repo.Save(ctx, uid, cartdom.Snapshot{Items: []cartdom.LineItem{}, Seq: 11}))
	rec, _, err = repo.Load(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, rec.Items)
}

func TestProductRepositoryFS_Emulator(t *testing.T) {
	client := emulatorClient(t)
	ctx := context.Background()
	suffix := fmt.Sprint(time.Now().UnixNano())

	_, err := client.Collection("products").Doc("p1-"+suffix).Set(ctx, map[string]any{
		"slug":       "strat-" + suffix,
		"name":       "Strat",
		"category":   []any{"guitars-" + suffix},
		"isFeatured": true,
	})
	require.NoError(t, err)

	repo := NewProductRepositoryFS(client)

	p, err := repo.GetBySlug(ctx, "strat-"+suffix)
	require.NoError(t, err)
	assert.Equal(t, "p1-"+suffix, p.ID)

	byID, err := repo.GetByID(ctx, "p1-"+suffix)
	require.NoError(t, err)
	assert.Equal(t, "Strat", byID.Name)

	list, err := repo.List(ctx, "GUITARS-"+suffix)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = repo.GetBySlug(ctx, "missing-"+suffix)
	assert.ErrorIs(t, err, productdom.ErrNotFound)
	_, err = repo.GetByID(ctx, "missing-"+suffix)
	assert.ErrorIs(t, err, productdom.ErrNotFound)
}
