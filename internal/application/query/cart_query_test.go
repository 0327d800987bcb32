package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicore/internal/adapters/out/memory"
	cartdom "musicore/internal/domain/cart"
)

type brokenCarts struct{}

func (brokenCarts) Load(context.Context, string) (cartdom.RemoteSnapshot, bool, error) {
	return cartdom.RemoteSnapshot{}, false, errors.New("deadline exceeded")
}

func TestCartQuery_GetByUID(t *testing.T) {
	ctx := context.Background()
	carts := memory.NewRemoteCartStore()
	require.NoError(t, carts.Save(ctx, "u1", cartdom.Snapshot{
		Items: []cartdom.LineItem{
			{ProductID: "1", Quantity: 2},
			{ProductID: "gone", Quantity: 1},
		},
		Seq: 3,
	}))

	q := NewCartQuery(carts, catalog())

	view, err := q.GetByUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", view.UID)
	assert.Equal(t, 3, view.Count)
	require.Len(t, view.Items, 2)
	assert.Equal(t, cartdom.LineItem{
		ProductID: "1", Slug: "strat", Name: "Strat", ImageURL: "https://img/strat.png", Quantity: 2,
	}, view.Items[0])
	assert.Equal(t, cartdom.LineItem{ProductID: "gone", Quantity: 1}, view.Items[1])
	assert.NotNil(t, view.UpdatedAt)
}

func TestCartQuery_NotFoundIsEmpty(t *testing.T) {
	q := NewCartQuery(memory.NewRemoteCartStore(), catalog())

	view, err := q.GetByUID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.NotNil(t, view.Items)
	assert.Zero(t, view.Count)
	assert.Nil(t, view.UpdatedAt)
}

func TestCartQuery_Errors(t *testing.T) {
	q := NewCartQuery(brokenCarts{}, catalog())
	_, err := q.GetByUID(context.Background(), "u1")
	assert.Error(t, err)

	_, err = q.GetByUID(context.Background(), " ")
	assert.Error(t, err)
}
