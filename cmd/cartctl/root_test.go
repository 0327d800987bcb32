package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"musicore/internal/adapters/out/memory"
	"musicore/internal/application/query"
	cartdom "musicore/internal/domain/cart"
	productdom "musicore/internal/domain/product"
	"musicore/internal/platform/di"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type tokens map[string]string

func (t tokens) VerifyIDToken(_ context.Context, tok string) (*fbauth.Token, error) {
	if uid, ok := t[tok]; ok {
		return &fbauth.Token{UID: uid}, nil
	}
	return nil, errors.New("token rejected")
}

// device is one simulated install: stores survive across cartctl invocations.
type device struct {
	local  *memory.LocalCartStore
	remote *memory.RemoteCartStore
}

func newDevice() *device {
	return &device{local: memory.NewLocalCartStore(), remote: memory.NewRemoteCartStore()}
}

func (d *device) open(_ context.Context, _ options) (*di.CartClient, func(), error) {
	catalog := query.NewCatalogQuery(memory.NewProductRepository([]productdom.Product{
		{ID: "p1", Slug: "fender-strat", Name: "Stratocaster", Price: 1299},
		{ID: "p2", Slug: "ibanez-sr", Name: "SR300", Price: 399},
	}), nil)
	c, err := di.NewCartClientFromDeps(di.CartClientDeps{
		Local:    d.local,
		Remote:   d.remote,
		Verifier: tokens{"good": "u1"},
	}, catalog, time.Second, nil)
	return c, func() {}, err
}

func (d *device) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(d.open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCartctl_GuestCommands(t *testing.T) {
	d := newDevice()

	out, err := d.run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cart is empty")

	out, err = d.run(t, "add", "p1", "--qty", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Stratocaster")
	assert.Contains(t, out, "2 item(s)")

	_, err = d.run(t, "add", "p2")
	require.NoError(t, err)

	out, err = d.run(t, "set", "p2", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "6 item(s)")

	out, err = d.run(t, "remove", "p1")
	require.NoError(t, err)
	assert.NotContains(t, out, "Stratocaster")
	assert.Contains(t, out, "4 item(s)")

	snap, err := d.local.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cartdom.ReducedItem{{ProductID: "p2", Quantity: 4}}, snap.Reduce())

	out, err = d.run(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cart is empty")
}

func TestCartctl_Errors(t *testing.T) {
	d := newDevice()

	_, err := d.run(t, "add", "nope")
	assert.ErrorContains(t, err, `product "nope" not found`)

	_, err = d.run(t, "add", "p1", "--qty", "0")
	assert.Error(t, err)

	_, err = d.run(t, "set", "p1", "many")
	assert.ErrorContains(t, err, "invalid quantity")

	_, err = d.run(t, "remove")
	assert.Error(t, err)
}

func TestCartctl_SyncMovesGuestCartToAccount(t *testing.T) {
	d := newDevice()

	_, err := d.run(t, "add", "p2", "--qty", "3")
	require.NoError(t, err)

	out, err := d.run(t, "--id-token", "good", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "identity: authenticated(u1)")
	assert.Contains(t, out, "3 item(s)")

	rec, found, err := d.remote.Load(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []cartdom.ReducedItem{{ProductID: "p2", Quantity: 3}}, rec.Items)

	// the guest snapshot was handed over
	out, err = d.run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cart is empty")

	// the account cart is hydrated from the catalog
	out, err = d.run(t, "--id-token", "good", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "SR300")
}

func TestCartctl_RejectedTokenStaysGuest(t *testing.T) {
	d := newDevice()

	out, err := d.run(t, "--id-token", "forged", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "identity: anonymous")
}
