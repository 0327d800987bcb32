// internal/platform/di/cart_client.go
package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	fbadapter "musicore/internal/adapters/out/firebase"
	"musicore/internal/adapters/out/sqlitestore"
	"musicore/internal/application/query"
	"musicore/internal/application/usecase"
	cartdom "musicore/internal/domain/cart"
)

// LocalCartFile is the device snapshot database under the cartctl home directory.
const LocalCartFile = "cart.db"

// CartClient is the device side of the cart: the local SQLite snapshot, the account
// store, the identity watcher and the container that follows it.
type CartClient struct {
	Cart     *usecase.CartContainer
	Catalog  *query.CatalogQuery
	Identity *fbadapter.IdentityWatcher

	local      *sqlitestore.CartStore
	log        *zap.Logger
	started    bool
	followDone chan struct{}
}

// CartClientDeps are the stores and token verifier behind a CartClient.
type CartClientDeps struct {
	Local    cartdom.LocalStore
	Remote   cartdom.RemoteStore
	Verifier fbadapter.TokenVerifier
}

// NewCartClient opens home/cart.db and wires the container against infra.
func NewCartClient(infra *Infra, home string, logger *zap.Logger) (*CartClient, error) {
	if infra == nil || infra.Config == nil {
		return nil, errors.New("di.cart_client: infra is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	home = strings.TrimSpace(home)
	if home == "" {
		return nil, errors.New("di.cart_client: home directory is empty")
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("di.cart_client: create home: %w", err)
	}
	local, err := sqlitestore.Open(filepath.Join(home, LocalCartFile), logger)
	if err != nil {
		return nil, err
	}

	products, _, err := newProductRepository(infra, logger)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	catalog := query.NewCatalogQuery(products, newImageResolver(infra, logger))

	deps := CartClientDeps{
		Local:  local,
		Remote: newRemoteCartStore(infra, logger),
	}
	if infra.FirebaseAuth != nil {
		deps.Verifier = infra.FirebaseAuth
	}

	c, err := NewCartClientFromDeps(deps, catalog, infra.Config.CartWriteTimeout, logger)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	c.local = local
	return c, nil
}

// NewCartClientFromDeps wires a client over caller-supplied stores (no local file is owned).
// storeTimeout bounds every store read and write of the container.
func NewCartClientFromDeps(deps CartClientDeps, catalog *query.CatalogQuery, storeTimeout time.Duration, logger *zap.Logger) (*CartClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cart, err := usecase.NewCartContainer(usecase.CartContainerDeps{
		Local:        deps.Local,
		Remote:       deps.Remote,
		Products:     catalog,
		Logger:       logger,
		WriteTimeout: storeTimeout,
		ReadTimeout:  storeTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &CartClient{
		Cart:       cart,
		Catalog:    catalog,
		Identity:   fbadapter.NewIdentityWatcher(deps.Verifier, logger),
		log:        logger.Named("cart_client"),
		followDone: make(chan struct{}),
	}, nil
}

// Start makes the container follow the identity watcher, signs in with idToken (if
// any) and waits until the cart is loaded. A rejected token leaves the device
// anonymous; it is logged, not returned.
func (c *CartClient) Start(ctx context.Context, idToken string) error {
	if c.started {
		return errors.New("di.cart_client: already started")
	}
	c.started = true
	go func() {
		defer close(c.followDone)
		c.Cart.Follow(context.WithoutCancel(ctx), c.Identity.States())
	}()

	if _, err := c.Identity.Start(ctx, idToken); err != nil {
		if ctx.Err() != nil || errors.Is(err, fbadapter.ErrWatcherClosed) {
			return err
		}
		c.log.Warn("sign-in failed; continuing as guest", zap.Error(err))
	}
	return c.Cart.WaitReady(ctx)
}

// Close waits for pending writes (until ctx is done), then releases the watcher and
// the local store.
func (c *CartClient) Close(ctx context.Context) error {
	flushErr := c.Cart.Close(ctx)

	c.Identity.Close()
	if c.started {
		select {
		case <-c.followDone:
		case <-ctx.Done():
		}
	}

	var closeErr error
	if c.local != nil {
		closeErr = c.local.Close()
	}
	return errors.Join(flushErr, closeErr)
}
