// internal/application/usecase/cart_container.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	cartdom "musicore/internal/domain/cart"
	"musicore/internal/domain/identity"
	productdom "musicore/internal/domain/product"
)

const (
	// DefaultCartWriteTimeout bounds one asynchronous persistence call.
	DefaultCartWriteTimeout = 10 * time.Second
	// DefaultCartReadTimeout bounds the store reads (and catalog hydration) of one load.
	DefaultCartReadTimeout = 10 * time.Second
)

var ErrCartContainerDeps = errors.New("cart_container: local and remote stores are required")

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ProductResolver re-resolves descriptive fields for items restored from the remote projection.
type ProductResolver interface {
	GetByID(ctx context.Context, id string) (productdom.Product, error)
}

// CartContainerDeps wires a CartContainer. Products, Logger and Clock are optional.
type CartContainerDeps struct {
	Local        cartdom.LocalStore
	Remote       cartdom.RemoteStore
	Products     ProductResolver
	Logger       *zap.Logger
	Clock        Clock
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// cartOp is one mutation, kept so it can be replayed onto a freshly loaded snapshot.
type cartOp func(cartdom.Snapshot) cartdom.Snapshot

// CartContainer is the sole mutation authority over the in-memory cart.
//
//   - Mutations apply synchronously; persistence runs asynchronously against the store
//     matching the identity at scheduling time (guest -> local, authenticated -> remote).
//   - While a load is in progress (LoadingCart), mutations are applied to the placeholder,
//     queued, and replayed onto the loaded snapshot; nothing is persisted until then.
//   - Every snapshot is stamped with a monotonic Seq; stores drop lower-Seq writes.
//   - When the store backing the current identity could not be read, the cart is
//     unverified: mutations are held and no write reaches that store until a retried
//     load succeeds, then they are replayed onto what the store actually holds.
type CartContainer struct {
	local        cartdom.LocalStore
	remote       cartdom.RemoteStore
	products     ProductResolver
	log          *zap.Logger
	clock        Clock
	writeTimeout time.Duration
	readTimeout  time.Duration

	mu      sync.Mutex
	snap    cartdom.Snapshot
	ident   identity.State
	loading bool
	readyCh chan struct{}
	gen     uint64
	seq     uint64
	queued  []cartOp
	closed  bool

	unverified bool
	held       []cartOp
	verifying  bool

	writes sync.WaitGroup
}

func NewCartContainer(deps CartContainerDeps) (*CartContainer, error) {
	if deps.Local == nil || deps.Remote == nil {
		return nil, ErrCartContainerDeps
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock{}
	}
	timeout := deps.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultCartWriteTimeout
	}
	readTimeout := deps.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultCartReadTimeout
	}

	return &CartContainer{
		local:        deps.Local,
		remote:       deps.Remote,
		products:     deps.Products,
		log:          logger.Named("cart"),
		clock:        clock,
		writeTimeout: timeout,
		readTimeout:  readTimeout,
		snap:         cartdom.Empty(),
		ident:        identity.Resolving(),
		loading:      true,
		readyCh:      make(chan struct{}),
	}, nil
}

// ============================================================
// Mutations
// ============================================================

// AddItem adds item.Quantity (the delta) to the entry for item.ProductID, appending a
// new entry when absent. A delta below 1 is ignored.
func (c *CartContainer) AddItem(item cartdom.LineItem) {
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.ProductID == "" {
		c.log.Warn("add item ignored: empty productId")
		return
	}
	if item.Quantity < 1 {
		c.log.Warn("add item ignored: non-positive quantity",
			zap.String("productId", item.ProductID),
			zap.Int("quantity", item.Quantity),
		)
		return
	}

	c.mutate("add", func(s cartdom.Snapshot) cartdom.Snapshot {
		next, err := s.Add(item)
		if err != nil {
			return s.Clone()
		}
		return next
	})
}

// RemoveItem removes productID; absent ids are a no-op.
func (c *CartContainer) RemoveItem(productID string) {
	c.mutate("remove", func(s cartdom.Snapshot) cartdom.Snapshot {
		return s.Remove(productID)
	})
}

// UpdateItemQuantity sets the quantity exactly; quantity <= 0 removes the entry.
func (c *CartContainer) UpdateItemQuantity(productID string, quantity int) {
	c.mutate("update_quantity", func(s cartdom.Snapshot) cartdom.Snapshot {
		return s.SetQuantity(productID, quantity)
	})
}

// ClearCart empties the cart and persists the empty snapshot.
func (c *CartContainer) ClearCart() {
	c.mutate("clear", func(cartdom.Snapshot) cartdom.Snapshot {
		return cartdom.Empty()
	})
}

func (c *CartContainer) mutate(name string, op cartOp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := op(c.snap)
	next.Seq = c.nextSeqLocked()
	c.snap = next

	if c.loading {
		c.queued = append(c.queued, op)
		c.log.Debug("mutation queued while loading",
			zap.String("op", name),
			zap.Int("queued", len(c.queued)),
		)
		return
	}
	if c.unverified {
		c.held = append(c.held, op)
		c.scheduleVerifyLocked()
		return
	}

	c.schedulePersistLocked(c.ident, next.Clone())
}

// nextSeqLocked is a hybrid logical clock: strictly increasing, seeded by wall time
// so a fresh process still outruns records it wrote earlier.
func (c *CartContainer) nextSeqLocked() uint64 {
	next := c.seq + 1
	if now := c.clock.Now().UnixNano(); now > 0 && uint64(now) > next {
		next = uint64(now)
	}
	c.seq = next
	return next
}

// ============================================================
// Derived reads
// ============================================================

func (c *CartContainer) CartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Count()
}

func (c *CartContainer) IsCartEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.IsEmpty()
}

// LoadingCart reports whether a load is still pending; derived reads are provisional while true.
func (c *CartContainer) LoadingCart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *CartContainer) Items() []cartdom.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Clone().Items
}

func (c *CartContainer) Snapshot() cartdom.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Clone()
}

func (c *CartContainer) Identity() identity.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ident
}

// WaitReady blocks until no load is pending or ctx is done.
func (c *CartContainer) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	if !c.loading {
		c.mu.Unlock()
		return nil
	}
	ch := c.readyCh
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================
// Persistence
// ============================================================

func (c *CartContainer) schedulePersistLocked(target identity.State, snap cartdom.Snapshot) {
	if c.closed {
		c.log.Debug("persist skipped: container closed", zap.Uint64("seq", snap.Seq))
		return
	}
	if target.IsResolving() {
		return
	}

	c.writes.Add(1)
	go func() {
		defer c.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
		defer cancel()
		c.persist(ctx, target, snap)
	}()
}

func (c *CartContainer) persist(ctx context.Context, target identity.State, snap cartdom.Snapshot) {
	var err error
	store := "local"
	if target.IsAuthenticated() {
		store = "remote"
		err = c.remote.Save(ctx, target.UID, snap)
	} else {
		err = c.local.Save(ctx, snap)
	}

	if err != nil {
		c.log.Warn("persist failed",
			zap.String("store", store),
			zap.String("identity", target.String()),
			zap.Uint64("seq", snap.Seq),
			zap.Error(err),
		)
		return
	}
	c.log.Debug("persisted",
		zap.String("store", store),
		zap.Uint64("seq", snap.Seq),
		zap.Int("items", len(snap.Items)),
	)
}

// Close stops scheduling persistence and waits for in-flight writes until ctx is done.
func (c *CartContainer) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	if c.unverified && len(c.held) > 0 {
		c.log.Warn("closing with unverified cart; held mutations were not persisted",
			zap.String("identity", c.ident.String()),
			zap.Int("held", len(c.held)),
		)
	}
	c.mu.Unlock()

	return c.Flush(ctx)
}

// Flush waits for writes scheduled so far until ctx is done.
func (c *CartContainer) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.writes.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
