// internal/application/usecase/cart_reconcile.go
package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	cartdom "musicore/internal/domain/cart"
	"musicore/internal/domain/identity"
	productdom "musicore/internal/domain/product"
)

// loadResult is the outcome of one load/merge pass.
type loadResult struct {
	snap    cartdom.Snapshot
	source  string
	highSeq uint64
	// pushRemote: the guest cart won a sign-in merge and must be written to the account.
	pushRemote bool
	// unverified: the store backing the identity could not be read.
	unverified bool
}

// Follow feeds identity signals into SetIdentity until states is closed or ctx is done.
func (c *CartContainer) Follow(ctx context.Context, states <-chan identity.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			c.SetIdentity(ctx, st)
		}
	}
}

// SetIdentity applies an identity change and, unless it is resolving, runs the
// load/sign-in reconciliation:
//
//  1. read local unconditionally
//  2. anonymous: local is the working cart
//  3. authenticated: read remote; a non-empty local cart wins outright, otherwise the
//     remote projection (re-hydrated from the catalog) is used; local is cleared afterward
//     unless it could not be read
//  4. ready
//
// A newer identity change supersedes a load still in flight. A read failure of the
// store backing the identity leaves the cart unverified (see CartContainer).
func (c *CartContainer) SetIdentity(ctx context.Context, st identity.State) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.ident = st
	if c.unverified && len(c.held) > 0 {
		c.log.Warn("identity changed with unverified cart; held mutations dropped",
			zap.Int("held", len(c.held)),
		)
	}
	c.unverified = false
	c.held = nil
	c.gen++
	gen := c.gen
	if !c.loading {
		c.loading = true
		c.readyCh = make(chan struct{})
	}
	c.mu.Unlock()

	c.log.Info("identity changed", zap.String("identity", st.String()))
	if st.IsResolving() {
		return
	}

	res := c.load(ctx, st)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Debug("load superseded by newer identity", zap.String("identity", st.String()))
		return
	}

	if res.highSeq > c.seq {
		c.seq = res.highSeq
	}

	snap := res.snap
	replayed := len(c.queued)
	for _, op := range c.queued {
		snap = op(snap)
	}
	if res.unverified {
		c.unverified = true
		c.held = append(c.held, c.queued...)
	}
	c.queued = nil

	persist := !res.unverified && (replayed > 0 || res.pushRemote)
	if persist {
		snap.Seq = c.nextSeqLocked()
	}

	c.snap = snap
	c.loading = false
	close(c.readyCh)

	c.log.Info("cart ready",
		zap.String("identity", st.String()),
		zap.String("source", res.source),
		zap.Int("items", len(snap.Items)),
		zap.Int("count", snap.Count()),
		zap.Int("replayed", replayed),
	)

	if persist {
		c.schedulePersistLocked(st, snap.Clone())
	}
	if c.unverified && len(c.held) > 0 {
		c.scheduleVerifyLocked()
	}
}

func (c *CartContainer) load(ctx context.Context, st identity.State) loadResult {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	local, err := c.local.Load(ctx)
	localOK := err == nil
	if !localOK {
		c.log.Warn("local load failed; stored guest cart left untouched", zap.Error(err))
		local = cartdom.Empty()
	}

	if !st.IsAuthenticated() {
		if !localOK {
			return loadResult{snap: local, source: "local_unverified", unverified: true}
		}
		return loadResult{snap: local, source: "local", highSeq: local.Seq}
	}

	rec, found, err := c.remote.Load(ctx, st.UID)
	remoteOK := err == nil
	if !remoteOK {
		c.log.Warn("remote load failed; account writes held until it can be read",
			zap.String("uid", st.UID),
			zap.Error(err),
		)
		found = false
	}

	res := loadResult{highSeq: local.Seq}
	if found && rec.Seq > res.highSeq {
		res.highSeq = rec.Seq
	}

	switch {
	case !local.IsEmpty():
		// guest picks on this device beat whatever the account held
		res.snap = local
		res.source = "local_wins"
		res.pushRemote = true
	case found:
		res.snap = c.hydrate(ctx, cartdom.FromReduced(rec.Items, rec.Seq))
		res.source = "remote"
	case !remoteOK:
		res.snap = cartdom.Empty()
		res.source = "remote_unverified"
		res.unverified = true
	default:
		res.snap = cartdom.Empty()
		res.source = "empty"
	}

	if !localOK {
		c.log.Warn("local cart not cleared after sign-in: it could not be read")
		return res
	}
	if err := c.local.Clear(ctx); err != nil {
		c.log.Warn("local clear after sign-in failed", zap.Error(err))
	}
	return res
}

// loadBase re-reads the store backing st: the guest snapshot, or the hydrated account
// projection (empty when the account has no record).
func (c *CartContainer) loadBase(ctx context.Context, st identity.State) (cartdom.Snapshot, uint64, error) {
	if !st.IsAuthenticated() {
		s, err := c.local.Load(ctx)
		if err != nil {
			return cartdom.Snapshot{}, 0, err
		}
		return s, s.Seq, nil
	}

	rec, found, err := c.remote.Load(ctx, st.UID)
	if err != nil {
		return cartdom.Snapshot{}, 0, err
	}
	if !found {
		return cartdom.Empty(), 0, nil
	}
	return c.hydrate(ctx, cartdom.FromReduced(rec.Items, rec.Seq)), rec.Seq, nil
}

// scheduleVerifyLocked retries the read of an unverified cart in the background. On
// success the held mutations are replayed onto the stored cart and the result is
// persisted; on failure they stay held until the next mutation retries.
func (c *CartContainer) scheduleVerifyLocked() {
	if c.verifying || c.closed {
		return
	}
	c.verifying = true
	st, gen := c.ident, c.gen

	c.writes.Add(1)
	go func() {
		defer c.writes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.readTimeout)
		defer cancel()
		base, highSeq, err := c.loadBase(ctx, st)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.verifying = false

		if gen != c.gen {
			if c.unverified && len(c.held) > 0 {
				c.scheduleVerifyLocked()
			}
			return
		}
		if !c.unverified {
			return
		}
		if err != nil {
			c.log.Warn("cart store still unreadable; mutations held",
				zap.String("identity", st.String()),
				zap.Int("held", len(c.held)),
				zap.Error(err),
			)
			return
		}

		if highSeq > c.seq {
			c.seq = highSeq
		}
		snap := base
		for _, op := range c.held {
			snap = op(snap)
		}
		snap.Seq = c.nextSeqLocked()

		c.log.Info("cart verified; held mutations replayed",
			zap.String("identity", st.String()),
			zap.Int("replayed", len(c.held)),
			zap.Int("count", snap.Count()),
		)
		c.snap = snap
		c.unverified = false
		c.held = nil
		c.schedulePersistLocked(st, snap.Clone())
	}()
}

// hydrate fills descriptive fields of reduced items from the catalog.
// Items that cannot be resolved keep id+quantity only.
func (c *CartContainer) hydrate(ctx context.Context, s cartdom.Snapshot) cartdom.Snapshot {
	if c.products == nil || s.IsEmpty() {
		return s
	}

	out := s.Clone()
	for i := range out.Items {
		it := &out.Items[i]
		p, err := c.products.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, productdom.ErrNotFound) {
				c.log.Debug("hydrate: product no longer in catalog", zap.String("productId", it.ProductID))
			} else {
				c.log.Warn("hydrate: product lookup failed", zap.String("productId", it.ProductID), zap.Error(err))
			}
			continue
		}
		it.Slug = p.Slug
		it.Name = p.Name
		it.Price = p.Price
		it.Brand = p.Brand
		it.ImageURL = p.PrimaryImage()
	}
	return out
}

// LineItemFromProduct builds a cart line item from a catalog product.
func LineItemFromProduct(p productdom.Product, qty int) cartdom.LineItem {
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
