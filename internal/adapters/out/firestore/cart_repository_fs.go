// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "musicore/internal/domain/cart"
)

const cartSchemaVersion = 1

// ErrUnsupportedCartSchema is returned for cart documents written with an unknown schemaVersion.
var ErrUnsupportedCartSchema = errors.New("cart_repository_fs: unsupported cart schema version")

// CartRepositoryFS implements cart.RemoteStore using Firestore.
//
// Collection design:
//   - collection: carts
//   - docId: uid (docId is the source of truth)
//   - fields: schemaVersion, items[{productId, quantity}], seq, lastUpdated
//
// Only the reduced projection is stored; descriptive fields are re-resolved on load.
type CartRepositoryFS struct {
	Client *firestore.Client
	log    *zap.Logger
}

func NewCartRepositoryFS(client *firestore.Client, logger *zap.Logger) *CartRepositoryFS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartRepositoryFS{Client: client, log: logger.Named("remote_cart_store")}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

// Load returns (_, false, nil) when the user has no cart document.
func (r *CartRepositoryFS) Load(ctx context.Context, uid string) (cartdom.RemoteSnapshot, bool, error) {
	if r == nil || r.Client == nil {
		return cartdom.RemoteSnapshot{}, false, errors.New("cart_repository_fs: firestore client is nil")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return cartdom.RemoteSnapshot{}, false, errors.New("cart_repository_fs: uid is empty")
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return cartdom.RemoteSnapshot{}, false, nil
		}
		return cartdom.RemoteSnapshot{}, false, err
	}

	rec, err := cartDocFromData(snap.Data())
	if err != nil {
		r.log.Warn("cart document rejected", zap.String("uid", uid), zap.Error(err))
		return cartdom.RemoteSnapshot{}, false, err
	}
	return rec, true, nil
}

// Save overwrites carts/{uid} with the reduced projection of snap, unless the stored
// document already carries a higher seq.
func (r *CartRepositoryFS) Save(ctx context.Context, uid string, snap cartdom.Snapshot) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("cart_repository_fs: uid is empty")
	}

	ref := r.col().Doc(uid)
	stale := false
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		stale = false
		cur, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && cur.Exists() {
			if stored := asInt64(cur.Data()["seq"]); stored > int64(snap.Seq) {
				stale = true
				return nil
			}
		}
		return tx.Set(ref, cartDocToData(snap, firestore.ServerTimestamp))
	})
	if err != nil {
		return err
	}
	if stale {
		r.log.Debug("stale cart write dropped", zap.String("uid", uid), zap.Uint64("seq", snap.Seq))
	}
	return nil
}

// ============================================================
// Document mapping
// ============================================================

// cartDocToData builds the stored document; lastUpdated is a value or firestore.ServerTimestamp.
func cartDocToData(snap cartdom.Snapshot, lastUpdated any) map[string]any {
	reduced := snap.Reduce()
	items := make([]any, 0, len(reduced))
	for _, it := range reduced {
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"quantity":  int64(it.Quantity),
		})
	}
	return map[string]any{
		"schemaVersion": int64(cartSchemaVersion),
		"items":         items,
		"seq":           int64(snap.Seq),
		"lastUpdated":   lastUpdated,
	}
}

// cartDocFromData parses a stored document. A schemaVersion other than the current one
// is rejected; documents without the field predate versioning and read as version 1.
// Items are parsed leniently: malformed or duplicate items are skipped and the first
// occurrence of an id wins.
func cartDocFromData(raw map[string]any) (cartdom.RemoteSnapshot, error) {
	out := cartdom.RemoteSnapshot{Items: []cartdom.ReducedItem{}}
	if raw == nil {
		return out, nil
	}

	if v, ok := raw["schemaVersion"]; ok {
		if got := asInt64(v); got != cartSchemaVersion {
			return cartdom.RemoteSnapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedCartSchema, got)
		}
	}

	if seq := asInt64(raw["seq"]); seq > 0 {
		out.Seq = uint64(seq)
	}
	if t, ok := asTime(raw["lastUpdated"]); ok {
		out.UpdatedAt = t.UTC()
	}

	list, _ := raw["items"].([]any)
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		id := strings.TrimSpace(asString(m["productId"]))
		qty := int(asInt64(m["quantity"]))
		if id == "" || qty <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out.Items = append(out.Items, cartdom.ReducedItem{ProductID: id, Quantity: qty})
	}
	return out, nil
}

var _ cartdom.RemoteStore = (*CartRepositoryFS)(nil)
