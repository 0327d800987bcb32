// internal/domain/cart/repository_port.go
package cart

import (
	"context"
	"time"
)

// LocalStoreKey is the fixed storage key of the device-scoped snapshot.
const LocalStoreKey = "musicore_cart"

// LocalStore is the device-scoped snapshot slot (guest cart).
//
//   - Load returns Empty() when nothing is stored or the stored record is malformed.
//     Only I/O failures are returned as errors.
//   - Save overwrites the record in full; an empty snapshot is a valid value.
//     A write with a lower Seq than the stored record is discarded.
//   - Clear deletes the record.
type LocalStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	Clear(ctx context.Context) error
}

// RemoteSnapshot is the per-identity persisted record.
type RemoteSnapshot struct {
	Items     []ReducedItem
	Seq       uint64
	UpdatedAt time.Time
}

// RemoteStore is the per-identity snapshot record in the hosted document store.
//
//   - Load returns found=false (and nil error) for an identity with no record.
//   - Save replaces items/seq/updatedAt wholesale with the reduced projection of s.
//     A write with a lower Seq than the stored record is discarded.
type RemoteStore interface {
	Load(ctx context.Context, uid string) (rec RemoteSnapshot, found bool, err error)
	Save(ctx context.Context, uid string, s Snapshot) error
}
