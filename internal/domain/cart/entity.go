// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
)

var (
	ErrInvalidItem     = errors.New("cart: invalid item")
	ErrInvalidSnapshot = errors.New("cart: invalid snapshot")
)

// LineItem represents one product's presence in a cart.
// Descriptive fields (slug/name/price/brand/imageUrl) are cached at add time and never re-fetched
// by the cart itself.
type LineItem struct {
	ProductID string  `json:"productId"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Brand     string  `json:"brand"`
	ImageURL  string  `json:"imageUrl"`
	Quantity  int     `json:"quantity"`
}

// Snapshot is the ordered set of line items at a point in time.
//   - Items are unique by ProductID; insertion order is display order.
//   - Seq is the logical write clock stamped by the owner on every mutation.
//     Stores use it to drop writes that land out of order.
type Snapshot struct {
	Items []LineItem `json:"items"`
	Seq   uint64     `json:"seq"`
}

// Empty returns an empty snapshot (Items is non-nil).
func Empty() Snapshot {
	return Snapshot{Items: []LineItem{}}
}

// Count is the sum of all quantities.
func (s Snapshot) Count() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// IsEmpty reports whether the snapshot has zero entries.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Clone returns a deep copy so callers can't alias the owner's slice.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Items: make([]LineItem, len(s.Items)), Seq: s.Seq}
	copy(out.Items, s.Items)
	return out
}

// Find returns the index of productID, or -1.
func (s Snapshot) Find(productID string) int {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add returns a new snapshot with item added.
// item.Quantity is the delta; an existing entry only has its quantity increased,
// the incoming descriptive fields are used on first insert only.
func (s Snapshot) Add(item LineItem) (Snapshot, error) {
	pid := strings.TrimSpace(item.ProductID)
	if pid == "" || item.Quantity <= 0 {
		return s, ErrInvalidItem
	}

	out := s.Clone()
	if idx := out.Find(pid); idx >= 0 {
		out.Items[idx].Quantity += item.Quantity
		return out, nil
	}

	item.ProductID = pid
	out.Items = append(out.Items, item)
	return out, nil
}

// Remove returns a new snapshot without productID. Absent ids are a no-op.
func (s Snapshot) Remove(productID string) Snapshot {
	out := s.Clone()
	idx := out.Find(strings.TrimSpace(productID))
	if idx < 0 {
		return out
	}
	// preserve order
	out.Items = append(out.Items[:idx], out.Items[idx+1:]...)
	return out
}

// SetQuantity sets the quantity of productID to exactly qty.
// qty <= 0 removes the entry. Absent ids are a no-op.
func (s Snapshot) SetQuantity(productID string, qty int) Snapshot {
	if qty <= 0 {
		return s.Remove(productID)
	}
	out := s.Clone()
	if idx := out.Find(strings.TrimSpace(productID)); idx >= 0 {
		out.Items[idx].Quantity = qty
	}
	return out
}

// Validate checks the snapshot invariants.
func (s Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Items))
	for _, it := range s.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 {
			return ErrInvalidSnapshot
		}
		if _, dup := seen[it.ProductID]; dup {
			return ErrInvalidSnapshot
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

// ----------------------------
// Reduced projection (remote)
// ----------------------------

// ReducedItem is the minimal persisted remote representation of a line item.
type ReducedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Reduce projects the snapshot to productId+quantity pairs.
func (s Snapshot) Reduce() []ReducedItem {
	out := make([]ReducedItem, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, ReducedItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// FromReduced rebuilds a snapshot from a reduced projection.
// Descriptive fields are left empty; invalid or duplicate entries are dropped (first wins).
func FromReduced(items []ReducedItem, seq uint64) Snapshot {
	out := Snapshot{Items: make([]LineItem, 0, len(items)), Seq: seq}
	for _, it := range items {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Quantity <= 0 || out.Find(pid) >= 0 {
			continue
		}
		out.Items = append(out.Items, LineItem{ProductID: pid, Quantity: it.Quantity})
	}
	return out
}
