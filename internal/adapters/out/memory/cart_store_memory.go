// internal/adapters/out/memory/cart_store_memory.go
package memory

import (
	"context"
	"sync"
	"time"

	cartdom "musicore/internal/domain/cart"
)

// LocalCartStore is an in-process cart.LocalStore (dev mode / tests).
type LocalCartStore struct {
	mu     sync.Mutex
	snap   *cartdom.Snapshot
	saves    int
	failOn   error
	failLoad error
}

func NewLocalCartStore() *LocalCartStore {
	return &LocalCartStore{}
}

func (s *LocalCartStore) Load(_ context.Context) (cartdom.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad != nil {
		return cartdom.Snapshot{}, s.failLoad
	}
	if s.snap == nil {
		return cartdom.Empty(), nil
	}
	return s.snap.Clone(), nil
}

func (s *LocalCartStore) Save(_ context.Context, snap cartdom.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		return s.failOn
	}
	if s.snap != nil && snap.Seq < s.snap.Seq {
		return nil
	}
	cp := snap.Clone()
	if cp.Items == nil {
		cp.Items = []cartdom.LineItem{}
	}
	s.snap = &cp
	s.saves++
	return nil
}

func (s *LocalCartStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}

// FailWith makes every subsequent Save return err (nil restores normal behaviour).
func (s *LocalCartStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = err
}

// FailLoadWith makes every subsequent Load return err (nil restores normal behaviour).
func (s *LocalCartStore) FailLoadWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad = err
}

// Saves is the number of applied writes.
func (s *LocalCartStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Stored reports whether a record exists.
func (s *LocalCartStore) Stored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap != nil
}

// ------------------------------------------------------------

// RemoteCartStore is an in-process cart.RemoteStore keyed by uid.
type RemoteCartStore struct {
	mu       sync.Mutex
	docs     map[string]cartdom.RemoteSnapshot
	now      func() time.Time
	failOn   error
	failLoad error
}

func NewRemoteCartStore() *RemoteCartStore {
	return &RemoteCartStore{
		docs: map[string]cartdom.RemoteSnapshot{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *RemoteCartStore) Load(_ context.Context, uid string) (cartdom.RemoteSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad != nil {
		return cartdom.RemoteSnapshot{}, false, s.failLoad
	}
	rec, ok := s.docs[uid]
	if !ok {
		return cartdom.RemoteSnapshot{}, false, nil
	}
	rec.Items = append([]cartdom.ReducedItem{}, rec.Items...)
	return rec, true, nil
}

func (s *RemoteCartStore) Save(_ context.Context, uid string, snap cartdom.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		return s.failOn
	}
	if cur, ok := s.docs[uid]; ok && snap.Seq < cur.Seq {
		return nil
	}
	s.docs[uid] = cartdom.RemoteSnapshot{
		Items:     snap.Reduce(),
		Seq:       snap.Seq,
		UpdatedAt: s.now(),
	}
	return nil
}

// Put seeds a record directly.
func (s *RemoteCartStore) Put(uid string, rec cartdom.RemoteSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uid] = rec
}

func (s *RemoteCartStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = err
}

func (s *RemoteCartStore) FailLoadWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad = err
}
