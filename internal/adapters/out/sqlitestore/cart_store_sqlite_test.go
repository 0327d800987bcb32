package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "musicore/internal/domain/cart"
)

func openMemory(t *testing.T) *CartStore {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(seq uint64) cartdom.Snapshot {
	return cartdom.Snapshot{
		Items: []cartdom.LineItem{
			{ProductID: "A", Slug: "amp", Name: "Amp", Price: 199.5, Brand: "Fender", ImageURL: "https://x/a.png", Quantity: 2},
			{ProductID: "B", Slug: "bass", Name: "Bass", Price: 899, Quantity: 1},
		},
		Seq: seq,
	}
}

func (s *CartStore) putRaw(t *testing.T, payload string) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO kv_slots (slot_key, seq, payload, updated_at) VALUES (?, 0, ?, '')`,
		s.key, payload,
	)
	require.NoError(t, err)
}

func TestCartStore_LoadMissingIsEmpty(t *testing.T) {
	s := openMemory(t)
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.Items)
}

func TestCartStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		snap cartdom.Snapshot
	}{
		{"items", sample(17)},
		{"empty", cartdom.Empty()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openMemory(t)
			require.NoError(t, s.Save(ctx, tt.snap))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.snap, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCartStore_StaleSeqDropped(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Save(ctx, sample(10)))
	require.NoError(t, s.Save(ctx, cartdom.Snapshot{Items: []cartdom.LineItem{}, Seq: 9}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Seq)
	assert.Len(t, got.Items, 2)

	// equal or newer seq overwrites
	require.NoError(t, s.Save(ctx, cartdom.Snapshot{Items: []cartdom.LineItem{}, Seq: 11}))
	got, _ = s.Load(ctx)
	assert.True(t, got.IsEmpty())
}

func TestCartStore_MalformedIsEmpty(t *testing.T) {
	payloads := map[string]string{
		"not json":        `{{{`,
		"wrong version":   `{"version":7,"seq":1,"items":[]}`,
		"zero quantity":   `{"version":1,"seq":1,"items":[{"productId":"A","quantity":0}]}`,
		"blank id":        `{"version":1,"seq":1,"items":[{"productId":"","quantity":1}]}`,
		"duplicate ids":   `{"version":1,"seq":1,"items":[{"productId":"A","quantity":1},{"productId":"A","quantity":2}]}`,
		"items not array": `{"version":1,"seq":1,"items":"nope"}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			s := openMemory(t)
			s.putRaw(t, payload)

			got, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.True(t, got.IsEmpty())
		})
	}
}

func TestCartStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Save(ctx, sample(3)))
	require.NoError(t, s.Clear(ctx))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, uint64(0), got.Seq)
}

func TestCartStore_FilePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cart.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sample(5)))
	id1, err := s.DeviceID(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(sample(5), got))

	id2, err := s2.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.NotEmpty(t, id1)
}
