package gcs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImageURLResolver_Public(t *testing.T) {
	r := NewImageURLResolver("musicore-images", nil, 0, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"blank", "  ", ""},
		{"absolute url kept", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"gs url", "gs://other/products/a.png", "https://storage.googleapis.com/other/products/a.png"},
		{"bare path", "/products/a.png", "https://storage.googleapis.com/musicore-images/products/a.png"},
		{"gcs https url", "https://storage.cloud.google.com/b/x%20y.png", "https://storage.googleapis.com/b/x y.png"},
		{"malformed gs", "gs://only-bucket", "gs://only-bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(ctx, tt.ref))
		})
	}
}

func TestImageURLResolver_NoBucketKeepsBarePath(t *testing.T) {
	r := NewImageURLResolver("", nil, 0, nil)
	assert.Equal(t, "products/a.png", r.Resolve(context.Background(), "products/a.png"))
}

func TestImageURLResolver_Signed(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewImageURLResolver("imgs", nil, time.Minute, nil)
	r.now = func() time.Time { return now }

	var gotExpires time.Time
	r.sign = func(b, obj string, expires time.Time) (string, error) {
		gotExpires = expires
		return "https://signed/" + b + "/" + obj, nil
	}

	ctx := context.Background()
	assert.Equal(t, "https://signed/imgs/a.png", r.Resolve(ctx, "a.png"))
	assert.Equal(t, now.Add(time.Minute), gotExpires)
	assert.Equal(t, "https://signed/x/y.png", r.Resolve(ctx, "https://storage.googleapis.com/x/y.png"))
	assert.Equal(t, "https://cdn.example.com/a.png", r.Resolve(ctx, "https://cdn.example.com/a.png"))
}

func TestImageURLResolver_SignFailureFallsBack(t *testing.T) {
	r := NewImageURLResolver("imgs", nil, 0, nil)
	r.sign = func(string, string, time.Time) (string, error) { return "", errors.New("no signer") }

	assert.Equal(t, "https://storage.googleapis.com/imgs/a.png", r.Resolve(context.Background(), "a.png"))
}

func TestImageURLResolver_ResolveAll(t *testing.T) {
	r := NewImageURLResolver("imgs", nil, 0, nil)
	got := r.ResolveAll(context.Background(), []string{"a.png", "", "https://x/b.png"})
	assert.Equal(t, []string{"https://storage.googleapis.com/imgs/a.png", "https://x/b.png"}, got)
}
