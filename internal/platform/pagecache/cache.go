// internal/platform/pagecache/cache.go
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrUnknownPage = errors.New("pagecache: unknown page")

type Kind string

const (
	KindHome     Kind = "home"
	KindProducts Kind = "products"
	KindProduct  Kind = "product"
	KindCategory Kind = "category"
)

// Page is a parsed storefront page path.
type Page struct {
	Kind Kind
	Slug string
}

// Path returns the canonical path of p.
func (p Page) Path() string {
	switch p.Kind {
	case KindHome:
		return "/"
	case KindProducts:
		return "/products"
	case KindProduct:
		return "/products/" + p.Slug
	case KindCategory:
		return "/category/" + p.Slug
	}
	return ""
}

// ParsePath maps "/", "/products", "/products/{slug}" and "/category/{slug}".
// A trailing slash is tolerated; anything else is ErrUnknownPage.
func ParsePath(path string) (Page, error) {
	p := strings.TrimSpace(path)
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}

	switch {
	case p == "/":
		return Page{Kind: KindHome}, nil
	case p == "/products":
		return Page{Kind: KindProducts}, nil
	}

	for prefix, kind := range map[string]Kind{"/products/": KindProduct, "/category/": KindCategory} {
		if slug, ok := strings.CutPrefix(p, prefix); ok && slug != "" && !strings.Contains(slug, "/") {
			return Page{Kind: kind, Slug: slug}, nil
		}
	}
	return Page{}, fmt.Errorf("%w: %q", ErrUnknownPage, path)
}

// Renderer produces the payload of one page.
type Renderer interface {
	Render(ctx context.Context, page Page) ([]byte, error)
}

type entry struct {
	body       []byte
	renderedAt time.Time
}

// Cache holds rendered page payloads keyed by canonical path.
//
// Misses render once per path through singleflight; render errors are never cached.
// A render that started before Purge does not repopulate the cache.
type Cache struct {
	renderer Renderer
	log      *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	gen     uint64

	fill singleflight.Group
}

func New(renderer Renderer, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		renderer: renderer,
		log:      logger.Named("pagecache"),
		now:      time.Now,
		entries:  map[string]entry{},
	}
}

// Get returns the cached payload for path, rendering it on a miss.
func (c *Cache) Get(ctx context.Context, path string) ([]byte, error) {
	page, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	key := page.Path()

	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return e.body, nil
	}

	v, err, _ := c.fill.Do("get:"+key, func() (any, error) {
		return c.renderAndStore(ctx, page, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Regenerate re-renders path and replaces the cached payload. On failure the previous
// payload is left in place.
func (c *Cache) Regenerate(ctx context.Context, path string) error {
	page, err := ParsePath(path)
	if err != nil {
		return err
	}
	key := page.Path()

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	_, err, _ = c.fill.Do("regen:"+key, func() (any, error) {
		return c.renderAndStore(ctx, page, gen)
	})
	return err
}

func (c *Cache) renderAndStore(ctx context.Context, page Page, gen uint64) ([]byte, error) {
	body, err := c.renderer.Render(ctx, page)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Debug("render raced a purge; not cached", zap.String("path", page.Path()))
		return body, nil
	}
	c.entries[page.Path()] = entry{body: body, renderedAt: c.now()}
	return body, nil
}

// Invalidate drops one path; unknown paths are ignored.
func (c *Cache) Invalidate(path string) {
	page, err := ParsePath(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, page.Path())
	c.mu.Unlock()
}

// Purge drops every cached page.
func (c *Cache) Purge() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = map[string]entry{}
	c.gen++
	c.mu.Unlock()
	c.log.Info("page cache purged", zap.Int("pages", n))
}

// RenderedAt reports when path was last rendered into the cache.
func (c *Cache) RenderedAt(path string) (time.Time, bool) {
	page, err := ParsePath(path)
	if err != nil {
		return time.Time{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[page.Path()]
	return e.renderedAt, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
