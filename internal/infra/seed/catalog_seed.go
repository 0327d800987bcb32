// internal/infra/seed/catalog_seed.go
package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	productdom "musicore/internal/domain/product"
)

type catalogFile struct {
	Products []productYAML `yaml:"products"`
}

type productYAML struct {
	ID          string            `yaml:"id"`
	Slug        string            `yaml:"slug"`
	Name        string            `yaml:"name"`
	Brand       string            `yaml:"brand"`
	Description string            `yaml:"description"`
	Price       float64           `yaml:"price"`
	Stock       int               `yaml:"stock"`
	Category    []string          `yaml:"category"`
	Specs       map[string]string `yaml:"specs"`
	ImageURLs   []string          `yaml:"imageUrls"`
	IsFeatured  bool              `yaml:"isFeatured"`
}

// LoadCatalog reads a YAML catalog seed. Ids and slugs must be unique; category
// tags are lower-cased the way they are stored in Firestore.
func LoadCatalog(path string) ([]productdom.Product, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) ([]productdom.Product, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}

	ids := map[string]struct{}{}
	slugs := map[string]struct{}{}
	out := make([]productdom.Product, 0, len(f.Products))
	for i, p := range f.Products {
		id := strings.TrimSpace(p.ID)
		slug := strings.TrimSpace(p.Slug)
		if id == "" || slug == "" {
			return nil, fmt.Errorf("seed: product #%d: id and slug are required", i)
		}
		if _, dup := ids[id]; dup {
			return nil, fmt.Errorf("seed: duplicate product id %q", id)
		}
		if _, dup := slugs[slug]; dup {
			return nil, fmt.Errorf("seed: duplicate product slug %q", slug)
		}
		ids[id] = struct{}{}
		slugs[slug] = struct{}{}

		cats := make([]string, 0, len(p.Category))
		for _, c := range p.Category {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				cats = append(cats, c)
			}
		}

		out = append(out, productdom.Product{
			ID:          id,
			Slug:        slug,
			Name:        p.Name,
			Brand:       p.Brand,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			Category:    cats,
			Specs:       p.Specs,
			ImageURLs:   p.ImageURLs,
			IsFeatured:  p.IsFeatured,
		})
	}
	return out, nil
}

// ============================================================
// Watcher
// ============================================================

// CatalogWatcher reloads the seed file when it changes and hands the new catalog to onReload.
// The parent directory is watched so editor rename-on-save is picked up.
type CatalogWatcher struct {
	path     string
	onReload func([]productdom.Product)
	log      *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewCatalogWatcher(path string, onReload func([]productdom.Product), logger *zap.Logger) *CatalogWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &CatalogWatcher{
		path:     filepath.Clean(abs),
		onReload: onReload,
		log:      logger.Named("catalog_seed"),
		debounce: 200 * time.Millisecond,
	}
}

// Start is non-blocking; the watch loop runs until ctx is done or Stop is called.
func (w *CatalogWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("seed: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("seed: watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx)
	w.log.Info("watching catalog seed", zap.String("path", w.path))
	return nil
}

// Stop stops the loop and waits for it to exit.
func (w *CatalogWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
}

func (w *CatalogWatcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

	var pending bool
	var last time.Time
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			last = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			if pending && time.Since(last) >= w.debounce {
				pending = false
				w.reload()
			}
		}
	}
}

func (w *CatalogWatcher) reload() {
	products, err := LoadCatalog(w.path)
	if err != nil {
		// keep serving the previous catalog
		w.log.Warn("catalog seed reload failed", zap.Error(err))
		return
	}
	w.log.Info("catalog seed reloaded", zap.Int("products", len(products)))
	if w.onReload != nil {
		w.onReload(products)
	}
}
