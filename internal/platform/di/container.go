// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"musicore/internal/adapters/in/http/handler"
	"musicore/internal/adapters/in/http/middleware"
	"musicore/internal/adapters/in/http/storefront"
	fs "musicore/internal/adapters/out/firestore"
	"musicore/internal/adapters/out/gcs"
	"musicore/internal/adapters/out/mail"
	"musicore/internal/adapters/out/memory"
	"musicore/internal/application/query"
	"musicore/internal/application/usecase"
	cartdom "musicore/internal/domain/cart"
	productdom "musicore/internal/domain/product"
	"musicore/internal/infra/seed"
	"musicore/internal/platform/pagecache"
)

// Container wires the storefront server.
type Container struct {
	Infra *Infra
	Log   *zap.Logger

	Products productdom.Repository
	Carts    cartdom.RemoteStore

	Catalog    *query.CatalogQuery
	CartQuery  *query.CartQuery
	Pages      *pagecache.Cache
	Contact    *usecase.ContactUsecase
	Revalidate *usecase.RevalidateUsecase

	seedWatcher *seed.CatalogWatcher
}

func NewContainer(ctx context.Context, infra *Infra, logger *zap.Logger) (*Container, error) {
	if infra == nil || infra.Config == nil {
		return nil, errors.New("di.container: infra is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := infra.Config
	c := &Container{Infra: infra, Log: logger}

	products, seedRepo, err := newProductRepository(infra, logger)
	if err != nil {
		return nil, err
	}
	c.Products = products
	c.Carts = newRemoteCartStore(infra, logger)
	if seedRepo != nil {
		c.seedWatcher = seed.NewCatalogWatcher(cfg.CatalogSeedFile, func(next []productdom.Product) {
			seedRepo.Replace(next)
			c.Pages.Purge()
		}, logger)
	}

	images := newImageResolver(infra, logger)
	c.Catalog = query.NewCatalogQuery(c.Products, images)
	c.CartQuery = query.NewCartQuery(c.Carts, c.Catalog)
	c.Pages = pagecache.New(query.NewStorefrontPages(c.Catalog), logger)
	c.Revalidate = usecase.NewRevalidateUsecase(c.Pages, logger)

	// contact
	var mailer usecase.ContactMailer
	if key := strings.TrimSpace(cfg.SendGridAPIKey); key != "" {
		mailer = mail.NewContactMailer(mail.NewSendGridClient(key, logger), cfg.SendGridFrom)
	} else {
		logger.Warn("SENDGRID_API_KEY is empty; contact form will fail")
	}
	c.Contact = usecase.NewContactUsecase(mailer, logger)

	if strings.TrimSpace(cfg.RevalidateSecret) == "" {
		logger.Warn("REVALIDATE_SECRET_TOKEN is empty; /api/revalidate rejects every request")
	}
	return c, nil
}

// Start runs background work (the dev catalog seed watcher).
func (c *Container) Start(ctx context.Context) error {
	if c == nil || c.seedWatcher == nil {
		return nil
	}
	return c.seedWatcher.Start(ctx)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.seedWatcher != nil {
		c.seedWatcher.Stop()
	}
	return nil
}

// RouterDeps builds the storefront handler set.
func (c *Container) RouterDeps() storefront.Deps {
	deps := storefront.Deps{
		Catalog:    handler.NewCatalogHandler(c.Pages, c.Log),
		Contact:    handler.NewContactHandler(c.Contact),
		Revalidate: handler.NewRevalidateHandler(c.Revalidate, c.Infra.Config.RevalidateSecret, c.Log),
		MeCart:     handler.NewCartQueryHandler(c.CartQuery, c.Log),
	}
	if c.Infra.FirebaseAuth != nil {
		deps.UserAuth = &middleware.UserAuthMiddleware{FirebaseAuth: c.Infra.FirebaseAuth, Logger: c.Log}
	}
	return deps
}

// Register registers storefront routes onto mux.
func Register(mux *http.ServeMux, c *Container) {
	if mux == nil || c == nil {
		return
	}
	storefront.Register(mux, c.RouterDeps(), c.Log)
}

// newProductRepository picks the catalog source. The memory repository is returned
// separately when it is backed by the seed file so callers can hot-reload it.
func newProductRepository(infra *Infra, logger *zap.Logger) (productdom.Repository, *memory.ProductRepository, error) {
	cfg := infra.Config
	switch {
	case cfg.UseMemoryCatalog():
		products, err := seed.LoadCatalog(cfg.CatalogSeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("di.container: %w", err)
		}
		repo := memory.NewProductRepository(products)
		logger.Info("catalog served from seed", zap.Int("products", len(products)))
		return repo, repo, nil

	case infra.Firestore != nil:
		return fs.NewProductRepositoryFS(infra.Firestore), nil, nil
	}
	return nil, nil, errors.New("di.container: no catalog source (firestore client is nil and no seed file)")
}

func newRemoteCartStore(infra *Infra, logger *zap.Logger) cartdom.RemoteStore {
	if infra.Firestore != nil {
		return fs.NewCartRepositoryFS(infra.Firestore, logger)
	}
	logger.Warn("firestore disabled; account carts are kept in memory")
	return memory.NewRemoteCartStore()
}

func newImageResolver(infra *Infra, logger *zap.Logger) query.ImageResolver {
	bucket := strings.TrimSpace(infra.Config.GCSBucket)
	if bucket == "" {
		return nil
	}
	return gcs.NewImageURLResolver(bucket, infra.GCS, infra.Config.SignedURLTTL, logger)
}
