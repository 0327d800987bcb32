// cmd/storefront/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"musicore/internal/adapters/in/http/storefront"
	"musicore/internal/infra/config"
	"musicore/internal/infra/logging"
	"musicore/internal/platform/di"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.v.Load().(http.Handler).ServeHTTP(w, r)
}

func healthz(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, nil)
	if err != nil {
		// logger is not up yet
		_, _ = os.Stderr.WriteString("[boot] config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("[boot] logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("storefront exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("boot")

	// Start listening ASAP with a healthz-only mux; routes are swapped in after DI.
	healthMux := http.NewServeMux()
	healthz(healthMux)
	switcher := newAtomicHandler(storefront.Wrap(healthMux, cfg.AllowedOrigin, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var container atomic.Pointer[di.Container]
	var infra atomic.Pointer[di.Infra]

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Heavy DI init; on failure keep serving /healthz only.
	g.Go(func() error {
		initCtx, cancel := context.WithTimeout(gctx, 2*time.Minute)
		defer cancel()

		inf, err := di.NewInfra(initCtx, cfg, logger)
		if err != nil {
			log.Warn("infra init failed; serving /healthz only", zap.Error(err))
			return nil
		}
		infra.Store(inf)

		c, err := di.NewContainer(initCtx, inf, logger)
		if err != nil {
			log.Warn("di init failed; serving /healthz only", zap.Error(err))
			return nil
		}
		container.Store(c)

		if err := c.Start(gctx); err != nil {
			log.Warn("background workers failed to start", zap.Error(err))
		}

		fullMux := http.NewServeMux()
		healthz(fullMux)
		di.Register(fullMux, c)
		switcher.Store(storefront.Wrap(fullMux, cfg.AllowedOrigin, logger))
		log.Info("handler switched to storefront router")
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown error", zap.Error(err))
		}
		return nil
	})

	err := g.Wait()

	if c := container.Load(); c != nil {
		if cerr := c.Close(); cerr != nil {
			log.Warn("container close error", zap.Error(cerr))
		}
	}
	if inf := infra.Load(); inf != nil {
		if cerr := inf.Close(); cerr != nil {
			log.Warn("infra close error", zap.Error(cerr))
		}
	}
	log.Info("server stopped")
	return err
}
