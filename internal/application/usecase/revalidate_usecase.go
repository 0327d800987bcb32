// internal/application/usecase/revalidate_usecase.go
package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// PageRegenerator re-renders one cached storefront page.
type PageRegenerator interface {
	Regenerate(ctx context.Context, path string) error
}

type RevalidateUsecase struct {
	pages PageRegenerator
	log   *zap.Logger
}

func NewRevalidateUsecase(pages PageRegenerator, logger *zap.Logger) *RevalidateUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevalidateUsecase{pages: pages, log: logger.Named("revalidate")}
}

// Revalidate regenerates each path in order. Every path lands in exactly one of the
// two result lists, in request order.
func (u *RevalidateUsecase) Revalidate(ctx context.Context, paths []string) (revalidated, failed []string) {
	revalidated = []string{}
	failed = []string{}

	for _, p := range paths {
		path := strings.TrimSpace(p)
		if err := u.pages.Regenerate(ctx, path); err != nil {
			u.log.Error("revalidation failed", zap.String("path", p), zap.Error(err))
			failed = append(failed, p)
			continue
		}
		revalidated = append(revalidated, p)
	}

	if len(failed) > 0 {
		u.log.Info("revalidation partially succeeded", zap.Strings("revalidated", revalidated))
	} else {
		u.log.Info("revalidated", zap.Strings("paths", revalidated))
	}
	return revalidated, failed
}
