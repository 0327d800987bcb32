// internal/platform/di/infra.go
package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"musicore/internal/infra/config"
)

// Infra owns external clients shared by the storefront server and cartctl.
//   - Firestore is strict unless the catalog is served from the seed file (dev mode).
//   - GCS and Firebase Auth are best-effort (warn + continue).
type Infra struct {
	Config *config.Config

	Firestore    *firestore.Client
	GCS          *storage.Client
	FirebaseApp  *firebase.App
	FirebaseAuth *firebaseauth.Client

	log *zap.Logger
}

func NewInfra(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("di.infra: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("infra")
	inf := &Infra{Config: cfg, log: log}

	var clientOpts []option.ClientOption
	if cred := strings.TrimSpace(cfg.FirestoreCredentialsFile); cred != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cred))
		log.Info("using credentials file for GCP clients", zap.String("file", filepath.Base(cred)))
	} else {
		log.Info("using Application Default Credentials")
	}

	// 1) Firestore
	if cfg.UseMemoryCatalog() && os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		log.Info("catalog seed configured; firestore disabled", zap.String("seed", cfg.CatalogSeedFile))
	} else {
		fsClient, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("di.infra: firestore.NewClient failed (project=%s): %w", cfg.FirestoreProjectID, err)
		}
		inf.Firestore = fsClient
		log.Info("firestore connected", zap.String("project", cfg.FirestoreProjectID))
	}

	// 2) GCS (image URL signing)
	if strings.TrimSpace(cfg.GCSBucket) != "" && cfg.SignImageURLs {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn("storage.NewClient failed; image URLs stay public", zap.Error(err))
		} else {
			inf.GCS = gcsClient
			log.Info("gcs storage client initialized", zap.String("bucket", cfg.GCSBucket))
		}
	}

	// 3) Firebase App/Auth
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOpts...)
	if err != nil {
		log.Warn("firebase app init failed", zap.Error(err))
	} else {
		inf.FirebaseApp = fbApp
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			log.Warn("firebase auth init failed", zap.Error(err))
		} else {
			inf.FirebaseAuth = authClient
			log.Info("firebase auth initialized", zap.String("project", cfg.FirebaseProjectID))
		}
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
		i.Firestore = nil
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
		i.GCS = nil
	}
	return errors.Join(errs...)
}
