// internal/infra/config/config.go
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"musicore/internal/infra/secret"
)

// Secret ids in Secret Manager (production only).
const (
	SecretSendGridAPIKey   = "sendgrid-api-key"
	SecretRevalidateSecret = "revalidate-secret-token"
)

// Config holds the process configuration.
//
// Precedence: defaults < YAML file (CONFIG_FILE) < environment < Secret Manager
// (secret fields, production only).
type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"logLevel"`
	Port     string `yaml:"port"`

	GCPProjectID             string `yaml:"gcpProjectId"`
	FirestoreProjectID       string `yaml:"firestoreProjectId"`
	FirestoreCredentialsFile string `yaml:"firestoreCredentialsFile"`
	FirebaseProjectID        string `yaml:"firebaseProjectId"`

	GCSBucket     string        `yaml:"gcsBucket"`
	SignImageURLs bool          `yaml:"signImageUrls"`
	SignedURLTTL  time.Duration `yaml:"signedUrlTtl"`

	SendGridAPIKey string `yaml:"sendgridApiKey"`
	SendGridFrom   string `yaml:"sendgridFrom"`

	RevalidateSecret string `yaml:"revalidateSecret"`
	AllowedOrigin    string `yaml:"allowedOrigin"`

	// CatalogSeedFile switches the catalog to an in-memory YAML seed (dev mode).
	CatalogSeedFile string `yaml:"catalogSeedFile"`

	CartWriteTimeout time.Duration `yaml:"cartWriteTimeout"`
}

func defaults() *Config {
	return &Config{
		Env:              "development",
		LogLevel:         "info",
		Port:             "8080",
		GCPProjectID:     "musicore-dev",
		SignedURLTTL:     15 * time.Minute,
		SendGridFrom:     "support@musicore.shop",
		AllowedOrigin:    "*",
		CartWriteTimeout: 10 * time.Second,
	}
}

// Load reads configuration. secrets may be nil; in production a Secret Manager
// accessor is created for the GCP project.
func Load(ctx context.Context, secrets secret.Accessor) (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		if secrets == nil {
			acc, err := secret.NewManagerAccessor(ctx, cfg.GCPProjectID)
			if err != nil {
				return nil, err
			}
			defer acc.Close()
			secrets = acc
		}
		if err := cfg.loadSecrets(ctx, secrets); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.Env = getenvDefault("APP_ENV", c.Env)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
	c.Port = getenvDefault("PORT", c.Port)

	c.GCPProjectID = getenvDefault("GCP_PROJECT_ID", c.GCPProjectID)
	c.FirestoreProjectID = getenvDefault("FIRESTORE_PROJECT_ID", c.FirestoreProjectID)
	c.FirestoreCredentialsFile = getenvDefault("FIRESTORE_CREDENTIALS_FILE", c.FirestoreCredentialsFile)
	c.FirebaseProjectID = getenvDefault("FIREBASE_PROJECT_ID", c.FirebaseProjectID)

	c.GCSBucket = getenvDefault("GCS_BUCKET", c.GCSBucket)
	c.SendGridAPIKey = getenvDefault("SENDGRID_API_KEY", c.SendGridAPIKey)
	c.SendGridFrom = getenvDefault("SENDGRID_FROM", c.SendGridFrom)
	c.RevalidateSecret = getenvDefault("REVALIDATE_SECRET_TOKEN", c.RevalidateSecret)
	c.AllowedOrigin = getenvDefault("ALLOWED_ORIGIN", c.AllowedOrigin)
	c.CatalogSeedFile = getenvDefault("CATALOG_SEED_FILE", c.CatalogSeedFile)

	if v := os.Getenv("SIGN_IMAGE_URLS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing SIGN_IMAGE_URLS: %w", err)
		}
		c.SignImageURLs = b
	}
	for key, dst := range map[string]*time.Duration{
		"SIGNED_URL_TTL":     &c.SignedURLTTL,
		"CART_WRITE_TIMEOUT": &c.CartWriteTimeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = d
		}
	}

	// project ids fall back to the GCP project
	if c.FirestoreProjectID == "" {
		c.FirestoreProjectID = c.GCPProjectID
	}
	if c.FirebaseProjectID == "" {
		c.FirebaseProjectID = c.GCPProjectID
	}
	return nil
}

// loadSecrets overrides secret fields; a secret that cannot be read is an error only
// when no value came from file or env.
func (c *Config) loadSecrets(ctx context.Context, secrets secret.Accessor) error {
	for id, dst := range map[string]*string{
		SecretSendGridAPIKey:   &c.SendGridAPIKey,
		SecretRevalidateSecret: &c.RevalidateSecret,
	} {
		v, err := secrets.Access(ctx, id)
		if err != nil {
			if *dst == "" {
				return fmt.Errorf("loading secret %s: %w", id, err)
			}
			continue
		}
		*dst = v
	}
	return nil
}

// Validate checks the settings every deployment needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("config: port is empty")
	}
	if c.IsProduction() && c.CatalogSeedFile == "" && c.FirestoreProjectID == "" {
		return fmt.Errorf("config: firestore project id is required in production")
	}
	if c.CartWriteTimeout <= 0 {
		return fmt.Errorf("config: cart write timeout must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// UseMemoryCatalog reports whether the catalog is served from the YAML seed.
func (c *Config) UseMemoryCatalog() bool {
	return strings.TrimSpace(c.CatalogSeedFile) != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
