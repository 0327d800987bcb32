// internal/adapters/out/gcs/image_url_resolver.go
package gcs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// DefaultSignedURLTTL is the lifetime of a signed product image URL.
const DefaultSignedURLTTL = 15 * time.Minute

// ImageURLResolver resolves stored product image refs to browser-usable URLs.
//
// ref can be:
//   - http(s)://... (returned as-is, unless it is a GCS URL and signing is on)
//   - gs://bucket/object
//   - objectPath (object within the configured bucket)
//
// With a storage client configured, GCS objects get a V4 signed GET URL; otherwise the
// public URL. A signing failure falls back to the public URL.
type ImageURLResolver struct {
	Bucket string

	sign func(bucket, object string, expires time.Time) (string, error)
	ttl  time.Duration
	now  func() time.Time
	log  *zap.Logger
}

// NewImageURLResolver builds a resolver. client may be nil (public URLs only).
func NewImageURLResolver(bucket string, client *storage.Client, ttl time.Duration, logger *zap.Logger) *ImageURLResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	r := &ImageURLResolver{
		Bucket: strings.TrimSpace(bucket),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logger.Named("image_url_resolver"),
	}
	if client != nil {
		r.sign = func(b, obj string, expires time.Time) (string, error) {
			// GET is signed without Content-Type so plain <img> fetches match.
			return client.Bucket(b).SignedURL(obj, &storage.SignedURLOptions{
				Scheme:  storage.SigningSchemeV4,
				Method:  "GET",
				Expires: expires,
			})
		}
	}
	return r
}

// Resolve returns the URL for ref, or "" when ref is blank.
func (r *ImageURLResolver) Resolve(ctx context.Context, ref string) string {
	p := strings.TrimSpace(ref)
	if p == "" {
		return ""
	}

	bucket, obj, ok := r.locate(p)
	if !ok {
		return p
	}
	if r.sign == nil || ctx.Err() != nil {
		return PublicURL(bucket, obj)
	}

	u, err := r.sign(bucket, obj, r.now().Add(r.ttl))
	if err != nil {
		r.log.Warn("sign image url failed; using public url",
			zap.String("bucket", bucket),
			zap.String("object", obj),
			zap.Error(err),
		)
		return PublicURL(bucket, obj)
	}
	return strings.TrimSpace(u)
}

// ResolveAll resolves every ref, dropping blanks.
func (r *ImageURLResolver) ResolveAll(ctx context.Context, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if u := r.Resolve(ctx, ref); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// locate reports the bucket/object behind ref; ok=false for non-GCS absolute URLs.
func (r *ImageURLResolver) locate(p string) (string, string, bool) {
	if strings.HasPrefix(p, "gs://") {
		rest := strings.TrimPrefix(p, "gs://")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return "", "", false
		}
		return parts[0], parts[1], true
	}

	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return ParseGCSURL(p)
	}

	if r.Bucket == "" {
		return "", "", false
	}
	return r.Bucket, strings.TrimLeft(p, "/"), true
}

// PublicURL builds a public GCS URL.
func PublicURL(bucket, objectPath string) string {
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", strings.TrimSpace(bucket), obj)
}

// ParseGCSURL parses a GCS-like URL and returns (bucket, objectPath, ok).
//   - https://storage.googleapis.com/<bucket>/<object>
//   - https://storage.cloud.google.com/<bucket>/<object>
func ParseGCSURL(u string) (string, string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return "", "", false
	}

	host := strings.ToLower(parsed.Host)
	if host != "storage.googleapis.com" && host != "storage.cloud.google.com" {
		return "", "", false
	}

	p := strings.TrimLeft(parsed.EscapedPath(), "/")
	parts := strings.SplitN(p, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	objectPath, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	return parts[0], objectPath, true
}
