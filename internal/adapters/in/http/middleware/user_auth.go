// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// TokenVerifier verifies Firebase ID tokens (*auth.Client satisfies it).
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UserAuthMiddleware verifies the Firebase ID token (Authorization: Bearer) and stores uid in context.
type UserAuthMiddleware struct {
	FirebaseAuth TokenVerifier
	Logger       *zap.Logger
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("user_auth")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.FirebaseAuth == nil {
			writeError(w, http.StatusServiceUnavailable, "user auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized: empty bearer token")
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.Debug("id token rejected", zap.String("requestId", RequestIDFrom(r.Context())), zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUID, uid)))
	})
}

// CurrentUserUID returns the Firebase uid stored by UserAuthMiddleware.
func CurrentUserUID(r *http.Request) (string, bool) {
	u, ok := r.Context().Value(ctxKeyUID).(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}

// WithUID is for tests and internal callers that already hold a verified uid.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUID, uid)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
