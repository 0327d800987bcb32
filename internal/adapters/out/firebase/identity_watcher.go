// internal/adapters/out/firebase/identity_watcher.go
package firebase

import (
	"context"
	"errors"
	"strings"
	"sync"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"musicore/internal/domain/identity"
)

var ErrWatcherClosed = errors.New("identity_watcher: closed")

// TokenVerifier verifies Firebase ID tokens (*auth.Client satisfies it).
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// IdentityWatcher is the device-side source of identity states.
//
// Every sign-in emits resolving first, then the terminal state. States are delivered
// in order on the channel returned by States; a slow consumer blocks the emitter
// until Close.
type IdentityWatcher struct {
	verifier TokenVerifier
	log      *zap.Logger

	// sendMu serializes emitters so states stay ordered; mu is never held across a send.
	sendMu sync.Mutex

	mu      sync.Mutex
	current identity.State
	ch      chan identity.State
	done    chan struct{}
	closed  bool
}

func NewIdentityWatcher(verifier TokenVerifier, logger *zap.Logger) *IdentityWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityWatcher{
		verifier: verifier,
		log:      logger.Named("identity"),
		current:  identity.Resolving(),
		ch:       make(chan identity.State, 4),
		done:     make(chan struct{}),
	}
}

// States returns the signal channel; it is closed by Close.
func (w *IdentityWatcher) States() <-chan identity.State {
	return w.ch
}

func (w *IdentityWatcher) Current() identity.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Start makes the initial determination: no token means anonymous.
func (w *IdentityWatcher) Start(ctx context.Context, idToken string) (identity.State, error) {
	if strings.TrimSpace(idToken) == "" {
		st := identity.Anonymous()
		return st, w.emit(ctx, st)
	}
	return w.SignIn(ctx, idToken)
}

// SignIn verifies idToken. A rejected token leaves the device anonymous and returns the error.
func (w *IdentityWatcher) SignIn(ctx context.Context, idToken string) (identity.State, error) {
	if err := w.emit(ctx, identity.Resolving()); err != nil {
		return identity.State{}, err
	}

	uid, verr := w.verify(ctx, idToken)
	if verr != nil {
		w.log.Warn("id token rejected; continuing as guest", zap.Error(verr))
		st := identity.Anonymous()
		if err := w.emit(ctx, st); err != nil {
			return identity.State{}, err
		}
		return st, verr
	}

	st := identity.Authenticated(uid)
	w.log.Info("signed in", zap.String("uid", uid))
	return st, w.emit(ctx, st)
}

func (w *IdentityWatcher) SignOut(ctx context.Context) error {
	return w.emit(ctx, identity.Anonymous())
}

// Close stops emission and closes the channel. A blocked emitter is released with
// ErrWatcherClosed.
func (w *IdentityWatcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	close(w.ch)
}

func (w *IdentityWatcher) verify(ctx context.Context, idToken string) (string, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return "", errors.New("identity_watcher: empty id token")
	}
	if w.verifier == nil {
		return "", errors.New("identity_watcher: token verifier is nil")
	}

	token, err := w.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return "", errors.New("identity_watcher: invalid uid in token")
	}
	return uid, nil
}

func (w *IdentityWatcher) emit(ctx context.Context, st identity.State) error {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.current = st
	w.mu.Unlock()

	select {
	case w.ch <- st:
		return nil
	case <-w.done:
		return ErrWatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
