// Package guard gates the protected routes on the presence of a session.
// The state is resolved from the local session restore only; an expired
// token is discovered later by the API client, not here.
package guard

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
)

type State int

const (
	// Loading lasts until the session restore has completed.
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}

	return "unknown"
}

type Decision int

const (
	// Wait renders nothing: neither protected nor public content.
	Wait Decision = iota
	Render
	RedirectToLogin
)

type sessionStore interface {
	Restore(ctx context.Context) error
	Restored() bool
	IsAuthenticated() bool
}

type Guard struct {
	store sessionStore
}

func New(store sessionStore) *Guard {
	return &Guard{store: store}
}

// Resolve performs the one-time session restore. A failed restore leaves
// the guard unauthenticated.
func (g *Guard) Resolve(ctx context.Context) {
	if err := g.store.Restore(ctx); err != nil {
		logger.Log.Warnw("session restore failed, continuing unauthenticated", zap.Error(err))
	}
}

func (g *Guard) State() State {
	if !g.store.Restored() {
		return Loading
	}
	if g.store.IsAuthenticated() {
		return Authenticated
	}

	return Unauthenticated
}

// Decide tells how a request for path must be handled in the current state.
func (g *Guard) Decide(path string) Decision {
	state := g.State()
	if state == Loading {
		return Wait
	}
	if routes.IsPublic(path) || state == Authenticated {
		return Render
	}

	return RedirectToLogin
}

// Middleware applies Decide to every request: 503 while loading, a redirect
// to the login route when unauthenticated, the wrapped handler otherwise.
func (g *Guard) Middleware(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		switch g.Decide(request.URL.Path) {
		case Wait:
			response.Header().Set("Retry-After", "1")
			response.WriteHeader(http.StatusServiceUnavailable)
		case RedirectToLogin:
			http.Redirect(response, request, routes.Login, http.StatusSeeOther)
		default:
			h.ServeHTTP(response, request)
		}
	}

	return http.HandlerFunc(middleware)
}
