package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
)

type fakeSession struct {
	restored      bool
	authenticated bool
	restoreErr    error
	restoreCalls  int
}

func (f *fakeSession) Restore(ctx context.Context) error {
	f.restoreCalls++
	f.restored = true
	return f.restoreErr
}

func (f *fakeSession) Restored() bool {
	return f.restored
}

func (f *fakeSession) IsAuthenticated() bool {
	return f.authenticated
}

func TestStates(t *testing.T) {
	session := &fakeSession{}
	g := New(session)

	assert.Equal(t, Loading, g.State())
	assert.Equal(t, Wait, g.Decide(routes.Login), "nothing renders while loading")
	assert.Equal(t, Wait, g.Decide(routes.Links))

	g.Resolve(context.Background())
	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, "unauthenticated", g.State().String())

	session.authenticated = true
	assert.Equal(t, Authenticated, g.State())
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		path          string
		want          Decision
	}{
		{name: "login is public", path: routes.Login, want: Render},
		{name: "register is public", path: routes.Register, want: Render},
		{name: "dashboard needs a session", path: routes.Dashboard, want: RedirectToLogin},
		{name: "links needs a session", path: routes.Links, want: RedirectToLogin},
		{name: "edit needs a session", path: routes.EditLink("7"), want: RedirectToLogin},
		{name: "authenticated dashboard", authenticated: true, path: routes.Dashboard, want: Render},
		{name: "authenticated new link", authenticated: true, path: routes.NewLink, want: Render},
		{name: "authenticated login page", authenticated: true, path: routes.Login, want: Render},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&fakeSession{restored: true, authenticated: tt.authenticated})

			assert.Equal(t, tt.want, g.Decide(tt.path))
		})
	}
}

func TestFailedRestoreIsUnauthenticated(t *testing.T) {
	session := &fakeSession{restoreErr: errors.New("state file unreadable")}
	g := New(session)

	g.Resolve(context.Background())

	assert.Equal(t, Unauthenticated, g.State())
	assert.Equal(t, 1, session.restoreCalls)
}

func TestMiddleware(t *testing.T) {
	session := &fakeSession{}
	g := New(session)
	protected := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	serve := func(path string) *httptest.ResponseRecorder {
		recorder := httptest.NewRecorder()
		protected.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		return recorder
	}

	loading := serve(routes.Links)
	assert.Equal(t, http.StatusServiceUnavailable, loading.Code)
	assert.Equal(t, "1", loading.Header().Get("Retry-After"))

	session.restored = true
	redirected := serve(routes.Links)
	require.Equal(t, http.StatusSeeOther, redirected.Code)
	assert.Equal(t, routes.Login, redirected.Header().Get("Location"))
	assert.Equal(t, http.StatusTeapot, serve(routes.Login).Code)

	session.authenticated = true
	assert.Equal(t, http.StatusTeapot, serve(routes.Links).Code)
}
