package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linkkeeper/internal/db/memorystorage"
	"github.com/patric-chuzhbe/linkkeeper/internal/fakeapi"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
	"github.com/patric-chuzhbe/linkkeeper/internal/session"
)

type testEnv struct {
	api    *fakeapi.Server
	server *httptest.Server
	vault  *session.Vault
	nav    *routes.Recorder
	client *Client
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	api := fakeapi.New()
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	db, err := memorystorage.New()
	require.NoError(t, err)
	vault := session.NewVault(db)
	nav := &routes.Recorder{}

	return &testEnv{
		api:    api,
		server: server,
		vault:  vault,
		nav:    nav,
		client: New(server.URL, 5*time.Second, vault, nav),
	}
}

// login registers a user through the client and stores its session.
func (env *testEnv) login(t *testing.T) models.AuthResponse {
	t.Helper()

	var response models.AuthResponse
	err := env.client.Post(context.Background(), "/api/auth/register", models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	}, &response)
	require.NoError(t, err)
	require.NotEmpty(t, response.Token)
	require.NoError(t, env.vault.Save(context.Background(), response.Session()))

	return response
}

func TestNoTokenNoAuthorizationHeader(t *testing.T) {
	env := setup(t)

	err := env.client.Post(context.Background(), "/api/auth/login", models.LoginRequest{
		UsernameOrEmail: "nobody",
		Password:        "whatever",
	}, &models.AuthResponse{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid username or password", apiErr.Message)
	assert.Empty(t, env.api.LastAuthorization())
}

func TestBearerTokenIsAttached(t *testing.T) {
	env := setup(t)
	auth := env.login(t)

	var links []models.Link
	require.NoError(t, env.client.Get(context.Background(), "/api/links", &links))

	assert.Equal(t, "Bearer "+auth.Token, env.api.LastAuthorization())
	assert.Empty(t, links)
}

func TestUnauthorizedClearsSessionAndNavigates(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			env := setup(t)
			env.login(t)
			env.api.FailNext(status, "nope")

			err := env.client.Get(context.Background(), "/api/links", &[]models.Link{})

			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Empty(t, env.vault.Token())
			_, ok := env.vault.User()
			assert.False(t, ok)
			last, ok := env.nav.Last()
			require.True(t, ok)
			assert.Equal(t, routes.Login, last)
		})
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	env := setup(t)
	env.login(t)
	env.api.RotateSigningKey()

	err := env.client.Get(context.Background(), "/api/links", &[]models.Link{})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, env.vault.Token())
	assert.Equal(t, []string{routes.Login}, env.nav.History())
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	env := setup(t)
	env.login(t)
	env.api.FailNext(http.StatusInternalServerError, "database is down")

	err := env.client.Get(context.Background(), "/api/links", &[]models.Link{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "database is down", UserMessage(err, "Failed to load links"))
	assert.NotEmpty(t, env.vault.Token(), "non-authorization failures keep the session")
	assert.Empty(t, env.nav.History())
}

func TestUserMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", UserMessage(errors.New("dial tcp: refused"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(&APIError{Status: http.StatusBadGateway}, "fallback"))
	assert.Equal(t, "api error 502: Bad Gateway", (&APIError{Status: http.StatusBadGateway}).Error())
}

func TestRequestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	db, err := memorystorage.New()
	require.NoError(t, err)
	client := New(slow.URL, 50*time.Millisecond, session.NewVault(db), &routes.Recorder{})

	start := time.Now()
	err = client.Get(context.Background(), "/api/links", &[]models.Link{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRequestIDHeader(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(RequestIDHeader))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	db, err := memorystorage.New()
	require.NoError(t, err)
	client := New(server.URL, time.Second, session.NewVault(db), &routes.Recorder{})

	require.NoError(t, client.Get(context.Background(), "/api/links", &[]models.Link{}))
	require.NoError(t, client.Get(context.Background(), "/api/links", &[]models.Link{}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1])
}
