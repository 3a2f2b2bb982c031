package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func register(t *testing.T, client *resty.Client, username string) models.AuthResponse {
	t.Helper()
	var auth models.AuthResponse
	response, err := client.R().
		SetBody(models.RegisterRequest{Username: username, Email: username + "@example.com", Password: "secret1"}).
		SetResult(&auth).
		Post("/api/auth/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, response.StatusCode())

	return auth
}

func TestRegisterAndLogin(t *testing.T) {
	server := httptest.NewServer(New().Handler())
	defer server.Close()
	client := resty.New().SetBaseURL(server.URL)

	auth := register(t, client, "alice")
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "Bearer", auth.Type)
	assert.Equal(t, "USER", auth.Role)

	response, err := client.R().
		SetBody(models.RegisterRequest{Username: "ALICE", Email: "other@example.com", Password: "secret1"}).
		Post("/api/auth/register")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, response.StatusCode())

	var login models.AuthResponse
	response, err = client.R().
		SetBody(models.LoginRequest{UsernameOrEmail: "alice@example.com", Password: "secret1"}).
		SetResult(&login).
		Post("/api/auth/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Equal(t, auth.ID, login.ID)

	var failure models.ErrorResponse
	response, err = client.R().
		SetBody(models.LoginRequest{UsernameOrEmail: "alice", Password: "nope"}).
		SetError(&failure).
		Post("/api/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode())
	assert.Equal(t, "Invalid username or password", failure.Message)
	assert.Equal(t, "/api/auth/login", failure.Path)
}

func TestLinksArePerUser(t *testing.T) {
	api := New()
	server := httptest.NewServer(api.Handler())
	defer server.Close()
	client := resty.New().SetBaseURL(server.URL)

	alice := register(t, client, "alice")
	bob := register(t, client, "bob")

	var created models.Link
	response, err := client.R().
		SetAuthToken(alice.Token).
		SetBody(models.LinkRequest{Title: "GitHub", URL: "https://github.com", Category: "Development"}).
		SetResult(&created).
		Post("/api/links")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, response.StatusCode())

	var bobs []models.Link
	response, err = client.R().SetAuthToken(bob.Token).SetResult(&bobs).Get("/api/links")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Empty(t, bobs)

	response, err = client.R().SetAuthToken(bob.Token).SetPathParam("id", created.ID).Get("/api/links/{id}")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, response.StatusCode())

	response, err = client.R().Get("/api/links")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode())

	assert.Equal(t, int64(4), api.LinkRequests())
}

func TestTokensExpire(t *testing.T) {
	c := &clock{now: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)}
	server := httptest.NewServer(New(WithClock(c.Now), WithTokenTTL(time.Hour)).Handler())
	defer server.Close()
	client := resty.New().SetBaseURL(server.URL)

	auth := register(t, client, "alice")

	response, err := client.R().SetAuthToken(auth.Token).Get("/api/links")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode())

	c.Advance(2 * time.Hour)
	response, err = client.R().SetAuthToken(auth.Token).Get("/api/links")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode())
}

func TestValidationAndFailNext(t *testing.T) {
	api := New()
	server := httptest.NewServer(api.Handler())
	defer server.Close()
	client := resty.New().SetBaseURL(server.URL)
	auth := register(t, client, "alice")

	response, err := client.R().
		SetAuthToken(auth.Token).
		SetBody(models.LinkRequest{URL: "https://github.com"}).
		Post("/api/links")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode())

	api.FailNext(http.StatusForbidden, "Access denied")
	response, err = client.R().SetAuthToken(auth.Token).Get("/api/links")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, response.StatusCode())

	response, err = client.R().SetAuthToken(auth.Token).Get("/api/links")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode(), "only the next call fails")
}
