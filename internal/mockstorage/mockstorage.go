// Package mockstorage provides testify-based mocks of the link directory and
// the session store used by the router package. They let the HTTP handlers be
// tested without a remote API.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

// DirectoryMock stands in for the remote links collection.
type DirectoryMock struct {
	mock.Mock
}

// List mocks fetching every link of the current user.
func (m *DirectoryMock) List(ctx context.Context) ([]models.Link, error) {
	args := m.Called(ctx)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

// Get mocks fetching one link.
func (m *DirectoryMock) Get(ctx context.Context, id string) (models.Link, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Link), args.Error(1)
}

// Create mocks creating a link.
func (m *DirectoryMock) Create(ctx context.Context, request models.LinkRequest) (models.Link, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(models.Link), args.Error(1)
}

// Update mocks replacing the mutable fields of a link.
func (m *DirectoryMock) Update(ctx context.Context, id string, request models.LinkRequest) (models.Link, error) {
	args := m.Called(ctx, id, request)
	return args.Get(0).(models.Link), args.Error(1)
}

// Delete mocks deleting a link.
func (m *DirectoryMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SessionMock stands in for the session store.
type SessionMock struct {
	mock.Mock
}

// Login mocks authenticating with credentials.
func (m *SessionMock) Login(ctx context.Context, request models.LoginRequest) (models.Session, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(models.Session), args.Error(1)
}

// Register mocks creating an account.
func (m *SessionMock) Register(ctx context.Context, request models.RegisterRequest) (models.Session, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(models.Session), args.Error(1)
}

// Logout mocks dropping the session.
func (m *SessionMock) Logout() {
	m.Called()
}

// Current mocks reading the stored identity.
func (m *SessionMock) Current() (models.Session, bool) {
	args := m.Called()
	return args.Get(0).(models.Session), args.Bool(1)
}
