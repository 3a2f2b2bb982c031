// Package authclient calls the authentication endpoints of the links API.
package authclient

import (
	"context"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
)

type poster interface {
	Post(ctx context.Context, path string, body, result interface{}) error
}

type Client struct {
	api poster
}

func New(api poster) *Client {
	return &Client{api: api}
}

// Login exchanges credentials for a token and an identity.
func (c *Client) Login(ctx context.Context, request models.LoginRequest) (models.AuthResponse, error) {
	var response models.AuthResponse
	if err := c.api.Post(ctx, loginPath, request, &response); err != nil {
		return models.AuthResponse{}, err
	}

	return response, nil
}

// Register creates an account and returns its token and identity.
func (c *Client) Register(ctx context.Context, request models.RegisterRequest) (models.AuthResponse, error) {
	var response models.AuthResponse
	if err := c.api.Post(ctx, registerPath, request, &response); err != nil {
		return models.AuthResponse{}, err
	}

	return response, nil
}
