// Package apiclient dispatches requests to the remote links API. Every
// request carries the stored bearer token when there is one; a 401 or 403
// response tears the session down and sends the user to the login route.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
)

// RequestIDHeader correlates client and server logs.
const RequestIDHeader = "X-Request-ID"

// ErrUnauthorized is returned for any 401/403 response, after the session
// has been cleared and the navigator sent to the login route. Callers must
// not surface it as a regular failure.
var ErrUnauthorized = errors.New("authorization failed, session cleared")

// APIError is a non-authorization HTTP failure reported by the API.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// UserMessage returns the server supplied message of err when there is one,
// fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}

type tokenKeeper interface {
	Token() string
	Clear()
}

// Call describes one API request.
type Call struct {
	Method     string
	Path       string
	PathParams map[string]string
	Body       interface{}
	Result     interface{}
}

// Client is the single HTTP entry point to the links API.
type Client struct {
	rest   *resty.Client
	tokens tokenKeeper
	nav    routes.Navigator
}

// New builds a client for baseURL with a uniform request timeout.
func New(
	baseURL string,
	timeout time.Duration,
	tokens tokenKeeper,
	nav routes.Navigator,
) *Client {
	c := &Client{
		tokens: tokens,
		nav:    nav,
	}

	c.rest = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		OnBeforeRequest(c.authorize).
		OnAfterResponse(c.interceptAuthorizationFailure).
		OnAfterResponse(logResponse).
		OnError(logTransportError)

	return c
}

func (c *Client) authorize(_ *resty.Client, request *resty.Request) error {
	request.SetHeader(RequestIDHeader, uuid.NewString())

	if token := c.tokens.Token(); token != "" {
		request.SetAuthToken(token)
	}

	return nil
}

func (c *Client) interceptAuthorizationFailure(_ *resty.Client, response *resty.Response) error {
	status := response.StatusCode()
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return nil
	}

	logger.Log.Infoln(
		"authorization failure, clearing session",
		"status", status,
		"url", response.Request.URL,
	)
	c.tokens.Clear()
	c.nav.Navigate(routes.Login)

	return ErrUnauthorized
}

func logResponse(_ *resty.Client, response *resty.Response) error {
	logger.Log.Debugln(
		"api call",
		"method", response.Request.Method,
		"url", response.Request.URL,
		"status", response.StatusCode(),
		"duration", response.Time(),
		"requestID", response.Request.Header.Get(RequestIDHeader),
	)

	return nil
}

func logTransportError(request *resty.Request, err error) {
	var responseErr *resty.ResponseError
	if errors.As(err, &responseErr) {
		return
	}
	logger.Log.Debugw(
		"api call failed",
		"method", request.Method,
		"url", request.URL,
		zap.Error(err),
	)
}

// Do executes call. A 401/403 yields ErrUnauthorized, other error statuses
// an *APIError, transport failures and timeouts a wrapped error.
func (c *Client) Do(ctx context.Context, call Call) error {
	request := c.rest.R().
		SetContext(ctx).
		SetError(&models.ErrorResponse{})
	if call.PathParams != nil {
		request.SetPathParams(call.PathParams)
	}
	if call.Body != nil {
		request.SetBody(call.Body)
	}
	if call.Result != nil {
		request.SetResult(call.Result)
	}

	response, err := request.Execute(call.Method, call.Path)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return ErrUnauthorized
		}
		return fmt.Errorf("%s %s: %w", call.Method, call.Path, err)
	}

	if response.IsError() {
		apiErr := &APIError{
			Status: response.StatusCode(),
			Body:   response.Body(),
		}
		if errorResponse, ok := response.Error().(*models.ErrorResponse); ok && errorResponse != nil {
			apiErr.Message = errorResponse.Message
		}
		return apiErr
	}

	return nil
}

func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.Do(ctx, Call{Method: http.MethodGet, Path: path, Result: result})
}

func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, Call{Method: http.MethodPost, Path: path, Body: body, Result: result})
}

func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, Call{Method: http.MethodPut, Path: path, Body: body, Result: result})
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Call{Method: http.MethodDelete, Path: path})
}
