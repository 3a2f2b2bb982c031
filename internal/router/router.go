// Package router serves the local web front end: the client-visible routes
// rendered as JSON views, guarded by the session state and backed by the
// remote links API.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/linkkeeper/internal/apiclient"
	"github.com/patric-chuzhbe/linkkeeper/internal/forms"
	"github.com/patric-chuzhbe/linkkeeper/internal/gzippedhttp"
	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
	"github.com/patric-chuzhbe/linkkeeper/internal/routes"
	"github.com/patric-chuzhbe/linkkeeper/internal/viewmodel"
)

type sessionStore interface {
	Login(ctx context.Context, request models.LoginRequest) (models.Session, error)
	Register(ctx context.Context, request models.RegisterRequest) (models.Session, error)
	Logout()
	Current() (models.Session, bool)
}

type linkDirectory interface {
	List(ctx context.Context) ([]models.Link, error)
	Get(ctx context.Context, id string) (models.Link, error)
	Create(ctx context.Context, request models.LinkRequest) (models.Link, error)
	Update(ctx context.Context, id string, request models.LinkRequest) (models.Link, error)
	Delete(ctx context.Context, id string) error
}

type routeGuard interface {
	Middleware(h http.Handler) http.Handler
}

// Router holds the collaborators of the HTTP handlers.
type Router struct {
	store sessionStore
	links linkDirectory
}

// New builds the chi router of the web front end.
func New(store sessionStore, links linkDirectory, guard routeGuard) http.Handler {
	myRouter := &Router{
		store: store,
		links: links,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
		guard.Middleware,
	)

	router.Get(routes.Login, myRouter.GetLogin)
	router.Post(routes.Login, myRouter.PostLogin)
	router.Get(routes.Register, myRouter.GetRegister)
	router.Post(routes.Register, myRouter.PostRegister)
	router.Post(`/logout`, myRouter.PostLogout)

	router.Get(routes.Dashboard, myRouter.GetDashboard)
	router.Get(routes.Links, myRouter.GetLinks)
	router.Get(routes.NewLink, myRouter.GetNewLink)
	router.Post(routes.NewLink, myRouter.PostNewLink)
	router.Get(`/links/edit/{id}`, myRouter.GetEditLink)
	router.Post(`/links/edit/{id}`, myRouter.PostEditLink)
	router.Get(`/links/{id}`, myRouter.GetLink)
	router.Post(`/links/{id}/delete`, myRouter.PostDeleteLink)

	router.NotFound(func(response http.ResponseWriter, request *http.Request) {
		http.Redirect(response, request, routes.Dashboard, http.StatusFound)
	})

	return router
}

type errorView struct {
	Error  string            `json:"error,omitempty"`
	Fields forms.FieldErrors `json:"fields,omitempty"`
}

type formView struct {
	ID         string      `json:"id,omitempty"`
	Form       interface{} `json:"form"`
	Categories []string    `json:"categories,omitempty"`
}

type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

func writeJSON(response http.ResponseWriter, status int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder(response).Encode()`: ", zap.Error(err))
	}
}

func decodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()

	return decoder.Decode(target)
}

// writeError turns a failed action into a response. Authorization failures
// were already handled by the API client, the user is only sent to login.
func writeError(response http.ResponseWriter, request *http.Request, err error, fallback string) {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		http.Redirect(response, request, routes.Login, http.StatusSeeOther)
		return
	}

	if fieldErrors, ok := forms.AsFieldErrors(err); ok {
		writeJSON(response, http.StatusUnprocessableEntity, errorView{Fields: fieldErrors})
		return
	}

	if errors.Is(err, viewmodel.ErrInvalidQuery) {
		writeJSON(response, http.StatusBadRequest, errorView{Error: err.Error()})
		return
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		writeJSON(response, apiErr.Status, errorView{Error: apiclient.UserMessage(err, fallback)})
		return
	}

	logger.Log.Infow(fallback, "uri", request.RequestURI, zap.Error(err))
	writeJSON(response, http.StatusBadGateway, errorView{Error: fallback})
}

func (router *Router) GetLogin(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, formView{Form: forms.LoginForm{}})
}

func (router *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var form forms.LoginForm
	if err := decodeJSON(request, &form); err != nil {
		writeJSON(response, http.StatusBadRequest, errorView{Error: "malformed login form"})
		return
	}

	if _, err := form.Submit(request.Context(), router.store); err != nil {
		writeError(response, request, err, "Login failed. Please check your credentials.")
		return
	}

	http.Redirect(response, request, routes.Dashboard, http.StatusSeeOther)
}

func (router *Router) GetRegister(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, formView{Form: forms.RegisterForm{}})
}

func (router *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	var form forms.RegisterForm
	if err := decodeJSON(request, &form); err != nil {
		writeJSON(response, http.StatusBadRequest, errorView{Error: "malformed registration form"})
		return
	}

	if _, err := form.Submit(request.Context(), router.store); err != nil {
		writeError(response, request, err, "Registration failed. Please try again.")
		return
	}

	http.Redirect(response, request, routes.Dashboard, http.StatusSeeOther)
}

func (router *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	router.store.Logout()
	http.Redirect(response, request, routes.Login, http.StatusSeeOther)
}

type dashboardView struct {
	viewmodel.Summary
	Session sessionView `json:"session"`
}

func (router *Router) GetDashboard(response http.ResponseWriter, request *http.Request) {
	links, err := router.links.List(request.Context())
	if err != nil {
		writeError(response, request, err, "Failed to load links")
		return
	}

	view := dashboardView{Summary: viewmodel.Summarize(links)}
	if sess, ok := router.store.Current(); ok {
		view.Session = sessionView{Authenticated: true, User: &sess.User}
	}

	writeJSON(response, http.StatusOK, view)
}

func intParam(request *http.Request, name string) (int, error) {
	raw := request.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Join(viewmodel.ErrInvalidQuery, err)
	}

	return value, nil
}

func parseListQuery(request *http.Request) (viewmodel.Query, error) {
	params := request.URL.Query()

	sortBy, err := viewmodel.ParseSortField(params.Get("sort"))
	if err != nil {
		return viewmodel.Query{}, err
	}
	order, err := viewmodel.ParseSortOrder(params.Get("order"))
	if err != nil {
		return viewmodel.Query{}, err
	}
	page, err := intParam(request, "page")
	if err != nil {
		return viewmodel.Query{}, err
	}
	pageSize, err := intParam(request, "pageSize")
	if err != nil {
		return viewmodel.Query{}, err
	}

	return viewmodel.Query{
		Text:     params.Get("q"),
		Category: params.Get("category"),
		SortBy:   sortBy,
		Order:    order,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (router *Router) GetLinks(response http.ResponseWriter, request *http.Request) {
	query, err := parseListQuery(request)
	if err != nil {
		writeError(response, request, err, "Invalid list query")
		return
	}

	links, err := router.links.List(request.Context())
	if err != nil {
		writeError(response, request, err, "Failed to load links")
		return
	}

	view, err := viewmodel.Derive(links, query)
	if err != nil {
		writeError(response, request, err, "Invalid list query")
		return
	}

	writeJSON(response, http.StatusOK, view)
}

func (router *Router) GetLink(response http.ResponseWriter, request *http.Request) {
	link, err := router.links.Get(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		writeError(response, request, err, "Failed to load link details")
		return
	}

	writeJSON(response, http.StatusOK, link)
}

func (router *Router) GetNewLink(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, formView{
		Form:       forms.LinkForm{},
		Categories: forms.SuggestedCategories,
	})
}

func (router *Router) PostNewLink(response http.ResponseWriter, request *http.Request) {
	router.saveLink(response, request, "")
}

func (router *Router) GetEditLink(response http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "id")
	link, err := router.links.Get(request.Context(), id)
	if err != nil {
		writeError(response, request, err, "Failed to load link details")
		return
	}

	writeJSON(response, http.StatusOK, formView{
		ID:         id,
		Form:       forms.LinkFormFrom(link),
		Categories: forms.SuggestedCategories,
	})
}

func (router *Router) PostEditLink(response http.ResponseWriter, request *http.Request) {
	router.saveLink(response, request, chi.URLParam(request, "id"))
}

func (router *Router) saveLink(response http.ResponseWriter, request *http.Request, id string) {
	var form forms.LinkForm
	if err := decodeJSON(request, &form); err != nil {
		writeJSON(response, http.StatusBadRequest, errorView{Error: "malformed link form"})
		return
	}

	if _, err := form.Submit(request.Context(), router.links, id); err != nil {
		writeError(response, request, err, "Failed to save link")
		return
	}

	http.Redirect(response, request, routes.Links, http.StatusSeeOther)
}

func (router *Router) PostDeleteLink(response http.ResponseWriter, request *http.Request) {
	if err := router.links.Delete(request.Context(), chi.URLParam(request, "id")); err != nil {
		writeError(response, request, err, "Failed to delete link")
		return
	}

	http.Redirect(response, request, routes.Links, http.StatusSeeOther)
}
