// Package fakeapi is an in-memory stand-in for the remote links API, used by
// tests to exercise the client end to end over real HTTP. It issues HS256
// JWTs, keeps links per user and can be told to fail the next call.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

type account struct {
	user         models.User
	passwordHash []byte
}

type forcedFailure struct {
	status  int
	message string
}

// Server implements the seven endpoints of the links API.
type Server struct {
	mu         sync.Mutex
	accounts   []*account
	links      map[string][]models.Link
	signingKey []byte
	tokenTTL   time.Duration
	now        func() time.Time
	failNext   *forcedFailure

	requests     atomic.Int64
	linkRequests atomic.Int64
	lastAuth     atomic.Value
}

type Option func(*Server)

// WithClock replaces time.Now, e.g. to get distinct creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

func New(options ...Option) *Server {
	s := &Server{
		links:      map[string][]models.Link{},
		signingKey: []byte("fakeapi-signing-key"),
		tokenTTL:   time.Hour,
		now:        time.Now,
	}
	for _, option := range options {
		option(s)
	}
	s.lastAuth.Store("")

	return s
}

// Handler returns the HTTP handler of the fake API.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.count)

	router.Post(`/api/auth/login`, s.postLogin)
	router.Post(`/api/auth/register`, s.postRegister)

	router.Route(`/api/links`, func(r chi.Router) {
		r.Use(s.countLinks, s.forceFailure)
		r.Get(`/`, s.listLinks)
		r.Post(`/`, s.createLink)
		r.Get(`/{id}`, s.getLink)
		r.Put(`/{id}`, s.updateLink)
		r.Delete(`/{id}`, s.deleteLink)
	})

	return router
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// LinkRequests returns how many requests hit /api/links.
func (s *Server) LinkRequests() int64 {
	return s.linkRequests.Load()
}

// LastAuthorization returns the Authorization header of the last request.
func (s *Server) LastAuthorization() string {
	return s.lastAuth.Load().(string)
}

// FailNext makes the next /api/links request answer status with message.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNext = &forcedFailure{status: status, message: message}
}

func (s *Server) count(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		s.requests.Add(1)
		s.lastAuth.Store(request.Header.Get("Authorization"))
		h.ServeHTTP(response, request)
	})
}

func (s *Server) countLinks(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		s.linkRequests.Add(1)
		h.ServeHTTP(response, request)
	})
}

func (s *Server) forceFailure(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		s.mu.Lock()
		failure := s.failNext
		s.failNext = nil
		s.mu.Unlock()

		if failure != nil {
			s.writeError(response, request, failure.status, failure.message)
			return
		}
		h.ServeHTTP(response, request)
	})
}

func writeJSON(response http.ResponseWriter, status int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	_ = json.NewEncoder(response).Encode(body)
}

func (s *Server) writeError(response http.ResponseWriter, request *http.Request, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      request.URL.Path,
	})
}

func (s *Server) authResponse(response http.ResponseWriter, status int, acc *account) {
	token, err := s.buildJWTString(acc.user.ID)
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(response, status, models.AuthResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       acc.user.ID,
		Username: acc.user.Username,
		Email:    acc.user.Email,
		Role:     acc.user.Role,
	})
}

func (s *Server) postRegister(response http.ResponseWriter, request *http.Request) {
	var body models.RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		s.writeError(response, request, http.StatusBadRequest, "Malformed request body")
		return
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		s.writeError(response, request, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		s.writeError(response, request, http.StatusBadRequest, "Password is not acceptable")
		return
	}

	s.mu.Lock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Username, body.Username) {
			s.mu.Unlock()
			s.writeError(response, request, http.StatusConflict, "Username is already taken")
			return
		}
		if strings.EqualFold(acc.user.Email, body.Email) {
			s.mu.Unlock()
			s.writeError(response, request, http.StatusConflict, "Email is already in use")
			return
		}
	}
	acc := &account{
		user: models.User{
			ID:       uuid.NewString(),
			Username: body.Username,
			Email:    body.Email,
			Role:     "USER",
		},
		passwordHash: passwordHash,
	}
	s.accounts = append(s.accounts, acc)
	s.mu.Unlock()

	s.authResponse(response, http.StatusCreated, acc)
}

func (s *Server) postLogin(response http.ResponseWriter, request *http.Request) {
	var body models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		s.writeError(response, request, http.StatusBadRequest, "Malformed request body")
		return
	}

	s.mu.Lock()
	var found *account
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Username, body.UsernameOrEmail) ||
			strings.EqualFold(acc.user.Email, body.UsernameOrEmail) {
			found = acc
			break
		}
	}
	s.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(body.Password)) != nil {
		s.writeError(response, request, http.StatusBadRequest, "Invalid username or password")
		return
	}

	s.authResponse(response, http.StatusOK, found)
}

// authorized resolves the caller or answers 401.
func (s *Server) authorized(response http.ResponseWriter, request *http.Request) (string, bool) {
	userID, err := s.userIDFromRequest(request)
	if err != nil {
		s.writeError(response, request, http.StatusUnauthorized, "Full authentication is required to access this resource")
		return "", false
	}

	return userID, true
}

func (s *Server) listLinks(response http.ResponseWriter, request *http.Request) {
	userID, ok := s.authorized(response, request)
	if !ok {
		return
	}

	s.mu.Lock()
	links := append([]models.Link{}, s.links[userID]...)
	s.mu.Unlock()

	writeJSON(response, http.StatusOK, links)
}

func (s *Server) findLink(userID, id string) (int, bool) {
	for i, link := range s.links[userID] {
		if link.ID == id {
			return i, true
		}
	}

	return 0, false
}

func (s *Server) getLink(response http.ResponseWriter, request *http.Request) {
	userID, ok := s.authorized(response, request)
	if !ok {
		return
	}
	id := chi.URLParam(request, "id")

	s.mu.Lock()
	i, found := s.findLink(userID, id)
	var link models.Link
	if found {
		link = s.links[userID][i]
	}
	s.mu.Unlock()

	if !found {
		s.writeError(response, request, http.StatusNotFound, "Link not found with id: "+id)
		return
	}

	writeJSON(response, http.StatusOK, link)
}

func decodeLinkRequest(request *http.Request) (models.LinkRequest, string) {
	var body models.LinkRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		return body, "Malformed request body"
	}
	if body.Title == "" || body.URL == "" || body.Category == "" {
		return body, "Title, URL and category are required"
	}

	return body, ""
}

func (s *Server) createLink(response http.ResponseWriter, request *http.Request) {
	userID, ok := s.authorized(response, request)
	if !ok {
		return
	}
	body, problem := decodeLinkRequest(request)
	if problem != "" {
		s.writeError(response, request, http.StatusBadRequest, problem)
		return
	}

	now := models.Timestamp{Time: s.now().UTC()}
	link := models.Link{
		ID:          uuid.NewString(),
		Title:       body.Title,
		URL:         body.URL,
		Description: body.Description,
		Category:    body.Category,
		CreateDate:  now,
		UpdateDate:  now,
	}

	s.mu.Lock()
	s.links[userID] = append(s.links[userID], link)
	s.mu.Unlock()

	writeJSON(response, http.StatusCreated, link)
}

func (s *Server) updateLink(response http.ResponseWriter, request *http.Request) {
	userID, ok := s.authorized(response, request)
	if !ok {
		return
	}
	id := chi.URLParam(request, "id")
	body, problem := decodeLinkRequest(request)
	if problem != "" {
		s.writeError(response, request, http.StatusBadRequest, problem)
		return
	}

	s.mu.Lock()
	i, found := s.findLink(userID, id)
	var link models.Link
	if found {
		link = s.links[userID][i]
		link.Title = body.Title
		link.URL = body.URL
		link.Description = body.Description
		link.Category = body.Category
		link.UpdateDate = models.Timestamp{Time: s.now().UTC()}
		s.links[userID][i] = link
	}
	s.mu.Unlock()

	if !found {
		s.writeError(response, request, http.StatusNotFound, "Link not found with id: "+id)
		return
	}

	writeJSON(response, http.StatusOK, link)
}

func (s *Server) deleteLink(response http.ResponseWriter, request *http.Request) {
	userID, ok := s.authorized(response, request)
	if !ok {
		return
	}
	id := chi.URLParam(request, "id")

	s.mu.Lock()
	i, found := s.findLink(userID, id)
	if found {
		userLinks := s.links[userID]
		s.links[userID] = append(userLinks[:i:i], userLinks[i+1:]...)
	}
	s.mu.Unlock()

	if !found {
		s.writeError(response, request, http.StatusNotFound, "Link not found with id: "+id)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}
