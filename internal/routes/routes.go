// Package routes enumerates the client-visible routes and the navigation
// contract used to move the user between them.
package routes

import (
	"net/url"
	"strings"
	"sync"
)

const (
	Login     = "/login"
	Register  = "/register"
	Dashboard = "/"
	Links     = "/links"
	NewLink   = "/links/new"

	editLinkPrefix = "/links/edit/"
)

// EditLink returns the edit route of the link with the given id.
func EditLink(id string) string {
	return editLinkPrefix + url.PathEscape(id)
}

// EditLinkID extracts the link id from an edit route.
func EditLinkID(path string) (string, bool) {
	if !strings.HasPrefix(path, editLinkPrefix) {
		return "", false
	}
	escaped := strings.TrimPrefix(path, editLinkPrefix)
	if escaped == "" || strings.Contains(escaped, "/") {
		return "", false
	}
	id, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}

	return id, true
}

// IsPublic reports whether the route is reachable without a session.
func IsPublic(path string) bool {
	return path == Login || path == Register
}

// Known reports whether path is one of the client routes.
func Known(path string) bool {
	switch path {
	case Login, Register, Dashboard, Links, NewLink:
		return true
	}
	_, ok := EditLinkID(path)

	return ok
}

// Resolve maps unknown paths to the dashboard.
func Resolve(path string) string {
	trimmed := path
	if len(trimmed) > 1 {
		trimmed = strings.TrimRight(trimmed, "/")
	}
	if Known(trimmed) {
		return trimmed
	}

	return Dashboard
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

// Recorder is a Navigator remembering every requested route.
type Recorder struct {
	mu      sync.Mutex
	history []string
}

func (r *Recorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, route)
}

// Last returns the most recent route, if any.
func (r *Recorder) Last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.history) == 0 {
		return "", false
	}

	return r.history[len(r.history)-1], true
}

// History returns a copy of every recorded route in order.
func (r *Recorder) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.history...)
}
