// Package models holds the wire and domain types shared by the linkkeeper
// client: the session identity, links and the request/response bodies of the
// remote links API.
package models

// User is the identity snapshot persisted next to the token.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session is the authenticated identity of the process. There is at most one.
type Session struct {
	User
	Token string `json:"token"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both authentication endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session converts the response into the session it establishes.
func (r AuthResponse) Session() Session {
	return Session{
		User: User{
			ID:       r.ID,
			Username: r.Username,
			Email:    r.Email,
			Role:     r.Role,
		},
		Token: r.Token,
	}
}

// Link is a bookmark as owned by the server.
type Link struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreateDate  Timestamp `json:"createDate"`
	UpdateDate  Timestamp `json:"updateDate"`
}

// LinkRequest is the mutable part of a link submitted on create and update.
type LinkRequest struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Request extracts the mutable fields of the link.
func (l Link) Request() LinkRequest {
	return LinkRequest{
		Title:       l.Title,
		URL:         l.URL,
		Description: l.Description,
		Category:    l.Category,
	}
}

// ErrorResponse is the error body produced by the links API.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// Keys of the persisted client state.
const (
	TokenKey = "auth_token"
	UserKey  = "auth_user"
)
