// Package forms validates user input before anything is sent to the API.
// A form that fails validation never reaches the network.
package forms

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

// FieldErrors maps a form field (by its JSON name) to a message for the user.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}

	return "invalid form: " + strings.Join(parts, "; ")
}

// AsFieldErrors extracts the FieldErrors carried by err, if any.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fieldErrors FieldErrors
	if errors.As(err, &fieldErrors) {
		return fieldErrors, true
	}

	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// messages holds the text shown for a failed rule, keyed by "field.tag".
type messages map[string]string

func check(form interface{}, texts messages) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	result := FieldErrors{}
	for _, fieldError := range validationErrors {
		field := fieldError.Field()
		if _, seen := result[field]; seen {
			continue
		}
		text, ok := texts[field+"."+fieldError.Tag()]
		if !ok {
			text = "Invalid value"
		}
		result[field] = text
	}

	return result
}

// SuggestedCategories are offered by the link form; any other label is
// accepted too.
var SuggestedCategories = []string{
	"Development",
	"Design",
	"Documentation",
	"Productivity",
	"Cloud",
	"DevOps",
	"Database",
	"Tools",
	"Learning",
	"Other",
}

// LinkForm is the create/edit form of a link.
type LinkForm struct {
	Title       string `json:"title" validate:"required,max=255"`
	URL         string `json:"url" validate:"required,url,max=2048"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"required,max=100"`
}

var linkMessages = messages{
	"title.required":    "Please enter a title",
	"title.max":         "Title must be between 1 and 255 characters",
	"url.required":      "Please enter a URL",
	"url.url":           "Please enter a valid URL",
	"url.max":           "URL must not exceed 2048 characters",
	"description.max":   "Description must not exceed 5000 characters",
	"category.required": "Please select a category",
	"category.max":      "Category must be between 1 and 100 characters",
}

// LinkFormFrom prefills the form with an existing link.
func LinkFormFrom(link models.Link) LinkForm {
	return LinkForm{
		Title:       link.Title,
		URL:         link.URL,
		Description: link.Description,
		Category:    link.Category,
	}
}

func (f LinkForm) normalized() LinkForm {
	return LinkForm{
		Title:       strings.TrimSpace(f.Title),
		URL:         strings.TrimSpace(f.URL),
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
	}
}

// Validate checks the form and returns FieldErrors on failure.
func (f LinkForm) Validate() error {
	return check(f.normalized(), linkMessages)
}

// Request converts a valid form into the API request.
func (f LinkForm) Request() models.LinkRequest {
	n := f.normalized()

	return models.LinkRequest{
		Title:       n.Title,
		URL:         n.URL,
		Description: n.Description,
		Category:    n.Category,
	}
}

type linkWriter interface {
	Create(ctx context.Context, request models.LinkRequest) (models.Link, error)
	Update(ctx context.Context, id string, request models.LinkRequest) (models.Link, error)
}

// Submit validates the form, then creates the link, or updates link id when
// id is not empty.
func (f LinkForm) Submit(ctx context.Context, links linkWriter, id string) (models.Link, error) {
	if err := f.Validate(); err != nil {
		return models.Link{}, err
	}
	if id != "" {
		return links.Update(ctx, id, f.Request())
	}

	return links.Create(ctx, f.Request())
}

// LoginForm holds the login credentials.
type LoginForm struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

var loginMessages = messages{
	"usernameOrEmail.required": "Please enter your username or email",
	"password.required":        "Please enter your password",
}

func (f LoginForm) Validate() error {
	return check(LoginForm{
		UsernameOrEmail: strings.TrimSpace(f.UsernameOrEmail),
		Password:        f.Password,
	}, loginMessages)
}

type loginer interface {
	Login(ctx context.Context, request models.LoginRequest) (models.Session, error)
}

// Submit validates the form and logs in.
func (f LoginForm) Submit(ctx context.Context, store loginer) (models.Session, error) {
	if err := f.Validate(); err != nil {
		return models.Session{}, err
	}

	return store.Login(ctx, models.LoginRequest{
		UsernameOrEmail: strings.TrimSpace(f.UsernameOrEmail),
		Password:        f.Password,
	})
}

// RegisterForm holds a new account.
type RegisterForm struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

var registerMessages = messages{
	"username.required":        "Please enter your username",
	"username.min":             "Username must be between 3 and 50 characters",
	"username.max":             "Username must be between 3 and 50 characters",
	"email.required":           "Please enter your email",
	"email.email":              "Please enter a valid email",
	"password.required":        "Please enter your password",
	"password.min":             "Password must be at least 6 characters",
	"confirmPassword.required": "Please confirm your password",
	"confirmPassword.eqfield":  "Passwords do not match",
}

func (f RegisterForm) normalized() RegisterForm {
	return RegisterForm{
		Username:        strings.TrimSpace(f.Username),
		Email:           strings.TrimSpace(f.Email),
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
	}
}

func (f RegisterForm) Validate() error {
	return check(f.normalized(), registerMessages)
}

type registerer interface {
	Register(ctx context.Context, request models.RegisterRequest) (models.Session, error)
}

// Submit validates the form and registers the account.
func (f RegisterForm) Submit(ctx context.Context, store registerer) (models.Session, error) {
	if err := f.Validate(); err != nil {
		return models.Session{}, err
	}
	n := f.normalized()

	return store.Register(ctx, models.RegisterRequest{
		Username: n.Username,
		Email:    n.Email,
		Password: n.Password,
	})
}
