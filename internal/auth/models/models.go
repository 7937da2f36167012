package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"agencyhub/pkg/platform/validation"
)

// User is a registered API caller. PasswordHash never leaves the service.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView is the public projection of a User.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (u *User) View() UserView {
	return UserView{ID: u.ID.String(), Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var registerMessages = validation.Messages{
	"username": "Username is required and must be 3-30 characters",
	"email":    "Valid email is required",
	"password": "Password must be at least 6 characters",
}

// Normalize trims the username and lowercases the email.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
}

func (r *RegisterRequest) Validate() error {
	return validation.Struct(r, registerMessages)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = validation.Messages{
	"email":    "Valid email is required",
	"password": "Password is required",
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.Struct(r, loginMessages)
}

// LoginResult is returned to the caller after a successful login.
type LoginResult struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	User      UserView `json:"user"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
