package auth

import (
	"github.com/openshelf/openshelf-backend/internal/users"
)

// LoginRequest accepts either an identity token or an email/password pair.
type LoginRequest struct {
	IDToken  string `json:"id_token"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

// LoginResponse contains the token pair and the resolved user.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RegisterRequest captures the payload for creating a password-backed account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256"`
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
}

// RegisterResponse returns the new account's identity and profile.
type RegisterResponse struct {
	UID     string         `json:"uid"`
	Email   string         `json:"email"`
	Profile *users.UserDTO `json:"profile"`
}

// RefreshRequest carries the expiring access token and its refresh secret.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
