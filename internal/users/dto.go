package users

import (
	"time"

	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                   string         `json:"id"`
	Email                string         `json:"email"`
	Role                 enums.UserRole `json:"role"`
	LoginCount           int            `json:"login_count"`
	LastLoginAt          *time.Time     `json:"last_login_at,omitempty"`
	FullName             string         `json:"full_name"`
	Bio                  string         `json:"bio"`
	AvatarURL            *string        `json:"avatar_url,omitempty"`
	SocialLinks          []string       `json:"social_links"`
	NotificationsEnabled bool           `json:"notifications_enabled"`
	Theme                string         `json:"theme"`
	IsActive             bool           `json:"is_active"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ID           string
	Email        string
	PasswordHash *string
	Role         enums.UserRole
	FullName     string
	LoginCount   int
	LastLoginAt  *time.Time
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                   u.ID,
		Email:                u.Email,
		Role:                 u.Role,
		LoginCount:           u.LoginCount,
		LastLoginAt:          u.LastLoginAt,
		FullName:             u.FullName,
		Bio:                  u.Bio,
		AvatarURL:            u.AvatarURL,
		SocialLinks:          append([]string(nil), u.SocialLinks...),
		NotificationsEnabled: u.NotificationsEnabled,
		Theme:                u.Theme,
		IsActive:             u.IsActive,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	theme := "light"
	return &models.User{
		ID:                   c.ID,
		Email:                c.Email,
		PasswordHash:         c.PasswordHash,
		Role:                 c.Role,
		LoginCount:           c.LoginCount,
		LastLoginAt:          c.LastLoginAt,
		FullName:             c.FullName,
		SocialLinks:          []string{},
		NotificationsEnabled: true,
		Theme:                theme,
		IsActive:             true,
	}
}
