package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/openshelf/openshelf-backend/pkg/enums"
)

// User is the canonical identity entity. The primary key is the stable
// subject identifier issued by the identity layer, not a surrogate uuid,
// so lazily provisioned and registered users share one keyspace.
type User struct {
	ID           string  `gorm:"type:text;primaryKey"`
	Email        string  `gorm:"type:text;not null;uniqueIndex:users_email_key"`
	PasswordHash *string `gorm:"column:password_hash"`

	Role        enums.UserRole `gorm:"type:text;not null"`
	LoginCount  int            `gorm:"column:login_count;not null;default:0"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at"`

	FullName    string         `gorm:"column:full_name;not null"`
	Bio         string         `gorm:"column:bio;not null;default:''"`
	AvatarURL   *string        `gorm:"column:avatar_url"`
	SocialLinks pq.StringArray `gorm:"type:text[];column:social_links"`

	NotificationsEnabled bool   `gorm:"column:notifications_enabled;not null;default:true"`
	Theme                string `gorm:"column:theme;not null;default:'light'"`

	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
