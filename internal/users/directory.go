package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/openshelf/openshelf-backend/pkg/config"
	"github.com/openshelf/openshelf-backend/pkg/db"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	"github.com/openshelf/openshelf-backend/pkg/enums"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
	"github.com/openshelf/openshelf-backend/pkg/types"
	"gorm.io/gorm"
)

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, updates map[string]any) error
}

// Directory resolves verified subjects into catalog users, provisioning the
// row lazily on first login.
type Directory struct {
	repo    userRepository
	authCfg config.AuthConfig
}

// NewDirectory constructs a directory bound to the provided repository.
func NewDirectory(repo *Repository, authCfg config.AuthConfig) *Directory {
	return &Directory{repo: repo, authCfg: authCfg}
}

// DeriveRole maps an email to its application role: admin for allowlisted
// domains, the configured default otherwise. Pure, no I/O.
func DeriveRole(cfg config.AuthConfig, email string) enums.UserRole {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
		for _, admin := range cfg.AdminDomains {
			if domain != "" && strings.EqualFold(strings.TrimSpace(admin), domain) {
				return enums.UserRoleAdmin
			}
		}
	}
	if role, err := enums.ParseUserRole(cfg.DefaultRole); err == nil {
		return role
	}
	return enums.UserRoleStudent
}

// ResolveSession returns the user behind a verified subject. A missing row is
// created with the derived role and a first login recorded; an existing row
// gets its login counters bumped atomically.
func (d *Directory) ResolveSession(ctx context.Context, subjectID, email string) (*UserDTO, error) {
	subjectID = strings.TrimSpace(subjectID)
	email = strings.ToLower(strings.TrimSpace(email))
	if subjectID == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	user, err := d.repo.FindByID(ctx, subjectID)
	switch {
	case err == nil:
		return d.recordLogin(ctx, user, now)

	case errors.Is(err, gorm.ErrRecordNotFound):
		created, createErr := d.repo.Create(ctx, CreateUserDTO{
			ID:          subjectID,
			Email:       email,
			Role:        DeriveRole(d.authCfg, email),
			LoginCount:  1,
			LastLoginAt: &now,
		})
		if createErr == nil {
			return FromModel(created), nil
		}
		if db.IsUniqueViolation(createErr, "") {
			// Lost the provisioning race to a concurrent first login.
			existing, findErr := d.repo.FindByID(ctx, subjectID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reload user after provisioning race")
			}
			return d.recordLogin(ctx, existing, now)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "provision user")

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
}

func (d *Directory) recordLogin(ctx context.Context, user *models.User, now time.Time) (*UserDTO, error) {
	if err := d.repo.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	user.LoginCount++
	user.LastLoginAt = &now
	return FromModel(user), nil
}

// GetByID returns the user projection or NotFound.
func (d *Directory) GetByID(ctx context.Context, id string) (*UserDTO, error) {
	user, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return FromModel(user), nil
}

// UpdateProfileInput carries the mutable profile and preference fields. Role,
// id, and email are deliberately unreachable from here.
type UpdateProfileInput struct {
	FullName             *string              `json:"full_name" validate:"omitempty,min=1,max=200"`
	Bio                  *string              `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL            types.OptionalString `json:"avatar_url"`
	SocialLinks          *[]string            `json:"social_links" validate:"omitempty,dive,url"`
	NotificationsEnabled *bool                `json:"notifications_enabled"`
	Theme                *string              `json:"theme" validate:"omitempty,oneof=light dark"`
}

// HasChanges reports whether any profile field was provided.
func (i UpdateProfileInput) HasChanges() bool {
	return i.FullName != nil || i.Bio != nil || i.AvatarURL.Set ||
		i.SocialLinks != nil || i.NotificationsEnabled != nil || i.Theme != nil
}

// UpdateProfile merges the provided fields into the user row and returns the
// refreshed projection.
func (d *Directory) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*UserDTO, error) {
	if !input.HasChanges() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no profile fields provided")
	}

	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.AvatarURL.Set {
		updates["avatar_url"] = input.AvatarURL.Value
	}
	if input.SocialLinks != nil {
		updates["social_links"] = pq.StringArray(*input.SocialLinks)
	}
	if input.NotificationsEnabled != nil {
		updates["notifications_enabled"] = *input.NotificationsEnabled
	}
	if input.Theme != nil {
		updates["theme"] = *input.Theme
	}

	if _, err := d.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := d.repo.UpdateProfile(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("update profile for %s", id))
	}
	return d.GetByID(ctx, id)
}
