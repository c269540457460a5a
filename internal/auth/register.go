package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/openshelf/openshelf-backend/internal/users"
	"github.com/openshelf/openshelf-backend/pkg/config"
	"github.com/openshelf/openshelf-backend/pkg/db"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
	"github.com/openshelf/openshelf-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterService handles password-backed account creation.
type RegisterService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	authCfg     config.AuthConfig
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	AuthConfig     config.AuthConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (*RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &RegisterService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		authCfg:     params.AuthConfig,
	}, nil
}

// Register creates the account inside one transaction. The subject id is
// issued here and stays stable for the account's lifetime; the role is
// derived from the email domain exactly once.
func (s *RegisterService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var response *RegisterResponse
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: &passwordHash,
			Role:         users.DeriveRole(s.authCfg, email),
			FullName:     strings.TrimSpace(req.FullName),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "users_email_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		response = &RegisterResponse{
			UID:     user.ID,
			Email:   user.Email,
			Profile: users.FromModel(user),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return response, nil
}
