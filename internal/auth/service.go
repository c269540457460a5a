package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openshelf/openshelf-backend/internal/identity"
	"github.com/openshelf/openshelf-backend/internal/users"
	pkgauth "github.com/openshelf/openshelf-backend/pkg/auth"
	"github.com/openshelf/openshelf-backend/pkg/auth/session"
	"github.com/openshelf/openshelf-backend/pkg/config"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
)

type credentialVerifier interface {
	Verify(ctx context.Context, cred identity.Credential) (identity.Subject, error)
}

type sessionResolver interface {
	ResolveSession(ctx context.Context, subjectID, email string) (*users.UserDTO, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service implements the session lifecycle: login, refresh, logout.
type Service struct {
	verifier  credentialVerifier
	directory sessionResolver
	session   sessionManager
	jwtCfg    config.JWTConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Verifier       credentialVerifier
	Directory      sessionResolver
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("credential verifier is required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &Service{
		verifier:  params.Verifier,
		directory: params.Directory,
		session:   params.SessionManager,
		jwtCfg:    params.JWTConfig,
	}, nil
}

// Login verifies the credential, resolves (or provisions) the user, and
// issues a token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	hasToken := strings.TrimSpace(req.IDToken) != ""
	hasPassword := strings.TrimSpace(req.Email) != "" && req.Password != ""
	if !hasToken && !hasPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "either id_token or email and password are required")
	}

	subject, err := s.verifier.Verify(ctx, identity.Credential{
		IDToken:  req.IDToken,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.directory.ResolveSession(ctx, subject.ID, subject.Email)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh rotates the session behind an access token. The token may be
// expired; its signature and issuer are still enforced.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token pair")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token pair")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &RefreshResponse{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout revokes the redis session behind the access identifier.
func (s *Service) Logout(ctx context.Context, accessID string) error {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *Service) issuePair(ctx context.Context, user *users.UserDTO) (string, string, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return accessToken, refreshToken, nil
}
