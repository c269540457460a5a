package identity

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openshelf/openshelf-backend/pkg/config"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
	"github.com/openshelf/openshelf-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Subject is the stable identity a verified credential resolves to.
type Subject struct {
	ID    string
	Email string
}

// Credential carries one of the two accepted credential shapes: a bearer
// identity token, or an email/password pair.
type Credential struct {
	IDToken  string
	Email    string
	Password string
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Verifier resolves credentials into subjects. Stateless; every provider-side
// failure collapses into a single unauthorized error so no detail about which
// check failed crosses the boundary.
type Verifier struct {
	users userLookup
	cfg   config.IdentityConfig
}

// NewVerifier constructs a credential verifier.
func NewVerifier(users userLookup, cfg config.IdentityConfig) *Verifier {
	return &Verifier{users: users, cfg: cfg}
}

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verify resolves the credential into a subject or fails with unauthorized.
func (v *Verifier) Verify(ctx context.Context, cred Credential) (Subject, error) {
	if strings.TrimSpace(cred.IDToken) != "" {
		return v.verifyIDToken(cred.IDToken)
	}
	return v.verifyPassword(ctx, cred.Email, cred.Password)
}

func (v *Verifier) verifyIDToken(tokenString string) (Subject, error) {
	if v.cfg.TokenSecret == "" {
		return Subject{}, unauthorized()
	}

	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, unauthorized()
			}
			return []byte(v.cfg.TokenSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.TokenIssuer),
	)
	if err != nil {
		return Subject{}, unauthorized()
	}

	subject := strings.TrimSpace(claims.Subject)
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if subject == "" || email == "" {
		return Subject{}, unauthorized()
	}
	return Subject{ID: subject, Email: email}, nil
}

func (v *Verifier) verifyPassword(ctx context.Context, email, password string) (Subject, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Subject{}, unauthorized()
	}

	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return Subject{}, unauthorized()
	}
	if user.PasswordHash == nil || !user.IsActive {
		return Subject{}, unauthorized()
	}

	valid, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil || !valid {
		return Subject{}, unauthorized()
	}
	return Subject{ID: user.ID, Email: user.Email}, nil
}

func unauthorized() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
}
