package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf-backend/api/middleware"
	"github.com/openshelf/openshelf-backend/internal/auth"
	"github.com/openshelf/openshelf-backend/internal/identity"
	"github.com/openshelf/openshelf-backend/internal/users"
	"github.com/openshelf/openshelf-backend/pkg/config"
	"github.com/openshelf/openshelf-backend/pkg/db/models"
	pkgerrors "github.com/openshelf/openshelf-backend/pkg/errors"
)

func newDirectory(t *testing.T) (*users.Directory, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := users.NewRepository(conn)
	return users.NewDirectory(repo, config.AuthConfig{AdminDomains: []string{"openshelf.io"}, DefaultRole: "student"}), conn
}

func TestAuthCurrentUnknownUser(t *testing.T) {
	directory, _ := newDirectory(t)
	handler := AuthCurrent(directory, nil)

	req := httptest.NewRequest(http.MethodGet, "/current", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "ghost"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec.Body.Bytes()); code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestAuthCurrentRequiresContext(t *testing.T) {
	directory, _ := newDirectory(t)
	handler := AuthCurrent(directory, nil)

	req := httptest.NewRequest(http.MethodGet, "/current", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthUpdateProfilePersistsChanges(t *testing.T) {
	directory, conn := newDirectory(t)
	handler := AuthUpdateProfile(directory, nil)

	user := models.User{ID: "user-1", Email: "reader@example.com", FullName: "Reader", Theme: "light", IsActive: true}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/profile", strings.NewReader(`{"theme":"dark","bio":"Night reader."}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), user.ID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var persisted models.User
	if err := conn.First(&persisted, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if persisted.Theme != "dark" {
		t.Fatalf("expected dark theme, got %s", persisted.Theme)
	}
}

func TestAuthUpdateProfileRejectsBadTheme(t *testing.T) {
	directory, conn := newDirectory(t)
	handler := AuthUpdateProfile(directory, nil)

	user := models.User{ID: "user-2", Email: "reader2@example.com", FullName: "Reader", Theme: "light", IsActive: true}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/profile", strings.NewReader(`{"theme":"neon"}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), user.ID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
}

type recordingSessionManager struct {
	lastRevoked string
}

func (r *recordingSessionManager) Generate(context.Context, string) (string, error) {
	return "refresh", nil
}

func (r *recordingSessionManager) Rotate(context.Context, string, string) (string, string, error) {
	return "", "", nil
}

func (r *recordingSessionManager) Revoke(_ context.Context, accessID string) error {
	r.lastRevoked = accessID
	return nil
}

func TestAuthLogoutRevokesContextSession(t *testing.T) {
	directory, conn := newDirectory(t)
	sessions := &recordingSessionManager{}
	svc, err := auth.NewService(auth.ServiceParams{
		Verifier:       identity.NewVerifier(users.NewRepository(conn), config.IdentityConfig{}),
		Directory:      directory,
		SessionManager: sessions,
		JWTConfig:      config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10},
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	handler := AuthLogout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-1"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if sessions.lastRevoked != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %q", sessions.lastRevoked)
	}
}
