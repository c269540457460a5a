package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	ctx := context.Background()
	accessID := "access-123"
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data[store.AccessSessionKey(accessID)]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}

	if _, _, err := manager.Rotate(ctx, accessID, "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey(accessID)]; exists {
		t.Fatalf("old access key left behind")
	}
	if stored := store.data[store.AccessSessionKey(newAccessID)]; stored != newToken {
		t.Fatalf("expected new token stored, got %q", stored)
	}
}

type setFailingStore struct {
	*mockStore
	failSet bool
}

func (s *setFailingStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.failSet {
		return errors.New("store unavailable")
	}
	return s.mockStore.Set(ctx, key, value, ttl)
}

func TestManagerRotateFailureLeavesNoLiveSession(t *testing.T) {
	store := &setFailingStore{mockStore: newMockStore()}
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	ctx := context.Background()
	accessID := "access-789"
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	store.failSet = true
	if _, _, err := manager.Rotate(ctx, accessID, token); err == nil {
		t.Fatal("expected rotate to fail when the store rejects the write")
	}

	// The old session must be revoked before the replacement is stored, so a
	// failed rotation never leaves two usable refresh tokens.
	if len(store.data) != 0 {
		t.Fatalf("expected no live sessions after failed rotate, got %d", len(store.data))
	}
}

func TestManagerRevokeEndsSession(t *testing.T) {
	store := newMockStore()
	manager := &Manager{
		store: store,
		keyer: store,
		ttl:   time.Hour,
	}

	ctx := context.Background()
	accessID := "access-456"
	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	active, err := manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !active {
		t.Fatal("expected session to be active after generate")
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	active, err = manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session after revoke: %v", err)
	}
	if active {
		t.Fatal("expected session to be gone after revoke")
	}
}

func TestManagerRejectsBlankAccessID(t *testing.T) {
	manager := &Manager{store: newMockStore(), keyer: newMockStore(), ttl: time.Hour}
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "  "); err == nil {
		t.Fatal("expected error for blank access id")
	}
	if err := manager.Revoke(ctx, ""); err == nil {
		t.Fatal("expected error for blank access id")
	}
	if _, err := manager.HasSession(ctx, ""); err == nil {
		t.Fatal("expected error for blank access id")
	}
}
