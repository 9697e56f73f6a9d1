package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/core"
)

type fakeStore struct {
	users  map[string]*core.User
	audits []*core.AuditLog
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*core.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) TouchLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeStore) InsertAudit(_ context.Context, a *core.AuditLog) error {
	f.audits = append(f.audits, a)
	return nil
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, zap.NewNop(), "test-secret", 15*time.Minute, 7*24*time.Hour)
}

func seedUser(t *testing.T, store *fakeStore, email, password string, role core.Role, tenantID *uuid.UUID) *core.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &core.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	store.users[email] = u
	return u
}

func TestLoginIssuesTokenCarryingActor(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	tenantID := uuid.New()
	user := seedUser(t, store, "alice@acme.example", "s3cret", core.RoleClientSecurity, &tenantID)
	svc := newTestService(store)

	pair, err := svc.Login(context.Background(), "alice@acme.example", "s3cret", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.User.PasswordHash != "" {
		t.Error("password hash leaked in login response")
	}

	claims, err := svc.Parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	actor := claims.Actor()
	if actor.UserID != user.ID || actor.Role != core.RoleClientSecurity {
		t.Errorf("actor = %+v", actor)
	}
	if actor.TenantID == nil || *actor.TenantID != tenantID {
		t.Errorf("tenant binding lost: %v", actor.TenantID)
	}
	if claims.Refresh {
		t.Error("access token flagged as refresh")
	}

	if len(store.audits) != 1 || store.audits[0].Action != core.AuditLoginSuccess {
		t.Errorf("audits = %+v", store.audits)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	seedUser(t, store, "alice@acme.example", "s3cret", core.RoleSOCAnalyst, nil)
	svc := newTestService(store)

	_, err := svc.Login(context.Background(), "alice@acme.example", "wrong", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if len(store.audits) != 1 || store.audits[0].Action != core.AuditLoginFailed {
		t.Errorf("failed login not audited: %+v", store.audits)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	svc := newTestService(store)

	_, err := svc.Login(context.Background(), "ghost@nowhere.example", "x", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginInactiveUserRejected(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	u := seedUser(t, store, "gone@acme.example", "s3cret", core.RoleClientAdmin, nil)
	u.IsActive = false
	svc := newTestService(store)

	if _, err := svc.Login(context.Background(), "gone@acme.example", "s3cret", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	seedUser(t, store, "alice@acme.example", "s3cret", core.RoleSOCAdmin, nil)
	svc := newTestService(store)

	pair, err := svc.Login(context.Background(), "alice@acme.example", "s3cret", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh with access token err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("refresh with refresh token: %v", err)
	}
}

func TestRefreshDeactivatedUserRejected(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	u := seedUser(t, store, "alice@acme.example", "s3cret", core.RoleSOCAdmin, nil)
	svc := newTestService(store)

	pair, err := svc.Login(context.Background(), "alice@acme.example", "s3cret", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	u.IsActive = false
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	store := &fakeStore{users: map[string]*core.User{}}
	seedUser(t, store, "alice@acme.example", "s3cret", core.RoleSOCAdmin, nil)
	svc := newTestService(store)

	pair, err := svc.Login(context.Background(), "alice@acme.example", "s3cret", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := NewService(store, zap.NewNop(), "different-secret", time.Minute, time.Hour)
	if _, err := other.Parse(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign-secret parse err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.Parse(pair.AccessToken + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered parse err = %v, want ErrInvalidToken", err)
	}
}
