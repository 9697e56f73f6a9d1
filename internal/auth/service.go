// Package auth handles credential verification and JWT issuance. Tokens
// carry the user's role and tenant binding so every request downstream
// can build its actor without a database read.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/soclink/soclink/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	UserID   uuid.UUID  `json:"uid"`
	Role     core.Role  `json:"role"`
	TenantID *uuid.UUID `json:"tid,omitempty"`
	Refresh  bool       `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() core.Actor {
	return core.Actor{UserID: c.UserID, Role: c.Role, TenantID: c.TenantID}
}

type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*core.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	InsertAudit(ctx context.Context, a *core.AuditLog) error
}

type Service struct {
	store      Store
	logger     *zap.Logger
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(store Store, logger *zap.Logger, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      store,
		logger:     logger,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         core.User `json:"user"`
}

// Login verifies the credentials and issues a token pair. Failed logins
// are audited with the attempted email; the caller learns only that the
// credentials were invalid, never which part was wrong.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*TokenPair, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.auditLogin(ctx, nil, email, ip, false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		s.auditLogin(ctx, user, email, ip, false)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLogin(ctx, user, email, ip, false)
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.Error(err))
	}
	s.auditLogin(ctx, user, email, ip, true)

	return s.issuePair(user)
}

// Refresh exchanges a valid refresh token for a new pair. The user's
// role and tenant binding are re-read so a deactivated or reassigned
// user cannot ride out an old token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.Refresh {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}
	return s.issuePair(user)
}

// Parse validates a token's signature and expiry and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword produces the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func (s *Service) issuePair(user *core.User) (*TokenPair, error) {
	now := time.Now().UTC()
	accessExpiry := now.Add(s.accessTTL)

	access, err := s.sign(user, accessExpiry, false)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, now.Add(s.refreshTTL), true)
	if err != nil {
		return nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExpiry,
		User:         sanitized,
	}, nil
}

func (s *Service) sign(user *core.User, expiresAt time.Time, refresh bool) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Role:     user.Role,
		TenantID: user.TenantID,
		Refresh:  refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) auditLogin(ctx context.Context, user *core.User, email, ip string, success bool) {
	action := core.AuditLoginFailed
	if success {
		action = core.AuditLoginSuccess
	}
	entry := &core.AuditLog{
		ID:        uuid.New(),
		Action:    action,
		Details:   core.JSONB{"email": email},
		CreatedAt: time.Now().UTC(),
	}
	if ip != "" {
		entry.IPAddress = &ip
	}
	if user != nil {
		entry.UserID = &user.ID
		entry.TenantID = user.TenantID
	}
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		s.logger.Warn("failed to write login audit", zap.Error(err))
	}
}
