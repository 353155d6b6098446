package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

const (
	// Issuer is the iss claim of every session token.
	Issuer = "evalia"

	// DefaultTTL is the session lifetime when none is configured.
	DefaultTTL = 24 * time.Hour

	minSecretLength = 16
)

// Claims are the session token claims.
type Claims struct {
	jwt.RegisteredClaims
	Role competitions.Role `json:"role"`
	Name string            `json:"name,omitempty"`
}

// UserID returns the subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// Session is an issued token.
type Session struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      *competitions.User `json:"user"`
}

// TokenManager signs, validates and revokes session tokens.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *cache.Cache
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

// NewTokenManager creates a manager signing with secret.
func NewTokenManager(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if len(secret) < minSecretLength {
		return nil, errors.NewConfigError("auth", "token secret must be at least 16 bytes", nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &TokenManager{
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		revoked: cache.New(ttl, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the session lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new session for u.
func (m *TokenManager) Issue(u *competitions.User) (*Session, error) {
	now := m.now().UTC()
	expires := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: u.Role,
		Name: u.Name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, errors.NewAuthenticationError("token", "signing failed", err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: u}, nil
}

// Parse validates a token and returns its claims.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return nil, errors.NewAuthenticationError("token", msg, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.NewAuthenticationError("token", "invalid token", nil)
	}
	if _, revoked := m.revoked.Get(claims.ID); revoked {
		return nil, errors.NewAuthenticationError("token", "token revoked", nil)
	}
	return claims, nil
}

// Revoke invalidates a token until it expires.
func (m *TokenManager) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	ttl := m.ttl
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(m.now())
	}
	if ttl <= 0 {
		return
	}
	m.revoked.Set(claims.ID, struct{}{}, ttl)
}
