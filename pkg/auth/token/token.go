// Package token issues and validates the HS256 session tokens used by the
// arena's own login flow.
//
// Unlike a federated setup there is no external identity provider: the
// server signs tokens with a shared secret at login and validates them on
// every request, accepting the token either as a bearer header or as the
// arena_token cookie set by the login endpoint.
package token

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/auth"
)

// CookieName is the cookie carrying the session token.
const CookieName = "arena_token"

// Config holds the token service configuration.
type Config struct {
	// Secret is the HS256 signing key. Required.
	Secret []byte

	// Issuer is stamped into and validated against the iss claim.
	// Default: "arena".
	Issuer string

	// TTL is the token lifetime. Default: 24 hours.
	TTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "arena"
	}
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
}

// Claims is the payload carried in a session token.
type Claims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Role   api.Role `json:"role"`
	jwtlib.RegisteredClaims
}

// Service issues and verifies session tokens.
type Service struct {
	config Config
}

// NewService creates a token service. The secret must be non-empty.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	cfg.applyDefaults()
	return &Service{config: cfg}, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a new token for the given user.
func (s *Service) Issue(user *api.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.config.TTL)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a raw token string.
func (s *Service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(raw, claims, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.config.Secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(s.config.Issuer),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing uid claim")
	}
	return claims, nil
}

// Authenticator validates session tokens from the Authorization header or
// the arena_token cookie.
type Authenticator struct {
	service *Service
}

// NewAuthenticator wraps a token service as a chain authenticator.
func NewAuthenticator(service *Service) *Authenticator {
	return &Authenticator{service: service}
}

// Authenticate extracts a session token and validates it.
//
// Decision outcomes:
//   - Abstain: no bearer header and no arena_token cookie
//   - No: token present but invalid (expired, bad signature, wrong issuer)
//   - Yes: valid token with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	raw := extractToken(r)
	if raw == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	claims, err := a.service.Verify(raw)
	if err != nil {
		slog.Debug("session token validation failed", "error", err)
		return auth.AuthResult{
			Decision: auth.No,
			Err:      err,
		}
	}

	role := claims.Role
	if role != api.RoleAdmin {
		role = api.RoleUser
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     claims.UserID,
			Email:       claims.Email,
			Role:        role,
			ServiceTier: "default",
		},
	}
}

// extractToken returns the raw token from the bearer header or the session
// cookie, preferring the header.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if header != "" {
		// Some other scheme; leave it for another authenticator.
		return ""
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
