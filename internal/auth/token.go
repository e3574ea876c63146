package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL    = 24 * time.Hour
	defaultRenewWithin = 7 * time.Hour
)

var (
	// ErrMissingSigningSecret indicates the service was built without a key.
	ErrMissingSigningSecret = errors.New("auth: signing secret required")
	// ErrMissingUserName indicates an identity without a username.
	ErrMissingUserName = errors.New("auth: user name required")
	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed payload, expiry, and bound-IP mismatch. Callers treat it
	// as "anonymous", never as a request failure.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Identity is the authenticated principal carried by a session token.
type Identity struct {
	UserName string
	Auth     int
}

// Session is the result of a successful token verification. RenewAdvised
// is set when the remaining validity dropped below the renewal window;
// renewal is advisory and never blocks the current request.
type Session struct {
	Identity     Identity
	RenewAdvised bool
}

type sessionClaims struct {
	UserName string `json:"user_name"`
	Auth     int    `json:"auth"`
	BoundIP  string `json:"ip"`
	jwt.RegisteredClaims
}

// TokenServiceConfig configures session token issuance and verification.
type TokenServiceConfig struct {
	SigningSecret []byte
	Issuer        string
	TokenTTL      time.Duration
	RenewWithin   time.Duration
	Clock         func() time.Time
}

// TokenService issues and verifies IP-bound session tokens.
type TokenService struct {
	signingSecret []byte
	issuer        string
	tokenTTL      time.Duration
	renewWithin   time.Duration
	clock         func() time.Time
}

// NewTokenService constructs a TokenService with sane defaults.
func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingSigningSecret
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	renewWithin := cfg.RenewWithin
	if renewWithin <= 0 {
		renewWithin = defaultRenewWithin
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenService{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        strings.TrimSpace(cfg.Issuer),
		tokenTTL:      ttl,
		renewWithin:   renewWithin,
		clock:         clock,
	}, nil
}

// TokenTTL exposes the configured token lifetime, used for cookie max age.
func (s *TokenService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Issue produces a signed token embedding the identity and the caller's
// IP. Verification later requires the same IP.
func (s *TokenService) Issue(identity Identity, boundIP string) (string, error) {
	if strings.TrimSpace(identity.UserName) == "" {
		return "", ErrMissingUserName
	}

	now := s.clock().UTC()
	claims := sessionClaims{
		UserName: identity.UserName,
		Auth:     identity.Auth,
		BoundIP:  boundIP,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.UserName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingSecret)
}

// Verify parses and validates a token against the current caller IP.
// Every failure mode collapses into ErrInvalidToken so the middleware can
// degrade to anonymous without inspecting causes.
func (s *TokenService) Verify(tokenString, currentIP string) (Session, error) {
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return Session{}, ErrInvalidToken
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		trimmed,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidToken, t.Method.Alg())
			}
			return s.signingSecret, nil
		},
		jwt.WithTimeFunc(s.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed == nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Session{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.UserName) == "" {
		return Session{}, fmt.Errorf("%w: missing user name", ErrInvalidToken)
	}
	if claims.BoundIP != currentIP {
		return Session{}, fmt.Errorf("%w: bound ip mismatch", ErrInvalidToken)
	}

	renewAdvised := false
	if claims.ExpiresAt != nil {
		remaining := claims.ExpiresAt.Time.Sub(s.clock())
		renewAdvised = remaining < s.renewWithin
	}

	return Session{
		Identity:     Identity{UserName: claims.UserName, Auth: claims.Auth},
		RenewAdvised: renewAdvised,
	}, nil
}
