// Package auth issues and verifies the short-lived signed access tokens.
// Access tokens are self-contained: validity is purely a function of the
// signature and claims, never a database lookup, so they cannot be revoked
// individually before expiry. The short TTL bounds the exposure.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims plus the role codes granted to the
// subject at issue time.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// UserID parses the subject claim as the numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject", common.ErrInvalidToken)
	}
	return id, nil
}

// TokenService signs and verifies access tokens with a shared HS256 secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a TokenService. The secret and issuer must be
// non-empty and the TTL positive.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	if issuer == "" {
		return nil, errors.New("auth: issuer must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: access token TTL must be positive")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the configured access-token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue builds and signs an access token for userID carrying the given role
// codes.
func (s *TokenService) Issue(userID int64, roleCodes []string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Roles: roleCodes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the embedded
// claims. Every failure mode collapses into common.ErrInvalidToken so
// callers cannot distinguish why a token was rejected.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
