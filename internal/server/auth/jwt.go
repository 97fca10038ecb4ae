// Package auth issues and verifies session tokens, hashes passwords and
// carries the request identity through a context.Context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token: the standard registered claims
// plus the public identity of the user.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// SessionTokens signs session tokens with an HMAC secret.
type SessionTokens struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionTokens returns a SessionTokens issuing tokens valid for maxAge.
func NewSessionTokens(secret []byte, maxAge time.Duration) *SessionTokens {
	return &SessionTokens{secret: secret, maxAge: maxAge, now: time.Now}
}

// MaxAge is the lifetime of issued tokens.
func (s *SessionTokens) MaxAge() time.Duration {
	return s.maxAge
}

// Issue returns a signed HS256 token for id.
func (s *SessionTokens) Issue(id models.Identity) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		UserID: id.ID,
		Name:   id.Name,
		Email:  id.Email,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse verifies tokenString and returns the identity inside. Any failure
// (bad signature, expiry, malformed input, missing subject) yields an
// error wrapping common.ErrInvalidToken.
func (s *SessionTokens) Parse(tokenString string) (models.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, fmt.Errorf("%w: expired", common.ErrInvalidToken)
		}
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return models.Identity{}, common.ErrInvalidToken
	}

	return models.Identity{ID: claims.UserID, Name: claims.Name, Email: claims.Email}, nil
}
