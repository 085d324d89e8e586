package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sbag9697/wealth-face-ai/internal/domain/session"
)

const issuer = "wealth-face-ai"

// ErrInvalid covers bad signatures, expiry and malformed tokens alike.
var ErrInvalid = errors.New("invalid session token")

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 session tokens.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSigner uses key when given; otherwise a random per-process key, which
// invalidates tokens on restart.
func NewSigner(key string, ttl time.Duration) (*Signer, error) {
	k := []byte(key)
	if len(k) == 0 {
		k = make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	return &Signer{key: k, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token bound to the session id.
func (s *Signer) Issue(id session.ID) (string, error) {
	now := s.now()
	c := claims{
		SessionID: string(id),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
}

// Verify returns the session id carried by a valid token.
func (s *Signer) Verify(tokenString string) (session.ID, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid || c.SessionID == "" {
		return "", ErrInvalid
	}
	return session.ID(c.SessionID), nil
}
