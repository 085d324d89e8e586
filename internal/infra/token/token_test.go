package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	require.NoError(t, err)

	tok, err := s.Issue("sess-1")
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", string(id))
}

func TestSigner_RejectsForeignKeyAndGarbage(t *testing.T) {
	a, _ := NewSigner("a", time.Hour)
	b, _ := NewSigner("b", time.Hour)

	tok, err := a.Issue("sess-1")
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = a.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = a.Verify("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSigner_RejectsExpired(t *testing.T) {
	s, _ := NewSigner("k", time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	tok, err := s.Issue("sess-1")
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSigner_RejectsNoneAlgorithm(t *testing.T) {
	s, _ := NewSigner("k", time.Hour)
	c := claims{SessionID: "sess-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewSigner_RandomKeyWhenEmpty(t *testing.T) {
	a, err := NewSigner("", time.Hour)
	require.NoError(t, err)
	b, err := NewSigner("", time.Hour)
	require.NoError(t, err)

	tok, _ := a.Issue("x")
	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}
