package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_IssueVerify(t *testing.T) {
	s, err := NewSessions(time.Hour)
	require.NoError(t, err)

	token, err := s.Issue("8c1d6a3e-5f0e-4d5b-9a51-6f3c4ad0a111", "alice")
	require.NoError(t, err)

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "8c1d6a3e-5f0e-4d5b-9a51-6f3c4ad0a111", id.Subject)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, 3600, s.MaxAge())
}

func TestSessions_Expired(t *testing.T) {
	s, err := NewSessions(time.Minute)
	require.NoError(t, err)

	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Issue("user", "alice")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessions_NeverExpires(t *testing.T) {
	s, err := NewSessions(0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.MaxAge())

	token, err := s.Issue("user", "")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user", id.Subject)
}

func TestSessions_ForeignKeyRejected(t *testing.T) {
	a, err := NewSessions(time.Hour)
	require.NoError(t, err)
	b, err := NewSessions(time.Hour)
	require.NoError(t, err)

	token, err := a.Issue("user", "alice")
	require.NoError(t, err)

	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessions_Garbage(t *testing.T) {
	s, err := NewSessions(time.Hour)
	require.NoError(t, err)

	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestSessions_HMACTokenRejected(t *testing.T) {
	s, err := NewSessions(time.Hour)
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"},
	})
	tok, err := forged.SignedString([]byte("guess"))
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSessionsFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	privPEM, pubPEM, err := MarshalKeyPair(priv, pub)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "session.key")
	pubPath := filepath.Join(dir, "session.pub")
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))

	first, err := NewSessionsFromPath(privPath, pubPath, time.Hour)
	require.NoError(t, err)
	second, err := NewSessionsFromPath(privPath, pubPath, time.Hour)
	require.NoError(t, err)

	// tokens survive a "restart" when keys come from disk
	token, err := first.Issue("user", "alice")
	require.NoError(t, err)
	id, err := second.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user", id.Subject)

	_, err = NewSessionsFromPath(filepath.Join(dir, "missing"), pubPath, time.Hour)
	assert.Error(t, err)
}
