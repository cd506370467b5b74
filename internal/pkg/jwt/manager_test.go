package jwt

import (
	"testing"
	"time"

	xerrors "subdesk-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:   "test-secret-do-not-use",
		Issuer:   "subdesk",
		Audience: "subdesk-api",
		TTL:      ttl,
	})
	require.NoError(t, err)
	return m
}

func TestManagerRoundTrip(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, jti, err := m.Generate("usr_1", "Admin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.IsAdmin())
}

func TestManagerRejectsExpired(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, _, err := m.Generate("usr_1", "Admin", "admin")
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
}

func TestManagerRejectsForeignSignature(t *testing.T) {
	m := newTestManager(t, time.Hour)
	other, err := NewManager(Config{Secret: "another-secret", Issuer: "subdesk", Audience: "subdesk-api"})
	require.NoError(t, err)

	token, _, err := other.Generate("usr_1", "Admin", "admin")
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
}

func TestManagerRejectsGarbage(t *testing.T) {
	m := newTestManager(t, time.Hour)

	_, err := m.Verify("not.a.token")
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	require.Error(t, err)
}

func TestPlainUserIsNotAdmin(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, _, err := m.Generate("usr_2", "Some User", "user")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())
}
