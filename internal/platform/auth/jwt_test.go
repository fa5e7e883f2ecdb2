package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, RoleStaff)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, claims.Role)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("one", time.Minute).GenerateAccessToken(uuid.New(), RoleGuest)
	require.NoError(t, err)

	_, err = NewJWTManager("two", time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), RoleAdmin)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsUnknownRole(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), Role("owner"))
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}
