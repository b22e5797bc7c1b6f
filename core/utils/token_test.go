package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/core/config"
	"calsync/core/constants"
)

func setTestSecret() {
	config.Set(&config.Config{
		JWT: config.JWTConfig{Secret: "test-secret"},
	})
}

func TestTokenRoundTrip(t *testing.T) {
	setTestSecret()
	userID := uuid.New()

	token, err := GenerateToken(userID, "alice", constants.ScopeTokenAccess, time.Hour)
	require.NoError(t, err)

	data, err := ValidateAndParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, data.UserID)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, constants.ScopeTokenAccess, data.Scope)
}

func TestExpiredTokenRejected(t *testing.T) {
	setTestSecret()

	token, err := GenerateToken(uuid.New(), "alice", constants.ScopeTokenAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAndParseToken(token)
	assert.Error(t, err)
}

func TestNonAccessScopeRejected(t *testing.T) {
	setTestSecret()

	token, err := GenerateToken(uuid.New(), "alice", "refresh", time.Hour)
	require.NoError(t, err)

	_, err = ValidateAndParseToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	setTestSecret()

	token, err := GenerateToken(uuid.New(), "alice", constants.ScopeTokenAccess, time.Hour)
	require.NoError(t, err)

	_, err = ValidateAndParseToken(token + "x")
	assert.Error(t, err)
}
