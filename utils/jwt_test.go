package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tok, err := GenerateToken(42, "chef", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "chef", claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	tok, err := GenerateToken(1, "customer", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(tok, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateToken(1, "customer", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, "secret")
	assert.Error(t, err)

	_, err = ParseToken("not-a-token", "secret")
	assert.Error(t, err)
}
