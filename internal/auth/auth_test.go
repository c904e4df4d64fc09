package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radz2291/RZ-Property/internal/utils"
)

func TestJWTRoundTrip(t *testing.T) {
	id := utils.NewSixID()
	token, err := GenerateJWT(id, "rina", true, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "rina", claims.Username)
	assert.True(t, claims.IsAdmin)

	_, err = ValidateJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT(id, "rina", true, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, "secret")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))

	_, err = HashPassword("short")
	assert.Error(t, err)
}
