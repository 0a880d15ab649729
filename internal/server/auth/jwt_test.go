package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guvenli/messenger/internal/common"
)

var testSecret = []byte("test-secret")

func TestGetUserIDFromToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken("u-1", testSecret, time.Minute)
	require.NoError(t, err)

	userID, err := GetUserIDFromToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("u-1", testSecret, time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, []byte("other-secret"))
	require.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	token, err := GenerateToken("u-1", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, testSecret)
	require.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestGetUserIDFromToken_Garbage(t *testing.T) {
	_, err := GetUserIDFromToken("not.a.token", testSecret)
	require.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestGetUserIDFromToken_EmptyUserID(t *testing.T) {
	token, err := GenerateToken("", testSecret, time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(token, testSecret)
	require.True(t, errors.Is(err, common.ErrInvalidToken))
}
