package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", "abc123", "usr-00007", "a@b.c", true, time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc123", claims.UserID)
	assert.Equal(t, "usr-00007", claims.PublicID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("secret", "abc123", "usr-00007", "a@b.c", false, time.Hour)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "other")
	assert.Error(t, err)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken("secret", "abc123", "usr-00007", "a@b.c", false, -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "secret")
	assert.Error(t, err)
}

func TestRecipientTokenRoundTrip(t *testing.T) {
	token := MintRecipientToken("secret", "gift-1", "user-1")

	userID, err := VerifyRecipientToken("secret", "gift-1", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRecipientTokenBoundToGift(t *testing.T) {
	token := MintRecipientToken("secret", "gift-1", "user-1")

	_, err := VerifyRecipientToken("secret", "gift-2", token)
	assert.ErrorIs(t, err, ErrInvalidRecipientToken)

	_, err = VerifyRecipientToken("secret", "gift-1", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRecipientToken)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	ok, err := VerifyPassword("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	require.NoError(t, err)
	assert.Len(t, otp, 6)
	for _, c := range otp {
		assert.True(t, c >= '0' && c <= '9')
	}

	assert.True(t, CompareOTP(otp, otp))
	assert.False(t, CompareOTP(otp, "000000x"))
	assert.False(t, CompareOTP("", ""))
}
