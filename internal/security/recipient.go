package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// Recipient tokens authenticate the gift deep link sent by email: the
// link names both the gift and the identity it was minted for, so a
// different signed-in user can be told "this gift is for someone else"
// rather than shown a generic failure.

var ErrInvalidRecipientToken = errors.New("invalid recipient token")

func signRecipient(secret, giftID, userID string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(giftID + ":" + userID))
	return mac.Sum(nil)
}

// MintRecipientToken binds userID to giftID under the shared secret.
func MintRecipientToken(secret, giftID, userID string) string {
	sig := signRecipient(secret, giftID, userID)
	return base64.RawURLEncoding.EncodeToString([]byte(userID)) + "." +
		base64.RawURLEncoding.EncodeToString(sig)
}

// VerifyRecipientToken returns the user id the token was minted for, or
// ErrInvalidRecipientToken if the token was not produced for this gift.
func VerifyRecipientToken(secret, giftID, token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrInvalidRecipientToken
	}

	userIDRaw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidRecipientToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidRecipientToken
	}

	expected := signRecipient(secret, giftID, string(userIDRaw))
	if !hmac.Equal(sig, expected) {
		return "", ErrInvalidRecipientToken
	}
	return string(userIDRaw), nil
}
