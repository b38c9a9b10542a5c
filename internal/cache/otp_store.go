package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOTPNotFound means no live code exists for the purpose/email pair,
// either because none was issued or because it expired.
var ErrOTPNotFound = errors.New("otp not found")

// OTPStore keeps one-time codes in redis under a purpose-scoped key
// with the configured TTL, so expiry needs no sweeping.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(purpose, email string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

func (s *OTPStore) Save(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(purpose, email), code, ttl).Err()
}

func (s *OTPStore) Get(ctx context.Context, purpose, email string) (string, error) {
	code, err := s.client.Get(ctx, otpKey(purpose, email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOTPNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get otp: %w", err)
	}
	return code, nil
}

func (s *OTPStore) Delete(ctx context.Context, purpose, email string) error {
	return s.client.Del(ctx, otpKey(purpose, email)).Err()
}
