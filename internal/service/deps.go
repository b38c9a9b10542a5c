package service

import (
	"context"
	"time"

	"github.com/memoryhaze/memoryhaze/internal/models"
)

// Narrow store interfaces so services can be exercised against
// in-memory fakes. The pgx repositories satisfy them.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	Search(ctx context.Context, search string, limit, offset int) ([]models.User, int, error)
	Count(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
}

type RequestStore interface {
	Create(ctx context.Context, req models.GiftRequest) error
	GetByID(ctx context.Context, id string) (models.GiftRequest, error)
	List(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.GiftRequest, int, error)
	CountByUser(ctx context.Context, userRef string) (int, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error)
	MarkVerified(ctx context.Context, id string) (models.GiftRequest, error)
	MarkRejected(ctx context.Context, id string, reason string) (models.GiftRequest, error)
	MarkCompleted(ctx context.Context, id string, audio models.UploadRef, lyrics string) (models.GiftRequest, error)
}

type GiftStore interface {
	Create(ctx context.Context, gift models.Gift) error
	GetByID(ctx context.Context, id string) (models.Gift, error)
	ListByUser(ctx context.Context, userRef string) ([]models.Gift, error)
	CountByUser(ctx context.Context, userRef string) (int, error)
	UpdateAccess(ctx context.Context, id string, enabled bool, expiresAt *time.Time, resetExpiry bool) (models.Gift, error)
	MarkDeleted(ctx context.Context, id string, now time.Time) (models.Gift, error)
	ListDeletedSince(ctx context.Context, cutoff time.Time) ([]models.Gift, error)
}

// CleanupQueue requests asynchronous deletion of remote media assets.
type CleanupQueue interface {
	EnqueuePurge(ctx context.Context, folder string, keys []string) error
}

// OTPStore keeps short-lived one-time codes keyed by purpose and email.
type OTPStore interface {
	Save(ctx context.Context, purpose, email, code string, ttl time.Duration) error
	Get(ctx context.Context, purpose, email string) (string, error)
	Delete(ctx context.Context, purpose, email string) error
}
