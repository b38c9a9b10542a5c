package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memoryhaze/memoryhaze/internal/models"
)

var ErrGiftNotFound = errors.New("gift not found")

type GiftRepository struct {
	pool *pgxpool.Pool
}

func NewGiftRepository(pool *pgxpool.Pool) *GiftRepository {
	return &GiftRepository{pool: pool}
}

const giftColumns = `
	id, user_ref, request_ref, template_id, occasion, plan, scenarios,
	photos, audio, lyrics, message, access_enabled, expires_at,
	permanently_deleted, deleted_at, assigned_at, created_at, updated_at
`

func (r *GiftRepository) Create(ctx context.Context, gift models.Gift) error {
	const query = `
		INSERT INTO gifts (
			id, user_ref, request_ref, template_id, occasion, plan, scenarios,
			photos, audio, lyrics, message, access_enabled, expires_at,
			assigned_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
	`

	photos, err := json.Marshal(gift.Photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	var audio []byte
	if gift.Audio != nil {
		if audio, err = json.Marshal(gift.Audio); err != nil {
			return fmt.Errorf("encode audio: %w", err)
		}
	}

	var requestRef *string
	if gift.RequestRef != "" {
		requestRef = &gift.RequestRef
	}

	_, err = r.pool.Exec(ctx, query,
		gift.ID,
		gift.UserRef,
		requestRef,
		gift.TemplateID,
		gift.Occasion,
		gift.Plan,
		gift.Scenarios,
		photos,
		audio,
		gift.Lyrics,
		gift.Message,
		gift.AccessEnabled,
		gift.ExpiresAt,
		gift.AssignedAt,
	)
	return err
}

func (r *GiftRepository) GetByID(ctx context.Context, id string) (models.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE id = $1`
	return scanGift(r.pool.QueryRow(ctx, query, id))
}

func (r *GiftRepository) ListByUser(ctx context.Context, userRef string) ([]models.Gift, error) {
	query := `
		SELECT ` + giftColumns + `
		FROM gifts
		WHERE user_ref = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gifts []models.Gift
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, err
		}
		gifts = append(gifts, gift)
	}
	return gifts, rows.Err()
}

func (r *GiftRepository) CountByUser(ctx context.Context, userRef string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM gifts WHERE user_ref = $1`, userRef).Scan(&count)
	return count, err
}

// UpdateAccess sets the grant's enabled flag and, when expiresAt is
// non-nil, the new expiry. Permanently deleted gifts keep their access
// row but viewability stays false through EffectiveAccess.
func (r *GiftRepository) UpdateAccess(ctx context.Context, id string, enabled bool, expiresAt *time.Time, resetExpiry bool) (models.Gift, error) {
	query := `
		UPDATE gifts
		SET access_enabled = $2,
		    expires_at = CASE WHEN $4 THEN $3 ELSE expires_at END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + giftColumns

	return scanGift(r.pool.QueryRow(ctx, query, id, enabled, expiresAt, resetExpiry))
}

// MarkDeleted flips the irreversible permanent-delete bit. Repeating
// the call is harmless; the deleted_at stamp keeps its first value.
func (r *GiftRepository) MarkDeleted(ctx context.Context, id string, now time.Time) (models.Gift, error) {
	query := `
		UPDATE gifts
		SET permanently_deleted = TRUE,
		    deleted_at = COALESCE(deleted_at, $2),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + giftColumns

	return scanGift(r.pool.QueryRow(ctx, query, id, now))
}

// ListDeletedSince returns gifts permanently deleted after the cutoff,
// used by the nightly sweep to retry remote asset cleanup.
func (r *GiftRepository) ListDeletedSince(ctx context.Context, cutoff time.Time) ([]models.Gift, error) {
	query := `
		SELECT ` + giftColumns + `
		FROM gifts
		WHERE permanently_deleted AND deleted_at >= $1
		ORDER BY deleted_at DESC
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gifts []models.Gift
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, err
		}
		gifts = append(gifts, gift)
	}
	return gifts, rows.Err()
}

func scanGift(row rowScanner) (models.Gift, error) {
	var (
		gift       models.Gift
		requestRef *string
		photos     []byte
		audio      []byte
	)

	if err := row.Scan(
		&gift.ID,
		&gift.UserRef,
		&requestRef,
		&gift.TemplateID,
		&gift.Occasion,
		&gift.Plan,
		&gift.Scenarios,
		&photos,
		&audio,
		&gift.Lyrics,
		&gift.Message,
		&gift.AccessEnabled,
		&gift.ExpiresAt,
		&gift.PermanentlyDeleted,
		&gift.DeletedAt,
		&gift.AssignedAt,
		&gift.CreatedAt,
		&gift.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Gift{}, ErrGiftNotFound
		}
		return models.Gift{}, err
	}

	if requestRef != nil {
		gift.RequestRef = *requestRef
	}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &gift.Photos); err != nil {
			return models.Gift{}, fmt.Errorf("decode photos: %w", err)
		}
	}
	if len(audio) > 0 {
		var ref models.UploadRef
		if err := json.Unmarshal(audio, &ref); err != nil {
			return models.Gift{}, fmt.Errorf("decode audio: %w", err)
		}
		gift.Audio = &ref
	}
	return gift, nil
}
