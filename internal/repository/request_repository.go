package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memoryhaze/memoryhaze/internal/models"
)

var ErrRequestNotFound = errors.New("gift request not found")

// ErrStaleStatus is returned when a conditional transition update
// matches no row because the request is no longer in the expected
// status. The record is left unchanged.
var ErrStaleStatus = errors.New("request status changed")

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `
	id, user_ref, recipient_name, occasion, occasion_date, scenarios,
	song_genre, photos, plan, message, status, rejection_reason,
	audio, lyrics, submitted_at, verified_at, rejected_at, completed_at
`

func (r *RequestRepository) Create(ctx context.Context, req models.GiftRequest) error {
	const query = `
		INSERT INTO gift_requests (
			id, user_ref, recipient_name, occasion, occasion_date, scenarios,
			song_genre, photos, plan, message, status, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	photos, err := json.Marshal(req.Photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		req.ID,
		req.UserRef,
		req.RecipientName,
		req.Occasion,
		req.OccasionDate,
		req.Scenarios,
		req.SongGenre,
		photos,
		req.Plan,
		req.Message,
		req.Status,
		req.SubmittedAt,
	)
	return err
}

func (r *RequestRepository) GetByID(ctx context.Context, id string) (models.GiftRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM gift_requests WHERE id = $1`
	return scanRequest(r.pool.QueryRow(ctx, query, id))
}

// List returns a page of requests, optionally filtered by status
// (empty or "all" means no filter), newest first, with the total count
// for the same filter.
func (r *RequestRepository) List(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.GiftRequest, int, error) {
	query := `
		SELECT ` + requestColumns + `, COUNT(*) OVER() AS total
		FROM gift_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY submitted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		requests []models.GiftRequest
		total    int
	)
	for rows.Next() {
		req, err := scanRequestRow(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

func (r *RequestRepository) CountByUser(ctx context.Context, userRef string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM gift_requests WHERE user_ref = $1`, userRef).Scan(&count)
	return count, err
}

// CountByStatus drives the admin queue counters.
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM gift_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.RequestStatus]int)
	for rows.Next() {
		var (
			status models.RequestStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// MarkVerified transitions pending → verified. The status predicate in
// the UPDATE guarantees an invalid or raced transition mutates nothing.
func (r *RequestRepository) MarkVerified(ctx context.Context, id string) (models.GiftRequest, error) {
	query := `
		UPDATE gift_requests
		SET status = 'verified', verified_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns
	return r.transition(ctx, query, id)
}

func (r *RequestRepository) MarkRejected(ctx context.Context, id string, reason string) (models.GiftRequest, error) {
	query := `
		UPDATE gift_requests
		SET status = 'rejected', rejection_reason = $2, rejected_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns
	return r.transition(ctx, query, id, reason)
}

func (r *RequestRepository) MarkCompleted(ctx context.Context, id string, audio models.UploadRef, lyrics string) (models.GiftRequest, error) {
	query := `
		UPDATE gift_requests
		SET status = 'completed', audio = $2, lyrics = $3, completed_at = NOW()
		WHERE id = $1 AND status = 'verified'
		RETURNING ` + requestColumns

	audioJSON, err := json.Marshal(audio)
	if err != nil {
		return models.GiftRequest{}, fmt.Errorf("encode audio: %w", err)
	}
	return r.transition(ctx, query, id, audioJSON, lyrics)
}

func (r *RequestRepository) transition(ctx context.Context, query string, id string, args ...any) (models.GiftRequest, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, ErrRequestNotFound) {
		return models.GiftRequest{}, err
	}

	// No row matched: either the request does not exist or it is not in
	// the status the transition expects.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return models.GiftRequest{}, getErr
	}
	return models.GiftRequest{}, ErrStaleStatus
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (models.GiftRequest, error) {
	return scanRequestRow(row, nil)
}

func scanRequestRow(row rowScanner, total *int) (models.GiftRequest, error) {
	var (
		req       models.GiftRequest
		photos    []byte
		audio     []byte
		reason    *string
		lyrics    *string
	)

	dest := []any{
		&req.ID,
		&req.UserRef,
		&req.RecipientName,
		&req.Occasion,
		&req.OccasionDate,
		&req.Scenarios,
		&req.SongGenre,
		&photos,
		&req.Plan,
		&req.Message,
		&req.Status,
		&reason,
		&audio,
		&lyrics,
		&req.SubmittedAt,
		&req.VerifiedAt,
		&req.RejectedAt,
		&req.CompletedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GiftRequest{}, ErrRequestNotFound
		}
		return models.GiftRequest{}, err
	}

	if reason != nil {
		req.RejectionReason = *reason
	}
	if lyrics != nil {
		req.Lyrics = *lyrics
	}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &req.Photos); err != nil {
			return models.GiftRequest{}, fmt.Errorf("decode photos: %w", err)
		}
	}
	if len(audio) > 0 {
		var ref models.UploadRef
		if err := json.Unmarshal(audio, &ref); err != nil {
			return models.GiftRequest{}, fmt.Errorf("decode audio: %w", err)
		}
		req.Audio = &ref
	}
	return req, nil
}
