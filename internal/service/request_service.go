package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/ids"
	"github.com/memoryhaze/memoryhaze/internal/mail"
	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/repository"
	"github.com/memoryhaze/memoryhaze/internal/security"
)

// RequestService owns the gift-request lifecycle: customer submission
// and the admin verify/reject/complete transitions, including the side
// effects each transition carries.
type RequestService struct {
	requests RequestStore
	gifts    GiftStore
	users    UserStore
	cleanup  CleanupQueue
	notifier mail.Notifier
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewRequestService(
	requests RequestStore,
	gifts GiftStore,
	users UserStore,
	cleanup CleanupQueue,
	notifier mail.Notifier,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *RequestService {
	return &RequestService{
		requests: requests,
		gifts:    gifts,
		users:    users,
		cleanup:  cleanup,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type SubmitInput struct {
	RecipientName string
	Occasion      models.Occasion
	OccasionDate  time.Time
	Scenarios     []string
	SongGenre     string
	Photos        []models.UploadRef
	Plan          models.Plan
	Message       string
}

// Submit validates the whole order before anything is persisted and
// creates the request in pending status. A validation failure names the
// offending field and never reaches the store.
func (s *RequestService) Submit(ctx context.Context, user models.User, input SubmitInput) (models.GiftRequest, error) {
	if err := validateSubmission(input); err != nil {
		return models.GiftRequest{}, err
	}

	scenarios := make([]string, len(input.Scenarios))
	for i, sc := range input.Scenarios {
		scenarios[i] = strings.TrimSpace(sc)
	}

	req := models.GiftRequest{
		ID:            ids.New(),
		UserRef:       user.ID,
		RecipientName: strings.TrimSpace(input.RecipientName),
		Occasion:      input.Occasion,
		OccasionDate:  input.OccasionDate,
		Scenarios:     scenarios,
		SongGenre:     input.SongGenre,
		Photos:        input.Photos,
		Plan:          input.Plan,
		Message:       strings.TrimSpace(input.Message),
		Status:        models.RequestStatusPending,
		SubmittedAt:   s.now().UTC(),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return models.GiftRequest{}, wrap(KindInternal, "save gift request", err)
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("user_id", user.UserID).
		Str("plan", string(req.Plan)).
		Msg("gift request submitted")

	return req, nil
}

func validateSubmission(input SubmitInput) error {
	if strings.TrimSpace(input.RecipientName) == "" {
		return fieldErr("recipientName", "recipient name is required")
	}
	if !input.Occasion.Valid() {
		return fieldErr("occasion", "occasion must be birthday, anniversary or valentines")
	}
	if input.OccasionDate.IsZero() {
		return fieldErr("occasionDate", "occasion date is required")
	}
	if len(input.Scenarios) != models.ScenarioCount {
		return fieldErr("scenarios", fmt.Sprintf("exactly %d memory scenarios are required", models.ScenarioCount))
	}
	for i, sc := range input.Scenarios {
		if len(strings.TrimSpace(sc)) < models.MinScenarioLen {
			return fieldErr(
				fmt.Sprintf("scenarios[%d]", i),
				fmt.Sprintf("each scenario must be at least %d characters", models.MinScenarioLen),
			)
		}
	}
	if strings.TrimSpace(input.SongGenre) == "" {
		return fieldErr("songGenre", "song genre is required")
	}
	if !input.Plan.Valid() {
		return fieldErr("plan", "plan must be momentum or everlasting")
	}
	if len(input.Photos) == 0 {
		return fieldErr("photos", "at least one photo is required")
	}
	if limit := input.Plan.PhotoLimit(); len(input.Photos) > limit {
		return fieldErr("photos", fmt.Sprintf("the %s plan allows up to %d photos", input.Plan, limit))
	}
	for i, photo := range input.Photos {
		if photo.URL == "" || photo.PublicID == "" {
			return fieldErr(fmt.Sprintf("photos[%d]", i), "photo reference is incomplete")
		}
	}
	return nil
}

// Verify transitions a pending request to verified.
func (s *RequestService) Verify(ctx context.Context, id string) (models.GiftRequest, error) {
	req, err := s.requests.MarkVerified(ctx, id)
	if err != nil {
		return models.GiftRequest{}, s.transitionError(ctx, id, models.RequestStatusVerified, err)
	}

	s.log.Info().Str("request_id", id).Msg("request verified")
	return req, nil
}

// Reject transitions a pending request to rejected and queues deletion
// of its uploaded photos. The record itself persists.
func (s *RequestService) Reject(ctx context.Context, id string, reason string) (models.GiftRequest, error) {
	req, err := s.requests.MarkRejected(ctx, id, strings.TrimSpace(reason))
	if err != nil {
		return models.GiftRequest{}, s.transitionError(ctx, id, models.RequestStatusRejected, err)
	}

	folder, keys := assetTargets(req.Photos, nil)
	if err := s.cleanup.EnqueuePurge(ctx, folder, keys); err != nil {
		s.log.Warn().Err(err).Str("request_id", id).Msg("enqueue photo cleanup failed")
	}

	s.log.Info().Str("request_id", id).Str("reason", req.RejectionReason).Msg("request rejected")
	return req, nil
}

// Complete transitions a verified request to completed, creates the
// gift with its plan-derived access window, and notifies the purchaser.
func (s *RequestService) Complete(ctx context.Context, id string, audio models.UploadRef, lyrics string) (models.GiftRequest, error) {
	if audio.URL == "" {
		return models.GiftRequest{}, fieldErr("audio", "finished audio is required")
	}
	lyrics = strings.TrimSpace(lyrics)
	if lyrics == "" {
		return models.GiftRequest{}, fieldErr("lyrics", "lyrics are required")
	}

	req, err := s.requests.MarkCompleted(ctx, id, audio, lyrics)
	if err != nil {
		return models.GiftRequest{}, s.transitionError(ctx, id, models.RequestStatusCompleted, err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(req.Plan.AccessWindow())
	gift := models.Gift{
		ID:            ids.New(),
		UserRef:       req.UserRef,
		RequestRef:    req.ID,
		TemplateID:    models.TemplateForOccasion(req.Occasion),
		Occasion:      req.Occasion,
		Plan:          req.Plan,
		Scenarios:     req.Scenarios,
		Photos:        req.Photos,
		Audio:         req.Audio,
		Lyrics:        req.Lyrics,
		Message:       req.Message,
		AccessEnabled: true,
		ExpiresAt:     &expiresAt,
		AssignedAt:    now,
	}

	if err := s.gifts.Create(ctx, gift); err != nil {
		return models.GiftRequest{}, wrap(KindInternal, "save gift", err)
	}

	s.notifyCompleted(ctx, req, gift)

	s.log.Info().
		Str("request_id", req.ID).
		Str("gift_id", gift.ID).
		Time("expires_at", expiresAt).
		Msg("request completed")

	return req, nil
}

func (s *RequestService) notifyCompleted(ctx context.Context, req models.GiftRequest, gift models.Gift) {
	user, err := s.users.GetByID(ctx, req.UserRef)
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", req.ID).Msg("lookup purchaser for notification failed")
		return
	}

	token := security.MintRecipientToken(s.cfg.Security.RecipientSecret, gift.ID, user.ID)
	giftURL := fmt.Sprintf("%s/gifts/%s/%s", strings.TrimSuffix(s.cfg.Mail.BaseURL, "/"), gift.ID, token)

	if err := s.notifier.SendGiftReady(ctx, user.Email, req.RecipientName, giftURL); err != nil {
		s.log.Warn().Err(err).Str("gift_id", gift.ID).Msg("gift-ready notification failed")
	}
}

// transitionError maps store failures to the caller-facing taxonomy
// without ever mutating the record.
func (s *RequestService) transitionError(ctx context.Context, id string, target models.RequestStatus, err error) error {
	switch {
	case errors.Is(err, repository.ErrRequestNotFound):
		return E(KindNotFound, "gift request not found")
	case errors.Is(err, repository.ErrStaleStatus):
		req, getErr := s.requests.GetByID(ctx, id)
		if getErr != nil {
			return E(KindNotFound, "gift request not found")
		}
		return Ef(KindConflict, "cannot mark a %s request as %s", req.Status, target)
	default:
		return wrap(KindInternal, "update gift request", err)
	}
}

type RequestPage struct {
	Requests []models.GiftRequest
	Total    int
	Page     int
	Limit    int
}

// List returns one page of the admin queue. Reads are side-effect free.
func (s *RequestService) List(ctx context.Context, status string, page, limit int) (RequestPage, error) {
	var filter models.RequestStatus
	if status != "" && status != "all" {
		filter = models.RequestStatus(status)
		if !filter.Valid() {
			return RequestPage{}, fieldErr("status", "unknown status filter")
		}
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	requests, total, err := s.requests.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return RequestPage{}, wrap(KindInternal, "list gift requests", err)
	}

	return RequestPage{
		Requests: requests,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

type RequestStats struct {
	Pending   int `json:"pending"`
	Verified  int `json:"verified"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Total     int `json:"total"`
}

func (s *RequestService) Stats(ctx context.Context) (RequestStats, error) {
	counts, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return RequestStats{}, wrap(KindInternal, "count gift requests", err)
	}

	stats := RequestStats{
		Pending:   counts[models.RequestStatusPending],
		Verified:  counts[models.RequestStatusVerified],
		Completed: counts[models.RequestStatusCompleted],
		Rejected:  counts[models.RequestStatusRejected],
	}
	stats.Total = stats.Pending + stats.Verified + stats.Completed + stats.Rejected
	return stats, nil
}

// assetTargets derives the remote folder and object keys for a set of
// media references. The folder comes from the first photo's public id
// (e.g. MemoryHaze/usr-00042/gift3/photo_1).
func assetTargets(photos []models.UploadRef, audio *models.UploadRef) (string, []string) {
	var keys []string
	for _, photo := range photos {
		if photo.PublicID != "" {
			keys = append(keys, photo.PublicID)
		}
	}
	if audio != nil && audio.PublicID != "" {
		keys = append(keys, audio.PublicID)
	}

	var folder string
	if len(keys) > 0 && strings.Contains(keys[0], "/") {
		folder = path.Dir(keys[0])
	}
	return folder, keys
}
