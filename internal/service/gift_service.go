package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/ids"
	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/repository"
	"github.com/memoryhaze/memoryhaze/internal/security"
)

// GiftService owns finished gifts: the viewer gate, the operator's
// access-grant controls, and the operator bulk-creation path.
type GiftService struct {
	gifts   GiftStore
	users   UserStore
	cleanup CleanupQueue
	cfg     *config.AppConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewGiftService(gifts GiftStore, users UserStore, cleanup CleanupQueue, cfg *config.AppConfig, log zerolog.Logger) *GiftService {
	return &GiftService{
		gifts:   gifts,
		users:   users,
		cleanup: cleanup,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (s *GiftService) ListMine(ctx context.Context, user models.User) ([]models.Gift, error) {
	gifts, err := s.gifts.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, wrap(KindInternal, "list gifts", err)
	}
	return gifts, nil
}

// View gates the completed payload behind the access grant. The caller
// gets distinguishable failures for "no such gift", "made for a
// different account" and "expired/disabled/deleted", and never a
// partial payload.
func (s *GiftService) View(ctx context.Context, viewer models.User, giftID string, recipientToken string) (models.Gift, error) {
	gift, err := s.gifts.GetByID(ctx, giftID)
	if err != nil {
		if errors.Is(err, repository.ErrGiftNotFound) {
			return models.Gift{}, E(KindNotFound, "gift not found")
		}
		return models.Gift{}, wrap(KindInternal, "load gift", err)
	}

	if recipientToken != "" {
		intended, err := security.VerifyRecipientToken(s.cfg.Security.RecipientSecret, gift.ID, recipientToken)
		if err != nil {
			return models.Gift{}, E(KindForbidden, "this gift link is not valid")
		}
		if intended != viewer.ID {
			return models.Gift{}, E(KindWrongRecipient, "this gift was made for a different account")
		}
	} else if gift.UserRef != viewer.ID {
		return models.Gift{}, E(KindWrongRecipient, "this gift was made for a different account")
	}

	now := s.now()
	if !gift.EffectiveAccess(now) {
		switch {
		case gift.PermanentlyDeleted:
			return models.Gift{}, E(KindAccessRevoked, "this gift has been deleted")
		case !gift.AccessEnabled:
			return models.Gift{}, E(KindAccessRevoked, "access to this gift is currently disabled")
		default:
			return models.Gift{}, E(KindAccessRevoked, "this gift has expired")
		}
	}

	return gift, nil
}

// SetAccess toggles the grant. Re-enabling with resetExpiry recomputes
// the window from now using the gift's plan; a permanently deleted
// grant rejects the change.
func (s *GiftService) SetAccess(ctx context.Context, giftID string, enabled bool, resetExpiry bool) (models.Gift, error) {
	gift, err := s.gifts.GetByID(ctx, giftID)
	if err != nil {
		if errors.Is(err, repository.ErrGiftNotFound) {
			return models.Gift{}, E(KindNotFound, "gift not found")
		}
		return models.Gift{}, wrap(KindInternal, "load gift", err)
	}

	if gift.PermanentlyDeleted {
		return models.Gift{}, E(KindConflict, "gift has been permanently deleted")
	}

	var expiresAt *time.Time
	reset := enabled && resetExpiry
	if reset {
		exp := s.now().UTC().Add(gift.Plan.AccessWindow())
		expiresAt = &exp
	}

	updated, err := s.gifts.UpdateAccess(ctx, giftID, enabled, expiresAt, reset)
	if err != nil {
		return models.Gift{}, wrap(KindInternal, "update gift access", err)
	}

	s.log.Info().
		Str("gift_id", giftID).
		Bool("enabled", enabled).
		Bool("reset_expiry", reset).
		Msg("gift access updated")

	return updated, nil
}

// PermanentDelete is irreversible: it marks the grant deleted and
// queues remote cleanup of every asset the gift references.
func (s *GiftService) PermanentDelete(ctx context.Context, giftID string) error {
	gift, err := s.gifts.MarkDeleted(ctx, giftID, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrGiftNotFound) {
			return E(KindNotFound, "gift not found")
		}
		return wrap(KindInternal, "delete gift", err)
	}

	folder, keys := assetTargets(gift.Photos, gift.Audio)
	if err := s.cleanup.EnqueuePurge(ctx, folder, keys); err != nil {
		s.log.Warn().Err(err).Str("gift_id", giftID).Msg("enqueue asset cleanup failed")
	}

	s.log.Info().Str("gift_id", giftID).Msg("gift permanently deleted")
	return nil
}

type AdminCreateInput struct {
	UserRef    string
	TemplateID models.TemplateID // explicit pick; empty means derive from occasion
	Occasion   models.Occasion
	Plan       models.Plan
	Scenarios  []string
	Photos     []models.UploadRef
	Audio      *models.UploadRef
	Lyrics     string
	Message    string
}

// AdminCreate is the operator bulk-creation path: the operator supplies
// the media and text directly and either picks a template or lets the
// occasion derive one. Unlike customer submission, a gift with only an
// audio track (or only photos) is allowed here.
func (s *GiftService) AdminCreate(ctx context.Context, input AdminCreateInput) (models.Gift, error) {
	if input.UserRef == "" {
		return models.Gift{}, fieldErr("userId", "target user is required")
	}
	if len(input.Photos) == 0 && input.Audio == nil {
		return models.Gift{}, fieldErr("photos", "at least one photo or an audio file is required")
	}
	if !input.Occasion.Valid() {
		return models.Gift{}, fieldErr("memory", "occasion type is required")
	}
	if !input.Plan.Valid() {
		return models.Gift{}, fieldErr("plan", "plan must be momentum or everlasting")
	}

	templateID := input.TemplateID
	if templateID == "" {
		templateID = models.TemplateForOccasion(input.Occasion)
	}
	if !templateID.Valid() {
		return models.Gift{}, fieldErr("templateId", "unknown template")
	}

	user, err := s.users.GetByID(ctx, input.UserRef)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Gift{}, E(KindNotFound, "user not found")
		}
		return models.Gift{}, wrap(KindInternal, "load user", err)
	}

	var scenarios []string
	for _, sc := range input.Scenarios {
		if trimmed := strings.TrimSpace(sc); trimmed != "" {
			scenarios = append(scenarios, trimmed)
		}
	}

	now := s.now().UTC()
	expiresAt := now.Add(input.Plan.AccessWindow())
	gift := models.Gift{
		ID:            ids.New(),
		UserRef:       user.ID,
		TemplateID:    templateID,
		Occasion:      input.Occasion,
		Plan:          input.Plan,
		Scenarios:     scenarios,
		Photos:        input.Photos,
		Audio:         input.Audio,
		Lyrics:        strings.TrimSpace(input.Lyrics),
		Message:       strings.TrimSpace(input.Message),
		AccessEnabled: true,
		ExpiresAt:     &expiresAt,
		AssignedAt:    now,
	}

	if err := s.gifts.Create(ctx, gift); err != nil {
		return models.Gift{}, wrap(KindInternal, "save gift", err)
	}

	s.log.Info().
		Str("gift_id", gift.ID).
		Str("user_id", user.UserID).
		Str("template", string(templateID)).
		Msg("gift created by operator")

	return gift, nil
}

// ListForUser is the operator's per-user gift listing.
func (s *GiftService) ListForUser(ctx context.Context, userRef string) ([]models.Gift, error) {
	if _, err := s.users.GetByID(ctx, userRef); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, E(KindNotFound, "user not found")
		}
		return nil, wrap(KindInternal, "load user", err)
	}

	gifts, err := s.gifts.ListByUser(ctx, userRef)
	if err != nil {
		return nil, wrap(KindInternal, "list gifts", err)
	}
	return gifts, nil
}
