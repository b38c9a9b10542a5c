package jobs

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/service"
)

// DeletedGiftLister is the slice of the gift store the sweep needs.
type DeletedGiftLister interface {
	ListDeletedSince(ctx context.Context, cutoff time.Time) ([]models.Gift, error)
}

// Scheduler re-enqueues asset cleanup for recently deleted gifts each
// night. The primary purge happens inline when a gift is deleted or a
// request rejected; the sweep catches tasks lost to a worker or broker
// outage.
type Scheduler struct {
	cron    *cron.Cron
	gifts   DeletedGiftLister
	cleanup service.CleanupQueue
	log     zerolog.Logger
}

func NewScheduler(gifts DeletedGiftLister, cleanup service.CleanupQueue, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		gifts:   gifts,
		cleanup: cleanup,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 30 2 * * *", s.sweepDeletedGifts); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepDeletedGifts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	gifts, err := s.gifts.ListDeletedSince(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: list deleted gifts failed")
		return
	}

	for _, gift := range gifts {
		folder, keys := giftAssets(gift)
		if len(keys) == 0 {
			continue
		}
		if err := s.cleanup.EnqueuePurge(ctx, folder, keys); err != nil {
			s.log.Error().Err(err).Str("gift_id", gift.ID).Msg("sweep: enqueue purge failed")
		}
	}

	s.log.Info().Int("gifts", len(gifts)).Msg("deleted-gift sweep finished")
}

func giftAssets(gift models.Gift) (string, []string) {
	var keys []string
	for _, photo := range gift.Photos {
		if photo.PublicID != "" {
			keys = append(keys, photo.PublicID)
		}
	}
	if gift.Audio != nil && gift.Audio.PublicID != "" {
		keys = append(keys, gift.Audio.PublicID)
	}

	var folder string
	if len(keys) > 0 && strings.Contains(keys[0], "/") {
		folder = path.Dir(keys[0])
	}
	return folder, keys
}
