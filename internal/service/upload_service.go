package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/media/sniffer"
	"github.com/memoryhaze/memoryhaze/internal/models"
)

const (
	UploadKindPhoto = "photo"
	UploadKindAudio = "audio"

	maxPhotoBytes = 10 << 20
	maxAudioBytes = 25 << 20
)

// BlobStore is the slice of the object store the upload path needs.
type BlobStore interface {
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error)
}

// UploadService receives customer media, verifies it really is a photo
// or an audio track, and places it in the per-gift folder.
type UploadService struct {
	store    BlobStore
	requests RequestStore
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewUploadService(store BlobStore, requests RequestStore, cfg *config.AppConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		store:    store,
		requests: requests,
		cfg:      cfg,
		log:      log,
	}
}

// Upload stores one file for the user's next gift. kind is "photo" or
// "audio"; position numbers photos within the gift (photo_1, photo_2).
// The returned reference's PublicID is the object key, which is what
// later deletion uses.
func (s *UploadService) Upload(ctx context.Context, user models.User, kind string, position int, r io.Reader) (models.UploadRef, error) {
	var maxBytes int64
	switch kind {
	case UploadKindPhoto:
		maxBytes = maxPhotoBytes
	case UploadKindAudio:
		maxBytes = maxAudioBytes
	default:
		return models.UploadRef{}, fieldErr("kind", "kind must be photo or audio")
	}
	if kind == UploadKindPhoto && position < 1 {
		return models.UploadRef{}, fieldErr("position", "photo position must be 1 or greater")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return models.UploadRef{}, wrap(KindInternal, "read upload", err)
	}
	if int64(len(data)) > maxBytes {
		return models.UploadRef{}, Ef(KindValidation, "file exceeds the %d MB limit", maxBytes>>20)
	}
	if len(data) == 0 {
		return models.UploadRef{}, fieldErr("file", "file is empty")
	}

	detected, err := sniffer.DetectHead(head(data))
	if err != nil {
		return models.UploadRef{}, E(KindValidation, "unsupported file type")
	}
	if kind == UploadKindPhoto && !detected.IsImage() {
		return models.UploadRef{}, fieldErr("file", "photo uploads must be jpeg, png, gif or webp")
	}
	if kind == UploadKindAudio && !detected.IsAudio() {
		return models.UploadRef{}, fieldErr("file", "audio uploads must be mp3, m4a, wav or ogg")
	}

	objectKey := s.objectKey(ctx, user, kind, position)
	url, err := s.store.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), detected.MIME)
	if err != nil {
		return models.UploadRef{}, wrap(KindProvider, "store upload", err)
	}

	s.log.Info().
		Str("user_id", user.UserID).
		Str("object_key", objectKey).
		Str("type", string(detected.Type)).
		Int("bytes", len(data)).
		Msg("media uploaded")

	return models.UploadRef{URL: url, PublicID: objectKey}, nil
}

// objectKey builds MemoryHaze/{usr-00042}/gift{n}/photo_{i} (or
// .../audio). n counts the user's prior orders so each gift's media
// lands in its own folder; the count is best-effort and an error here
// never blocks the upload.
func (s *UploadService) objectKey(ctx context.Context, user models.User, kind string, position int) string {
	ordinal := 1
	if n, err := s.requests.CountByUser(ctx, user.ID); err == nil {
		ordinal += n
	} else {
		s.log.Warn().Err(err).Str("user_id", user.UserID).Msg("count requests for upload folder failed")
	}

	folder := fmt.Sprintf("%s/%s/gift%d", s.cfg.Storage.RootFolder, user.UserID, ordinal)
	if kind == UploadKindAudio {
		return folder + "/audio"
	}
	return fmt.Sprintf("%s/photo_%d", folder, position)
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
