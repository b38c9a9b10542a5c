package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/memoryhaze/memoryhaze/internal/cache"
	"github.com/memoryhaze/memoryhaze/internal/ids"
	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/repository"
)

// In-memory stands-ins for the pgx repositories, mirroring their
// semantics: conditional transitions, idempotent deletion, sentinel
// not-found errors.

type fakeUserStore struct {
	users map[string]models.User
	seq   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	s.seq++
	if user.ID == "" {
		user.ID = fmt.Sprintf("id-%d", s.seq)
	}
	user.UserID = ids.PublicUserID(int64(s.seq))
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) Search(ctx context.Context, search string, limit, offset int) ([]models.User, int, error) {
	var matched []models.User
	for _, user := range s.users {
		if search == "" || strings.Contains(user.Email, search) {
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UserID < matched[j].UserID })
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *fakeUserStore) Count(ctx context.Context) (int, error) {
	return len(s.users), nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user
	return nil
}

type fakeRequestStore struct {
	requests map[string]models.GiftRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: map[string]models.GiftRequest{}}
}

func (s *fakeRequestStore) Create(ctx context.Context, req models.GiftRequest) error {
	s.requests[req.ID] = req
	return nil
}

func (s *fakeRequestStore) GetByID(ctx context.Context, id string) (models.GiftRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return models.GiftRequest{}, repository.ErrRequestNotFound
	}
	return req, nil
}

func (s *fakeRequestStore) List(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.GiftRequest, int, error) {
	var matched []models.GiftRequest
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			matched = append(matched, req)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s *fakeRequestStore) CountByUser(ctx context.Context, userRef string) (int, error) {
	count := 0
	for _, req := range s.requests {
		if req.UserRef == userRef {
			count++
		}
	}
	return count, nil
}

func (s *fakeRequestStore) CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error) {
	counts := map[models.RequestStatus]int{}
	for _, req := range s.requests {
		counts[req.Status]++
	}
	return counts, nil
}

func (s *fakeRequestStore) transition(id string, from models.RequestStatus, mutate func(*models.GiftRequest)) (models.GiftRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return models.GiftRequest{}, repository.ErrRequestNotFound
	}
	if req.Status != from {
		return models.GiftRequest{}, repository.ErrStaleStatus
	}
	mutate(&req)
	s.requests[id] = req
	return req, nil
}

func (s *fakeRequestStore) MarkVerified(ctx context.Context, id string) (models.GiftRequest, error) {
	now := time.Now()
	return s.transition(id, models.RequestStatusPending, func(req *models.GiftRequest) {
		req.Status = models.RequestStatusVerified
		req.VerifiedAt = &now
	})
}

func (s *fakeRequestStore) MarkRejected(ctx context.Context, id string, reason string) (models.GiftRequest, error) {
	now := time.Now()
	return s.transition(id, models.RequestStatusPending, func(req *models.GiftRequest) {
		req.Status = models.RequestStatusRejected
		req.RejectionReason = reason
		req.RejectedAt = &now
	})
}

func (s *fakeRequestStore) MarkCompleted(ctx context.Context, id string, audio models.UploadRef, lyrics string) (models.GiftRequest, error) {
	now := time.Now()
	return s.transition(id, models.RequestStatusVerified, func(req *models.GiftRequest) {
		req.Status = models.RequestStatusCompleted
		req.Audio = &audio
		req.Lyrics = lyrics
		req.CompletedAt = &now
	})
}

type fakeGiftStore struct {
	gifts map[string]models.Gift
}

func newFakeGiftStore() *fakeGiftStore {
	return &fakeGiftStore{gifts: map[string]models.Gift{}}
}

func (s *fakeGiftStore) Create(ctx context.Context, gift models.Gift) error {
	s.gifts[gift.ID] = gift
	return nil
}

func (s *fakeGiftStore) GetByID(ctx context.Context, id string) (models.Gift, error) {
	gift, ok := s.gifts[id]
	if !ok {
		return models.Gift{}, repository.ErrGiftNotFound
	}
	return gift, nil
}

func (s *fakeGiftStore) ListByUser(ctx context.Context, userRef string) ([]models.Gift, error) {
	var gifts []models.Gift
	for _, gift := range s.gifts {
		if gift.UserRef == userRef {
			gifts = append(gifts, gift)
		}
	}
	sort.Slice(gifts, func(i, j int) bool { return gifts[i].ID < gifts[j].ID })
	return gifts, nil
}

func (s *fakeGiftStore) CountByUser(ctx context.Context, userRef string) (int, error) {
	gifts, _ := s.ListByUser(ctx, userRef)
	return len(gifts), nil
}

func (s *fakeGiftStore) UpdateAccess(ctx context.Context, id string, enabled bool, expiresAt *time.Time, resetExpiry bool) (models.Gift, error) {
	gift, ok := s.gifts[id]
	if !ok {
		return models.Gift{}, repository.ErrGiftNotFound
	}
	gift.AccessEnabled = enabled
	if resetExpiry {
		gift.ExpiresAt = expiresAt
	}
	s.gifts[id] = gift
	return gift, nil
}

func (s *fakeGiftStore) MarkDeleted(ctx context.Context, id string, now time.Time) (models.Gift, error) {
	gift, ok := s.gifts[id]
	if !ok {
		return models.Gift{}, repository.ErrGiftNotFound
	}
	gift.PermanentlyDeleted = true
	if gift.DeletedAt == nil {
		gift.DeletedAt = &now
	}
	s.gifts[id] = gift
	return gift, nil
}

func (s *fakeGiftStore) ListDeletedSince(ctx context.Context, cutoff time.Time) ([]models.Gift, error) {
	var gifts []models.Gift
	for _, gift := range s.gifts {
		if gift.PermanentlyDeleted && gift.DeletedAt != nil && gift.DeletedAt.After(cutoff) {
			gifts = append(gifts, gift)
		}
	}
	return gifts, nil
}

type purgeCall struct {
	folder string
	keys   []string
}

type fakeCleanupQueue struct {
	calls []purgeCall
	err   error
}

func (q *fakeCleanupQueue) EnqueuePurge(ctx context.Context, folder string, keys []string) error {
	if q.err != nil {
		return q.err
	}
	q.calls = append(q.calls, purgeCall{folder: folder, keys: keys})
	return nil
}

type fakeOTPStore struct {
	codes map[string]string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: map[string]string{}}
}

func (s *fakeOTPStore) Save(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
	s.codes[purpose+":"+email] = code
	return nil
}

func (s *fakeOTPStore) Get(ctx context.Context, purpose, email string) (string, error) {
	code, ok := s.codes[purpose+":"+email]
	if !ok {
		return "", cache.ErrOTPNotFound
	}
	return code, nil
}

func (s *fakeOTPStore) Delete(ctx context.Context, purpose, email string) error {
	delete(s.codes, purpose+":"+email)
	return nil
}

type sentMail struct {
	email string
	code  string
	url   string
}

type fakeNotifier struct {
	otps  []sentMail
	ready []sentMail
	err   error
}

func (n *fakeNotifier) SendOTP(ctx context.Context, email, code string) error {
	if n.err != nil {
		return n.err
	}
	n.otps = append(n.otps, sentMail{email: email, code: code})
	return nil
}

func (n *fakeNotifier) SendGiftReady(ctx context.Context, email, recipientName, giftURL string) error {
	if n.err != nil {
		return n.err
	}
	n.ready = append(n.ready, sentMail{email: email, url: giftURL})
	return nil
}

type storedBlob struct {
	key         string
	contentType string
	size        int64
}

type fakeBlobStore struct {
	blobs []storedBlob
	err   error
}

func (s *fakeBlobStore) Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.blobs = append(s.blobs, storedBlob{key: objectKey, contentType: contentType, size: size})
	return "https://media.test/" + objectKey, nil
}
