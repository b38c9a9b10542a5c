package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/models"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:       "test-jwt-secret",
			JWTTTL:          time.Hour,
			RecipientSecret: "test-recipient-secret",
			OTPTTL:          10 * time.Minute,
		},
		Mail: config.MailConfig{
			BaseURL: "https://memoryhaze.test",
		},
		Storage: config.StorageConfig{
			RootFolder: "MemoryHaze",
		},
	}
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	return svcErr.Kind
}

func scenario(n int) string {
	return strings.Repeat("x", n)
}

func validSubmitInput() SubmitInput {
	return SubmitInput{
		RecipientName: "Priya",
		Occasion:      models.OccasionBirthday,
		OccasionDate:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Scenarios:     []string{scenario(150), scenario(200), scenario(180)},
		SongGenre:     "acoustic",
		Photos: []models.UploadRef{
			{URL: "https://media.test/MemoryHaze/usr-00001/gift1/photo_1", PublicID: "MemoryHaze/usr-00001/gift1/photo_1"},
		},
		Plan: models.PlanMomentum,
	}
}

type requestFixture struct {
	svc      *RequestService
	requests *fakeRequestStore
	gifts    *fakeGiftStore
	users    *fakeUserStore
	cleanup  *fakeCleanupQueue
	notifier *fakeNotifier
	user     models.User
	now      time.Time
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	f := &requestFixture{
		requests: newFakeRequestStore(),
		gifts:    newFakeGiftStore(),
		users:    newFakeUserStore(),
		cleanup:  &fakeCleanupQueue{},
		notifier: &fakeNotifier{},
		now:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	f.user = models.User{Email: "priya@example.com", Name: "Priya"}
	require.NoError(t, f.users.Create(context.Background(), &f.user))

	f.svc = NewRequestService(f.requests, f.gifts, f.users, f.cleanup, f.notifier, testConfig(), zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *requestFixture) submit(t *testing.T) models.GiftRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), f.user, validSubmitInput())
	require.NoError(t, err)
	return req
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	f := newRequestFixture(t)

	req := f.submit(t)

	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, f.user.ID, req.UserRef)
	assert.Equal(t, f.now, req.SubmittedAt)
	assert.NotEmpty(t, req.ID)

	stored, err := f.requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitInput)
		field  string
	}{
		{
			name:   "missing recipient name",
			mutate: func(in *SubmitInput) { in.RecipientName = "  " },
			field:  "recipientName",
		},
		{
			name:   "unknown occasion",
			mutate: func(in *SubmitInput) { in.Occasion = "graduation" },
			field:  "occasion",
		},
		{
			name:   "two scenarios instead of three",
			mutate: func(in *SubmitInput) { in.Scenarios = in.Scenarios[:2] },
			field:  "scenarios",
		},
		{
			name:   "scenario one character short",
			mutate: func(in *SubmitInput) { in.Scenarios[1] = scenario(149) },
			field:  "scenarios[1]",
		},
		{
			name: "scenario padded to the minimum with whitespace",
			mutate: func(in *SubmitInput) {
				in.Scenarios[2] = scenario(149) + " "
			},
			field: "scenarios[2]",
		},
		{
			name:   "missing song genre",
			mutate: func(in *SubmitInput) { in.SongGenre = "" },
			field:  "songGenre",
		},
		{
			name:   "unknown plan",
			mutate: func(in *SubmitInput) { in.Plan = "deluxe" },
			field:  "plan",
		},
		{
			name:   "no photos",
			mutate: func(in *SubmitInput) { in.Photos = nil },
			field:  "photos",
		},
		{
			name: "more photos than the momentum plan allows",
			mutate: func(in *SubmitInput) {
				in.Photos = make([]models.UploadRef, 5)
				for i := range in.Photos {
					in.Photos[i] = models.UploadRef{URL: "u", PublicID: "p"}
				}
			},
			field: "photos",
		},
		{
			name: "photo reference without public id",
			mutate: func(in *SubmitInput) {
				in.Photos = []models.UploadRef{{URL: "https://media.test/x"}}
			},
			field: "photos[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture(t)
			input := validSubmitInput()
			tt.mutate(&input)

			_, err := f.svc.Submit(context.Background(), f.user, input)

			var svcErr *Error
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, KindValidation, svcErr.Kind)
			assert.Equal(t, tt.field, svcErr.Field)

			_, _, listErr := f.requests.List(context.Background(), "", 10, 0)
			require.NoError(t, listErr)
			counts, _ := f.requests.CountByStatus(context.Background())
			assert.Empty(t, counts, "nothing may be persisted on validation failure")
		})
	}
}

func TestSubmitAcceptsExactMinimumScenarioLength(t *testing.T) {
	f := newRequestFixture(t)
	input := validSubmitInput()
	input.Scenarios = []string{scenario(150), scenario(150), scenario(150)}

	_, err := f.svc.Submit(context.Background(), f.user, input)
	require.NoError(t, err)
}

func TestSubmitAllowsFiftyPhotosOnEverlasting(t *testing.T) {
	f := newRequestFixture(t)
	input := validSubmitInput()
	input.Plan = models.PlanEverlasting
	input.Photos = make([]models.UploadRef, 50)
	for i := range input.Photos {
		input.Photos[i] = models.UploadRef{URL: "u", PublicID: "p"}
	}

	_, err := f.svc.Submit(context.Background(), f.user, input)
	require.NoError(t, err)
}

func TestVerifyPendingRequest(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	verified, err := f.svc.Verify(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusVerified, verified.Status)
	assert.NotNil(t, verified.VerifiedAt)
}

func TestVerifyUnknownRequest(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.svc.Verify(context.Background(), "missing")
	assert.Equal(t, KindNotFound, kindOf(t, err))
}

func TestRejectQueuesPhotoCleanup(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	rejected, err := f.svc.Reject(context.Background(), req.ID, "photos too blurry")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "photos too blurry", rejected.RejectionReason)

	require.Len(t, f.cleanup.calls, 1)
	call := f.cleanup.calls[0]
	assert.Equal(t, "MemoryHaze/usr-00001/gift1", call.folder)
	assert.Equal(t, []string{"MemoryHaze/usr-00001/gift1/photo_1"}, call.keys)

	// the record survives rejection
	stored, err := f.requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, stored.Status)
}

func TestRejectSucceedsWhenCleanupEnqueueFails(t *testing.T) {
	f := newRequestFixture(t)
	f.cleanup.err = context.DeadlineExceeded
	req := f.submit(t)

	rejected, err := f.svc.Reject(context.Background(), req.ID, "no")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
}

func TestCompleteCreatesGiftWithPlanWindow(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)
	_, err := f.svc.Verify(context.Background(), req.ID)
	require.NoError(t, err)

	audio := models.UploadRef{URL: "https://media.test/a", PublicID: "MemoryHaze/usr-00001/gift1/audio"}
	completed, err := f.svc.Complete(context.Background(), req.ID, audio, "verse one\nverse two")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, completed.Status)

	gifts, err := f.gifts.ListByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.Len(t, gifts, 1)

	gift := gifts[0]
	assert.True(t, gift.AccessEnabled)
	assert.Equal(t, req.ID, gift.RequestRef)
	assert.Equal(t, models.TemplateBirthdayCelebration, gift.TemplateID)
	require.NotNil(t, gift.ExpiresAt)
	assert.Equal(t, f.now.Add(7*24*time.Hour), *gift.ExpiresAt, "momentum window is 7 days")

	require.Len(t, f.notifier.ready, 1)
	assert.Equal(t, f.user.Email, f.notifier.ready[0].email)
	assert.Contains(t, f.notifier.ready[0].url, "https://memoryhaze.test/gifts/"+gift.ID+"/")
}

func TestCompleteEverlastingWindowIsFourteenDays(t *testing.T) {
	f := newRequestFixture(t)
	input := validSubmitInput()
	input.Plan = models.PlanEverlasting
	req, err := f.svc.Submit(context.Background(), f.user, input)
	require.NoError(t, err)
	_, err = f.svc.Verify(context.Background(), req.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), req.ID, models.UploadRef{URL: "u", PublicID: "p"}, "lyrics")
	require.NoError(t, err)

	gifts, _ := f.gifts.ListByUser(context.Background(), f.user.ID)
	require.Len(t, gifts, 1)
	assert.Equal(t, f.now.Add(14*24*time.Hour), *gifts[0].ExpiresAt)
}

func TestCompleteRequiresAudioAndLyrics(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)
	_, err := f.svc.Verify(context.Background(), req.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), req.ID, models.UploadRef{}, "lyrics")
	assert.Equal(t, KindValidation, kindOf(t, err))

	_, err = f.svc.Complete(context.Background(), req.ID, models.UploadRef{URL: "u"}, "   ")
	assert.Equal(t, KindValidation, kindOf(t, err))

	stored, _ := f.requests.GetByID(context.Background(), req.ID)
	assert.Equal(t, models.RequestStatusVerified, stored.Status, "failed completion must not advance the request")
}

func TestInvalidTransitionsConflictWithoutMutation(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	// completing a pending request skips verification
	_, err := f.svc.Complete(context.Background(), req.ID, models.UploadRef{URL: "u"}, "lyrics")
	assert.Equal(t, KindConflict, kindOf(t, err))

	stored, _ := f.requests.GetByID(context.Background(), req.ID)
	assert.Equal(t, models.RequestStatusPending, stored.Status)

	// rejected is terminal
	_, err = f.svc.Reject(context.Background(), req.ID, "no")
	require.NoError(t, err)
	_, err = f.svc.Verify(context.Background(), req.ID)
	assert.Equal(t, KindConflict, kindOf(t, err))

	stored, _ = f.requests.GetByID(context.Background(), req.ID)
	assert.Equal(t, models.RequestStatusRejected, stored.Status)
	assert.Empty(t, f.gifts.gifts, "no gift may exist for a request that never completed")
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newRequestFixture(t)
	for i := 0; i < 3; i++ {
		f.submit(t)
	}
	req := f.submit(t)
	_, err := f.svc.Verify(context.Background(), req.ID)
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), "pending", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Requests, 2)

	all, err := f.svc.List(context.Background(), "all", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)

	_, err = f.svc.List(context.Background(), "bogus", 1, 10)
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestStatsCountEveryStatus(t *testing.T) {
	f := newRequestFixture(t)
	f.submit(t)
	verified := f.submit(t)
	_, err := f.svc.Verify(context.Background(), verified.ID)
	require.NoError(t, err)
	rejected := f.submit(t)
	_, err = f.svc.Reject(context.Background(), rejected.ID, "nope")
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RequestStats{Pending: 1, Verified: 1, Rejected: 1, Total: 3}, stats)

	// reads are repeatable
	again, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats, again)
}
