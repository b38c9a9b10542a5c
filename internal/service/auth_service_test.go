package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/security"
)

type authFixture struct {
	svc      *AuthService
	users    *fakeUserStore
	otps     *fakeOTPStore
	notifier *fakeNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		users:    newFakeUserStore(),
		otps:     newFakeOTPStore(),
		notifier: &fakeNotifier{},
	}
	f.svc = NewAuthService(f.users, f.otps, f.notifier, testConfig(), zerolog.Nop())
	return f
}

func (f *authFixture) signedUp(t *testing.T, email, password string) models.User {
	t.Helper()

	require.NoError(t, f.svc.SendSignupOTP(context.Background(), email))
	code := f.notifier.otps[len(f.notifier.otps)-1].code

	user, _, err := f.svc.VerifySignup(context.Background(), SignupInput{
		Email:    email,
		OTP:      code,
		Name:     "Test User",
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestSignupFlow(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.SendSignupOTP(context.Background(), "New.User@Example.com "))
	require.Len(t, f.notifier.otps, 1)
	assert.Equal(t, "new.user@example.com", f.notifier.otps[0].email)
	assert.Len(t, f.notifier.otps[0].code, 6)

	user, token, err := f.svc.VerifySignup(context.Background(), SignupInput{
		Email:    "new.user@example.com",
		OTP:      f.notifier.otps[0].code,
		Name:     "New User",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "usr-00001", user.UserID)
	assert.False(t, user.IsAdmin)

	claims, err := security.ParseAccessToken(token, testConfig().Security.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "usr-00001", claims.PublicID)

	// the code is single-use
	_, _, err = f.svc.VerifySignup(context.Background(), SignupInput{
		Email:    "new.user@example.com",
		OTP:      f.notifier.otps[0].code,
		Name:     "New User",
		Password: "hunter2hunter2",
	})
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestSignupRejectsWrongOTP(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.SendSignupOTP(context.Background(), "a@example.com"))

	_, _, err := f.svc.VerifySignup(context.Background(), SignupInput{
		Email:    "a@example.com",
		OTP:      "000000",
		Name:     "A",
		Password: "longenough",
	})
	assert.Equal(t, KindValidation, kindOf(t, err))
	_, findErr := f.users.FindByEmail(context.Background(), "a@example.com")
	assert.Error(t, findErr, "no account may exist after a failed code")
}

func TestSignupOTPRefusedForExistingAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.signedUp(t, "taken@example.com", "longenough")

	err := f.svc.SendSignupOTP(context.Background(), "taken@example.com")
	assert.Equal(t, KindConflict, kindOf(t, err))
}

func TestSignupPasswordTooShort(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.SendSignupOTP(context.Background(), "a@example.com"))

	_, _, err := f.svc.VerifySignup(context.Background(), SignupInput{
		Email:    "a@example.com",
		OTP:      f.notifier.otps[0].code,
		Name:     "A",
		Password: "short",
	})
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signedUp(t, "login@example.com", "correct horse battery")

	user, token, err := f.svc.Login(context.Background(), "login@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = f.svc.Login(context.Background(), "login@example.com", "wrong password")
	assert.Equal(t, KindUnauthorized, kindOf(t, err))

	_, _, err = f.svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.Equal(t, KindUnauthorized, kindOf(t, err), "unknown email and bad password are indistinguishable")
}

func TestMe(t *testing.T) {
	f := newAuthFixture(t)
	created := f.signedUp(t, "me@example.com", "longenough")

	user, err := f.svc.Me(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, user.Email)

	_, err = f.svc.Me(context.Background(), "gone")
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	f.signedUp(t, "reset@example.com", "old password!")

	require.NoError(t, f.svc.SendResetOTP(context.Background(), "reset@example.com"))
	code := f.notifier.otps[len(f.notifier.otps)-1].code

	// pre-check does not consume the code
	require.NoError(t, f.svc.CheckResetOTP(context.Background(), "reset@example.com", code))
	require.NoError(t, f.svc.CheckResetOTP(context.Background(), "reset@example.com", code))
	assert.Equal(t, KindValidation, kindOf(t, f.svc.CheckResetOTP(context.Background(), "reset@example.com", "999999")))

	require.NoError(t, f.svc.ResetPassword(context.Background(), "reset@example.com", code, "new password!!"))

	_, _, err := f.svc.Login(context.Background(), "reset@example.com", "old password!")
	assert.Equal(t, KindUnauthorized, kindOf(t, err))
	_, _, err = f.svc.Login(context.Background(), "reset@example.com", "new password!!")
	require.NoError(t, err)

	// the reset code is gone once used
	err = f.svc.ResetPassword(context.Background(), "reset@example.com", code, "another one!!")
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestResetOTPForUnknownEmailIsQuiet(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.SendResetOTP(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.notifier.otps, "no mail for unknown addresses")
}

func TestAdminCreateUser(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.AdminCreateUser(context.Background(), "Handout@Example.com", "longenough", "")
	require.NoError(t, err)
	assert.Equal(t, "handout@example.com", user.Email)
	assert.Equal(t, "handout", user.Name, "name falls back to the mailbox part")
	assert.Equal(t, "usr-00001", user.UserID)
	assert.Empty(t, f.notifier.otps, "no code mailed on the operator path")

	// the account can log in right away
	_, _, err = f.svc.Login(context.Background(), "handout@example.com", "longenough")
	require.NoError(t, err)

	_, err = f.svc.AdminCreateUser(context.Background(), "handout@example.com", "longenough", "Dup")
	assert.Equal(t, KindConflict, kindOf(t, err))

	_, err = f.svc.AdminCreateUser(context.Background(), "short@example.com", "short", "")
	assert.Equal(t, KindValidation, kindOf(t, err))
}

func TestUserCountAndSearch(t *testing.T) {
	f := newAuthFixture(t)
	f.signedUp(t, "one@example.com", "longenough")
	f.signedUp(t, "two@example.com", "longenough")
	f.signedUp(t, "three@other.org", "longenough")

	count, err := f.svc.UserCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	page, err := f.svc.SearchUsers(context.Background(), "example.com", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Users, 2)

	page, err = f.svc.SearchUsers(context.Background(), "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Users, 1)
}
