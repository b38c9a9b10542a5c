package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/cache"
	"github.com/memoryhaze/memoryhaze/internal/config"
	"github.com/memoryhaze/memoryhaze/internal/mail"
	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/repository"
	"github.com/memoryhaze/memoryhaze/internal/security"
)

const (
	otpPurposeSignup = "signup"
	otpPurposeReset  = "reset"

	otpLength   = 6
	minPassword = 8
)

// AuthService owns accounts and sessions: OTP-gated signup, login,
// and the forgot-password reset flow. Sessions are stateless JWTs.
type AuthService struct {
	users    UserStore
	otps     OTPStore
	notifier mail.Notifier
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(users UserStore, otps OTPStore, notifier mail.Notifier, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		otps:     otps,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// SendSignupOTP mails a one-time code to a not-yet-registered address.
func (s *AuthService) SendSignupOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fieldErr("email", "email is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return E(KindConflict, "an account with this email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return wrap(KindInternal, "look up account", err)
	}

	return s.issueOTP(ctx, otpPurposeSignup, email)
}

type SignupInput struct {
	Email    string
	OTP      string
	Name     string
	Password string
}

// VerifySignup consumes the signup code, creates the account and
// returns a session token with the new user.
func (s *AuthService) VerifySignup(ctx context.Context, input SignupInput) (models.User, string, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return models.User{}, "", fieldErr("email", "email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return models.User{}, "", fieldErr("name", "name is required")
	}
	if len(input.Password) < minPassword {
		return models.User{}, "", fieldErr("password", "password must be at least 8 characters")
	}

	if err := s.consumeOTP(ctx, otpPurposeSignup, email, input.OTP); err != nil {
		return models.User{}, "", err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, "", wrap(KindInternal, "hash password", err)
	}

	user := models.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, "", E(KindConflict, "an account with this email already exists")
		}
		return models.User{}, "", wrap(KindInternal, "create account", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return models.User{}, "", err
	}

	s.log.Info().Str("user_id", user.UserID).Msg("account created")
	return user, token, nil
}

// Login verifies the credentials and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, "", E(KindValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", E(KindUnauthorized, "invalid email or password")
		}
		return models.User{}, "", wrap(KindInternal, "look up account", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return models.User{}, "", E(KindUnauthorized, "invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Me reloads the authenticated account so the caller sees current data
// rather than whatever the token was minted with.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, E(KindUnauthorized, "account no longer exists")
		}
		return models.User{}, wrap(KindInternal, "load account", err)
	}
	return user, nil
}

// SendResetOTP mails a reset code. It succeeds quietly for unknown
// addresses so the endpoint cannot be used to probe registrations.
func (s *AuthService) SendResetOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fieldErr("email", "email is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Info().Str("email", email).Msg("reset requested for unknown email")
			return nil
		}
		return wrap(KindInternal, "look up account", err)
	}

	return s.issueOTP(ctx, otpPurposeReset, email)
}

// CheckResetOTP validates the code without consuming it, so the client
// can gate the new-password form before the final reset call.
func (s *AuthService) CheckResetOTP(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	code, err := s.otps.Get(ctx, otpPurposeReset, email)
	if err != nil {
		if errors.Is(err, cache.ErrOTPNotFound) {
			return E(KindValidation, "code is invalid or has expired")
		}
		return wrap(KindInternal, "load one-time code", err)
	}
	if !security.CompareOTP(code, otp) {
		return E(KindValidation, "code is invalid or has expired")
	}
	return nil
}

// ResetPassword consumes the reset code and stores the new password.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, password string) error {
	email = normalizeEmail(email)
	if len(password) < minPassword {
		return fieldErr("password", "password must be at least 8 characters")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return E(KindValidation, "code is invalid or has expired")
		}
		return wrap(KindInternal, "look up account", err)
	}

	if err := s.consumeOTP(ctx, otpPurposeReset, email, otp); err != nil {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return wrap(KindInternal, "hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return wrap(KindInternal, "update password", err)
	}

	s.log.Info().Str("user_id", user.UserID).Msg("password reset")
	return nil
}

// AdminCreateUser creates an account directly, skipping the OTP flow.
// Used by the operator console to hand out logins.
func (s *AuthService) AdminCreateUser(ctx context.Context, email, password, name string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return models.User{}, fieldErr("email", "email is required")
	}
	if len(password) < minPassword {
		return models.User{}, fieldErr("password", "password must be at least 8 characters")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, wrap(KindInternal, "hash password", err)
	}

	user := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, E(KindConflict, "an account with this email already exists")
		}
		return models.User{}, wrap(KindInternal, "create account", err)
	}

	s.log.Info().Str("user_id", user.UserID).Msg("account created by operator")
	return user, nil
}

// UserCount backs the public signup-page counter.
func (s *AuthService) UserCount(ctx context.Context) (int, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, wrap(KindInternal, "count users", err)
	}
	return count, nil
}

type UserPage struct {
	Users []models.User
	Total int
	Page  int
	Limit int
}

// SearchUsers is the operator's user directory with optional search.
func (s *AuthService) SearchUsers(ctx context.Context, search string, page, limit int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := s.users.Search(ctx, strings.TrimSpace(search), limit, (page-1)*limit)
	if err != nil {
		return UserPage{}, wrap(KindInternal, "search users", err)
	}
	return UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *AuthService) issueOTP(ctx context.Context, purpose, email string) error {
	code, err := security.GenerateOTP(otpLength)
	if err != nil {
		return wrap(KindInternal, "generate one-time code", err)
	}
	if err := s.otps.Save(ctx, purpose, email, code, s.cfg.Security.OTPTTL); err != nil {
		return wrap(KindInternal, "store one-time code", err)
	}
	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		return wrap(KindProvider, "send verification mail", err)
	}

	s.log.Info().Str("email", email).Str("purpose", purpose).Msg("otp issued")
	return nil
}

func (s *AuthService) consumeOTP(ctx context.Context, purpose, email, given string) error {
	code, err := s.otps.Get(ctx, purpose, email)
	if err != nil {
		if errors.Is(err, cache.ErrOTPNotFound) {
			return E(KindValidation, "code is invalid or has expired")
		}
		return wrap(KindInternal, "load one-time code", err)
	}
	if !security.CompareOTP(code, given) {
		return E(KindValidation, "code is invalid or has expired")
	}
	if err := s.otps.Delete(ctx, purpose, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("delete consumed otp failed")
	}
	return nil
}

func (s *AuthService) issueToken(user models.User) (string, error) {
	token, err := security.GenerateAccessToken(
		s.cfg.Security.JWTSecret,
		user.ID,
		user.UserID,
		user.Email,
		user.IsAdmin,
		s.cfg.Security.JWTTTL,
	)
	if err != nil {
		return "", wrap(KindInternal, "issue session token", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
