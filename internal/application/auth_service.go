package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CredentialStore exposes user credential lookup operations required by the
// auth service.
type CredentialStore interface {
	GetUserCredentialsByRegNo(ctx context.Context, regno string) (UserCredentials, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	RevokeSessionsForUser(ctx context.Context, userID string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ResetTokenRepository captures the persistence interactions for password
// reset tokens.
type ResetTokenRepository interface {
	CreateResetToken(ctx context.Context, token PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, token string, usedAt time.Time) error
}

// Mailer delivers password reset instructions. Delivery is an external
// collaborator; the default wiring only logs.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates login, session validation, and credential recovery.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionRepository
	resetTokens    ResetTokenRepository
	mailer         Mailer
	verifyPassword PasswordVerifier
	hashPassword   func(password string) (string, error)
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	resetTTL       time.Duration
	resetBaseURL   string
	logger         *slog.Logger
}

// AuthServiceConfig wires the dependencies of an AuthService.
type AuthServiceConfig struct {
	Credentials    CredentialStore
	Sessions       SessionRepository
	ResetTokens    ResetTokenRepository
	Mailer         Mailer
	VerifyPassword PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	ResetTokenTTL  time.Duration
	ResetBaseURL   string
	Logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	verify := cfg.VerifyPassword
	if verify == nil {
		verify = VerifyPassword
	}
	tokenGenerator := cfg.TokenGenerator
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		credentials:    cfg.Credentials,
		sessions:       cfg.Sessions,
		resetTokens:    cfg.ResetTokens,
		mailer:         cfg.Mailer,
		verifyPassword: verify,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		resetTTL:       resetTTL,
		resetBaseURL:   strings.TrimRight(strings.TrimSpace(cfg.ResetBaseURL), "/"),
		logger:         defaultLogger(cfg.Logger),
	}
}

// SetPasswordHasher overrides the password hashing function. Tests use this to
// avoid the cost of argon2id.
func (s *AuthService) SetPasswordHasher(hash func(password string) (string, error)) {
	if s == nil || hash == nil {
		return
	}
	s.hashPassword = hash
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates a registration number and password, then issues a
// new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	regno := strings.TrimSpace(params.RegNo)
	logger := s.loggerWith(ctx, "Authenticate", "regno", regno)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if regno == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByRegNo(ctx, regno)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := Session{
		ID:        s.tokenGenerator(),
		UserID:    creds.User.ID,
		Token:     s.tokenGenerator(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if session.Token == "" {
		session.Token = session.ID
	}

	if s.sessions != nil {
		if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return
		}

		var persisted Session
		persisted, err = s.sessions.CreateSession(ctx, session)
		if err != nil {
			return
		}
		session = persisted
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

// ValidateSession verifies that the provided token corresponds to an active
// session and returns the authenticated principal. The principal's role comes
// from the stored account, never from anything client-held.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{
		Identity:    user.RegNo,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", true)

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// RequestPasswordReset issues a single-use reset token for the account behind
// the given email and hands the reset link to the mailer. Unknown addresses
// do not error so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	if s.resetTokens == nil {
		return fmt.Errorf("reset token repository not configured")
	}

	normalized := strings.TrimSpace(strings.ToLower(email))
	logger := s.loggerWith(ctx, "RequestPasswordReset", "email", normalized)

	if normalized == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}

	creds, err := s.credentials.GetUserCredentialsByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "reset requested for unknown email")
			return nil
		}
		logger.ErrorContext(ctx, "failed to look up account", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	now := s.now()
	reset := PasswordResetToken{
		Token:     s.tokenGenerator(),
		UserID:    creds.User.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}

	if err := s.resetTokens.CreateResetToken(ctx, reset); err != nil {
		logger.ErrorContext(ctx, "failed to store reset token", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if s.mailer != nil {
		resetURL := fmt.Sprintf("%s/reset-password/%s", s.resetBaseURL, reset.Token)
		if err := s.mailer.SendPasswordReset(ctx, creds.User.Email, resetURL); err != nil {
			logger.ErrorContext(ctx, "failed to deliver reset mail", "error", err, "error_kind", ErrorKind(err))
			return err
		}
	}

	logger.With("user_id", creds.User.ID).InfoContext(ctx, "password reset issued")
	return nil
}

// ResetPassword consumes a reset token and replaces the account password.
// All sessions of the user are revoked so stolen tokens stop working.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	if s.resetTokens == nil {
		return fmt.Errorf("reset token repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ResetPassword", "token_provided", trimmed != "")

	if trimmed == "" {
		return ErrResetTokenInvalid
	}
	if newPassword == "" {
		return &ValidationError{Field: "newPassword", Message: "password is required"}
	}

	reset, err := s.resetTokens.GetResetToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrResetTokenInvalid
		}
		logger.ErrorContext(ctx, "failed to load reset token", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	now := s.now()
	if reset.UsedAt != nil && !reset.UsedAt.IsZero() {
		return ErrResetTokenInvalid
	}
	if !reset.ExpiresAt.IsZero() && !reset.ExpiresAt.After(now) {
		return ErrResetTokenInvalid
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.credentials.UpdatePassword(ctx, reset.UserID, hash, now); err != nil {
		logger.ErrorContext(ctx, "failed to update password", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.resetTokens.MarkResetTokenUsed(ctx, trimmed, now); err != nil {
		logger.ErrorContext(ctx, "failed to consume reset token", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.RevokeSessionsForUser(ctx, reset.UserID, now); err != nil {
			logger.ErrorContext(ctx, "failed to revoke sessions after reset", "error", err, "error_kind", ErrorKind(err))
			return err
		}
	}

	logger.With("user_id", reset.UserID).InfoContext(ctx, "password reset completed")
	return nil
}
