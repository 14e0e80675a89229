package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type credentialStoreStub struct {
	mu        sync.Mutex
	byRegNo   map[string]UserCredentials
	byEmail   map[string]UserCredentials
	byID      map[string]User
	passwords map[string]string
}

func newCredentialStoreStub() *credentialStoreStub {
	return &credentialStoreStub{
		byRegNo:   make(map[string]UserCredentials),
		byEmail:   make(map[string]UserCredentials),
		byID:      make(map[string]User),
		passwords: make(map[string]string),
	}
}

func (s *credentialStoreStub) add(creds UserCredentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRegNo[creds.User.RegNo] = creds
	s.byEmail[creds.User.Email] = creds
	s.byID[creds.User.ID] = creds.User
}

func (s *credentialStoreStub) GetUserCredentialsByRegNo(ctx context.Context, regno string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.byRegNo[regno]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return creds, nil
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, ok := s.byEmail[email]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return creds, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *credentialStoreStub) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[userID]; !ok {
		return ErrNotFound
	}
	s.passwords[userID] = passwordHash
	return nil
}

type sessionRepositoryStub struct {
	mu          sync.Mutex
	byToken     map[string]Session
	deleteCalls int
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{byToken: make(map[string]Session)}
}

func (r *sessionRepositoryStub) seed(session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[session.Token] = session
}

func (r *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[session.Token] = session
	return session, nil
}

func (r *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byToken[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (r *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byToken[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	r.byToken[token] = session
	return session, nil
}

func (r *sessionRepositoryStub) RevokeSessionsForUser(ctx context.Context, userID string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, session := range r.byToken {
		if session.UserID == userID {
			session.RevokedAt = &revokedAt
			r.byToken[token] = session
		}
	}
	return nil
}

func (r *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	for token, session := range r.byToken {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(r.byToken, token)
		}
	}
	return nil
}

type resetTokenRepositoryStub struct {
	mu      sync.Mutex
	byToken map[string]PasswordResetToken
}

func newResetTokenRepositoryStub() *resetTokenRepositoryStub {
	return &resetTokenRepositoryStub{byToken: make(map[string]PasswordResetToken)}
}

func (r *resetTokenRepositoryStub) seed(token PasswordResetToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[token.Token] = token
}

func (r *resetTokenRepositoryStub) CreateResetToken(ctx context.Context, token PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[token.Token] = token
	return nil
}

func (r *resetTokenRepositoryStub) GetResetToken(ctx context.Context, token string) (PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.byToken[token]
	if !ok {
		return PasswordResetToken{}, ErrNotFound
	}
	return reset, nil
}

func (r *resetTokenRepositoryStub) MarkResetTokenUsed(ctx context.Context, token string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.byToken[token]
	if !ok {
		return ErrNotFound
	}
	reset.UsedAt = &usedAt
	r.byToken[token] = reset
	return nil
}

type mailerStub struct {
	mu    sync.Mutex
	sent  []string
	email string
	err   error
}

func (m *mailerStub) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.email = email
	m.sent = append(m.sent, resetURL)
	return nil
}

func plainVerifier(hashedPassword, password string) error {
	if hashedPassword != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

type authHarness struct {
	service     *AuthService
	credentials *credentialStoreStub
	sessions    *sessionRepositoryStub
	resetTokens *resetTokenRepositoryStub
	mailer      *mailerStub
	now         time.Time
}

func newAuthHarness() *authHarness {
	h := &authHarness{
		credentials: newCredentialStoreStub(),
		sessions:    newSessionRepositoryStub(),
		resetTokens: newResetTokenRepositoryStub(),
		mailer:      &mailerStub{},
		now:         fixedTime,
	}
	h.service = NewAuthService(AuthServiceConfig{
		Credentials:    h.credentials,
		Sessions:       h.sessions,
		ResetTokens:    h.resetTokens,
		Mailer:         h.mailer,
		VerifyPassword: plainVerifier,
		TokenGenerator: sequenceGenerator("tok"),
		Now:            fixedNow,
		SessionTTL:     24 * time.Hour,
		ResetTokenTTL:  time.Hour,
		ResetBaseURL:   "https://meetpass.example.edu",
	})
	h.service.SetPasswordHasher(plainHasher)
	return h
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials issue a session", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)

		result, err := h.service.Authenticate(context.Background(), AuthenticateParams{RegNo: account.User.RegNo, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.User.ID != account.User.ID {
			t.Fatalf("expected user %s, got %s", account.User.ID, result.User.ID)
		}
		if result.Session.Token == "" {
			t.Fatal("expected a session token")
		}
		want := h.now.Add(24 * time.Hour)
		if !result.Session.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, result.Session.ExpiresAt)
		}
		if _, err := h.sessions.GetSession(context.Background(), result.Session.Token); err != nil {
			t.Fatalf("session not persisted: %v", err)
		}
	})

	t.Run("wrong password is ErrInvalidCredentials", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)

		_, err := h.service.Authenticate(context.Background(), AuthenticateParams{RegNo: account.User.RegNo, Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown regno is ErrInvalidCredentials", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		_, err := h.service.Authenticate(context.Background(), AuthenticateParams{RegNo: "1MP23CS999", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("expired sessions are pruned on login", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)
		h.sessions.seed(Session{UserID: account.User.ID, Token: "stale", ExpiresAt: h.now.Add(-time.Minute)})

		if _, err := h.service.Authenticate(context.Background(), AuthenticateParams{RegNo: account.User.RegNo, Password: "secret"}); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if _, err := h.sessions.GetSession(context.Background(), "stale"); !errors.Is(err, ErrNotFound) {
			t.Fatal("expired session should have been pruned")
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	t.Run("active session yields the stored account's principal", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		account.User.Role = RoleStaff
		h.credentials.add(account)
		h.sessions.seed(Session{UserID: account.User.ID, Token: "active", ExpiresAt: h.now.Add(time.Hour)})

		principal, err := h.service.ValidateSession(context.Background(), "active")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.Identity != account.User.RegNo {
			t.Fatalf("expected identity %q, got %q", account.User.RegNo, principal.Identity)
		}
		if principal.Role != RoleStaff {
			t.Fatalf("expected role from the stored account, got %s", principal.Role)
		}
	})

	t.Run("expired sessions surface ErrSessionExpired", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)
		h.sessions.seed(Session{UserID: account.User.ID, Token: "old", ExpiresAt: h.now.Add(-time.Second)})

		if _, err := h.service.ValidateSession(context.Background(), "old"); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked sessions surface ErrSessionRevoked", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)
		revoked := h.now.Add(-time.Minute)
		h.sessions.seed(Session{UserID: account.User.ID, Token: "gone", ExpiresAt: h.now.Add(time.Hour), RevokedAt: &revoked})

		if _, err := h.service.ValidateSession(context.Background(), "gone"); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("unknown tokens surface ErrUnauthorized", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		if _, err := h.service.ValidateSession(context.Background(), "missing"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	h := newAuthHarness()
	account := newAccount()
	h.credentials.add(account)
	h.sessions.seed(Session{UserID: account.User.ID, Token: "active", ExpiresAt: h.now.Add(time.Hour)})

	if err := h.service.RevokeSession(context.Background(), "active"); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}

	if _, err := h.service.ValidateSession(context.Background(), "active"); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked after revocation, got %v", err)
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("known email receives a reset link", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)

		if err := h.service.RequestPasswordReset(context.Background(), account.User.Email); err != nil {
			t.Fatalf("RequestPasswordReset failed: %v", err)
		}
		if len(h.mailer.sent) != 1 {
			t.Fatalf("expected 1 reset mail, got %d", len(h.mailer.sent))
		}
		if h.mailer.email != account.User.Email {
			t.Fatalf("expected mail to %q, got %q", account.User.Email, h.mailer.email)
		}
		if !strings.HasPrefix(h.mailer.sent[0], "https://meetpass.example.edu/reset-password/") {
			t.Fatalf("unexpected reset URL %q", h.mailer.sent[0])
		}
	})

	t.Run("unknown email does not error or send mail", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		if err := h.service.RequestPasswordReset(context.Background(), "nobody@univ.edu"); err != nil {
			t.Fatalf("RequestPasswordReset should swallow unknown emails, got %v", err)
		}
		if len(h.mailer.sent) != 0 {
			t.Fatal("no mail should be sent for unknown emails")
		}
	})

	t.Run("valid token replaces the password and revokes sessions", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)
		h.sessions.seed(Session{UserID: account.User.ID, Token: "active", ExpiresAt: h.now.Add(time.Hour)})
		h.resetTokens.seed(PasswordResetToken{Token: "reset-1", UserID: account.User.ID, ExpiresAt: h.now.Add(time.Hour)})

		if err := h.service.ResetPassword(context.Background(), "reset-1", "new-password"); err != nil {
			t.Fatalf("ResetPassword failed: %v", err)
		}
		if got := h.credentials.passwords[account.User.ID]; got != "hashed:new-password" {
			t.Fatalf("expected new hash stored, got %q", got)
		}
		if _, err := h.service.ValidateSession(context.Background(), "active"); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected existing sessions revoked, got %v", err)
		}
	})

	t.Run("a token can only be used once", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)
		h.resetTokens.seed(PasswordResetToken{Token: "reset-1", UserID: account.User.ID, ExpiresAt: h.now.Add(time.Hour)})

		if err := h.service.ResetPassword(context.Background(), "reset-1", "first"); err != nil {
			t.Fatalf("first ResetPassword failed: %v", err)
		}
		if err := h.service.ResetPassword(context.Background(), "reset-1", "second"); !errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
		}
	})

	t.Run("expired tokens are rejected", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		account := newAccount()
		h.credentials.add(account)
		h.resetTokens.seed(PasswordResetToken{Token: "reset-1", UserID: account.User.ID, ExpiresAt: h.now.Add(-time.Minute)})

		if err := h.service.ResetPassword(context.Background(), "reset-1", "new"); !errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
		}
	})

	t.Run("unknown tokens are rejected", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness()
		if err := h.service.ResetPassword(context.Background(), "missing", "new"); !errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
		}
	})
}
