package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweetyp18/meetpass-webapp/internal/application"
	"github.com/sweetyp18/meetpass-webapp/internal/config"
	httptransport "github.com/sweetyp18/meetpass-webapp/internal/http"
	"github.com/sweetyp18/meetpass-webapp/internal/persistence"
	"github.com/sweetyp18/meetpass-webapp/internal/persistence/sqlite"
	"github.com/sweetyp18/meetpass-webapp/internal/token"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	sessionTokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	users := newUserStore(sqlite.NewUserRepository(pool))
	meetings := newMeetingStore(sqlite.NewMeetingRepository(pool))
	sessions := newSessionStore(sqlite.NewSessionRepository(pool))
	resetTokens := newResetTokenStore(sqlite.NewPasswordResetTokenRepository(pool))

	userService := application.NewUserServiceWithLogger(users, idGenerator, now, logger)
	meetingService := application.NewMeetingServiceWithLogger(meetings, idGenerator, token.Generate, now, logger)
	authService := application.NewAuthService(application.AuthServiceConfig{
		Credentials:    users,
		Sessions:       sessions,
		ResetTokens:    resetTokens,
		Mailer:         &logMailer{logger: logger},
		TokenGenerator: sessionTokenGenerator,
		Now:            now,
		SessionTTL:     cfg.SessionTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
		ResetBaseURL:   cfg.BaseURL,
		Logger:         logger,
	})

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, authService, logger),
		Meetings: httptransport.NewMeetingHandler(meetingService, logger),
		Session:  httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("meetpass API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// mapStorageError translates persistence sentinels into the application error
// vocabulary so services never import the storage package.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicateToken):
		return application.ErrDuplicateMeetingToken
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	case errors.Is(err, persistence.ErrStaleStatus):
		return application.ErrStaleTransition
	default:
		return err
	}
}

// logMailer stands in for an SMTP integration; the reset link is only written
// to the structured log.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	m.logger.InfoContext(ctx, "password reset link issued", "email", email, "reset_url", resetURL)
	return nil
}

// userStore adapts the SQLite user repository to both the user service's
// repository and the auth service's credential store.
type userStore struct {
	repo persistence.UserRepository
}

func newUserStore(repo persistence.UserRepository) *userStore {
	return &userStore{repo: repo}
}

func (s *userStore) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := s.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapStorageError(err)
	}
	stored, err := s.repo.GetUserByRegNo(ctx, user.RegNo)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (s *userStore) GetUserByRegNo(ctx context.Context, regno string) (application.User, error) {
	stored, err := s.repo.GetUserByRegNo(ctx, regno)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (s *userStore) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (s *userStore) GetUserCredentialsByRegNo(ctx context.Context, regno string) (application.UserCredentials, error) {
	stored, err := s.repo.GetUserByRegNo(ctx, regno)
	if err != nil {
		return application.UserCredentials{}, mapStorageError(err)
	}
	return application.UserCredentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

func (s *userStore) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapStorageError(err)
	}
	return application.UserCredentials{User: toApplicationUser(stored), PasswordHash: stored.PasswordHash}, nil
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error {
	return mapStorageError(s.repo.UpdatePasswordHash(ctx, userID, passwordHash, updatedAt))
}

// meetingStore adapts the SQLite meeting repository to the meeting service.
type meetingStore struct {
	repo persistence.MeetingRepository
}

func newMeetingStore(repo persistence.MeetingRepository) *meetingStore {
	return &meetingStore{repo: repo}
}

func (s *meetingStore) CreateMeeting(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	if err := s.repo.CreateMeeting(ctx, toPersistenceMeeting(meeting)); err != nil {
		return application.Meeting{}, mapStorageError(err)
	}
	stored, err := s.repo.GetMeeting(ctx, meeting.ID)
	if err != nil {
		return application.Meeting{}, mapStorageError(err)
	}
	return toApplicationMeeting(stored), nil
}

func (s *meetingStore) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, mapStorageError(err)
	}
	return toApplicationMeeting(stored), nil
}

func (s *meetingStore) ListMeetingsFor(ctx context.Context, identity string) ([]application.Meeting, error) {
	models, err := s.repo.ListMeetings(ctx, persistence.MeetingFilter{Identity: identity})
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	meetings := make([]application.Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toApplicationMeeting(model))
	}
	return meetings, nil
}

func (s *meetingStore) UpdateMeetingStatus(ctx context.Context, id string, status application.Status, approvedBy string, updatedAt time.Time) (application.Meeting, error) {
	// Decisions only ever move a meeting out of Pending; anything else lost a
	// race and surfaces as a stale transition.
	err := s.repo.UpdateMeetingStatus(ctx, id, string(application.StatusPending), string(status), approvedBy, updatedAt)
	if err != nil {
		return application.Meeting{}, mapStorageError(err)
	}
	stored, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, mapStorageError(err)
	}
	return toApplicationMeeting(stored), nil
}

// sessionStore adapts the SQLite session repository to the auth service.
type sessionStore struct {
	repo persistence.SessionRepository
}

func newSessionStore(repo persistence.SessionRepository) *sessionStore {
	return &sessionStore{repo: repo}
}

func (s *sessionStore) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := s.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *sessionStore) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *sessionStore) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := s.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *sessionStore) RevokeSessionsForUser(ctx context.Context, userID string, revokedAt time.Time) error {
	return mapStorageError(s.repo.RevokeSessionsForUser(ctx, userID, revokedAt))
}

func (s *sessionStore) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStorageError(s.repo.DeleteExpiredSessions(ctx, reference))
}

// resetTokenStore adapts the SQLite reset token repository to the auth service.
type resetTokenStore struct {
	repo persistence.PasswordResetTokenRepository
}

func newResetTokenStore(repo persistence.PasswordResetTokenRepository) *resetTokenStore {
	return &resetTokenStore{repo: repo}
}

func (s *resetTokenStore) CreateResetToken(ctx context.Context, reset application.PasswordResetToken) error {
	return mapStorageError(s.repo.CreateResetToken(ctx, persistence.PasswordResetToken{
		Token:     reset.Token,
		UserID:    reset.UserID,
		ExpiresAt: reset.ExpiresAt,
		CreatedAt: reset.CreatedAt,
		UsedAt:    reset.UsedAt,
	}))
}

func (s *resetTokenStore) GetResetToken(ctx context.Context, value string) (application.PasswordResetToken, error) {
	stored, err := s.repo.GetResetToken(ctx, value)
	if err != nil {
		return application.PasswordResetToken{}, mapStorageError(err)
	}
	return application.PasswordResetToken{
		Token:     stored.Token,
		UserID:    stored.UserID,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
		UsedAt:    stored.UsedAt,
	}, nil
}

func (s *resetTokenStore) MarkResetTokenUsed(ctx context.Context, value string, usedAt time.Time) error {
	return mapStorageError(s.repo.MarkResetTokenUsed(ctx, value, usedAt))
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		RegNo:        user.RegNo,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:          user.ID,
		RegNo:       user.RegNo,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        application.Role(user.Role),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toPersistenceMeeting(meeting application.Meeting) persistence.Meeting {
	return persistence.Meeting{
		ID:               meeting.ID,
		Token:            meeting.Token,
		Scheduler:        meeting.Scheduler,
		ParticipantEmail: meeting.ParticipantEmail,
		IsGroup:          meeting.IsGroup,
		Participants:     meeting.Participants,
		Purpose:          meeting.Purpose,
		Venue:            meeting.Venue,
		StartTime:        meeting.StartTime,
		EndTime:          meeting.EndTime,
		Status:           string(meeting.Status),
		ApprovedBy:       meeting.ApprovedBy,
		CreatedAt:        meeting.CreatedAt,
		UpdatedAt:        meeting.UpdatedAt,
	}
}

func toApplicationMeeting(meeting persistence.Meeting) application.Meeting {
	return application.Meeting{
		ID:               meeting.ID,
		Token:            meeting.Token,
		Scheduler:        meeting.Scheduler,
		ParticipantEmail: meeting.ParticipantEmail,
		IsGroup:          meeting.IsGroup,
		Participants:     meeting.Participants,
		Purpose:          meeting.Purpose,
		Venue:            meeting.Venue,
		StartTime:        meeting.StartTime,
		EndTime:          meeting.EndTime,
		Status:           application.Status(meeting.Status),
		ApprovedBy:       meeting.ApprovedBy,
		CreatedAt:        meeting.CreatedAt,
		UpdatedAt:        meeting.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationSession(session persistence.Session) application.Session {
	return application.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}
