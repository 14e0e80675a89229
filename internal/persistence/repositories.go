package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account storage operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByRegNo(ctx context.Context, regno string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
}

// MeetingFilter narrows meeting queries.
type MeetingFilter struct {
	// Identity matches meetings where the identity is the scheduler, the
	// primary participant, or a group participant.
	Identity string
	// StartsAfter excludes meetings whose start time is not strictly later.
	StartsAfter *time.Time
}

// MeetingRepository stores meeting requests and their participants.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
	// UpdateMeetingStatus transitions a meeting out of fromStatus. It returns
	// ErrStaleStatus when the row no longer carries fromStatus, so callers can
	// distinguish a lost race from a missing record.
	UpdateMeetingStatus(ctx context.Context, id, fromStatus, toStatus, approvedBy string, updatedAt time.Time) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	RevokeSessionsForUser(ctx context.Context, userID string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordResetTokenRepository stores single-use credential recovery tokens.
type PasswordResetTokenRepository interface {
	CreateResetToken(ctx context.Context, token PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, token string, usedAt time.Time) error
}
