package persistence

import "time"

// User represents a registered account in the meeting workflow.
type User struct {
	ID           string
	RegNo        string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Meeting represents a stored meeting request with its lifecycle state.
//
// Participants keeps additional group attendees in entry order; the repository
// enforces set semantics on insert.
type Meeting struct {
	ID               string
	Token            string
	Scheduler        string
	ParticipantEmail string
	IsGroup          bool
	Participants     []string
	Purpose          string
	Venue            string
	StartTime        time.Time
	EndTime          time.Time
	Status           string
	ApprovedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// PasswordResetToken represents a single-use credential recovery token.
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}
