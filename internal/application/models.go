package application

import "time"

// Role identifies the kind of principal acting in the workflow.
type Role string

const (
	// RoleStudent marks principals whose meeting requests require approval.
	RoleStudent Role = "student"
	// RoleStaff marks principals who may approve or reject pending requests.
	RoleStaff Role = "staff"
)

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStaff
}

// Status captures the lifecycle state of a meeting request.
type Status string

const (
	// StatusPending is the initial state of student-created requests.
	StatusPending Status = "Pending"
	// StatusApproved is terminal; staff-created requests start here.
	StatusApproved Status = "Approved"
	// StatusRejected is terminal.
	StatusRejected Status = "Rejected"
)

// Terminal reports whether no further transition is defined from the status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Principal represents the authenticated actor invoking a service method. It
// is derived per-request from a server-validated session; client-supplied
// role values are never consulted for authorization.
type Principal struct {
	Identity    string
	Email       string
	DisplayName string
	Role        Role
}

// User represents a registered account exposed by the application services.
type User struct {
	ID          string
	RegNo       string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Profile is the dashboard view of an account.
type Profile struct {
	Name  string
	RegNo string
	Email string
	Role  Role
}

// MeetingInput captures caller provided meeting request fields.
type MeetingInput struct {
	ParticipantEmail string
	IsGroup          bool
	Participants     []string
	Purpose          string
	Venue            string
	StartTime        time.Time
	EndTime          time.Time
}

// Meeting represents a persisted meeting request.
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
	Status           Status
	ApprovedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateMeetingParams wraps the data required to schedule a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// ListMeetingsParams wraps the data required to list upcoming meetings.
// Identity defaults to the principal's own meeting identity when empty.
type ListMeetingsParams struct {
	Principal Principal
	Identity  string
}

// RegisterParams captures a signup request.
type RegisterParams struct {
	RegNo       string
	DisplayName string
	Email       string
	Password    string
	Role        Role
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	RegNo    string
	Password string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}

// PasswordResetToken represents a single-use credential recovery token.
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}
