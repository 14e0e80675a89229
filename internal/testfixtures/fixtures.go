package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sweetyp18/meetpass-webapp/internal/application"
	"github.com/sweetyp18/meetpass-webapp/internal/persistence"
)

var (
	userCounter    uint64
	meetingCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account record that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	RegNo        string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         application.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		RegNo:        fmt.Sprintf("1MP%03d", idx),
		Email:        fmt.Sprintf("%s@example.edu", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         application.RoleStudent,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserRegNo overrides the generated registration number.
func WithUserRegNo(regno string) UserOption {
	return func(f *UserFixture) {
		f.RegNo = regno
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		RegNo:       f.RegNo,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{
		Identity:    f.RegNo,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		RegNo:        f.RegNo,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		Role:         string(f.Role),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture represents a deterministic meeting request record.
type MeetingFixture struct {
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
	Status           application.Status
	ApprovedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a deterministic meeting fixture with optional
// overrides. The default is a pending one-to-one request starting one day
// after the reference time.
func NewMeetingFixture(opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := referenceTime.Add(24*time.Hour + time.Duration(idx)*time.Minute)
	fixture := MeetingFixture{
		ID:               fmt.Sprintf("meeting-%03d", idx),
		Token:            fmt.Sprintf("SJU-%03d", idx),
		Scheduler:        fmt.Sprintf("scheduler-%03d@example.edu", idx),
		ParticipantEmail: fmt.Sprintf("participant-%03d@example.edu", idx),
		Purpose:          fmt.Sprintf("Purpose %03d", idx),
		Venue:            fmt.Sprintf("Venue %03d", idx),
		StartTime:        start,
		EndTime:          start.Add(time.Hour),
		Status:           application.StatusPending,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingID overrides the generated meeting ID.
func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) {
		f.ID = id
	}
}

// WithMeetingToken overrides the generated token.
func WithMeetingToken(token string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Token = token
	}
}

// WithMeetingScheduler overrides the scheduler identity.
func WithMeetingScheduler(email string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Scheduler = email
	}
}

// WithMeetingParticipant overrides the primary participant email.
func WithMeetingParticipant(email string) MeetingOption {
	return func(f *MeetingFixture) {
		f.ParticipantEmail = email
	}
}

// WithMeetingGroup marks the meeting as a group meeting with the provided
// additional participants.
func WithMeetingGroup(participants ...string) MeetingOption {
	return func(f *MeetingFixture) {
		f.IsGroup = true
		f.Participants = participants
	}
}

// WithMeetingWindow sets the start and end times on the fixture.
func WithMeetingWindow(start, end time.Time) MeetingOption {
	return func(f *MeetingFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithMeetingStatus sets the lifecycle status on the fixture.
func WithMeetingStatus(status application.Status) MeetingOption {
	return func(f *MeetingFixture) {
		f.Status = status
	}
}

// WithMeetingApprovedBy sets the approver identity on the fixture.
func WithMeetingApprovedBy(email string) MeetingOption {
	return func(f *MeetingFixture) {
		f.ApprovedBy = email
	}
}

// Application returns the fixture as an application.Meeting value.
func (f MeetingFixture) Application() application.Meeting {
	return application.Meeting{
		ID:               f.ID,
		Token:            f.Token,
		Scheduler:        f.Scheduler,
		ParticipantEmail: f.ParticipantEmail,
		IsGroup:          f.IsGroup,
		Participants:     append([]string(nil), f.Participants...),
		Purpose:          f.Purpose,
		Venue:            f.Venue,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		Status:           f.Status,
		ApprovedBy:       f.ApprovedBy,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Meeting value.
func (f MeetingFixture) Persistence() persistence.Meeting {
	return persistence.Meeting{
		ID:               f.ID,
		Token:            f.Token,
		Scheduler:        f.Scheduler,
		ParticipantEmail: f.ParticipantEmail,
		IsGroup:          f.IsGroup,
		Participants:     append([]string(nil), f.Participants...),
		Purpose:          f.Purpose,
		Venue:            f.Venue,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		Status:           string(f.Status),
		ApprovedBy:       f.ApprovedBy,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture valid for 24 hours
// from the reference time.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("session-token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID overrides the owning user ID.
func WithSessionUserID(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the session token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt sets the expiry instant on the fixture.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt marks the session revoked at the provided instant.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &t
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}
