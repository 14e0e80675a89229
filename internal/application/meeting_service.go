package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// MeetingRepository captures the persistence interactions for meeting requests.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	ListMeetingsFor(ctx context.Context, identity string) ([]Meeting, error)
	// UpdateMeetingStatus persists a transition out of Pending. It returns
	// ErrStaleTransition when the stored row already left Pending so the
	// service can surface InvalidTransitionError instead of overwriting a
	// concurrent decision.
	UpdateMeetingStatus(ctx context.Context, id string, status Status, approvedBy string, updatedAt time.Time) (Meeting, error)
}

// ErrStaleTransition is the repository-level signal that a conditional status
// update lost a race with another actor.
var ErrStaleTransition = errors.New("application: meeting already transitioned")

// ErrDuplicateMeetingToken is the repository-level signal that a generated
// token collided with a stored one.
var ErrDuplicateMeetingToken = errors.New("application: meeting token already in use")

// tokenRetryBudget bounds regeneration attempts when the 36^3 code space
// collides. The storage uniqueness constraint is the actual guarantee.
const tokenRetryBudget = 5

// MeetingService orchestrates validation, token assignment, authorization,
// and lifecycle transitions for meeting requests.
type MeetingService struct {
	meetings       MeetingRepository
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewMeetingService wires dependencies for the meeting service.
func NewMeetingService(meetings MeetingRepository, idGenerator, tokenGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, idGenerator, tokenGenerator, now, nil)
}

// NewMeetingServiceWithLogger constructs a MeetingService with a specified logger.
func NewMeetingServiceWithLogger(meetings MeetingRepository, idGenerator, tokenGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:       meetings,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *MeetingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// CreateMeeting validates the input and persists a new meeting request. The
// initial status follows the scheduler's role: staff requests auto-approve,
// student requests enter Pending. Token generation retries on storage-level
// collisions within a bounded budget.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}
	if params.Principal.Email == "" {
		return Meeting{}, ErrUnauthorized
	}

	normalized := normalizeMeetingInput(params.Input)
	if vErr := validateMeetingInput(normalized); vErr != nil {
		return Meeting{}, vErr
	}

	now := s.now()
	meeting := Meeting{
		ID:               s.idGenerator(),
		Scheduler:        params.Principal.Email,
		ParticipantEmail: normalized.ParticipantEmail,
		IsGroup:          normalized.IsGroup,
		Participants:     normalized.Participants,
		Purpose:          normalized.Purpose,
		Venue:            normalized.Venue,
		StartTime:        normalized.StartTime,
		EndTime:          normalized.EndTime,
		Status:           InitialStatus(params.Principal.Role),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	logger := s.loggerWith(ctx, "CreateMeeting",
		"scheduler", meeting.Scheduler,
		"initial_status", string(meeting.Status),
	)

	for attempt := 0; attempt < tokenRetryBudget; attempt++ {
		meeting.Token = s.tokenGenerator()

		persisted, err := s.meetings.CreateMeeting(ctx, meeting)
		if err != nil {
			if errors.Is(err, ErrDuplicateMeetingToken) {
				logger.WarnContext(ctx, "meeting token collision, regenerating", "attempt", attempt+1)
				continue
			}
			logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
			return Meeting{}, err
		}

		logger.With("meeting_id", persisted.ID, "token", persisted.Token).InfoContext(ctx, "meeting scheduled")
		return persisted, nil
	}

	logger.ErrorContext(ctx, "meeting token space exhausted", "attempts", tokenRetryBudget)
	return Meeting{}, ErrTokenSpaceExhausted
}

// ListUpcomingMeetings returns the meetings visible to the principal whose
// start time is strictly after now, ordered by start time. A principal may
// only list their own identity's meetings.
func (s *MeetingService) ListUpcomingMeetings(ctx context.Context, params ListMeetingsParams) ([]Meeting, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return nil, fmt.Errorf("meeting repository not configured")
	}

	identity := strings.TrimSpace(params.Identity)
	if identity == "" {
		identity = params.Principal.Email
	}
	if identity == "" || !strings.EqualFold(identity, params.Principal.Email) {
		return nil, ErrUnauthorized
	}

	meetings, err := s.meetings.ListMeetingsFor(ctx, params.Principal.Email)
	if err != nil {
		s.loggerWith(ctx, "ListUpcomingMeetings", "identity", params.Principal.Email).
			ErrorContext(ctx, "failed to list meetings", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	now := s.now()
	upcoming := make([]Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		if !meeting.StartTime.After(now) {
			continue
		}
		upcoming = append(upcoming, meeting)
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].StartTime.Equal(upcoming[j].StartTime) {
			return upcoming[i].ID < upcoming[j].ID
		}
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})

	return upcoming, nil
}

// ApproveMeeting transitions a pending meeting to Approved on behalf of a
// staff principal.
func (s *MeetingService) ApproveMeeting(ctx context.Context, principal Principal, meetingID string) (Meeting, error) {
	return s.transition(ctx, principal, meetingID, StatusApproved)
}

// RejectMeeting transitions a pending meeting to Rejected on behalf of a
// staff principal.
func (s *MeetingService) RejectMeeting(ctx context.Context, principal Principal, meetingID string) (Meeting, error) {
	return s.transition(ctx, principal, meetingID, StatusRejected)
}

func (s *MeetingService) transition(ctx context.Context, principal Principal, meetingID string, to Status) (result Meeting, err error) {
	if s == nil {
		err = fmt.Errorf("MeetingService is nil")
		return
	}
	if s.meetings == nil {
		err = fmt.Errorf("meeting repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Transition",
		"meeting_id", meetingID,
		"target_status", string(to),
		"actor", principal.Email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "meeting transition failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "meeting transitioned", "approved_by", result.ApprovedBy)
	}()

	var meeting Meeting
	meeting, err = s.meetings.GetMeeting(ctx, strings.TrimSpace(meetingID))
	if err != nil {
		return
	}

	// The durable record is authoritative for the transition decision; the
	// copy validates the rules before anything is written.
	if err = Transition(&meeting, principal, to, s.now()); err != nil {
		return
	}

	result, err = s.meetings.UpdateMeetingStatus(ctx, meeting.ID, meeting.Status, meeting.ApprovedBy, meeting.UpdatedAt)
	if err != nil {
		if errors.Is(err, ErrStaleTransition) {
			// Another actor won the race. Report the current stored state.
			current, getErr := s.meetings.GetMeeting(ctx, meeting.ID)
			if getErr != nil {
				err = getErr
				return
			}
			err = &InvalidTransitionError{From: current.Status, To: to}
		}
		return
	}

	return
}

func normalizeMeetingInput(input MeetingInput) MeetingInput {
	out := MeetingInput{
		ParticipantEmail: strings.TrimSpace(strings.ToLower(input.ParticipantEmail)),
		IsGroup:          input.IsGroup,
		Purpose:          strings.TrimSpace(input.Purpose),
		Venue:            strings.TrimSpace(input.Venue),
		StartTime:        input.StartTime,
		EndTime:          input.EndTime,
	}

	// Set semantics with entry order preserved for display.
	seen := make(map[string]struct{}, len(input.Participants))
	for _, participant := range input.Participants {
		trimmed := strings.TrimSpace(strings.ToLower(participant))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out.Participants = append(out.Participants, trimmed)
	}

	return out
}

// validateMeetingInput checks fields in a fixed order; the first failure wins
// so callers surface deterministic messages.
func validateMeetingInput(input MeetingInput) *ValidationError {
	if input.ParticipantEmail == "" {
		return &ValidationError{Field: "participantEmail", Message: "participant email is required"}
	}
	if _, err := mail.ParseAddress(input.ParticipantEmail); err != nil {
		return &ValidationError{Field: "participantEmail", Message: "participant email is invalid"}
	}
	if input.Purpose == "" {
		return &ValidationError{Field: "purpose", Message: "purpose is required"}
	}
	if input.Venue == "" {
		return &ValidationError{Field: "venue", Message: "venue is required"}
	}
	if input.StartTime.IsZero() {
		return &ValidationError{Field: "startTime", Message: "start time is required"}
	}
	if input.EndTime.IsZero() {
		return &ValidationError{Field: "endTime", Message: "end time is required"}
	}
	if !input.StartTime.Before(input.EndTime) {
		return &ValidationError{Field: "endTime", Message: "end time must be after start time"}
	}
	return nil
}
