package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sweetyp18/meetpass-webapp/internal/application"
)

type meetingService interface {
	CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.Meeting, error)
	ListUpcomingMeetings(ctx context.Context, params application.ListMeetingsParams) ([]application.Meeting, error)
	ApproveMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
	RejectMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
}

// MeetingHandler serves meeting scheduling, listing, and status decisions.
type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

// NewMeetingHandler constructs a MeetingHandler.
func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

// Create schedules a new meeting request for the authenticated principal.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Create", "scheduler", principal.Email)

	meeting, err := h.service.CreateMeeting(r.Context(), application.CreateMeetingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create meeting", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("meeting_id", meeting.ID, "token", meeting.Token).InfoContext(r.Context(), "meeting scheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMeetingDTO(meeting))
}

// List returns the principal's upcoming meetings ordered by start time.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "List", "identity", principal.Email)

	meetings, err := h.service.ListUpcomingMeetings(r.Context(), application.ListMeetingsParams{
		Principal: principal,
		Identity:  strings.TrimSpace(r.URL.Query().Get("identity")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list meetings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		dtos = append(dtos, toMeetingDTO(meeting))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

// UpdateStatus transitions a pending meeting to Approved or Rejected. The
// approver identity comes from the validated session; any approvedBy value in
// the body is ignored.
func (h *MeetingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok || strings.TrimSpace(meetingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateStatus",
		"meeting_id", meetingID,
		"target_status", req.Status,
		"actor", principal.Email,
	)

	var meeting application.Meeting
	var err error
	switch application.Status(strings.TrimSpace(req.Status)) {
	case application.StatusApproved:
		meeting, err = h.service.ApproveMeeting(r.Context(), principal, meetingID)
	case application.StatusRejected:
		meeting, err = h.service.RejectMeeting(r.Context(), principal, meetingID)
	default:
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			Field:   "status",
			Message: "status must be Approved or Rejected",
		})
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "status update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting status updated", "status", string(meeting.Status))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMeetingDTO(meeting))
}

type meetingRequest struct {
	ParticipantEmail string   `json:"participantEmail"`
	IsGroup          bool     `json:"isGroup"`
	Participants     []string `json:"participants"`
	Purpose          string   `json:"purpose"`
	Venue            string   `json:"venue"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
}

func (req meetingRequest) toInput() (application.MeetingInput, error) {
	start, err := parseMeetingTime(req.StartTime)
	if err != nil {
		return application.MeetingInput{}, &application.ValidationError{Field: "startTime", Message: "start time is invalid"}
	}
	end, err := parseMeetingTime(req.EndTime)
	if err != nil {
		return application.MeetingInput{}, &application.ValidationError{Field: "endTime", Message: "end time is invalid"}
	}

	return application.MeetingInput{
		ParticipantEmail: req.ParticipantEmail,
		IsGroup:          req.IsGroup,
		Participants:     req.Participants,
		Purpose:          req.Purpose,
		Venue:            req.Venue,
		StartTime:        start,
		EndTime:          end,
	}, nil
}

// parseMeetingTime accepts RFC 3339 and the wall-clock format emitted by
// datetime-local form inputs.
func parseMeetingTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02T15:04", trimmed); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, errors.New("unrecognized time format")
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

type meetingDTO struct {
	ID               string   `json:"id"`
	Token            string   `json:"token"`
	Scheduler        string   `json:"scheduler"`
	ParticipantEmail string   `json:"participantEmail"`
	IsGroup          bool     `json:"isGroup"`
	Participants     []string `json:"participants,omitempty"`
	Purpose          string   `json:"purpose"`
	Venue            string   `json:"venue"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	Status           string   `json:"status"`
	ApprovedBy       string   `json:"approvedBy,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	return meetingDTO{
		ID:               meeting.ID,
		Token:            meeting.Token,
		Scheduler:        meeting.Scheduler,
		ParticipantEmail: meeting.ParticipantEmail,
		IsGroup:          meeting.IsGroup,
		Participants:     meeting.Participants,
		Purpose:          meeting.Purpose,
		Venue:            meeting.Venue,
		StartTime:        meeting.StartTime.UTC().Format(time.RFC3339Nano),
		EndTime:          meeting.EndTime.UTC().Format(time.RFC3339Nano),
		Status:           string(meeting.Status),
		ApprovedBy:       meeting.ApprovedBy,
		CreatedAt:        meeting.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        meeting.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
