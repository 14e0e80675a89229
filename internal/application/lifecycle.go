package application

import "time"

// InitialStatus selects the state a new meeting request enters. Staff-created
// requests auto-approve; ApprovedBy stays empty because no transition
// occurred.
func InitialStatus(role Role) Status {
	if role == RoleStaff {
		return StatusApproved
	}
	return StatusPending
}

// Transition applies an approve or reject decision to the meeting in place.
//
// The rules are enforced here, at the state-machine layer, independent of
// whatever a client hides:
//   - only Approved and Rejected are reachable targets,
//   - students never transition a meeting (ErrUnauthorized),
//   - Approved and Rejected are terminal (InvalidTransitionError).
//
// On success the meeting carries the new status, ApprovedBy records the
// acting staff identity, and UpdatedAt is set to now.
func Transition(meeting *Meeting, actor Principal, to Status, now time.Time) error {
	if to != StatusApproved && to != StatusRejected {
		return &InvalidTransitionError{From: meeting.Status, To: to}
	}
	if actor.Role != RoleStaff {
		return ErrUnauthorized
	}
	if !CanAct(actor, *meeting) {
		return &InvalidTransitionError{From: meeting.Status, To: to}
	}

	meeting.Status = to
	meeting.ApprovedBy = actor.Email
	meeting.UpdatedAt = now
	return nil
}
