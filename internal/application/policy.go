package application

// CanView reports whether the principal participates in the meeting as
// scheduler, primary participant, or group participant. List queries are
// keyed server-side by the requester's identity; this check guards direct
// lookups.
func CanView(principal Principal, meeting Meeting) bool {
	identity := principal.Email
	if identity == "" {
		return false
	}
	if meeting.Scheduler == identity || meeting.ParticipantEmail == identity {
		return true
	}
	for _, participant := range meeting.Participants {
		if participant == identity {
			return true
		}
	}
	return false
}

// CanAct reports whether the principal may approve or reject the meeting.
// Only staff act, and only while the request is Pending. Staff are not
// blocked from acting on meetings they scheduled or participate in.
func CanAct(principal Principal, meeting Meeting) bool {
	return principal.Role == RoleStaff && meeting.Status == StatusPending
}
