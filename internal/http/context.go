package http

import (
	"context"

	"github.com/sweetyp18/meetpass-webapp/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	meetingIDContextKey contextKey = "meeting_id"
	regnoContextKey     contextKey = "regno"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithMeetingID injects the meeting identifier resolved from the request path.
func ContextWithMeetingID(ctx context.Context, meetingID string) context.Context {
	return context.WithValue(ctx, meetingIDContextKey, meetingID)
}

// MeetingIDFromContext extracts a meeting identifier previously associated with the context.
func MeetingIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(meetingIDContextKey).(string)
	return id, ok
}

// ContextWithRegNo injects the registration number resolved from the request path.
func ContextWithRegNo(ctx context.Context, regno string) context.Context {
	return context.WithValue(ctx, regnoContextKey, regno)
}

// RegNoFromContext extracts a registration number previously associated with the context.
func RegNoFromContext(ctx context.Context) (string, bool) {
	regno, ok := ctx.Value(regnoContextKey).(string)
	return regno, ok
}
