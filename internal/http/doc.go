// Package http provides HTTP handlers and middleware for the meeting pass API.
//
// The router exposes the following endpoints:
//   - POST /signup: registers an account. Body: {"name","regno","email","password","role"}.
//   - POST /login-regno: issues a session token. Body: {"regno","password"}. Response:
//     {"token","expiresAt","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the Authorization
//     header or session cookie. Returns 204 No Content and clears the cookie.
//   - POST /forgot-password: issues a password reset link. Body: {"email"}. Always
//     responds 200 so the endpoint cannot be used to enumerate accounts.
//   - POST /reset-password/{token}: consumes a reset token. Body: {"password"}.
//   - GET /dashboard/{regno}: returns the authenticated principal's profile. A
//     principal may only read their own registration number.
//   - POST /meetings, GET /meetings: schedules a meeting request and lists the
//     principal's upcoming meetings, exchanging the `meetingDTO` payload defined in
//     meeting_handler.go. Staff-created requests auto-approve; student requests
//     enter Pending.
//   - PATCH /meetings/{id}: transitions a pending request to Approved or Rejected.
//     Staff only; the approver identity is taken from the validated session, never
//     from the request body.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
