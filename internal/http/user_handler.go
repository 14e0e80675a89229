package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sweetyp18/meetpass-webapp/internal/application"
)

type userService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.User, error)
	GetProfile(ctx context.Context, principal application.Principal, regno string) (application.Profile, error)
}

type passwordResetService interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// UserHandler serves signup, dashboard, and password recovery.
type UserHandler struct {
	users     userService
	resets    passwordResetService
	responder responder
	logger    *slog.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users userService, resets passwordResetService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{users: users, resets: resets, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// Signup registers a new account.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Signup", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode signup request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Signup", "regno", strings.TrimSpace(req.RegNo))

	user, err := h.users.Register(r.Context(), application.RegisterParams{
		RegNo:       req.RegNo,
		DisplayName: req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        application.Role(req.Role),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "signup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "account created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, profileDTO{
		Name:  user.DisplayName,
		RegNo: user.RegNo,
		Email: user.Email,
		Role:  string(user.Role),
	})
}

// Dashboard returns the profile behind a registration number. The service
// enforces that principals may only read their own profile.
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	regno, _ := RegNoFromContext(r.Context())
	logger := h.log(r.Context(), "Dashboard", "regno", regno)

	profile, err := h.users.GetProfile(r.Context(), principal, regno)
	if err != nil {
		logger.ErrorContext(r.Context(), "dashboard lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, profileDTO{
		Name:  profile.Name,
		RegNo: profile.RegNo,
		Email: profile.Email,
		Role:  string(profile.Role),
	})
}

// ForgotPassword issues a password reset link. The response is identical for
// known and unknown addresses.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.resets == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ForgotPassword", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reset request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ForgotPassword")

	if err := h.resets.RequestPasswordReset(r.Context(), req.Email); err != nil {
		logger.ErrorContext(r.Context(), "reset request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{
		Message: "if the email is registered, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and replaces the account password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request, token string) {
	if h == nil || h.resets == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ResetPassword", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reset request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ResetPassword", "token_present", strings.TrimSpace(token) != "")

	if err := h.resets.ResetPassword(r.Context(), token, req.Password); err != nil {
		logger.ErrorContext(r.Context(), "password reset failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "password reset completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{
		Message: "password has been reset, please log in",
	})
}

type signupRequest struct {
	Name     string `json:"name"`
	RegNo    string `json:"regno"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type profileDTO struct {
	Name  string `json:"name"`
	RegNo string `json:"regno"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}
