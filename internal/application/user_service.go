package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUserByRegNo(ctx context.Context, regno string) (User, error)
}

// regnoPattern is the registration number rule enforced before any storage
// call: a leading digit followed by at least four alphanumerics.
var regnoPattern = regexp.MustCompile(`^[0-9][A-Za-z0-9]{4,}$`)

// UserService orchestrates validation and persistence for accounts.
type UserService struct {
	users        UserRepository
	idGenerator  func() string
	hashPassword func(password string) (string, error)
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		idGenerator: idGenerator,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		now:    now,
		logger: defaultLogger(logger),
	}
}

// SetPasswordHasher overrides the password hashing function. Tests use this to
// avoid the cost of argon2id.
func (s *UserService) SetPasswordHasher(hash func(password string) (string, error)) {
	if s == nil || hash == nil {
		return
	}
	s.hashPassword = hash
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register validates a signup request and persists the new account. The role
// is fixed at creation; there is no promotion path.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	normalized := normalizeRegisterParams(params)
	logger := s.loggerWith(ctx, "Register", "regno", normalized.RegNo, "role", string(normalized.Role))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "account registered")
	}()

	if vErr := validateRegisterParams(normalized); vErr != nil {
		err = vErr
		return
	}

	hash, hashErr := s.hashPassword(normalized.Password)
	if hashErr != nil {
		err = hashErr
		return
	}

	now := s.now()
	candidate := User{
		ID:          s.idGenerator(),
		RegNo:       normalized.RegNo,
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		Role:        normalized.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	user, err = s.users.CreateUser(ctx, candidate, hash)
	return
}

// GetProfile returns the dashboard view for the given registration number.
// Principals may only read their own profile.
func (s *UserService) GetProfile(ctx context.Context, principal Principal, regno string) (Profile, error) {
	if s == nil {
		return Profile{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return Profile{}, fmt.Errorf("user repository not configured")
	}

	trimmed := strings.TrimSpace(regno)
	if trimmed == "" || !strings.EqualFold(trimmed, principal.Identity) {
		return Profile{}, ErrUnauthorized
	}

	user, err := s.users.GetUserByRegNo(ctx, trimmed)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		Name:  user.DisplayName,
		RegNo: user.RegNo,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

func normalizeRegisterParams(params RegisterParams) RegisterParams {
	return RegisterParams{
		RegNo:       strings.TrimSpace(params.RegNo),
		DisplayName: strings.TrimSpace(params.DisplayName),
		Email:       strings.TrimSpace(strings.ToLower(params.Email)),
		Password:    params.Password,
		Role:        Role(strings.TrimSpace(strings.ToLower(string(params.Role)))),
	}
}

// validateRegisterParams checks signup fields in a fixed order; the first
// failure wins.
func validateRegisterParams(params RegisterParams) *ValidationError {
	if params.RegNo == "" {
		return &ValidationError{Field: "regno", Message: "registration number is required"}
	}
	if !regnoPattern.MatchString(params.RegNo) {
		return &ValidationError{Field: "regno", Message: "registration number must start with a digit and be at least 5 alphanumeric characters"}
	}
	if params.DisplayName == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if params.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return &ValidationError{Field: "email", Message: "email is invalid"}
	}
	if params.Password == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	if !params.Role.Valid() {
		return &ValidationError{Field: "role", Message: "role must be student or staff"}
	}
	return nil
}
