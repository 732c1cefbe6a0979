package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// UserRepository captures the persistence operations needed for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	SetStaffroom(ctx context.Context, userID string, staffroomID *string, updatedAt time.Time) error
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID, "role", user.Role).InfoContext(ctx, "user created")
	}()

	if err = authorize(params.Principal, ActionUsersManage); err != nil {
		return
	}

	input := normalizeUserInput(params.Input)
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	user, err = s.users.CreateUser(ctx, s.newUser(input.Email, input.Name, input.Role))
	if err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// ListUsers returns accounts for administrators, optionally restricted to one role.
func (s *UserService) ListUsers(ctx context.Context, principal Principal, role Role) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := authorize(principal, ActionUsersManage); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, newValidationError("role", "role must be one of: student, faculty, admin")
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx, UserFilter{Role: role})
	if err != nil {
		return nil, mapUserRepoError(err)
	}

	out := make([]User, len(users))
	copy(out, users)
	sortUsersByEmail(out)
	return out, nil
}

// Me returns the account of the calling principal.
func (s *UserService) Me(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if err := authorize(principal, ActionUsersMe); err != nil {
		return User{}, err
	}
	if s.users == nil {
		return User{}, ErrNotFound
	}
	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}

// EnsureAdmin makes sure an administrator account exists for email, promoting nothing:
// an existing account with another role is reported as a conflict.
func (s *UserService) EnsureAdmin(ctx context.Context, email string) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}
	email = strings.ToLower(strings.TrimSpace(email))

	logger := s.loggerWith(ctx, "EnsureAdmin", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to ensure admin account", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "admin account ready")
	}()

	if vErr := validateStruct(RequestCodeParams{Email: email}); vErr.HasErrors() {
		err = vErr
		return
	}

	user, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role != RoleAdmin {
			err = &ConflictError{Resource: "user", ConflictingID: user.ID}
		}
		return
	case !errors.Is(mapUserRepoError(err), ErrNotFound):
		err = mapUserRepoError(err)
		return
	}

	user, err = s.users.CreateUser(ctx, s.newUser(email, localPart(email), RoleAdmin))
	if err != nil {
		err = mapUserRepoError(err)
	}
	return
}

func (s *UserService) newUser(email, name string, role Role) User {
	now := s.now()
	return User{
		ID:        s.idGenerator(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Name:  strings.TrimSpace(input.Name),
		Role:  Role(strings.ToLower(strings.TrimSpace(string(input.Role)))),
	}
}

func sortUsersByEmail(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if strings.EqualFold(users[i].Email, users[j].Email) {
			return users[i].ID < users[j].ID
		}
		return strings.ToLower(users[i].Email) < strings.ToLower(users[j].Email)
	})
}

func sortUsersByName(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if strings.EqualFold(users[i].Name, users[j].Name) {
			return users[i].ID < users[j].ID
		}
		return strings.ToLower(users[i].Name) < strings.ToLower(users[j].Name)
	})
}

// localPart returns the part of an email address before the @.
func localPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("user", "user attributes violate a constraint")
	}
	return err
}
