package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CodeStore keeps hashed one-time codes keyed by email until they expire.
type CodeStore interface {
	SaveCode(ctx context.Context, email, hash string, ttl time.Duration) error
	LoadCode(ctx context.Context, email string) (hash string, ok bool, err error)
	// DeleteCode reports whether a code was removed, so that concurrent verifications
	// of the same code cannot both succeed.
	DeleteCode(ctx context.Context, email string) (bool, error)
}

// CodeSender delivers a one-time code to its owner.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogCodeSender writes codes to the log. It stands in for a real delivery channel.
type LogCodeSender struct {
	Logger *slog.Logger
}

// SendCode implements CodeSender.
func (s LogCodeSender) SendCode(ctx context.Context, email, code string) error {
	defaultLogger(s.Logger).InfoContext(ctx, "one-time code issued", "email", email, "code", code)
	return nil
}

// AuthService implements passwordless login: a one-time code is requested for an email
// and exchanged for a bearer token.
type AuthService struct {
	users        UserRepository
	codes        CodeStore
	sender       CodeSender
	tokens       *TokenIssuer
	idGenerator  func() string
	now          func() time.Time
	codeTTL      time.Duration
	generateCode func() (string, error)
	hashParams   Argon2idParams
	logger       *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserRepository, codes CodeStore, sender CodeSender, tokens *TokenIssuer, idGenerator func() string, now func() time.Time, codeTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, codes, sender, tokens, idGenerator, now, codeTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserRepository, codes CodeStore, sender CodeSender, tokens *TokenIssuer, idGenerator func() string, now func() time.Time, codeTTL time.Duration, logger *slog.Logger) *AuthService {
	logger = defaultLogger(logger)
	if sender == nil {
		sender = LogCodeSender{Logger: logger}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	return &AuthService{
		users:        users,
		codes:        codes,
		sender:       sender,
		tokens:       tokens,
		idGenerator:  idGenerator,
		now:          now,
		codeTTL:      codeTTL,
		generateCode: GenerateCode,
		hashParams:   DefaultArgon2idParams,
		logger:       logger,
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// RequestCode issues a code for the email. When the email is unknown and a name is
// supplied a student account is created first.
func (s *AuthService) RequestCode(ctx context.Context, params RequestCodeParams) (err error) {
	if s == nil || s.users == nil || s.codes == nil {
		return fmt.Errorf("AuthService not configured")
	}

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	logger := s.loggerWith(ctx, "RequestCode", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue code", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "code issued")
	}()

	if vErr := validateStruct(params); vErr.HasErrors() {
		return vErr
	}

	if _, err = s.users.GetUserByEmail(ctx, params.Email); err != nil {
		if !errors.Is(mapUserRepoError(err), ErrNotFound) {
			return mapUserRepoError(err)
		}
		err = nil
		if params.Name != "" {
			if _, err = s.createStudent(ctx, params.Email, params.Name); err != nil {
				return err
			}
		}
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := HashCode(code, s.hashParams)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err = s.codes.SaveCode(ctx, params.Email, hash, s.codeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err = s.sender.SendCode(ctx, params.Email, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// VerifyCode consumes a matching, unexpired code and returns a bearer token. Unknown
// emails get a student account named after the local part of the address.
func (s *AuthService) VerifyCode(ctx context.Context, params VerifyCodeParams) (result AuthResult, err error) {
	if s == nil || s.users == nil || s.codes == nil || s.tokens == nil {
		err = fmt.Errorf("AuthService not configured")
		return
	}

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Code = strings.TrimSpace(params.Code)

	logger := s.loggerWith(ctx, "VerifyCode", "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "code verification failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "code verified")
	}()

	if vErr := validateStruct(params); vErr.HasErrors() {
		err = vErr
		return
	}

	hash, ok, err := s.codes.LoadCode(ctx, params.Email)
	if err != nil {
		err = fmt.Errorf("load code: %w", err)
		return
	}
	if !ok || CompareCode(hash, params.Code) != nil {
		err = ErrInvalidCode
		return
	}
	deleted, err := s.codes.DeleteCode(ctx, params.Email)
	if err != nil {
		err = fmt.Errorf("delete code: %w", err)
		return
	}
	if !deleted {
		err = ErrInvalidCode
		return
	}

	user, err := s.users.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if !errors.Is(mapUserRepoError(err), ErrNotFound) {
			err = mapUserRepoError(err)
			return
		}
		if user, err = s.createStudent(ctx, params.Email, localPart(params.Email)); err != nil {
			return
		}
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return
	}
	result = AuthResult{Token: token, ExpiresAt: expiresAt, User: user}
	return
}

// ValidateToken resolves a bearer token to a principal. The role is read from storage
// so that role changes take effect before the token expires.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.users == nil || s.tokens == nil {
		return Principal{}, fmt.Errorf("AuthService not configured")
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(mapUserRepoError(err), ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, err
	}
	return Principal{UserID: user.ID, Role: user.Role}, nil
}

func (s *AuthService) createStudent(ctx context.Context, email, name string) (User, error) {
	now := s.now()
	user, err := s.users.CreateUser(ctx, User{
		ID:        s.idGenerator(),
		Email:     email,
		Name:      name,
		Role:      RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(mapUserRepoError(err), ErrAlreadyExists) {
			// Created concurrently by another request.
			return s.users.GetUserByEmail(ctx, email)
		}
		return User{}, mapUserRepoError(err)
	}
	return user, nil
}
