package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/auth"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

// UserService implements user accounts and sessions.
type UserService struct {
	users      repository.UserRepository
	hasher     auth.PasswordHasher
	jwtManager *auth.JWTManager
	cascade    *Cascade
	locker     lock.Locker
	producer   EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	jwtManager *auth.JWTManager,
	cascade *Cascade,
	locker lock.Locker,
	producer EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		hasher:     hasher,
		jwtManager: jwtManager,
		cascade:    cascade,
		locker:     locker,
		producer:   producer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddUserInput holds the parameters for creating a user.
type AddUserInput struct {
	Username string
	Password string
	Role     string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Username string
	Password string
}

func validateCredentials(username, password string) error {
	if n := len([]rune(username)); n < minUsernameLength || n > maxUsernameLength {
		return apperrors.InvalidInput(fmt.Sprintf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
	}
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

// AddUser creates an account with zeroed rating counters. Role defaults to
// user.
func (s *UserService) AddUser(ctx context.Context, actor domain.Actor, input AddUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.create(ctx, input)
}

func (s *UserService) create(ctx context.Context, input AddUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if err := validateCredentials(username, input.Password); err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.IsValidRole(role) {
		return nil, apperrors.InvalidInput("role must be one of: " + strings.Join(domain.ValidRoles(), ", "))
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Reviews:      []domain.UserReview{},
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.producer.PublishUserCreated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.created event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	)

	out := user.Sanitized()
	return &out, nil
}

// ListUsers returns every account without password material.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}

// Profile returns the actor's own account.
func (s *UserService) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	out := user.Sanitized()
	return &out, nil
}

// DeleteUser removes an account through the cascade.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	return s.cascade.DeleteUser(ctx, actor, id)
}

// Login authenticates with username and password and returns a session.
// Unknown usernames and wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid username or password")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil, apperrors.Unauthorized("invalid username or password")
		}
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	out := user.Sanitized()
	return &out, tokens, nil
}

// Refresh exchanges a refresh token for a new pair. The role is re-read so
// a deleted account cannot refresh.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("account no longer exists")
		}
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", user.ID))
	return tokens, nil
}

// EnsureAdmin creates the bootstrap administrator when no admin exists. It
// reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	release, err := acquire(ctx, s.locker, adminsLockKey)
	if err != nil {
		return false, err
	}
	defer release()

	n, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if password == "" {
		return false, apperrors.InvalidInput("no administrator exists and BOOTSTRAP_ADMIN_PASSWORD is empty")
	}

	user, err := s.create(ctx, AddUserInput{Username: username, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	s.logger.InfoContext(ctx, "bootstrap administrator created", slog.String("user_id", user.ID))
	return true, nil
}

func (s *UserService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.AccessExpiry().Seconds()),
	}, nil
}
