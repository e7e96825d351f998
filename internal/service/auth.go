package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/archipelago/notes-api/internal/auth"
	"github.com/archipelago/notes-api/internal/domain"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/id"
	"github.com/archipelago/notes-api/internal/store"
	"github.com/archipelago/notes-api/internal/validation"
)

// AuthService handles registration and login. Tokens are stateless, so
// logout is a transport concern (the cookie is cleared) and needs no
// server state.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	hasher    *auth.PasswordHasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokens *auth.TokenService, hasher *auth.PasswordHasher, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		validator: validation.New(),
		logger:    logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"max=128"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthResponse is the outcome of a successful register or login.
type AuthResponse struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Entity:       domain.Entity{ID: id.New()},
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()
	user.RecordLogin(now)

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return s.issue(user)
}

// Login verifies credentials and issues an access token. Unknown email
// and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	invalid := domainerrors.InvalidCredentials("invalid email or password")

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", "user_id", user.ID)
		return nil, invalid
	}

	now := time.Now().UTC()
	if err := s.store.TouchUserLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record login", "user_id", user.ID, "error", err)
	} else {
		user.RecordLogin(now)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return s.issue(user)
}

// VerifyAccessToken validates a token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}
	return claims, nil
}

// AccessTokenDuration returns the lifetime of issued tokens.
func (s *AuthService) AccessTokenDuration() time.Duration {
	return s.tokens.AccessTokenDuration()
}

func (s *AuthService) issue(user *domain.User) (*AuthResponse, error) {
	issued, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResponse{
		User:        user,
		AccessToken: issued.Token,
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
