package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/security/auth"
)

// AuthService handles registration and login. Tokens carry the username
// in the subject claim; verification re-checks the user still exists.
type AuthService struct {
	users       domain.UserRepository
	tokens      *auth.TokenManager
	tokenExpiry time.Duration
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	tokens *auth.TokenManager,
	tokenExpiry time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// AuthResult represents a successful register or login
type AuthResult struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	TokenType string `json:"token_type"`
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, errors.New("username already exists")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Error("failed to check username", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	return s.issueToken(user)
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Info("login attempt with unknown username", slog.String("username", username))
		return nil, errors.New("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		return nil, errors.New("invalid username or password")
	}

	s.logger.Info("user logged in",
		slog.Int("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return s.issueToken(user)
}

// VerifyToken validates a token and confirms the user still exists
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, claims.Username())
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username, s.tokenExpiry)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	return &AuthResult{
		UserID:    user.ID,
		Username:  user.Username,
		Token:     token,
		ExpiresIn: int(s.tokenExpiry.Seconds()),
		TokenType: "Bearer",
	}, nil
}
