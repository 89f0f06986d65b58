package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/splitbook/splitbook/internal/auth"
	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// AuthService handles account registration and login, pairing the password
// authenticator with token issuance.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
}

// NewAuthService creates an AuthService.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
	}
}

// Session is the result of a successful registration or login.
type Session struct {
	User  *models.User
	Token string
}

// Register creates a new account and returns a session for it.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*Session, error) {
	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials and returns a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	slog.Info("User logged in", "user_id", user.ID)
	return &Session{User: user, Token: token}, nil
}

// UpdateProfile changes the user's display name and stamps UpdatedAt.
// Email and password stay immutable here.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("display name required: %w", models.ErrInvalidInput)
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	user.UpdatedAt = time.Now().Unix()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		slog.Error("UpdateUser failed", "user_id", userID, "error", err)
		return nil, err
	}
	slog.Info("Profile updated", "user_id", userID)
	return user, nil
}

// Me returns the account behind an authenticated user ID.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	return user, nil
}
