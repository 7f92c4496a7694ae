package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raycity/authserver/internal/password"
	"github.com/raycity/authserver/internal/store"
	"github.com/raycity/authserver/internal/token"
	"github.com/raycity/authserver/types"
)

// ErrMissingFields is returned when username or password is empty after
// trimming. The store is never touched in that case.
var ErrMissingFields = errors.New("missing username or password")

// ErrDuplicateUsername is returned when registration collides with an
// existing username.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrInvalidCredentials is returned for every login failure. Unknown
// username and wrong password deliberately share this one kind so the
// response cannot be used to enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the result of a successful login.
type Session struct {
	Username string
	Token    string
}

// AuthService orchestrates registration, login, and listing against one
// credential store. It is stateless per request.
type AuthService struct {
	store  store.CredentialStore
	issuer *token.Issuer
	logger *slog.Logger
}

func NewAuthService(credStore store.CredentialStore, issuer *token.Issuer, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{store: credStore, issuer: issuer, logger: logger}
}

// Register creates a new account. The password is hashed before it
// reaches the store; no session is issued.
func (s *AuthService) Register(ctx context.Context, username, pass string) error {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return ErrMissingFields
	}

	exists, err := s.store.Exists(ctx, username)
	if err != nil {
		s.logger.ErrorContext(ctx, "existence check failed", "error", err.Error())
		return fmt.Errorf("check user: %w", err)
	}
	if exists {
		return ErrDuplicateUsername
	}

	hashed, err := password.Hash(pass)
	if err != nil {
		s.logger.ErrorContext(ctx, "password hashing failed", "error", err.Error())
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.store.Insert(ctx, username, hashed); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return ErrDuplicateUsername
		}
		s.logger.ErrorContext(ctx, "insert failed", "error", err.Error())
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Login verifies credentials and issues a session token on match.
func (s *AuthService) Login(ctx context.Context, username, pass string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return Session{}, ErrMissingFields
	}

	user, err := s.store.Find(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "lookup failed", "error", err.Error())
		return Session{}, fmt.Errorf("find user: %w", err)
	}

	if !password.Verify(pass, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}

	signed, err := s.issuer.Issue(user.Username, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "token issuance failed", "error", err.Error())
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Username: user.Username, Token: signed}, nil
}

// ListUsers returns every account without credential fields.
func (s *AuthService) ListUsers(ctx context.Context) ([]types.UserSummary, error) {
	users, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "listing failed", "error", err.Error())
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
