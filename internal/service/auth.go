// Package service holds the business rules of the tracker. It sits between
// the HTTP handlers and the repositories:
//
//	handler (HTTP) -> service (rules) -> repository (SQL)
//
// Services return apperror values for every expected failure so the handler
// layer can map them to status codes without inspecting messages.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/auth"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/repository"
)

const (
	msgCredentialsRequired = "Email and password required"
	msgInvalidCredentials  = "Invalid credentials"
	msgPasswordTooLong     = "Password must be 72 bytes or fewer"

	// oauthPasswordMarker is stored for accounts created through GitHub.
	// It is not a bcrypt hash, so password login never matches it.
	oauthPasswordMarker = "!oauth:github"
)

// AuthService registers users and issues tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is what a successful register or login returns to the client.
type AuthResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// Register creates an account and signs the new user in.
//
// The email is trimmed and otherwise stored as given; the password is used
// verbatim. An email already on file is a conflict, including when two
// registrations race and the unique index decides.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperror.ValidationFailed("email", msgCredentialsRequired)
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("User already exists")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", msgPasswordTooLong)
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Name:         normalizeName(in.Name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))

	return s.issue(user)
}

// Login checks the credentials and issues a token. An unknown email and a
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", msgCredentialsRequired)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("stored password hash unusable", slog.Int64("userID", user.ID))
		}
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return s.issue(user)
}

// LoginWithGitHub signs in the account whose email matches the GitHub
// profile, creating it on first use.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || strings.TrimSpace(ghUser.Email) == "" {
		return nil, apperror.Unauthorized("GitHub account has no email")
	}
	email := strings.TrimSpace(ghUser.Email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if user == nil {
		name := ghUser.Name
		if name == "" {
			name = ghUser.Login
		}
		user = &model.User{
			Name:         normalizeName(&name),
			Email:        email,
			PasswordHash: oauthPasswordMarker,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			if !errors.Is(err, apperror.ErrConflict) {
				return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
			}
			if user, err = s.users.GetUserByEmail(ctx, email); err != nil {
				return nil, fmt.Errorf("service/auth: reloading GitHub user: %w", err)
			}
		} else {
			s.logger.Info("user registered via GitHub",
				slog.Int64("userID", user.ID),
				slog.String("login", ghUser.Login),
			)
		}
	}

	return s.issue(user)
}

// CurrentUser returns the public profile of the authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}
	pub := user.Public()
	return &pub, nil
}

// ValidateToken returns the user id encoded in a bearer token.
func (s *AuthService) ValidateToken(tokenStr string) (int64, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return 0, apperror.Unauthorized("Unauthorized")
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// normalizeName trims name and maps blank to nil.
func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
