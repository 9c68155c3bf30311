package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/diet-tracker/internal/config"
	"github.com/diet-tracker/internal/models"
	"github.com/diet-tracker/internal/repository"
	"github.com/diet-tracker/pkg/crypto"
	"github.com/diet-tracker/pkg/keygen"
)

var (
	ErrEmailNotFound      = errors.New("email not found")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrEmailTaken         = errors.New("email already taken")
	ErrSessionTaken       = errors.New("session already bound to an account")
)

// AuthService issues, validates and binds session ids to accounts
type AuthService struct {
	store     AccountStore
	ids       keygen.Generator
	loginTTL  time.Duration
	signupTTL time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(store AccountStore, sessionConfig config.SessionConfig) *AuthService {
	return &AuthService{
		store:     store,
		ids:       keygen.UUIDGenerator{},
		loginTTL:  time.Duration(sessionConfig.LoginTTLHours) * time.Hour,
		signupTTL: time.Duration(sessionConfig.SignupTTLHours) * time.Hour,
	}
}

// SignupRequest represents the signup request
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,maxbytes=72"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateCredentialsRequest represents a credential update. Password is the
// current password; every other field is applied only when non-empty.
type UpdateCredentialsRequest struct {
	Username    string `json:"username" binding:"omitempty,max=50"`
	Email       string `json:"email" binding:"omitempty,email,max=100"`
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"omitempty,maxbytes=72"`
}

// SessionGrant tells the transport which session id to hand out and for
// how long it should stay valid
type SessionGrant struct {
	SessionID string
	TTL       time.Duration
	State     SessionState
}

// ClassifyToken maps a presented session id onto the session state table
func (s *AuthService) ClassifyToken(ctx context.Context, token string) (SessionState, error) {
	if token == "" || !keygen.IsValid(token) {
		return StateAnonymous, nil
	}

	_, err := s.store.FindUserBySession(ctx, token)
	if err == nil {
		return StateBound, nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return StateIdentified, nil
	}
	return StateAnonymous, err
}

// Identify hands an anonymous visitor a session id that a later signup
// adopts. A presented id is kept as is.
func (s *AuthService) Identify(ctx context.Context, presentedToken string) (*SessionGrant, error) {
	state, err := s.ClassifyToken(ctx, presentedToken)
	if err != nil {
		return nil, err
	}
	tr, err := NextTransition(state, EventIdentify)
	if err != nil {
		return nil, err
	}

	sessionID := resolveToken(tr.Token, presentedToken, "", s.ids.NewID)
	return &SessionGrant{SessionID: sessionID, TTL: s.signupTTL, State: tr.Next}, nil
}

// Signup creates an account and its zeroed metrics row. An issued but
// unbound session id is adopted; otherwise a new one is minted.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest, presentedToken string) (*SessionGrant, error) {
	state, err := s.ClassifyToken(ctx, presentedToken)
	if err != nil {
		return nil, err
	}
	tr, err := NextTransition(state, EventSignup)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	sessionID := resolveToken(tr.Token, presentedToken, "", s.ids.NewID)

	user := &models.User{
		ID:           s.ids.NewID(),
		SessionID:    sessionID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	metrics := &models.Metrics{
		ID:        s.ids.NewID(),
		SessionID: sessionID,
	}

	if err := s.store.CreateAccount(ctx, user, metrics); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrDuplicateSession):
			// another signup adopted the same session id first
			return nil, ErrSessionTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.Printf("[AuthService] signup session=%s %s->%s", keygen.Mask(sessionID), state, tr.Next)

	return &SessionGrant{SessionID: sessionID, TTL: s.signupTTL, State: tr.Next}, nil
}

// Login checks the credentials and returns the account's existing session
// id. Nothing is written.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, presentedToken string) (*SessionGrant, error) {
	user, err := s.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, err
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	state, err := s.ClassifyToken(ctx, presentedToken)
	if err != nil {
		return nil, err
	}
	tr, err := NextTransition(state, EventLogin)
	if err != nil {
		return nil, err
	}

	sessionID := resolveToken(tr.Token, presentedToken, user.SessionID, s.ids.NewID)
	return &SessionGrant{SessionID: sessionID, TTL: s.loginTTL, State: tr.Next}, nil
}

// Validate returns the account bound to token
func (s *AuthService) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.store.FindUserBySession(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// UpdateCredentials re-checks the current password and applies the
// supplied fields in one write. It returns the names of the fields changed.
func (s *AuthService) UpdateCredentials(ctx context.Context, token string, req *UpdateCredentialsRequest) ([]string, error) {
	user, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	var (
		changes models.CredentialChanges
		updated []string
	)
	if req.Username != "" {
		changes.Username = &req.Username
		updated = append(updated, "username")
	}
	if req.Email != "" {
		if req.Email != user.Email {
			exists, err := s.store.EmailExists(ctx, req.Email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailTaken
			}
		}
		changes.Email = &req.Email
		updated = append(updated, "email")
	}
	if req.NewPassword != "" {
		passwordHash, err := crypto.HashPassword(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes.PasswordHash = &passwordHash
		updated = append(updated, "password")
	}

	if changes.Empty() {
		return []string{}, nil
	}

	if err := s.store.UpdateUser(ctx, token, changes); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUnauthenticated
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Printf("[AuthService] credentials updated session=%s fields=%v", keygen.Mask(token), updated)
	return updated, nil
}
