// Package identity wraps the authentication provider. The app only ever
// talks to the Provider interface; credential verification itself is the
// provider's business.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/azharanas17/MyMoney-Notes/internal/auth"
	"github.com/azharanas17/MyMoney-Notes/internal/storage"
)

var (
	// ErrEmailTaken is returned by SignUp when the email is already registered.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials is returned by SignIn on a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrWeakPassword is returned by SignUp when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// Provider issues stable opaque user ids for email/password credentials.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
}

// LocalProvider is a self-hosted stand-in for a hosted auth service. It keeps
// bcrypt-hashed credentials in the local store and issues UUID user ids.
type LocalProvider struct {
	db *storage.DB
}

// NewLocalProvider creates a provider backed by db.
func NewLocalProvider(db *storage.DB) *LocalProvider {
	return &LocalProvider{db: db}
}

// SignUp registers an email/password pair and returns a fresh user id.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidCredentials
	}
	if len(password) < 6 {
		return "", ErrWeakPassword
	}

	if _, err := p.db.GetCredential(email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	userID := uuid.NewString()
	if err := p.db.CreateCredential(email, userID, hash); err != nil {
		return "", err
	}
	return userID, nil
}

// SignIn verifies an email/password pair and returns the stable user id.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	cred, err := p.db.GetCredential(strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(password, cred.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return cred.UserID, nil
}
