package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// CredentialStore exposes the credential lookup required to authenticate users.
type CredentialStore interface {
	// GetUserCredentials returns ErrNotFound for unknown usernames.
	GetUserCredentials(ctx context.Context, username string) (UserCredentials, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// CredentialChecker resolves a username/password pair to a user. Unknown
// users still pay for a hash verification so both failure paths take
// comparable time.
type CredentialChecker struct {
	store  CredentialStore
	verify PasswordVerifier
	logger *slog.Logger
	decoy  func() string
}

// NewCredentialChecker constructs a CredentialChecker using argon2id verification.
func NewCredentialChecker(store CredentialStore) *CredentialChecker {
	return NewCredentialCheckerWithLogger(store, nil, nil)
}

// NewCredentialCheckerWithLogger constructs a CredentialChecker with a specified verifier and logger.
func NewCredentialCheckerWithLogger(store CredentialStore, verify PasswordVerifier, logger *slog.Logger) *CredentialChecker {
	if verify == nil {
		verify = VerifyPassword
	}
	return &CredentialChecker{
		store:  store,
		verify: verify,
		logger: defaultLogger(logger),
		decoy:  decoyHash(DefaultHashParams),
	}
}

// Check reports whether credential matches username. The boolean is false for
// unknown users and wrong credentials; err is reserved for store failures.
func (c *CredentialChecker) Check(ctx context.Context, username, credential string) (User, bool, error) {
	if c == nil || c.store == nil {
		return User{}, false, fmt.Errorf("credential store not configured")
	}

	username = strings.TrimSpace(username)
	if username == "" || credential == "" {
		return User{}, false, nil
	}

	creds, err := c.store.GetUserCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if decoy := c.decoy(); decoy != "" {
				_ = c.verify(decoy, credential)
			}
			return User{}, false, nil
		}
		return User{}, false, err
	}

	if err := c.verify(creds.PasswordHash, credential); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			serviceLogger(ctx, c.logger, "CredentialChecker", "Check").
				WarnContext(ctx, "stored password hash is unusable", "user_id", creds.User.ID, "error", err)
		}
		return User{}, false, nil
	}
	return creds.User, true, nil
}
