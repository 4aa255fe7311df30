package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bnema/taskgate/internal/domain"
	"github.com/bnema/taskgate/internal/ports"
)

const DefaultMaxLoginAttempts = 3

// CredentialPrompt supplies one username/password pair per attempt.
type CredentialPrompt func(ctx context.Context, attempt int) (username, password string, err error)

type AuthService struct {
	verifier ports.CredentialVerifier
	logger   *slog.Logger
}

func NewAuthService(verifier ports.CredentialVerifier, logger *slog.Logger) *AuthService {
	return &AuthService{
		verifier: verifier,
		logger:   loggerOrDiscard(logger),
	}
}

// Login verifies the credentials and, only on a match, authenticates session.
func (a *AuthService) Login(ctx context.Context, session *Session, username, password string) (domain.Principal, error) {
	principal, err := a.verifier.Verify(ctx, username, password)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("verify credentials: %w", err)
	}

	if err := session.Login(principal.DisplayName, principal.ID); err != nil {
		return domain.Principal{}, fmt.Errorf("start session: %w", err)
	}

	return principal, nil
}

// LoginWithRetries prompts up to maxAttempts times. Only rejected credentials
// are retried; configuration and prompt errors end the loop immediately.
func (a *AuthService) LoginWithRetries(ctx context.Context, session *Session, maxAttempts int, prompt CredentialPrompt) (domain.Principal, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Principal{}, err
		}

		username, password, err := prompt(ctx, attempt)
		if err != nil {
			return domain.Principal{}, fmt.Errorf("read credentials: %w", err)
		}

		principal, err := a.Login(ctx, session, username, password)
		if err == nil {
			return principal, nil
		}
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			return domain.Principal{}, err
		}

		lastErr = err
		a.logger.Warn("login attempt rejected", "attempt", attempt, "remaining", maxAttempts-attempt)
	}

	return domain.Principal{}, fmt.Errorf("%w: %d failed login attempts: %w", domain.ErrUnauthenticated, maxAttempts, lastErr)
}
