package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// CredentialStore exposes the account lookup required to authenticate.
type CredentialStore interface {
	GetAccountByEmail(ctx context.Context, email string) (UserAccount, error)
}

// AuthService validates credentials and issues signed access tokens.
type AuthService struct {
	credentials    CredentialStore
	verifyPassword PasswordVerifier
	tokens         *TokenService
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, verify PasswordVerifier, tokens *TokenService, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	return &AuthService{
		credentials:    credentials,
		verifyPassword: verify,
		tokens:         tokens,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a fresh token for the account.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token service not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var account UserAccount
	account, err = s.credentials.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(account.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	token, expiresAt, err := s.tokens.Issue(Principal{UserID: account.User.ID, Role: account.User.Role})
	if err != nil {
		return
	}

	result = AuthenticateResult{User: account.User, Token: token, ExpiresAt: expiresAt}
	return
}
