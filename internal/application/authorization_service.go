package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// GrantStore answers and mutates door-opening entitlements. Grants are
// unique per user; revoking an absent grant is a no-op.
type GrantStore interface {
	IsAuthorized(ctx context.Context, userID string) (bool, error)
	CreateGrant(ctx context.Context, grantID, userID string, grantedAt time.Time) error
	DeleteGrant(ctx context.Context, userID string) error
	ListGrantedUsers(ctx context.Context) ([]GrantedUser, error)
}

// AuthorizationService manages the list of principals entitled to open the
// door. Every operation is restricted to administrators.
type AuthorizationService struct {
	grants      GrantStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuthorizationService wires dependencies for the authorization service.
func NewAuthorizationService(grants GrantStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthorizationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthorizationService{
		grants:      grants,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthorizationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthorizationService", operation, attrs...)
}

// ListGrantedUsers returns every user holding a grant.
func (s *AuthorizationService) ListGrantedUsers(ctx context.Context, principal Principal) ([]GrantedUser, error) {
	if s == nil {
		return nil, fmt.Errorf("AuthorizationService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.grants == nil {
		return nil, nil
	}

	return s.grants.ListGrantedUsers(ctx)
}

// Grant entitles a user to open the door. Granting an already entitled user
// fails with ErrAlreadyGranted; no partial mutation is applied.
func (s *AuthorizationService) Grant(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("AuthorizationService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}
	if s.grants == nil {
		return fmt.Errorf("grant store not configured")
	}
	if userID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user id is required")
		return vErr
	}

	logger := s.loggerWith(ctx, "Grant", "actor_id", principal.UserID, "user_id", userID)

	if err := s.grants.CreateGrant(ctx, s.idGenerator(), userID, s.now()); err != nil {
		logger.ErrorContext(ctx, "grant failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "door access granted")
	return nil
}

// Revoke removes a user's entitlement. Revoking an absent grant succeeds.
func (s *AuthorizationService) Revoke(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("AuthorizationService is nil")
	}
	if !principal.IsAdmin() {
		return ErrForbidden
	}
	if s.grants == nil {
		return fmt.Errorf("grant store not configured")
	}
	if userID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user id is required")
		return vErr
	}

	logger := s.loggerWith(ctx, "Revoke", "actor_id", principal.UserID, "user_id", userID)

	if err := s.grants.DeleteGrant(ctx, userID); err != nil {
		logger.ErrorContext(ctx, "revoke failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "door access revoked")
	return nil
}
