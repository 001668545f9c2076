package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account persistence operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// GrantRepository answers and mutates door-opening entitlements.
type GrantRepository interface {
	IsAuthorized(ctx context.Context, userID string) (bool, error)
	CreateGrant(ctx context.Context, grant AuthorizationGrant) error
	DeleteGrant(ctx context.Context, userID string) error
	ListGrantedUsers(ctx context.Context) ([]GrantedUser, error)
}

// AuditRepository is the append-only sink for security events. Records are
// never updated or deleted once written.
type AuditRepository interface {
	AppendEvent(ctx context.Context, event AuditEvent) error
	ListEvents(ctx context.Context, limit int) ([]AuditEntry, error)
}

// EntryRequestRepository stores visitor entry requests.
type EntryRequestRepository interface {
	CreateEntryRequest(ctx context.Context, request EntryRequest) error
	GetEntryRequest(ctx context.Context, id string) (EntryRequest, error)
	ListPendingEntryRequests(ctx context.Context) ([]EntryRequest, error)
	// ResolveEntryRequest transitions a pending request to the given terminal
	// status. It returns ErrNotFound when no row matches the id and
	// ErrConstraintViolation when the request is no longer pending.
	ResolveEntryRequest(ctx context.Context, id, status, respondedBy string, respondedAt time.Time) error
}
