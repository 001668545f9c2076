package persistence

import "time"

// User is a stored account row.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// AuthorizationGrant records that a user is entitled to open the door.
// At most one grant exists per user (unique constraint on user_id).
type AuthorizationGrant struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// GrantedUser joins a grant with the account it entitles, for listings.
type GrantedUser struct {
	UserID    string
	Email     string
	Name      string
	GrantedAt time.Time
}

// AuditEvent is an append-only record of a security decision. UserID is nil
// for visitor-originated events.
type AuditEvent struct {
	ID        string
	UserID    *string
	EventType string
	Result    string
	Details   *string
	CreatedAt time.Time
}

// AuditEntry is an audit event joined with the acting user, for listings.
type AuditEntry struct {
	Event     AuditEvent
	UserName  *string
	UserEmail *string
}

// EntryRequest is a visitor request to be let in. Status transitions exactly
// once from pending to accepted or refused.
type EntryRequest struct {
	ID           string
	VisitorName  string
	VisitorPhone *string
	Status       string
	RespondedBy  *string
	RespondedAt  *time.Time
	CreatedAt    time.Time
}
