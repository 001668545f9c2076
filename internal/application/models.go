package application

import "time"

// Roles assignable to an account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal represents the authenticated actor invoking a service method.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account exposed by the application services. The
// password hash never leaves the credential store.
type User struct {
	ID         string
	Email      string
	Name       string
	Role       string
	CreatedAt  time.Time
	Authorized bool
}

// UserAccount models the authentication attributes persisted for a user.
type UserAccount struct {
	User         User
	PasswordHash string
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email    string
	Password string
	Name     string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// GrantedUser describes a user holding a door-opening grant.
type GrantedUser struct {
	UserID    string
	Email     string
	Name      string
	GrantedAt time.Time
}

// Audit event types.
const (
	EventDoorOpen     = "door_open"
	EventAlarm        = "alarm"
	EventEntryRequest = "entry_request"
)

// Audit event results.
const (
	ResultSuccess   = "success"
	ResultRefused   = "refused"
	ResultError     = "error"
	ResultTriggered = "triggered"
	ResultStopped   = "stopped"
	ResultAccepted  = "accepted"
)

// AuditEvent is an immutable record of a security decision. UserID is nil for
// visitor flows.
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

// Entry request statuses.
const (
	EntryStatusPending  = "pending"
	EntryStatusAccepted = "accepted"
	EntryStatusRefused  = "refused"
)

// DefaultVisitorName is stored when a visitor submits a blank name.
const DefaultVisitorName = "Visiteur"

// EntryRequest is a visitor request to be let in.
type EntryRequest struct {
	ID           string
	VisitorName  string
	VisitorPhone *string
	Status       string
	RespondedBy  *string
	RespondedAt  *time.Time
	CreatedAt    time.Time
}

// CreateEntryRequestParams captures the visitor supplied fields.
type CreateEntryRequestParams struct {
	VisitorName  string
	VisitorPhone string
}

// RespondEntryRequestParams wraps the data required to resolve an entry request.
type RespondEntryRequestParams struct {
	Principal Principal
	RequestID string
	Accept    bool
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful login.
type AuthenticateResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}
