package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/door-security/internal/application"
	"github.com/example/door-security/internal/persistence"
)

var (
	userCounter    uint64
	requestCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		Name:         fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         application.RoleUser,
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserRole overrides the generated role.
func WithUserRole(role string) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserCreatedAt sets the created timestamp on the fixture.
func WithUserCreatedAt(t time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = t
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Email:     f.Email,
		Name:      f.Name,
		Role:      f.Role,
		CreatedAt: f.CreatedAt,
	}
}

// Account returns the fixture as an application.UserAccount.
func (f UserFixture) Account() application.UserAccount {
	return application.UserAccount{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		Name:         f.Name,
		PasswordHash: f.PasswordHash,
		Role:         f.Role,
		CreatedAt:    f.CreatedAt,
	}
}

// Principal returns the fixture as an application.Principal.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// EntryRequestFixture represents a deterministic visitor request.
type EntryRequestFixture struct {
	ID           string
	VisitorName  string
	VisitorPhone string
	Status       string
	CreatedAt    time.Time
}

// EntryRequestOption configures the generated entry request fixture.
type EntryRequestOption func(*EntryRequestFixture)

// NewEntryRequestFixture returns a deterministic pending entry request.
func NewEntryRequestFixture(opts ...EntryRequestOption) EntryRequestFixture {
	idx := atomic.AddUint64(&requestCounter, 1)
	fixture := EntryRequestFixture{
		ID:          fmt.Sprintf("request-%03d", idx),
		VisitorName: fmt.Sprintf("Visitor %03d", idx),
		Status:      application.EntryStatusPending,
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRequestID overrides the generated request ID.
func WithRequestID(id string) EntryRequestOption {
	return func(f *EntryRequestFixture) {
		f.ID = id
	}
}

// WithVisitorName overrides the generated visitor name.
func WithVisitorName(name string) EntryRequestOption {
	return func(f *EntryRequestFixture) {
		f.VisitorName = name
	}
}

// WithVisitorPhone sets the visitor phone number.
func WithVisitorPhone(phone string) EntryRequestOption {
	return func(f *EntryRequestFixture) {
		f.VisitorPhone = phone
	}
}

// WithRequestStatus overrides the generated status.
func WithRequestStatus(status string) EntryRequestOption {
	return func(f *EntryRequestFixture) {
		f.Status = status
	}
}

// Application returns the fixture as an application.EntryRequest.
func (f EntryRequestFixture) Application() application.EntryRequest {
	request := application.EntryRequest{
		ID:          f.ID,
		VisitorName: f.VisitorName,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
	}
	if f.VisitorPhone != "" {
		phone := f.VisitorPhone
		request.VisitorPhone = &phone
	}
	return request
}

// Persistence returns the fixture as a persistence.EntryRequest value.
func (f EntryRequestFixture) Persistence() persistence.EntryRequest {
	request := persistence.EntryRequest{
		ID:          f.ID,
		VisitorName: f.VisitorName,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
	}
	if f.VisitorPhone != "" {
		phone := f.VisitorPhone
		request.VisitorPhone = &phone
	}
	return request
}
