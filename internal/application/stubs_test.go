package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/door-security/internal/actuator"
)

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var counter int
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

type grantStoreStub struct {
	mu         sync.Mutex
	authorized map[string]bool
	granted    []GrantedUser

	isAuthorizedErr error
	createErr       error
	deleteErr       error
	listErr         error

	createCalls []string
	deleteCalls []string
}

func newGrantStoreStub() *grantStoreStub {
	return &grantStoreStub{authorized: make(map[string]bool)}
}

func (s *grantStoreStub) IsAuthorized(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isAuthorizedErr != nil {
		return false, s.isAuthorizedErr
	}
	return s.authorized[userID], nil
}

func (s *grantStoreStub) CreateGrant(_ context.Context, _, userID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls = append(s.createCalls, userID)
	if s.createErr != nil {
		return s.createErr
	}
	s.authorized[userID] = true
	return nil
}

func (s *grantStoreStub) DeleteGrant(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, userID)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.authorized, userID)
	return nil
}

func (s *grantStoreStub) ListGrantedUsers(_ context.Context) ([]GrantedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]GrantedUser(nil), s.granted...), nil
}

type auditLogStub struct {
	mu        sync.Mutex
	events    []AuditEvent
	entries   []AuditEntry
	appendErr error
	listErr   error

	listLimits []int
}

func (s *auditLogStub) Append(_ context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *auditLogStub) List(_ context.Context, limit int) ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listLimits = append(s.listLimits, limit)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]AuditEntry(nil), s.entries...), nil
}

func (s *auditLogStub) eventsOf(eventType string) []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type doorControllerStub struct {
	mu sync.Mutex

	openErr    error
	alarmErr   error
	silenceErr error
	state      actuator.State
	statusErr  error

	openCalls    int
	alarmCalls   int
	silenceCalls int
}

func (s *doorControllerStub) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openCalls++
	return s.openErr
}

func (s *doorControllerStub) SoundAlarm(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarmCalls++
	return s.alarmErr
}

func (s *doorControllerStub) SilenceAlarm(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silenceCalls++
	return s.silenceErr
}

func (s *doorControllerStub) Status(context.Context) (actuator.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return actuator.StateUnknown, s.statusErr
	}
	return s.state, nil
}

type credentialStoreStub struct {
	account UserAccount
	err     error
}

func (s *credentialStoreStub) GetAccountByEmail(_ context.Context, email string) (UserAccount, error) {
	if s.err != nil {
		return UserAccount{}, s.err
	}
	if s.account.User.Email != email {
		return UserAccount{}, ErrNotFound
	}
	return s.account, nil
}

type userStoreStub struct {
	users map[string]User

	createErr error
	getErr    error
	listErr   error
	deleteErr error

	created     []UserAccount
	deleteCalls []string
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{users: make(map[string]User)}
}

func (s *userStoreStub) CreateUser(_ context.Context, account UserAccount) (User, error) {
	s.created = append(s.created, account)
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.users[account.User.ID] = account.User
	return account.User, nil
}

func (s *userStoreStub) GetUser(_ context.Context, id string) (User, error) {
	if s.getErr != nil {
		return User{}, s.getErr
	}
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *userStoreStub) DeleteUser(_ context.Context, id string) error {
	s.deleteCalls = append(s.deleteCalls, id)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type entryRequestStoreStub struct {
	requests map[string]EntryRequest

	createErr  error
	getErr     error
	listErr    error
	resolveErr error

	resolveCalls int
}

func newEntryRequestStoreStub() *entryRequestStoreStub {
	return &entryRequestStoreStub{requests: make(map[string]EntryRequest)}
}

func (s *entryRequestStoreStub) CreateEntryRequest(_ context.Context, request EntryRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.requests[request.ID] = request
	return nil
}

func (s *entryRequestStoreStub) GetEntryRequest(_ context.Context, id string) (EntryRequest, error) {
	if s.getErr != nil {
		return EntryRequest{}, s.getErr
	}
	request, ok := s.requests[id]
	if !ok {
		return EntryRequest{}, ErrNotFound
	}
	return request, nil
}

func (s *entryRequestStoreStub) ListPendingEntryRequests(_ context.Context) ([]EntryRequest, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []EntryRequest
	for _, r := range s.requests {
		if r.Status == EntryStatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *entryRequestStoreStub) ResolveEntryRequest(_ context.Context, id, status, respondedBy string, respondedAt time.Time) error {
	s.resolveCalls++
	if s.resolveErr != nil {
		return s.resolveErr
	}
	request, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	if request.Status != EntryStatusPending {
		return ErrAlreadyResolved
	}
	request.Status = status
	request.RespondedBy = &respondedBy
	request.RespondedAt = &respondedAt
	s.requests[id] = request
	return nil
}
