package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/door-security/internal/actuator"
	"github.com/example/door-security/internal/application"
)

type tokenVerifierStub struct {
	principals map[string]application.Principal
}

func (s *tokenVerifierStub) Verify(token string) (application.Principal, error) {
	principal, ok := s.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthenticated
	}
	return principal, nil
}

type authServiceStub struct {
	result application.AuthenticateResult
	err    error
}

func (s *authServiceStub) Authenticate(context.Context, application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.result, s.err
}

type userServiceStub struct {
	created   application.User
	createErr error
	users     []application.User
	listErr   error
	deleteErr error
	deletedID string
}

func (s *userServiceStub) CreateUser(_ context.Context, params application.CreateUserParams) (application.User, error) {
	if s.createErr != nil {
		return application.User{}, s.createErr
	}
	return s.created, nil
}

func (s *userServiceStub) ListUsers(context.Context, application.Principal) ([]application.User, error) {
	return s.users, s.listErr
}

func (s *userServiceStub) DeleteUser(_ context.Context, _ application.Principal, userID string) error {
	s.deletedID = userID
	return s.deleteErr
}

type authorizationServiceStub struct {
	granted   []application.GrantedUser
	listErr   error
	grantErr  error
	revokeErr error

	grantedID string
	revokedID string
}

func (s *authorizationServiceStub) ListGrantedUsers(context.Context, application.Principal) ([]application.GrantedUser, error) {
	return s.granted, s.listErr
}

func (s *authorizationServiceStub) Grant(_ context.Context, _ application.Principal, userID string) error {
	s.grantedID = userID
	return s.grantErr
}

func (s *authorizationServiceStub) Revoke(_ context.Context, _ application.Principal, userID string) error {
	s.revokedID = userID
	return s.revokeErr
}

type accessServiceStub struct {
	openErr    error
	triggerErr error
	stopErr    error
	state      actuator.State
	entries    []application.AuditEntry
	historyErr error

	historyLimit int
}

func (s *accessServiceStub) OpenDoor(context.Context, application.Principal) error {
	return s.openErr
}

func (s *accessServiceStub) TriggerAlarm(context.Context, application.Principal) error {
	return s.triggerErr
}

func (s *accessServiceStub) StopAlarm(context.Context, application.Principal) error {
	return s.stopErr
}

func (s *accessServiceStub) AlarmStatus(context.Context, application.Principal) actuator.State {
	return s.state
}

func (s *accessServiceStub) History(_ context.Context, _ application.Principal, limit int) ([]application.AuditEntry, error) {
	s.historyLimit = limit
	return s.entries, s.historyErr
}

type entryRequestServiceStub struct {
	created    application.EntryRequest
	createErr  error
	pending    []application.EntryRequest
	listErr    error
	resolved   application.EntryRequest
	respondErr error

	respondedID string
	accepted    bool
}

func (s *entryRequestServiceStub) Create(context.Context, application.CreateEntryRequestParams) (application.EntryRequest, error) {
	return s.created, s.createErr
}

func (s *entryRequestServiceStub) ListPending(context.Context, application.Principal) ([]application.EntryRequest, error) {
	return s.pending, s.listErr
}

func (s *entryRequestServiceStub) Respond(_ context.Context, params application.RespondEntryRequestParams) (application.EntryRequest, error) {
	s.respondedID = params.RequestID
	s.accepted = params.Accept
	if s.respondErr != nil {
		return application.EntryRequest{}, s.respondErr
	}
	return s.resolved, nil
}

type routerFixture struct {
	auth    *authServiceStub
	users   *userServiceStub
	grants  *authorizationServiceStub
	access  *accessServiceStub
	entries *entryRequestServiceStub
	handler http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		auth:    &authServiceStub{},
		users:   &userServiceStub{},
		grants:  &authorizationServiceStub{},
		access:  &accessServiceStub{state: actuator.StateInactive},
		entries: &entryRequestServiceStub{},
	}

	verifier := &tokenVerifierStub{principals: map[string]application.Principal{
		"admin-token": {UserID: "admin-1", Role: application.RoleAdmin},
		"user-token":  {UserID: "user-1", Role: application.RoleUser},
	}}

	f.handler = NewRouter(RouterConfig{
		Auth:          NewAuthHandler(f.auth, nil),
		Users:         NewUserHandler(f.users, nil),
		Grants:        NewGrantHandler(f.grants, nil),
		Access:        NewAccessHandler(f.access, nil),
		EntryRequests: NewEntryRequestHandler(f.entries, nil),
		RequireAuth:   RequireAuth(verifier, nil),
	})
	return f
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Login(t *testing.T) {
	t.Parallel()

	t.Run("returns the token and user", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.auth.result = application.AuthenticateResult{
			User:      application.User{ID: "user-1", Email: "a@example.com", Role: application.RoleUser},
			Token:     "issued-token",
			ExpiresAt: time.Date(2024, 1, 9, 15, 4, 5, 0, time.UTC),
		}

		rec := f.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@example.com","password":"pw"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "issued-token", resp.Token)
		assert.Equal(t, "user-1", resp.User.ID)
	})

	t.Run("maps invalid credentials to 401", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.auth.err = application.ErrInvalidCredentials

		rec := f.do(http.MethodPost, "/api/auth/login", "", `{"email":"a@example.com","password":"bad"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", resp.ErrorCode)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/auth/login", "", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodGet, "/api/auth/login", "", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_Users(t *testing.T) {
	t.Parallel()

	t.Run("requires a token", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodGet, "/api/users", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("maps forbidden to 403", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.users.listErr = application.ErrForbidden

		rec := f.do(http.MethodGet, "/api/users", "user-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("creates a user", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.users.created = application.User{ID: "user-9", Email: "new@example.com", Name: "New", Role: application.RoleUser}

		rec := f.do(http.MethodPost, "/api/users", "admin-token", `{"email":"new@example.com","password":"pw","name":"New"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp userResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "user-9", resp.User.ID)
	})

	t.Run("maps a duplicate email to 409", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.users.createErr = application.ErrDuplicateEmail

		rec := f.do(http.MethodPost, "/api/users", "admin-token", `{"email":"dup@example.com","password":"pw","name":"Dup"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "USER_DUPLICATE_EMAIL", resp.ErrorCode)
	})

	t.Run("maps validation failures to 422 with localized fields", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		vErr := &application.ValidationError{FieldErrors: map[string]string{"email": "email is invalid"}}
		f.users.createErr = vErr

		rec := f.do(http.MethodPost, "/api/users", "admin-token", `{"email":"bad"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Le format de l'email est invalide.", resp.Errors["email"])
	})

	t.Run("deletes a user by path id", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodDelete, "/api/users/user-3", "admin-token", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "user-3", f.users.deletedID)
	})

	t.Run("maps admin deletion refusal to 403", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.users.deleteErr = application.ErrAdminProtected

		rec := f.do(http.MethodDelete, "/api/users/admin-1", "admin-token", "")
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ADMIN_PROTECTED", resp.ErrorCode)
	})
}

func TestRouter_AuthorizedUsers(t *testing.T) {
	t.Parallel()

	t.Run("lists granted users", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.grants.granted = []application.GrantedUser{{UserID: "user-1", Email: "a@example.com", Name: "A", GrantedAt: time.Now()}}

		rec := f.do(http.MethodGet, "/api/authorized-users", "admin-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp grantedUserListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Users, 1)
		assert.Equal(t, "user-1", resp.Users[0].UserID)
	})

	t.Run("grants and maps duplicates to 409", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/authorized-users", "admin-token", `{"user_id":"user-2"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "user-2", f.grants.grantedID)

		f.grants.grantErr = application.ErrAlreadyGranted
		rec = f.do(http.MethodPost, "/api/authorized-users", "admin-token", `{"user_id":"user-2"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("revokes by path id", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodDelete, "/api/authorized-users/user-2", "admin-token", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "user-2", f.grants.revokedID)
	})
}

func TestRouter_Door(t *testing.T) {
	t.Parallel()

	t.Run("opens the door", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/door/open", "user-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp messageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Porte ouverte.", resp.Message)
	})

	t.Run("maps a refusal to 403", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.access.openErr = application.ErrNotAuthorized

		rec := f.do(http.MethodPost, "/api/door/open", "user-token", "")
		require.Equal(t, http.StatusForbidden, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "DOOR_NOT_AUTHORIZED", resp.ErrorCode)
	})

	t.Run("maps a controller outage to 502", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.access.openErr = application.ErrActuatorUnreachable

		rec := f.do(http.MethodPost, "/api/door/open", "user-token", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestRouter_Alarm(t *testing.T) {
	t.Parallel()

	t.Run("status is available to regular users", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.access.state = actuator.StateActive

		rec := f.do(http.MethodGet, "/api/alarm/status", "user-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp alarmStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "active", resp.State)
	})

	t.Run("trigger forbidden for non-admins surfaces 403", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.access.triggerErr = application.ErrForbidden

		rec := f.do(http.MethodPost, "/api/alarm/trigger", "user-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("stop succeeds for admins", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/alarm/stop", "admin-token", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_History(t *testing.T) {
	t.Parallel()

	t.Run("passes the limit through", func(t *testing.T) {
		t.Parallel()

		details := "Non autorisé"
		userID := "user-1"
		f := newRouterFixture(t)
		f.access.entries = []application.AuditEntry{{
			Event: application.AuditEvent{
				ID:        "event-1",
				UserID:    &userID,
				EventType: application.EventDoorOpen,
				Result:    application.ResultRefused,
				Details:   &details,
				CreatedAt: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
			},
		}}

		rec := f.do(http.MethodGet, "/api/history?limit=25", "user-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 25, f.access.historyLimit)

		var resp historyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Events, 1)
		assert.Equal(t, "door_open", resp.Events[0].EventType)
		assert.Equal(t, "refused", resp.Events[0].Result)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodGet, "/api/history?limit=abc", "user-token", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_EntryRequests(t *testing.T) {
	t.Parallel()

	t.Run("creation is unauthenticated", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.entries.created = application.EntryRequest{ID: "r-1", VisitorName: "Visiteur", Status: application.EntryStatusPending}

		rec := f.do(http.MethodPost, "/api/entry-requests", "", `{"visitor_name":""}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp entryRequestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Visiteur", resp.Request.VisitorName)
	})

	t.Run("listing requires a token", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodGet, "/api/entry-requests", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("responds to a request by path id", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.entries.resolved = application.EntryRequest{ID: "r-1", Status: application.EntryStatusAccepted}

		rec := f.do(http.MethodPost, "/api/entry-requests/r-1/respond", "admin-token", `{"accept":true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "r-1", f.entries.respondedID)
		assert.True(t, f.entries.accepted)
	})

	t.Run("maps an already resolved request to 409", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		f.entries.respondErr = application.ErrAlreadyResolved

		rec := f.do(http.MethodPost, "/api/entry-requests/r-1/respond", "admin-token", `{"accept":false}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ENTRY_REQUEST_RESOLVED", resp.ErrorCode)
	})

	t.Run("a path without the respond suffix is not found", func(t *testing.T) {
		t.Parallel()

		f := newRouterFixture(t)
		rec := f.do(http.MethodPost, "/api/entry-requests/r-1", "admin-token", "{}")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
