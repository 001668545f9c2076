package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}

	t.Run("creates a regular account with normalized fields", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		clock := newTestClock()
		svc := NewUserService(users, newGrantStoreStub(), sequentialIDs("user"), clock.Now, nil)
		svc.hashPassword = func(password string) (string, error) { return "hashed:" + password, nil }

		user, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: " Alice@Example.com ", Password: "s3cret", Name: "  Alice  "},
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		if user.Email != "alice@example.com" || user.Name != "Alice" {
			t.Fatalf("fields not normalized: %+v", user)
		}
		if user.Role != RoleUser {
			t.Fatalf("created accounts must be regular users, got %q", user.Role)
		}
		if len(users.created) != 1 || users.created[0].PasswordHash != "hashed:s3cret" {
			t.Fatalf("unexpected persisted account: %#v", users.created)
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserStoreStub(), nil, nil, nil, nil)
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: Principal{UserID: "user-1", Role: RoleUser},
			Input:     UserInput{Email: "a@b.fr", Password: "x", Name: "A"},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("collects field errors for invalid input", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserStoreStub(), nil, nil, nil, nil)
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "not-an-email", Password: "", Name: " "},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "password", "name"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error for field %q, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("propagates duplicate email errors", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		users.createErr = ErrDuplicateEmail
		svc := NewUserService(users, nil, sequentialIDs("user"), nil, nil)
		svc.hashPassword = func(password string) (string, error) { return password, nil }

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "taken@example.com", Password: "x", Name: "Dup"},
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}

	t.Run("annotates users with their door authorization", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		users.users["user-1"] = User{ID: "user-1", Email: "a@example.com", Role: RoleUser}
		users.users["user-2"] = User{ID: "user-2", Email: "b@example.com", Role: RoleUser}

		grants := newGrantStoreStub()
		grants.granted = []GrantedUser{{UserID: "user-2", Email: "b@example.com", GrantedAt: time.Now()}}

		svc := NewUserService(users, grants, nil, nil, nil)

		listed, err := svc.ListUsers(context.Background(), admin)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}

		byID := make(map[string]User, len(listed))
		for _, u := range listed {
			byID[u.ID] = u
		}
		if byID["user-1"].Authorized || !byID["user-2"].Authorized {
			t.Fatalf("wrong authorization flags: %#v", byID)
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserStoreStub(), nil, nil, nil, nil)
		if _, err := svc.ListUsers(context.Background(), Principal{UserID: "user-1", Role: RoleUser}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}

	t.Run("deletes a regular account", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		users.users["user-1"] = User{ID: "user-1", Role: RoleUser}
		svc := NewUserService(users, nil, nil, nil, nil)

		if err := svc.DeleteUser(context.Background(), admin, "user-1"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if _, ok := users.users["user-1"]; ok {
			t.Fatal("expected the account to be removed")
		}
	})

	t.Run("refuses to delete an administrator", func(t *testing.T) {
		t.Parallel()

		users := newUserStoreStub()
		users.users["admin-2"] = User{ID: "admin-2", Role: RoleAdmin}
		svc := NewUserService(users, nil, nil, nil, nil)

		err := svc.DeleteUser(context.Background(), admin, "admin-2")
		if !errors.Is(err, ErrAdminProtected) {
			t.Fatalf("expected ErrAdminProtected, got %v", err)
		}
		if len(users.deleteCalls) != 0 {
			t.Fatalf("delete must not reach the store, got %v", users.deleteCalls)
		}
	})

	t.Run("reports unknown accounts", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserStoreStub(), nil, nil, nil, nil)
		if err := svc.DeleteUser(context.Background(), admin, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
