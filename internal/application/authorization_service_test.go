package application

import (
	"context"
	"errors"
	"testing"
)

func TestAuthorizationService_Grant(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}

	t.Run("records a new grant", func(t *testing.T) {
		t.Parallel()

		grants := newGrantStoreStub()
		clock := newTestClock()
		svc := NewAuthorizationService(grants, sequentialIDs("grant"), clock.Now, nil)

		if err := svc.Grant(context.Background(), admin, "user-1"); err != nil {
			t.Fatalf("Grant failed: %v", err)
		}
		if !grants.authorized["user-1"] {
			t.Fatal("expected the grant to be recorded")
		}
	})

	t.Run("surfaces duplicate grants", func(t *testing.T) {
		t.Parallel()

		grants := newGrantStoreStub()
		grants.createErr = ErrAlreadyGranted
		svc := NewAuthorizationService(grants, nil, nil, nil)

		if err := svc.Grant(context.Background(), admin, "user-1"); !errors.Is(err, ErrAlreadyGranted) {
			t.Fatalf("expected ErrAlreadyGranted, got %v", err)
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthorizationService(newGrantStoreStub(), nil, nil, nil)
		if err := svc.Grant(context.Background(), Principal{UserID: "user-1", Role: RoleUser}, "user-2"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("rejects a blank user id", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthorizationService(newGrantStoreStub(), nil, nil, nil)
		var vErr *ValidationError
		if err := svc.Grant(context.Background(), admin, ""); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestAuthorizationService_Revoke(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RoleAdmin}

	t.Run("removes an existing grant", func(t *testing.T) {
		t.Parallel()

		grants := newGrantStoreStub()
		grants.authorized["user-1"] = true
		svc := NewAuthorizationService(grants, nil, nil, nil)

		if err := svc.Revoke(context.Background(), admin, "user-1"); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}
		if grants.authorized["user-1"] {
			t.Fatal("expected the grant to be removed")
		}
	})

	t.Run("revoking an absent grant succeeds", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthorizationService(newGrantStoreStub(), nil, nil, nil)
		if err := svc.Revoke(context.Background(), admin, "user-1"); err != nil {
			t.Fatalf("expected revoke to be idempotent, got %v", err)
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthorizationService(newGrantStoreStub(), nil, nil, nil)
		if err := svc.Revoke(context.Background(), Principal{UserID: "user-1", Role: RoleUser}, "user-2"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestAuthorizationService_ListGrantedUsers(t *testing.T) {
	t.Parallel()

	t.Run("returns the granted users for administrators", func(t *testing.T) {
		t.Parallel()

		grants := newGrantStoreStub()
		grants.granted = []GrantedUser{{UserID: "user-1", Email: "a@example.com", Name: "A"}}
		svc := NewAuthorizationService(grants, nil, nil, nil)

		listed, err := svc.ListGrantedUsers(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin})
		if err != nil {
			t.Fatalf("ListGrantedUsers failed: %v", err)
		}
		if len(listed) != 1 || listed[0].UserID != "user-1" {
			t.Fatalf("unexpected listing: %#v", listed)
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthorizationService(newGrantStoreStub(), nil, nil, nil)
		if _, err := svc.ListGrantedUsers(context.Background(), Principal{UserID: "user-1", Role: RoleUser}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
