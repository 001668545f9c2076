package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/door-security/internal/persistence"
)

// GrantRepository implements persistence.GrantRepository using SQLite.
type GrantRepository struct {
	pool *ConnectionPool
}

// NewGrantRepository creates a new SQLite grant repository.
func NewGrantRepository(pool *ConnectionPool) *GrantRepository {
	return &GrantRepository{pool: pool}
}

// IsAuthorized reports whether a grant exists for the user.
func (r *GrantRepository) IsAuthorized(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	var exists int
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM authorized_users WHERE user_id = ?)", userID,
	).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}

	return exists == 1, nil
}

// CreateGrant inserts a grant. The unique constraint on user_id surfaces
// duplicate grants as persistence.ErrDuplicate.
func (r *GrantRepository) CreateGrant(ctx context.Context, grant persistence.AuthorizationGrant) error {
	if grant.ID == "" || grant.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx,
		"INSERT INTO authorized_users (id, user_id, created_at) VALUES (?, ?, ?)",
		grant.ID,
		grant.UserID,
		grant.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// DeleteGrant removes the grant for a user. Removing an absent grant is a
// no-op, matching the idempotent revoke contract.
func (r *GrantRepository) DeleteGrant(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	_, err := r.pool.db.ExecContext(ctx, "DELETE FROM authorized_users WHERE user_id = ?", userID)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// ListGrantedUsers returns all granted users joined with their accounts,
// ordered by name.
func (r *GrantRepository) ListGrantedUsers(ctx context.Context) ([]persistence.GrantedUser, error) {
	query := `
		SELECT u.id, u.email, u.name, a.created_at
		FROM authorized_users a
		JOIN users u ON u.id = a.user_id
		ORDER BY u.name ASC, u.id ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var granted []persistence.GrantedUser
	for rows.Next() {
		var entry persistence.GrantedUser
		var grantedAtStr string
		if err := rows.Scan(&entry.UserID, &entry.Email, &entry.Name, &grantedAtStr); err != nil {
			return nil, mapError(err)
		}
		if entry.GrantedAt, err = time.Parse(time.RFC3339, grantedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		granted = append(granted, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return granted, nil
}
