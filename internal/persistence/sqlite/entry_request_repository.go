package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/door-security/internal/persistence"
)

// EntryRequestRepository implements persistence.EntryRequestRepository using
// SQLite.
type EntryRequestRepository struct {
	pool *ConnectionPool
}

// NewEntryRequestRepository creates a new SQLite entry request repository.
func NewEntryRequestRepository(pool *ConnectionPool) *EntryRequestRepository {
	return &EntryRequestRepository{pool: pool}
}

// CreateEntryRequest inserts a pending visitor request.
func (r *EntryRequestRepository) CreateEntryRequest(ctx context.Context, request persistence.EntryRequest) error {
	if request.ID == "" || request.VisitorName == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx,
		"INSERT INTO entry_requests (id, visitor_name, visitor_phone, status, created_at) VALUES (?, ?, ?, ?, ?)",
		request.ID,
		request.VisitorName,
		request.VisitorPhone,
		request.Status,
		request.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// GetEntryRequest retrieves a request by ID.
func (r *EntryRequestRepository) GetEntryRequest(ctx context.Context, id string) (persistence.EntryRequest, error) {
	if id == "" {
		return persistence.EntryRequest{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, visitor_name, visitor_phone, status, responded_by, responded_at, created_at
		FROM entry_requests
		WHERE id = ?
	`

	return scanEntryRequest(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListPendingEntryRequests returns unresolved requests, newest first.
func (r *EntryRequestRepository) ListPendingEntryRequests(ctx context.Context) ([]persistence.EntryRequest, error) {
	query := `
		SELECT id, visitor_name, visitor_phone, status, responded_by, responded_at, created_at
		FROM entry_requests
		WHERE status = 'pending'
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var requests []persistence.EntryRequest
	for rows.Next() {
		request, err := scanEntryRequestRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return requests, nil
}

// ResolveEntryRequest transitions a pending request to a terminal status. The
// update is guarded on status = 'pending' so a resolved request can never be
// overwritten; callers distinguish the two failure modes via the returned
// sentinel.
func (r *EntryRequestRepository) ResolveEntryRequest(ctx context.Context, id, status, respondedBy string, respondedAt time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE entry_requests SET status = ?, responded_by = ?, responded_at = ? WHERE id = ? AND status = 'pending'",
			status,
			respondedBy,
			respondedAt.UTC().Format(time.RFC3339),
			id,
		)
		if err != nil {
			return mapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			return nil
		}

		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM entry_requests WHERE id = ?)", id,
		).Scan(&exists); err != nil {
			return mapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}
		return persistence.ErrConstraintViolation
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntryRequest(row *sql.Row) (persistence.EntryRequest, error) {
	request, err := scanEntryRequestRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EntryRequest{}, persistence.ErrNotFound
		}
		return persistence.EntryRequest{}, err
	}
	return request, nil
}

func scanEntryRequestRow(scanner rowScanner) (persistence.EntryRequest, error) {
	var request persistence.EntryRequest
	var createdAtStr string
	var respondedAtStr *string

	err := scanner.Scan(
		&request.ID,
		&request.VisitorName,
		&request.VisitorPhone,
		&request.Status,
		&request.RespondedBy,
		&respondedAtStr,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EntryRequest{}, err
		}
		return persistence.EntryRequest{}, mapError(err)
	}

	if request.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.EntryRequest{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if respondedAtStr != nil {
		respondedAt, err := time.Parse(time.RFC3339, *respondedAtStr)
		if err != nil {
			return persistence.EntryRequest{}, fmt.Errorf("failed to parse responded_at: %w", err)
		}
		request.RespondedAt = &respondedAt
	}

	return request, nil
}
