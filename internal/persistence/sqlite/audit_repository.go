package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/door-security/internal/persistence"
)

// auditTimestampLayout pads the fraction to nanoseconds. Timestamps are
// always stored in UTC, so every value has the same width and lexicographic
// order in SQL matches chronological order.
const auditTimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AuditRepository implements persistence.AuditRepository using SQLite. The
// history table is append-only: no update or delete statement exists here.
type AuditRepository struct {
	pool *ConnectionPool
}

// NewAuditRepository creates a new SQLite audit repository.
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// AppendEvent writes a single immutable audit event.
func (r *AuditRepository) AppendEvent(ctx context.Context, event persistence.AuditEvent) error {
	if event.ID == "" || event.EventType == "" || event.Result == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx,
		"INSERT INTO history (id, user_id, event_type, result, details, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID,
		event.UserID,
		event.EventType,
		event.Result,
		event.Details,
		event.CreatedAt.UTC().Format(auditTimestampLayout),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// ListEvents returns the most recent events first, joined with the acting
// user when one exists.
func (r *AuditRepository) ListEvents(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT h.id, h.user_id, h.event_type, h.result, h.details, h.created_at, u.name, u.email
		FROM history h
		LEFT JOIN users u ON u.id = h.user_id
		ORDER BY h.created_at DESC, h.id DESC
		LIMIT ?
	`

	rows, err := r.pool.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var entry persistence.AuditEntry
		var createdAtStr string
		if err := rows.Scan(
			&entry.Event.ID,
			&entry.Event.UserID,
			&entry.Event.EventType,
			&entry.Event.Result,
			&entry.Event.Details,
			&createdAtStr,
			&entry.UserName,
			&entry.UserEmail,
		); err != nil {
			return nil, mapError(err)
		}
		if entry.Event.CreatedAt, err = time.Parse(auditTimestampLayout, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return entries, nil
}
