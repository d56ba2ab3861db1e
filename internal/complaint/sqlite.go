package complaint

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteStore persists complaints in the gateway's SQLite database.
// Timestamps are stored as RFC3339Nano UTC text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database. The complaints table must exist;
// storage.OpenSQLite bootstraps it.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Put inserts a record.
func (s *SQLiteStore) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO complaints(id, recorded_at, reporter, complaint, channel, command)
VALUES (?, ?, ?, ?, ?, ?)
`, rec.ID, rec.At.UTC().Format(time.RFC3339Nano), rec.Reporter, rec.Text, rec.Channel, rec.Command)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

// Count returns the total number of recorded complaints.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return n, nil
}

// Recent returns up to limit complaints, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, recorded_at, reporter, complaint, channel, command
FROM complaints
ORDER BY recorded_at DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var recordedAt string
		if err := rows.Scan(&rec.ID, &recordedAt, &rec.Reporter, &rec.Text, &rec.Channel, &rec.Command); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			rec.At = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return out, nil
}
