// Package sqlite provides a SQLite-backed storage engine for doctorate
// aggregates, the search projection and the notification outbox.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	"github.com/doctrack/doctrack/internal/domain/doctorate/ports"
	dterrors "github.com/doctrack/doctrack/internal/errors"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence"
	"github.com/doctrack/doctrack/internal/infrastructure/persistence/sqlite/migrations"
)

const serialCounter = "doctorate_serial"

// Store persists records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, dterrors.Config("sqlite.Open", "storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dterrors.IOWrap(err, "sqlite.Open", "open sqlite store")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, dterrors.IOWrap(err, "sqlite.Open", "ping sqlite store")
	}
	if err := ApplyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, dterrors.IOWrap(err, "sqlite.Open", "apply migrations")
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Load returns one record.
func (s *Store) Load(ctx context.Context, kind persistence.Kind, id string) (persistence.Record, error) {
	if err := s.ready(ctx); err != nil {
		return persistence.Record{}, err
	}
	rec := persistence.Record{Kind: kind, ID: id}
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT parent_id, version, data FROM aggregates WHERE kind = ? AND id = ?`,
		string(kind), id,
	).Scan(&rec.ParentID, &rec.Version, &rec.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Record{}, dterrors.NotFound("sqlite.Load", fmt.Sprintf("%s %s not found", kind, id))
	}
	if err != nil {
		return persistence.Record{}, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return rec, nil
}

// List returns the records of kind owned by parentID in insertion order.
func (s *Store) List(ctx context.Context, kind persistence.Kind, parentID string) ([]persistence.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, version, data FROM aggregates WHERE kind = ? AND parent_id = ? ORDER BY rowid`,
		string(kind), parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []persistence.Record
	for rows.Next() {
		rec := persistence.Record{Kind: kind, ParentID: parentID}
		if err := rows.Scan(&rec.ID, &rec.Version, &rec.Data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Apply writes a batch in a single transaction.
func (s *Store) Apply(ctx context.Context, b persistence.Batch) (err error) {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().UnixMilli()
	for _, key := range b.Deletes {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM aggregates WHERE kind = ? AND id = ?`, string(key.Kind), key.ID,
		); err != nil {
			return fmt.Errorf("delete %s %s: %w", key.Kind, key.ID, err)
		}
	}
	for _, rec := range b.Puts {
		if err := putRecord(ctx, tx, rec, now); err != nil {
			return err
		}
	}
	for _, row := range b.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode search row %s: %w", row.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO search_rows (doctorate_id, serial, data) VALUES (?, ?, ?)
ON CONFLICT(doctorate_id) DO UPDATE SET serial = excluded.serial, data = excluded.data`,
			row.ID, row.Serial, data,
		); err != nil {
			return fmt.Errorf("upsert search row %s: %w", row.ID, err)
		}
	}
	for _, msg := range b.Outbox {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO outbox (id, aggregate_id, kind, payload, status, attempts, last_error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, msg.AggregateID, string(msg.Kind), []byte(msg.Payload), string(msg.Status),
			msg.Attempts, msg.LastError, msg.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("stage outbox message %s: %w", msg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// putRecord stores rec with version rec.Version+1, provided the stored
// version still equals rec.Version.
func putRecord(ctx context.Context, tx *sql.Tx, rec persistence.Record, now int64) error {
	var res sql.Result
	var err error
	if rec.Version == 0 {
		res, err = tx.ExecContext(ctx, `
INSERT INTO aggregates (kind, id, parent_id, version, data, updated_at) VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT(kind, id) DO NOTHING`,
			string(rec.Kind), rec.ID, rec.ParentID, rec.Data, now,
		)
	} else {
		res, err = tx.ExecContext(ctx, `
UPDATE aggregates SET version = version + 1, parent_id = ?, data = ?, updated_at = ?
WHERE kind = ? AND id = ? AND version = ?`,
			rec.ParentID, rec.Data, now, string(rec.Kind), rec.ID, rec.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("put %s %s: %w", rec.Kind, rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put %s %s: %w", rec.Kind, rec.ID, err)
	}
	if n == 1 {
		return nil
	}

	var stored int
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM aggregates WHERE kind = ? AND id = ?`, string(rec.Kind), rec.ID,
	).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read version of %s %s: %w", rec.Kind, rec.ID, err)
	}
	return dterrors.ConcurrentModification("sqlite.Apply", rec.ID, rec.Version, stored)
}

// NextSerial reserves a doctorate serial outside of any batch.
func (s *Store) NextSerial(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var serial int
	err := s.sqlDB.QueryRowContext(ctx, `
INSERT INTO counters (name, value) VALUES (?, 1)
ON CONFLICT(name) DO UPDATE SET value = value + 1
RETURNING value`, serialCounter).Scan(&serial)
	if err != nil {
		return 0, fmt.Errorf("reserve serial: %w", err)
	}
	return serial, nil
}

// Rows returns the search projection ordered by serial.
func (s *Store) Rows(ctx context.Context) ([]listing.Row, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT data FROM search_rows ORDER BY serial`)
	if err != nil {
		return nil, fmt.Errorf("list search rows: %w", err)
	}
	defer rows.Close()

	var out []listing.Row
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		var r listing.Row
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode search row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const outboxColumns = `seq, id, aggregate_id, kind, payload, status, attempts, last_error, created_at`

// Pending returns up to limit pending messages in sequence order. A limit
// of zero or less returns all of them.
func (s *Store) Pending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryOutbox(ctx,
		`SELECT `+outboxColumns+` FROM outbox WHERE status = ? ORDER BY seq LIMIT ?`,
		string(ports.StatusPending), limit,
	)
}

// Failed returns the messages flagged as failed.
func (s *Store) Failed(ctx context.Context) ([]ports.OutboxMessage, error) {
	return s.queryOutbox(ctx,
		`SELECT `+outboxColumns+` FROM outbox WHERE status = ? ORDER BY seq`,
		string(ports.StatusFailed),
	)
}

func (s *Store) queryOutbox(ctx context.Context, query string, args ...any) ([]ports.OutboxMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []ports.OutboxMessage
	for rows.Next() {
		var (
			msg       ports.OutboxMessage
			kind      string
			status    string
			payload   []byte
			createdAt int64
		)
		if err := rows.Scan(&msg.Seq, &msg.ID, &msg.AggregateID, &kind, &payload, &status,
			&msg.Attempts, &msg.LastError, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		msg.Kind = ports.MessageKind(kind)
		msg.Status = ports.MessageStatus(status)
		msg.Payload = json.RawMessage(payload)
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

// MarkDelivered flags a message as delivered after attempts tries.
func (s *Store) MarkDelivered(ctx context.Context, id string, attempts int) error {
	return s.markOutbox(ctx, id, ports.StatusDelivered, attempts, "")
}

// MarkFailed flags a message as failed after attempts tries.
func (s *Store) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	return s.markOutbox(ctx, id, ports.StatusFailed, attempts, lastError)
}

func (s *Store) markOutbox(ctx context.Context, id string, status ports.MessageStatus, attempts int, lastError string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE outbox SET status = ?, attempts = ?, last_error = ? WHERE id = ?`,
		string(status), attempts, lastError, id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox message %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox message %s: %w", id, err)
	}
	if n == 0 {
		return dterrors.NotFound("sqlite.MarkOutbox", fmt.Sprintf("outbox message %s not found", id))
	}
	return nil
}

var _ persistence.Backend = (*Store)(nil)
