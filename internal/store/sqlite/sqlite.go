package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/metrics"
	"go-feed-cache/internal/store"
)

// Ensure SQLiteStore implements interfaces.Store
var _ interfaces.Store = (*SQLiteStore)(nil)

const schema = `CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists entries in a single SQLite file so a restarted
// process on the same host keeps its warm windows.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a private in-memory database.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create entries table: %w", err)
	}

	logger.Info("Opened SQLite store", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get retrieves a value by key
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM entries WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordStoreError("sqlite", "get")
		return nil, false, store.Unavailable("sqlite get", err)
	}
	return val, true, nil
}

// Set inserts or replaces the value at key
func (s *SQLiteStore) Set(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, val, time.Now().Unix())
	if err != nil {
		s.logger.Error("Failed to set SQLite entry", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("sqlite", "set")
		return store.Unavailable("sqlite set", err)
	}
	return nil
}

// ScanPrefix lists keys starting with prefix. instr is used rather than LIKE
// because LIKE is case-insensitive and treats % and _ as wildcards.
func (s *SQLiteStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM entries WHERE instr(key, ?) = 1", prefix)
	if err != nil {
		metrics.RecordStoreError("sqlite", "scan")
		return nil, store.Unavailable("sqlite scan", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return keys, store.Unavailable("sqlite scan", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return keys, store.Unavailable("sqlite scan", err)
	}
	return keys, nil
}

// Delete removes keys in a single transaction
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError("sqlite", "delete")
		return store.Unavailable("sqlite delete", err)
	}

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM entries WHERE key = ?")
	if err != nil {
		_ = tx.Rollback()
		metrics.RecordStoreError("sqlite", "delete")
		return store.Unavailable("sqlite delete", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			_ = tx.Rollback()
			metrics.RecordStoreError("sqlite", "delete")
			return store.Unavailable("sqlite delete", err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError("sqlite", "delete")
		return store.Unavailable("sqlite delete", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
