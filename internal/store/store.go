// File path: internal/store/store.go

// Package store is the knowledge store adapter: uniform create/read/update
// access to the interview catalog's record collections, backed by SQLite.
// The adapter never assumes transactions spanning multiple writes; every
// knowledge-base mutation is a single additive row insert or column update.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mapline/guestjourney/internal/common"
)

// ErrNotFound reports that no record matched the requested business key.
var ErrNotFound = errors.New("record not found")

// Store wraps a pooled sqlx.DB connection to the SQLite catalog.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use; an empty path falls back to the
// configured default.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("catalog path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	common.Logger().Debug("store: schema migrated", "statements", len(schemaStatements))
	return nil
}

// Fields is a partial update: column name to new value. It mirrors the
// adapter contract update(collection, rowHandle, partial).
type Fields map[string]interface{}

func (s *Store) update(ctx context.Context, table string, rowID int64, fields Fields) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if len(fields) == 0 {
		return nil
	}
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var builder strings.Builder
	args := make([]interface{}, 0, len(fields)+1)
	builder.WriteString("UPDATE " + table + " SET ")
	for i, col := range columns {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(col + " = ?")
		args = append(args, fields[col])
	}
	builder.WriteString(" WHERE id = ?")
	args = append(args, rowID)

	res, err := s.db.ExecContext(ctx, builder.String(), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update %s row %d: %w", table, rowID, ErrNotFound)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// TimeFormat is the canonical timestamp representation used across the
// catalog. The fixed-width fraction keeps lexicographic and chronological
// order in agreement, which message ordering relies on.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// Now returns the current UTC time in the canonical catalog format.
func Now() string {
	return FormatTime(time.Now())
}

// FormatTime renders t in the canonical catalog format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
