// Package sqlstore implements storage.Store on top of database/sql through
// sqlx. SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq or pgx) are
// supported with the same schema.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers "postgres"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) goose() goose.Dialect {
	if d == dialectPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// forUpdate is appended to reads of rows that are about to be rewritten in
// the same transaction. SQLite locks the whole database on write instead.
func (d dialect) forUpdate() string {
	if d == dialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// queryer is what both *sqlx.DB and *sqlx.Tx provide, so read helpers can
// run inside or outside a transaction.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// Store implements storage.Store using a SQL database.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	logger  *slog.Logger
}

// New opens a SQLite database at dbPath, creating parent directories, and
// runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return Open(context.Background(), "sqlite", SQLiteDSN(dbPath))
}

// SQLiteDSN returns a modernc.org/sqlite DSN for path with foreign keys
// enabled and a busy timeout.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open connects with driver ("sqlite", "postgres" or "pgx") and runs
// migrations.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var d dialect
	switch driver {
	case "sqlite":
		d = dialectSQLite
	case "postgres", "pgx":
		d = dialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d == dialectSQLite {
		// One writer at a time; transactions must not wait on each other
		// for a second connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:      db,
		dialect: d,
		logger:  slog.Default().With("component", "sqlstore", "driver", driver),
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn in a database transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return fn(ctx, &sqlTx{tx: tx, dialect: s.dialect})
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("Rollback failed", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GroupBalances reads the stored balances of a group.
func (s *Store) GroupBalances(ctx context.Context, groupID string) (ledger.Balances, error) {
	return groupBalances(ctx, s.db, groupID, "")
}

// notFound maps sql.ErrNoRows to a ledger NotFound error and wraps anything
// else.
func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Errorf(ledger.KindNotFound, "%s %s not found", what, id)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// expectRows returns a NotFound error when res touched no rows.
func expectRows(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ledger.Errorf(ledger.KindNotFound, "%s %s not found", what, id)
	}
	return nil
}
