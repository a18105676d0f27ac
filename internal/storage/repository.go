package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expenso/internal/core"
	"expenso/internal/listing"

	"modernc.org/sqlite"
)

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(listing.FoldFunc, 1, casefold)
}

// casefold backs the listing search so that matching is case-insensitive
// beyond ASCII. NULL stays NULL.
func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return listing.Fold(v), nil
	case []byte:
		return listing.Fold(string(v)), nil
	default:
		return v, nil
	}
}

// timestampLayout is fixed-width so that stored timestamps sort
// lexically in time order.
const timestampLayout = "2006-01-02 15:04:05.000000"

const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteRepository owns the database handle. Expense rows are reachable
// only through ForUser.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + dsnPragmas

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// between pooled connections of the same process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dsn)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// SetClock replaces the time source used for created_at and session
// expiry. Intended for tests.
func (r *SQLiteRepository) SetClock(now func() time.Time) {
	r.now = now
}

// ForUser returns the expense repository scoped to userID. Every query it
// issues is restricted to that owner.
func (r *SQLiteRepository) ForUser(userID int64) *UserExpenses {
	return &UserExpenses{db: r.db, userID: userID, now: r.now}
}

func storageErr(op string, err error) error {
	return &core.StorageError{Op: op, Err: err}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, s, time.UTC)
}
