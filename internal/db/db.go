package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// DB wraps the sql.DB for connection management and hides the placeholder
// differences between the supported dialects. Queries are written with '?'
// placeholders and rebound for postgres.
type DB struct {
	conn     *sql.DB
	dialect  string
	logger   *slog.Logger
	logQuery bool
}

type Option func(*DB)

// WithQueryLogging logs every statement at debug level.
func WithQueryLogging(enabled bool) Option {
	return func(d *DB) { d.logQuery = enabled }
}

// New creates a new DB connection
func New(ctx context.Context, dialect, dsn string, logger *slog.Logger, opts ...Option) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
		dsn = withSQLitePragmas(dsn)
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if dialect == DialectSQLite {
		// One connection keeps in-memory databases shared and serializes writers.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	d := &DB{conn: conn, dialect: dialect, logger: logger}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// withSQLitePragmas turns on foreign keys and a busy timeout unless the DSN
// already sets pragmas itself.
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the DB connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect reports which SQL dialect the connection speaks.
func (db *DB) Dialect() string {
	return db.dialect
}

// Exec executes a query
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.prepare(query), args...)
}

// QueryRow executes a query that is expected to return at most one row
func (db *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.prepare(query), args...)
}

// QueryRows executes a query that returns rows; the caller closes them.
func (db *DB) QueryRows(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.prepare(query), args...)
}

// PingContext checks that the database is still reachable.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) prepare(query string) string {
	if db.dialect == DialectPostgres {
		query = Rebind(query)
	}
	if db.logQuery {
		db.logger.Debug("sql", slog.String("dialect", db.dialect), slog.String("query", query))
	}

	return query
}

// Rebind rewrites '?' placeholders into postgres' positional $n form. Question
// marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
