package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// Migrate applies the SQL migrations for the connection's dialect found under
// migrations/<dialect>/ in migrationFS. Applied versions are recorded in a
// `schema_migrations` table so running it again is a no-op.
func Migrate(ctx context.Context, d *DB, migrationFS fs.FS) error {
	// ensure migrations table exists
	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied BIGINT NOT NULL)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	migDir := path.Join("migrations", d.Dialect())

	entries, err := fs.ReadDir(migrationFS, migDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// collect .sql files and sort
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	for _, fname := range files {
		// use filename (without extension) as migration version key
		version := strings.TrimSuffix(fname, path.Ext(fname))

		var count int
		if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration applied count: %w", err)
		}
		if count > 0 {
			continue
		}

		b, err := fs.ReadFile(migrationFS, path.Join(migDir, fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}
		if _, err := d.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec migration %s: %w", fname, err)
		}

		if _, err := d.Exec(ctx, `INSERT INTO schema_migrations (version, applied) VALUES (?, ?)`, version, time.Now().UTC().Unix()); err != nil {
			return fmt.Errorf("record migration %s: %w", fname, err)
		}
		d.logger.Info("migration applied", "version", version, "dialect", d.Dialect())
	}

	return nil
}
