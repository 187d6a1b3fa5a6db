package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
)

// Restores the sqlite database from a backup made by db_backup. Stop the
// server first: the live file is replaced.
func main() {
	from := flag.String("from", "", "Backup file to restore (required)")
	flag.Parse()

	if *from == "" {
		fmt.Fprintln(os.Stderr, "Restore error: -from is required")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Dialect != config.DialectSQLite {
		fmt.Fprintf(os.Stderr, "Restore error: only sqlite databases can be restored with this tool\n")
		os.Exit(1)
	}

	if err := checkBackup(*from); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %s is not a usable backup: %v\n", *from, err)
		os.Exit(1)
	}

	if err := copyFile(*from, cfg.Database.Storage); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database restore completed: %s -> %s\n", *from, cfg.Database.Storage)
}

// checkBackup opens the backup and makes sure it carries the CRM schema.
func checkBackup(path string) error {
	ctx := context.Background()
	if _, err := os.Stat(path); err != nil {
		return err
	}

	database, err := db.New(ctx, db.DialectSQLite, "file:"+path+"?mode=ro", nil)
	if err != nil {
		return err
	}
	defer database.Close()

	var n int
	if err := database.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no migrations recorded")
	}

	return nil
}

// copyFile writes src next to dst and renames it into place.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, srcFile); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dst)
}
