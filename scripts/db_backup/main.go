package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
)

func main() {
	out := flag.String("out", "", "Backup file path (default <storage>.<timestamp>.bak)")
	flag.Parse()

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Dialect != config.DialectSQLite {
		fmt.Fprintf(os.Stderr, "Backup error: only sqlite databases can be backed up with this tool; use pg_dump for %s\n", cfg.Database.Dialect)
		os.Exit(1)
	}

	dst := *out
	if dst == "" {
		dst = fmt.Sprintf("%s.%s.bak", cfg.Database.Storage, time.Now().UTC().Format("20060102T150405Z"))
	}
	if _, err := os.Stat(dst); err == nil {
		fmt.Fprintf(os.Stderr, "Backup error: %s already exists\n", dst)
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.New(ctx, cfg.Database.Dialect, cfg.Database.DSN(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// VACUUM INTO gives a consistent copy while the server keeps running.
	if _, err := database.Exec(ctx, `VACUUM INTO ?`, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database backup completed: %s\n", dst)
}
