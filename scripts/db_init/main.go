package main

import (
	"context"
	"fmt"
	"os"

	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.Database.Dialect, cfg.Database.DSN(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Database initialized successfully (%s).\n", cfg.Database.Dialect)
}
