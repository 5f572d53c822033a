//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"clinic-orders/internal/config"
	"clinic-orders/internal/database"
)

// Connects with the service configuration and applies the schema, so a
// fresh database is ready for either API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logger, "check-db")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	if err := database.ApplySchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database %s and applied schema\n", dbName)
}
