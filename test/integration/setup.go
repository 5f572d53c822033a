package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clinic-orders/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, connects to it and
// applies the service schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.ApplySchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Seeded item numbers used across the scenarios.
const (
	ProductAmoxicillin = "10000001" // Acme
	ProductBandage     = "10000002" // Acme
	ProductKibble      = "10000003" // Zenith
)

// SeedProducts inserts the test catalogue.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		itemNumber string
		name       string
		size       string
		category   string
		supplier   string
	}{
		{"10000001", "Amoxicillin Drops", "15 ml", "Pharmacy", "Acme"},
		{"10000002", "Bandage Roll", "5 cm", "Surgical", "Acme"},
		{"10000003", "Cat Kibble", "2 kg", "Diet", "Zenith"},
		{"10000004", "Dog Shampoo", "500 ml", "Grooming", "Zenith"},
		{"10000005", "Exam Gloves", "M", "Surgical", "Vetline"},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (item_number, name, size, category, supplier) VALUES ($1, $2, $3, $4, $5)",
			p.itemNumber, p.name, p.size, p.category, p.supplier,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.itemNumber, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"approval_log", "cart_items", "carts", "products",
		"policies", "users", "access_codes", "companies",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
