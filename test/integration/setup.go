package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
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

// SetupTestDB creates a PostgreSQL test container and connection pool.
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
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	applySchema(t, pool)

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

// applySchema applies the initial migration to the test database.
func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	schema, err := os.ReadFile("../../migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := pool.Exec(context.Background(), string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
}

// SeedProducts inserts test product data into the database.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id            string
		name          string
		originalPrice float64
		realPrice     float64
	}{
		{"P001", "Test Product 1", 1200.00, 1000.00},
		{"P002", "Test Product 2", 600.00, 500.00},
		{"P003", "Test Product 3", 250.00, 250.00},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, original_price, real_price) VALUES ($1, $2, $3, $4)",
			p.id, p.name, p.originalPrice, p.realPrice,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// SeedAddress inserts a shipping address for the given user and returns its id.
func SeedAddress(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) uuid.UUID {
	t.Helper()

	addressID := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO addresses (id, user_id, line1, city, post_code, country) VALUES ($1, $2, $3, $4, $5, $6)",
		addressID, userID, "1 Test Street", "Testville", "560001", "IN",
	)
	if err != nil {
		t.Fatalf("failed to seed address: %v", err)
	}
	return addressID
}

// SeedCoupon inserts a coupon into the database.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, c model.Coupon) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO coupons (code, type, value, min_order_amount, max_discount, valid_from, valid_until, usage_limit, used_count, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.Code, c.Type, c.Value, c.MinOrderAmount, c.MaxDiscount, c.ValidFrom, c.ValidUntil, c.UsageLimit, c.UsedCount, c.Active,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", c.Code, err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "cart_lines", "coupons", "addresses", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
