// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"care-chatbot/internal/common/config"

	_ "github.com/lib/pq"
)

// Pool defaults when the config leaves them unset. Appointment persistence
// is the only Postgres consumer, so the pool stays small.
const (
	defaultMaxOpenConns = 10
	defaultMaxIdleConns = 5
)

// PostgresClient owns the connection pool backing the appointment store.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool against the configured database. The connection
// is lazy; call Ping to verify it.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	maxOpen := cfg.MaxConnections
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping verifies the database is reachable.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close releases the pool.
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB exposes the pool to the appointment store.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
