package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// ConnectionPool manages database connections
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionPool opens a Postgres pool from a connection URL and
// verifies the connection before returning.
func NewConnectionPool(ctx context.Context, databaseURL string, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctxTest, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctxTest); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected successfully")

	return &ConnectionPool{
		db:     db,
		logger: logger,
	}, nil
}

// GetDB returns the underlying sql.DB connection
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Close closes the database connection
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health checks the database health
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctxTest, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return cp.db.PingContext(ctxTest)
}

// Migrate creates the schema if it does not exist yet. The ownership
// and membership relations carry composite primary keys so duplicate
// pairs are impossible at the storage level.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clothing (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			price DOUBLE PRECISION,
			color VARCHAR(50) NOT NULL,
			item_url VARCHAR(500),
			image_url VARCHAR(500) NOT NULL,
			category VARCHAR(50)
		)`,
		`CREATE TABLE IF NOT EXISTS user_clothing (
			user_id INT NOT NULL REFERENCES users(id),
			clothing_id INT NOT NULL REFERENCES clothing(id),
			PRIMARY KEY (user_id, clothing_id)
		)`,
		`CREATE TABLE IF NOT EXISTS outfits (
			id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(id),
			name VARCHAR(100)
		)`,
		`CREATE TABLE IF NOT EXISTS outfit_clothing (
			outfit_id INT NOT NULL REFERENCES outfits(id),
			clothing_id INT NOT NULL REFERENCES clothing(id),
			PRIMARY KEY (outfit_id, clothing_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	cp.logger.Info("database schema ready")
	return nil
}
