package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL tenant store
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Connection pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// ListEnabled returns all enabled tenants ordered by creation time.
func (s *PostgresStore) ListEnabled(ctx context.Context) ([]Tenant, error) {
	query := `
		SELECT id, name, enabled, created_at
		FROM tenants
		WHERE enabled = true
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Enabled, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tenants: %w", err)
	}

	return tenants, nil
}

// Add inserts a tenant. Used by the operator CLI, not the service.
func (s *PostgresStore) Add(ctx context.Context, t Tenant) error {
	query := `
		INSERT INTO tenants (id, name, enabled, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, t.ID, t.Name, t.Enabled, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add tenant %s: %w", t.ID, err)
	}
	return nil
}

// SetEnabled flips a tenant's enabled flag.
func (s *PostgresStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE tenants SET enabled = $2 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to update tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s not found", id)
	}
	return nil
}

// List returns all tenants regardless of enabled state.
func (s *PostgresStore) List(ctx context.Context) ([]Tenant, error) {
	query := `
		SELECT id, name, enabled, created_at
		FROM tenants
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Enabled, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tenants: %w", err)
	}

	return tenants, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
