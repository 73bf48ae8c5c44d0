package tenant

import (
	"context"
	"time"
)

// Tenant identifies one isolated registry instance. All registry calls
// made on behalf of a tenant carry its ID.
type Tenant struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Store enumerates the tenants the bridge fans out over.
type Store interface {
	// ListEnabled returns all tenants currently active for processing.
	ListEnabled(ctx context.Context) ([]Tenant, error)
}
