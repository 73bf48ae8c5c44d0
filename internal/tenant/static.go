package tenant

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticStore reads a fixed tenant list from a YAML file once at
// startup. Suited to single-box deployments without a database.
type StaticStore struct {
	tenants []Tenant
}

type staticFile struct {
	Tenants []Tenant `yaml:"tenants"`
}

// NewStaticStore loads the tenant file. The file must contain at least
// one tenant; an empty fan-out is almost always a deployment mistake.
func NewStaticStore(path string) (*StaticStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant file: %w", err)
	}

	var parsed staticFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse tenant file %s: %w", path, err)
	}
	if len(parsed.Tenants) == 0 {
		return nil, fmt.Errorf("tenant file %s lists no tenants", path)
	}

	return &StaticStore{tenants: parsed.Tenants}, nil
}

// ListEnabled returns the enabled subset of the loaded tenants.
func (s *StaticStore) ListEnabled(ctx context.Context) ([]Tenant, error) {
	var enabled []Tenant
	for _, t := range s.tenants {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}
