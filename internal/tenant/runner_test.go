package tenant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	tenants []Tenant
	err     error
}

func (f *fakeStore) ListEnabled(ctx context.Context) ([]Tenant, error) {
	return f.tenants, f.err
}

func TestForEach_Sequential(t *testing.T) {
	store := &fakeStore{tenants: []Tenant{
		{ID: "tenant-a", Enabled: true},
		{ID: "tenant-b", Enabled: true},
		{ID: "tenant-c", Enabled: true},
	}}
	runner := NewRunner(store, false)

	var visited []string
	err := runner.ForEach(context.Background(), func(ctx context.Context, tn Tenant) error {
		visited = append(visited, tn.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-a", "tenant-b", "tenant-c"}, visited)
}

func TestForEach_TenantFailureDoesNotStopOthers(t *testing.T) {
	store := &fakeStore{tenants: []Tenant{
		{ID: "tenant-a", Enabled: true},
		{ID: "tenant-b", Enabled: true},
	}}
	runner := NewRunner(store, false)

	var visited []string
	err := runner.ForEach(context.Background(), func(ctx context.Context, tn Tenant) error {
		visited = append(visited, tn.ID)
		if tn.ID == "tenant-a" {
			return errors.New("registry unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-a", "tenant-b"}, visited)
}

func TestForEach_Parallel(t *testing.T) {
	store := &fakeStore{tenants: []Tenant{
		{ID: "tenant-a", Enabled: true},
		{ID: "tenant-b", Enabled: true},
		{ID: "tenant-c", Enabled: true},
	}}
	runner := NewRunner(store, true)

	var mu sync.Mutex
	visited := make(map[string]int)
	err := runner.ForEach(context.Background(), func(ctx context.Context, tn Tenant) error {
		mu.Lock()
		defer mu.Unlock()
		visited[tn.ID]++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tenant-a": 1, "tenant-b": 1, "tenant-c": 1}, visited)
}

func TestForEach_StoreError(t *testing.T) {
	runner := NewRunner(&fakeStore{err: errors.New("db down")}, false)

	err := runner.ForEach(context.Background(), func(ctx context.Context, tn Tenant) error {
		t.Fatal("fn should not be called when listing fails")
		return nil
	})
	assert.Error(t, err)
}

func TestStaticStore(t *testing.T) {
	content := `
tenants:
  - id: tenant-a
    name: Alpha Corp
    enabled: true
  - id: tenant-b
    name: Beta Ltd
    enabled: false
  - id: tenant-c
    name: Gamma GmbH
    enabled: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := NewStaticStore(path)
	require.NoError(t, err)

	enabled, err := store.ListEnabled(context.Background())
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "tenant-a", enabled[0].ID)
	assert.Equal(t, "tenant-c", enabled[1].ID)
}

func TestStaticStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tenants: []\n"), 0o644))

	_, err := NewStaticStore(path)
	assert.Error(t, err)
}

func TestStaticStore_MissingFile(t *testing.T) {
	_, err := NewStaticStore("/nonexistent/tenants.yaml")
	assert.Error(t, err)
}
