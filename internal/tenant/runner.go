package tenant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
)

// Runner executes a unit of work once per enabled tenant. A failing
// tenant never stops the others; its error is logged and the run moves
// on. Tenants may be processed in parallel when configured, ordering
// across tenants is unspecified either way.
type Runner struct {
	store    Store
	parallel bool
}

// NewRunner creates a fan-out runner over the given tenant store.
func NewRunner(store Store, parallel bool) *Runner {
	return &Runner{store: store, parallel: parallel}
}

// ForEach invokes fn once per enabled tenant. It returns an error only
// when the tenant listing itself fails; per-tenant errors are logged.
func (r *Runner) ForEach(ctx context.Context, fn func(ctx context.Context, t Tenant) error) error {
	tenants, err := r.store.ListEnabled(ctx)
	if err != nil {
		return err
	}

	if !r.parallel {
		for _, t := range tenants {
			r.runOne(ctx, t, fn)
		}
		return nil
	}

	var wg sync.WaitGroup
	for _, t := range tenants {
		wg.Add(1)
		go func(t Tenant) {
			defer wg.Done()
			r.runOne(ctx, t, fn)
		}(t)
	}
	wg.Wait()
	return nil
}

func (r *Runner) runOne(ctx context.Context, t Tenant, fn func(ctx context.Context, t Tenant) error) {
	if err := fn(ctx, t); err != nil {
		slog.Error("tenant unit of work failed",
			logging.TenantID(t.ID),
			logging.Error(err),
		)
	}
}
