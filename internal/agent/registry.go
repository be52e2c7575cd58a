package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
)

// Registry maps worker names to workers. It is built once at startup and
// is read-only afterwards.
type Registry struct {
	workers map[string]Worker
	order   []string
}

// NewRegistry creates a registry. Names must be unique.
func NewRegistry(workers ...Worker) (*Registry, error) {
	r := &Registry{workers: make(map[string]Worker, len(workers))}
	for _, w := range workers {
		if w == nil {
			continue
		}
		name := w.Name()
		if _, dup := r.workers[name]; dup {
			return nil, fmt.Errorf("duplicate worker name: %s", name)
		}
		r.workers[name] = w
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get retrieves a worker by name.
func (r *Registry) Get(name string) (Worker, bool) {
	w, ok := r.workers[name]
	return w, ok
}

// Names returns worker names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// List returns workers in registration order.
func (r *Registry) List() []Worker {
	out := make([]Worker, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.workers[name])
	}
	return out
}

// Count returns the number of workers.
func (r *Registry) Count() int {
	return len(r.order)
}

// ByKind returns the first registered worker of kind k.
func (r *Registry) ByKind(k Kind) (Worker, bool) {
	for _, name := range r.order {
		if w := r.workers[name]; w.Kind() == k {
			return w, true
		}
	}
	return nil, false
}

// As returns the first worker of kind k that implements T.
func As[T Worker](r *Registry, k Kind) (T, bool) {
	var zero T
	w, ok := r.ByKind(k)
	if !ok {
		return zero, false
	}
	t, ok := w.(T)
	return t, ok
}

// InitializeAll initializes every worker concurrently. A failing worker
// stays registered; the failures are returned joined.
func (r *Registry) InitializeAll(ctx context.Context) error {
	return r.each(ctx, "initialize", func(ctx context.Context, w Worker) error {
		return w.Initialize(ctx)
	})
}

// ShutdownAll shuts every worker down concurrently.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	return r.each(ctx, "shutdown", func(ctx context.Context, w Worker) error {
		return w.Shutdown(ctx)
	})
}

func (r *Registry) each(ctx context.Context, phase string, fn func(context.Context, Worker) error) error {
	log := logging.Component("registry")

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, w := range r.List() {
		g.Go(func() error {
			if err := fn(ctx, w); err != nil {
				log.Error().Err(err).Str("worker", w.Name()).Str("phase", phase).Msg("worker lifecycle failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s %s: %w", phase, w.Name(), err))
				mu.Unlock()
				return nil
			}
			log.Debug().Str("worker", w.Name()).Str("phase", phase).Msg("worker ready")
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
