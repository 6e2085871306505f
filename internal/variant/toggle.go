package variant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/storecheck/internal/cache"
	"github.com/roach88/storecheck/internal/config"
)

// ConfigStore reads and writes storefront configuration by path.
// A path with no stored value inherits the system default.
type ConfigStore interface {
	GetConfig(ctx context.Context, path string) (value string, ok bool, err error)
	SetConfig(ctx context.Context, path, value string) error
	DeleteConfig(ctx context.Context, path string) error
}

type priorValue struct {
	path    string
	value   string
	present bool
}

// Toggle applies at most one variant and reverts it.
// A Toggle belongs to a single run and is not safe for concurrent use.
type Toggle struct {
	store    ConfigStore
	flusher  cache.Flusher
	registry *Registry
	logger   *slog.Logger

	applied  *Variant
	snapshot []priorValue
	reverted bool
}

// NewToggle creates a toggle for one run.
func NewToggle(store ConfigStore, flusher cache.Flusher, registry *Registry, logger *slog.Logger) *Toggle {
	if flusher == nil {
		flusher = cache.Nop{}
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toggle{
		store:    store,
		flusher:  flusher,
		registry: registry,
		logger:   logger,
	}
}

// Apply writes the named variant's fields, recording prior values first.
// An empty name is a no-op. When flush is set the cache is flushed after
// the writes.
//
// If a write fails, the fields already written stay recorded and Revert
// restores them.
func (t *Toggle) Apply(ctx context.Context, name string, env config.Environment, flush bool) (Variant, error) {
	if name == "" {
		return Variant{}, nil
	}
	if t.applied != nil {
		return Variant{}, fmt.Errorf("variant %q already applied", t.applied.Name)
	}

	v, err := t.registry.Lookup(name)
	if err != nil {
		return Variant{}, err
	}
	fields, err := v.Expand(env)
	if err != nil {
		return Variant{}, fmt.Errorf("variant %q: %w", name, err)
	}

	t.applied = &v
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !seen[f.Path] {
			prev, ok, err := t.store.GetConfig(ctx, f.Path)
			if err != nil {
				return v, fmt.Errorf("variant %q: snapshot %s: %w", name, f.Path, err)
			}
			t.snapshot = append(t.snapshot, priorValue{path: f.Path, value: prev, present: ok})
			seen[f.Path] = true
		}
		if err := t.store.SetConfig(ctx, f.Path, f.Value); err != nil {
			return v, fmt.Errorf("variant %q: set %s: %w", name, f.Path, err)
		}
	}

	if flush {
		if err := t.flusher.Flush(ctx); err != nil {
			return v, fmt.Errorf("variant %q: %w", name, err)
		}
	}

	t.logger.Info("config variant applied",
		"variant", name,
		"fields", len(fields),
		"flushed", flush,
	)
	return v, nil
}

// Applied returns the variant applied by this toggle, if any.
func (t *Toggle) Applied() (Variant, bool) {
	if t.applied == nil {
		return Variant{}, false
	}
	return *t.applied, true
}

// Revert restores every recorded path in reverse order, then flushes the
// cache once. It does nothing when no variant was applied or when called a
// second time. Restore errors do not stop the remaining restores.
func (t *Toggle) Revert(ctx context.Context) error {
	if t.applied == nil || t.reverted {
		return nil
	}
	t.reverted = true

	var errs []error
	for i := len(t.snapshot) - 1; i >= 0; i-- {
		prior := t.snapshot[i]
		var err error
		if prior.present {
			err = t.store.SetConfig(ctx, prior.path, prior.value)
		} else {
			err = t.store.DeleteConfig(ctx, prior.path)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", prior.path, err))
		}
	}

	if err := t.flusher.Flush(ctx); err != nil {
		errs = append(errs, err)
	}

	t.logger.Info("config variant reverted",
		"variant", t.applied.Name,
		"restored", len(t.snapshot),
		"errors", len(errs),
	)
	return errors.Join(errs...)
}
