package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"

	"github.com/roach88/storecheck/internal/step"
)

// Invocation is one entry of a step plan.
type Invocation struct {
	Kind   step.Kind
	Params step.Params
}

// Runner executes step plans. Steps run strictly in order; the first
// failure stops the plan.
type Runner struct {
	steps  *step.Registry
	deps   step.Deps
	logger *slog.Logger
}

// NewRunner creates a runner resolving kinds in steps.
func NewRunner(steps *step.Registry, deps step.Deps, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Runner{steps: steps, deps: deps, logger: logger}
}

// Run builds and runs each invocation against sc, merging outputs into sc.
// It returns every value merged so far, also on failure. Steps are traced
// into res when res is non-nil.
func (r *Runner) Run(ctx context.Context, sc *step.Context, plan []Invocation, res *Result) (map[string]any, error) {
	for i, inv := range plan {
		n := i + 1
		if err := ctx.Err(); err != nil {
			return sc.Values(), fmt.Errorf("step %d (%s): %w", n, inv.Kind, err)
		}

		ev := TraceEvent{Kind: string(inv.Kind), Params: traceParams(inv.Params)}

		s, err := r.steps.Build(inv.Kind, inv.Params, r.deps)
		if err != nil {
			ev.Error = err.Error()
			res.recordIfSet(ev)
			return sc.Values(), fmt.Errorf("step %d (%s): %w", n, inv.Kind, err)
		}

		out, err := s.Run(ctx, sc)
		if err != nil {
			ev.Error = err.Error()
			res.recordIfSet(ev)
			r.logger.Error("step failed", "step", n, "kind", inv.Kind, "error", err)
			return sc.Values(), fmt.Errorf("step %d (%s): %w", n, inv.Kind, err)
		}

		sc.Merge(out)
		ev.Output = outputKeys(out)
		res.recordIfSet(ev)

		r.logger.Info("step completed", "step", n, "kind", inv.Kind, "outputs", len(out))
	}
	return sc.Values(), nil
}

func (r *Result) recordIfSet(ev TraceEvent) {
	if r != nil {
		r.record(ev)
	}
}

// traceParams keeps params that render as plain data. Lists are replaced
// by their length.
func traceParams(p step.Params) map[string]any {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch tv := v.(type) {
		case string, bool, int, int64:
			out[k] = tv
		default:
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
				out[k] = rv.Len()
			} else {
				out[k] = fmt.Sprintf("%T", v)
			}
		}
	}
	return out
}

func outputKeys(out step.Output) []string {
	if len(out) == 0 {
		return nil
	}
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
