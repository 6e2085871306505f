package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/catalog"
	"github.com/roach88/storecheck/internal/step"
)

// recordingRegistry registers steps that log their kind when run.
func recordingRegistry(t *testing.T, ran *[]string, kinds ...step.Kind) *step.Registry {
	t.Helper()
	reg := step.NewRegistry()
	for _, k := range kinds {
		kind := k
		require.NoError(t, reg.Register(kind, func(params step.Params, _ step.Deps) (step.Step, error) {
			return step.Func(func(_ context.Context, sc *step.Context) (step.Output, error) {
				*ran = append(*ran, string(kind))
				if params["fail"] == true {
					return nil, errors.New("boom")
				}
				return step.Output{string(kind): len(*ran)}, nil
			}), nil
		}))
	}
	return reg
}

func TestRunner_SequentialAndMerged(t *testing.T) {
	var ran []string
	r := NewRunner(recordingRegistry(t, &ran, "a", "b", "c"), step.Deps{}, nil)
	sc := step.NewContext(testEnv, nil)
	res := NewResult("r", "s", "v")

	out, err := r.Run(context.Background(), sc, []Invocation{
		{Kind: "c"}, {Kind: "a"}, {Kind: "b"},
	}, res)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, ran)
	assert.Equal(t, map[string]any{"c": 1, "a": 2, "b": 3}, out)

	require.Len(t, res.Trace, 3)
	for i, ev := range res.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, []string{ev.Kind}, ev.Output)
	}
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	r := NewRunner(recordingRegistry(t, &ran, "a", "b"), step.Deps{}, nil)
	sc := step.NewContext(testEnv, nil)
	res := NewResult("r", "s", "v")

	out, err := r.Run(context.Background(), sc, []Invocation{
		{Kind: "a"},
		{Kind: "b", Params: step.Params{"fail": true}},
		{Kind: "a"},
	}, res)
	require.Error(t, err)
	assert.Equal(t, "step 2 (b): boom", err.Error())
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Equal(t, map[string]any{"a": 1}, out)

	require.Len(t, res.Trace, 2)
	assert.Equal(t, "boom", res.Trace[1].Error)
}

func TestRunner_UnknownStep(t *testing.T) {
	var ran []string
	r := NewRunner(recordingRegistry(t, &ran, "a"), step.Deps{}, nil)

	_, err := r.Run(context.Background(), step.NewContext(testEnv, nil), []Invocation{
		{Kind: "a"}, {Kind: "missing"},
	}, nil)
	require.ErrorIs(t, err, step.ErrUnknownStep)
	assert.Contains(t, err.Error(), "step 2 (missing)")
	assert.Equal(t, []string{"a"}, ran)
}

func TestRunner_EmptyPlan(t *testing.T) {
	r := NewRunner(step.NewRegistry(), step.Deps{}, nil)
	out, err := r.Run(context.Background(), step.NewContext(testEnv, nil), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTraceParams(t *testing.T) {
	got := traceParams(step.Params{
		"config_data": "x",
		"flush_cache": true,
		"products":    []catalog.ProductSpec{{SKU: "A"}, {SKU: "B"}},
		"other":       map[string]any{"k": "v"},
	})
	assert.Equal(t, map[string]any{
		"config_data": "x",
		"flush_cache": true,
		"products":    2,
		"other":       "map[string]interface {}",
	}, got)

	assert.Nil(t, traceParams(nil))
}
