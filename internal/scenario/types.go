package scenario

import (
	"github.com/roach88/storecheck/internal/config"
	"github.com/roach88/storecheck/internal/fixture"
)

// KindTeardown marks the teardown entry in a trace. It is not a step kind.
const KindTeardown = "teardown"

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
	Output []string       `json:"output,omitempty"` // keys merged into the context
	Error  string         `json:"error,omitempty"`
}

// Result is the outcome of one variation.
type Result struct {
	RunID     string `json:"run_id"`
	Scenario  string `json:"scenario"`
	Variation string `json:"variation"`

	// Pass is true when every step succeeded and every assertion held.
	Pass bool `json:"pass"`

	// Fixtures maps fixture names ("cart") to built fixtures.
	Fixtures map[string]*fixture.Fixture `json:"fixtures"`

	// Env is the environment the steps ended with.
	Env config.Environment `json:"env"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID, scenario, variation string) *Result {
	return &Result{
		RunID:     runID,
		Scenario:  scenario,
		Variation: variation,
		Pass:      true,
		Fixtures:  make(map[string]*fixture.Fixture),
		Trace:     []TraceEvent{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Cart returns the cart fixture, or nil when the run did not get that far.
func (r *Result) Cart() *fixture.Fixture {
	return r.Fixtures[fixture.KindCart]
}

// record appends a trace event with the next sequence number.
func (r *Result) record(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
