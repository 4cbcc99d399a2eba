package diagnose

import "time"

// State tracks how far a case has progressed through the pipeline.
type State string

const (
	StateReceived        State = "received"
	StateVisionExtracted State = "vision_extracted"
	StateRetrieved       State = "retrieved"
	StateFiltered        State = "filtered"
	StateRanked          State = "ranked"
	StateAssembled       State = "assembled"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
)

// Trace records the progress of one diagnosis run. It is owned by a
// single request and is not safe for concurrent use.
type Trace struct {
	CaseID      string
	State       State
	Timings     map[string]float64
	Annotations []string
	Error       string
	started     time.Time
}

// NewTrace starts a trace for the given case identifier.
func NewTrace(caseID string) *Trace {
	return &Trace{
		CaseID:  caseID,
		State:   StateReceived,
		Timings: make(map[string]float64),
		started: time.Now(),
	}
}

// Advance moves the trace to the next state.
func (t *Trace) Advance(state State) {
	t.State = state
}

// Record stores a stage timing in seconds under the given key.
func (t *Trace) Record(key string, d time.Duration) {
	t.Timings[key] = d.Seconds()
}

// Time runs fn and records its wall-clock duration under key. The
// timing is recorded even when fn fails.
func (t *Trace) Time(key string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(key, time.Since(start))
	return err
}

// Annotate appends a free-form note, used for degraded stages and
// non-fatal persistence failures.
func (t *Trace) Annotate(note string) {
	t.Annotations = append(t.Annotations, note)
}

// Complete marks the trace finished and records the total duration.
func (t *Trace) Complete() {
	t.Record("total", time.Since(t.started))
	t.State = StateCompleted
}

// Fail marks the trace failed with the given error.
func (t *Trace) Fail(err error) {
	t.Record("total", time.Since(t.started))
	t.State = StateFailed
	if err != nil {
		t.Error = err.Error()
	}
}
