package sim

import "github.com/maryam97/pyactr/internal/model"

// Extractor watches applied events for the first key press of the motor
// module and records it as the trial's response.
type Extractor struct {
	result model.TrialResult
	done   bool
}

// NewExtractor returns an extractor that has seen no response.
func NewExtractor() *Extractor { return &Extractor{} }

// Observe inspects one applied event and reports whether it was the
// response. Firings, failed completions and completions of other modules
// carry no response and are skipped.
func (x *Extractor) Observe(e model.Event) bool {
	if x.done || e.Kind != model.EventCompletion || e.Module != ModuleMotor {
		return false
	}
	c := e.Completion
	if c == nil || c.Failed || c.Key == 0 {
		return false
	}
	x.result = model.TrialResult{ReactionTime: e.Time, Key: string(c.Key)}
	x.done = true
	return true
}

// Done reports whether a response has been recorded.
func (x *Extractor) Done() bool { return x.done }

// Result returns the recorded response. Without one, the result is the
// zero TrialResult.
func (x *Extractor) Result() (model.TrialResult, bool) { return x.result, x.done }

// Extract scans a recorded trace for the response.
func Extract(trace []model.Event) (model.TrialResult, bool) {
	x := NewExtractor()
	for _, e := range trace {
		if x.Observe(e) {
			break
		}
	}
	return x.Result()
}
