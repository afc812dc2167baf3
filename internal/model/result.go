package model

// TrialResult is the outcome of one simulated trial. Key is empty when
// the trial ended without a response.
type TrialResult struct {
	ReactionTime float64 `json:"reaction_time"`
	Key          string  `json:"response_key,omitempty"`
}

// Responded reports whether a key press was observed.
func (r TrialResult) Responded() bool { return r.Key != "" }
