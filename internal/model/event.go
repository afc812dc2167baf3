package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// EventKind classifies scheduled events.
type EventKind int

const (
	EventRequestIssued EventKind = iota
	EventCompletion
	EventProductionFired
	EventBufferChanged
)

func (k EventKind) String() string {
	switch k {
	case EventRequestIssued:
		return "module-request-issued"
	case EventCompletion:
		return "module-completion"
	case EventProductionFired:
		return "production-fired"
	case EventBufferChanged:
		return "buffer-state-changed"
	default:
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
}

// ParseEventKind is the inverse of EventKind.String.
func ParseEventKind(s string) (EventKind, bool) {
	switch s {
	case "module-request-issued":
		return EventRequestIssued, true
	case "module-completion":
		return EventCompletion, true
	case "production-fired":
		return EventProductionFired, true
	case "buffer-state-changed":
		return EventBufferChanged, true
	default:
		return 0, false
	}
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *EventKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseEventKind(s)
	if !ok {
		return fmt.Errorf("invalid event kind: %s", s)
	}
	*k = parsed
	return nil
}

// Event is one entry of the simulation timeline. Events are values; the
// payload pointers must be treated as read-only once scheduled.
type Event struct {
	Seq        uint64      `json:"seq"`
	Time       float64     `json:"time"`
	Kind       EventKind   `json:"kind"`
	Buffer     string      `json:"buffer,omitempty"`
	Module     string      `json:"module,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Firing     *Firing     `json:"firing,omitempty"`
	Completion *Completion `json:"completion,omitempty"`
}

func (e Event) String() string {
	who := e.Module
	if who == "" {
		who = e.Buffer
	}
	if who == "" {
		who = "procedural"
	}
	return fmt.Sprintf("(%s, %s, %s)", strconv.FormatFloat(e.Time, 'f', 4, 64), who, e.Detail)
}

// Firing is the payload of a production-fired event.
type Firing struct {
	Production string           `json:"production"`
	Index      int              `json:"index"`
	Bindings   map[string]Value `json:"bindings,omitempty"`
	// Rejected is set when an action targeted a busy buffer and no action was applied.
	Rejected bool `json:"rejected,omitempty"`
}

// Completion is the payload of a module-completion event.
type Completion struct {
	Chunk  ChunkID `json:"chunk,omitempty"`
	Failed bool    `json:"failed,omitempty"`
	Key    rune    `json:"key,omitempty"`
	// Reinforce asks declarative memory to record a presentation of Chunk.
	Reinforce   bool         `json:"reinforce,omitempty"`
	Generation  uint64       `json:"generation"`
	Activations []Activation `json:"activations,omitempty"`
}

// Activation is one candidate's activation breakdown from a retrieval.
type Activation struct {
	Chunk  ChunkID `json:"chunk"`
	Base   float64 `json:"base"`
	Spread float64 `json:"spread"`
	Noise  float64 `json:"noise"`
	Total  float64 `json:"total"`
}

// MarshalJSON encodes non-finite activations as strings; encoding/json
// rejects infinities.
func (a Activation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Chunk  ChunkID `json:"chunk"`
		Base   any     `json:"base"`
		Spread any     `json:"spread"`
		Noise  any     `json:"noise"`
		Total  any     `json:"total"`
	}{a.Chunk, jsonFloat(a.Base), jsonFloat(a.Spread), jsonFloat(a.Noise), jsonFloat(a.Total)})
}

func jsonFloat(f float64) any {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return f
}

// UnmarshalJSON accepts the string form MarshalJSON uses for infinities.
func (a *Activation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Chunk  ChunkID         `json:"chunk"`
		Base   json.RawMessage `json:"base"`
		Spread json.RawMessage `json:"spread"`
		Noise  json.RawMessage `json:"noise"`
		Total  json.RawMessage `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Chunk = raw.Chunk
	for _, f := range []struct {
		dst *float64
		src json.RawMessage
	}{{&a.Base, raw.Base}, {&a.Spread, raw.Spread}, {&a.Noise, raw.Noise}, {&a.Total, raw.Total}} {
		v, err := parseJSONFloat(f.src)
		if err != nil {
			return fmt.Errorf("activation of chunk %d: %w", raw.Chunk, err)
		}
		*f.dst = v
	}
	return nil
}

func parseJSONFloat(data json.RawMessage) (float64, error) {
	if len(data) == 0 || string(data) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
