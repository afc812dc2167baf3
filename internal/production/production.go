// Package production parses condition-action rules over buffer contents,
// matches them against a buffer snapshot, and resolves conflicts between
// matching rules.
package production

import (
	"fmt"

	"github.com/maryam97/pyactr/internal/model"
)

// Term is a slot value in a rule: a variable name or a constant.
type Term struct {
	Var   string      `json:"var,omitempty"`
	Const model.Value `json:"const"`
}

// IsVar reports whether the term is a variable.
func (t Term) IsVar() bool { return t.Var != "" }

func (t Term) String() string {
	if t.IsVar() {
		return "=" + t.Var
	}
	return t.Const.String()
}

// SlotTerm pairs a slot with a term. Negate inverts the test (conditions)
// or the constraint (retrieval requests).
type SlotTerm struct {
	Slot   string `json:"slot"`
	Term   Term   `json:"term"`
	Negate bool   `json:"negate,omitempty"`
}

// ConditionKind distinguishes content patterns from state queries.
type ConditionKind int

const (
	// Pattern tests the chunk held in a buffer (=buffer>).
	Pattern ConditionKind = iota
	// Query tests buffer fullness or module state (?buffer>).
	Query
)

// QueryTest is one line of a query clause; Field is "buffer" or "state".
type QueryTest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Condition is one left-hand-side clause.
type Condition struct {
	Kind    ConditionKind `json:"kind"`
	Buffer  string        `json:"buffer"`
	Type    string        `json:"type,omitempty"`
	Slots   []SlotTerm    `json:"slots,omitempty"`
	Queries []QueryTest   `json:"queries,omitempty"`
	Line    int           `json:"line"`
}

// ActionKind is what a right-hand-side clause does to its buffer.
type ActionKind int

const (
	// Modify replaces the buffer chunk with a modified copy (=buffer>).
	Modify ActionKind = iota
	// Request issues a module request (+buffer>).
	Request
	// Clear empties the buffer (~buffer>).
	Clear
)

func (k ActionKind) String() string {
	switch k {
	case Modify:
		return "modify"
	case Request:
		return "request"
	case Clear:
		return "clear"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is one right-hand-side clause.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Buffer string     `json:"buffer"`
	Type   string     `json:"type,omitempty"`
	Slots  []SlotTerm `json:"slots,omitempty"`
	Line   int        `json:"line"`
}

// Production is a parsed rule. Index is its registration order.
type Production struct {
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	Utility    float64     `json:"utility,omitempty"`
	Index      int         `json:"index"`
}

// Bindings maps variable names to values for one firing.
type Bindings map[string]model.Value

// Resolve instantiates a term.
func (b Bindings) Resolve(t Term) (model.Value, error) {
	if !t.IsVar() {
		return t.Const, nil
	}
	v, ok := b[t.Var]
	if !ok {
		return model.Value{}, fmt.Errorf("unbound variable =%s", t.Var)
	}
	return v, nil
}

// Clone copies the bindings.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
