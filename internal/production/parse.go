package production

import (
	"regexp"
	"strings"

	"github.com/maryam97/pyactr/internal/model"
)

const arrow = "==>"

var headerRegex = regexp.MustCompile(`^([=?+~])([A-Za-z_][A-Za-z0-9_]*)>$`)

// clause is an intermediate representation of one header and its body lines.
type clause struct {
	prefix byte
	buffer string
	header string
	line   int
	body   []bodyLine
}

type bodyLine struct {
	fields []string
	line   int
}

// Parse builds a production from rule text of the form
//
//	=goal>
//	    isa     goal
//	    state   start
//	?manual>
//	    state   free
//	==>
//	+manual>
//	    isa     _manual
//	    cmd     press_key
//	    key     J
//	~visual>
//
// Malformed text fails with *model.RuleParseError.
func Parse(name, text string) (*Production, error) {
	lhs, rhs, err := splitSides(name, text)
	if err != nil {
		return nil, err
	}

	p := &Production{Name: name}
	for _, c := range lhs {
		cond, err := parseCondition(name, c)
		if err != nil {
			return nil, err
		}
		p.Conditions = append(p.Conditions, cond)
	}
	for _, c := range rhs {
		act, err := parseAction(name, c)
		if err != nil {
			return nil, err
		}
		p.Actions = append(p.Actions, act)
	}

	if len(p.Conditions) == 0 {
		return nil, &model.RuleParseError{Rule: name, Line: 1, Reason: "no conditions"}
	}
	if err := checkVariables(p); err != nil {
		return nil, err
	}
	return p, nil
}

// MustParse is Parse for rules known at compile time.
func MustParse(name, text string) *Production {
	p, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return p
}

// splitSides splits text into clauses on each side of the arrow.
func splitSides(name, text string) ([]clause, []clause, error) {
	lines := strings.Split(text, "\n")
	var sides [2][]clause
	side := 0
	arrows := 0

	for i, raw := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		if trimmed == arrow {
			arrows++
			if arrows > 1 {
				return nil, nil, &model.RuleParseError{Rule: name, Line: lineNum, Reason: "more than one " + arrow}
			}
			side = 1
			continue
		}

		if m := headerRegex.FindStringSubmatch(trimmed); m != nil {
			sides[side] = append(sides[side], clause{prefix: m[1][0], buffer: m[2], header: trimmed, line: lineNum})
			continue
		}

		cur := sides[side]
		if len(cur) == 0 {
			return nil, nil, &model.RuleParseError{Rule: name, Line: lineNum, Reason: "slot line outside any clause: " + trimmed}
		}
		fields := strings.Fields(trimmed)
		last := &cur[len(cur)-1]
		if len(fields) != 2 {
			return nil, nil, &model.RuleParseError{Rule: name, Clause: last.header, Line: lineNum, Reason: "expected 'slot value', got " + trimmed}
		}
		last.body = append(last.body, bodyLine{fields: fields, line: lineNum})
	}

	if arrows == 0 {
		return nil, nil, &model.RuleParseError{Rule: name, Line: len(lines), Reason: "missing " + arrow}
	}
	return sides[0], sides[1], nil
}

func parseCondition(rule string, c clause) (Condition, error) {
	cond := Condition{Buffer: c.buffer, Line: c.line}
	switch c.prefix {
	case '=':
		cond.Kind = Pattern
		typ, slots, err := parseSlots(rule, c, true)
		if err != nil {
			return cond, err
		}
		cond.Type, cond.Slots = typ, slots
	case '?':
		cond.Kind = Query
		for _, bl := range c.body {
			q := QueryTest{Field: bl.fields[0], Value: bl.fields[1]}
			if err := checkQuery(q); err != "" {
				return cond, &model.RuleParseError{Rule: rule, Clause: c.header, Line: bl.line, Reason: err}
			}
			cond.Queries = append(cond.Queries, q)
		}
		if len(cond.Queries) == 0 {
			return cond, &model.RuleParseError{Rule: rule, Clause: c.header, Line: c.line, Reason: "empty query"}
		}
	default:
		return cond, &model.RuleParseError{Rule: rule, Clause: c.header, Line: c.line, Reason: "only =buffer> and ?buffer> may appear before " + arrow}
	}
	return cond, nil
}

func checkQuery(q QueryTest) string {
	switch q.Field {
	case "buffer":
		if q.Value != "empty" && q.Value != "full" {
			return "buffer must be empty or full, got " + q.Value
		}
	case "state":
		if !model.ValidStates[model.BufferState(q.Value)] {
			return "state must be free, busy or error, got " + q.Value
		}
	default:
		return "unknown query field " + q.Field
	}
	return ""
}

func parseAction(rule string, c clause) (Action, error) {
	act := Action{Buffer: c.buffer, Line: c.line}
	switch c.prefix {
	case '=':
		act.Kind = Modify
	case '+':
		act.Kind = Request
	case '~':
		act.Kind = Clear
		if len(c.body) > 0 {
			return act, &model.RuleParseError{Rule: rule, Clause: c.header, Line: c.body[0].line, Reason: "clear takes no slots"}
		}
		return act, nil
	default:
		return act, &model.RuleParseError{Rule: rule, Clause: c.header, Line: c.line, Reason: "queries may not appear after " + arrow}
	}

	typ, slots, err := parseSlots(rule, c, act.Kind == Request)
	if err != nil {
		return act, err
	}
	if act.Kind == Request && typ == "" {
		return act, &model.RuleParseError{Rule: rule, Clause: c.header, Line: c.line, Reason: "request needs isa"}
	}
	if act.Kind == Modify && len(slots) == 0 {
		return act, &model.RuleParseError{Rule: rule, Clause: c.header, Line: c.line, Reason: "modification changes no slot"}
	}
	act.Type, act.Slots = typ, slots
	return act, nil
}

// parseSlots reads "isa T" and "slot value" lines. Values are =var, ~value,
// ~=var, None, or a constant symbol.
func parseSlots(rule string, c clause, allowNegate bool) (string, []SlotTerm, error) {
	var typ string
	var slots []SlotTerm
	seen := map[string]bool{}
	for _, bl := range c.body {
		slot, raw := bl.fields[0], bl.fields[1]
		fail := func(reason string) error {
			return &model.RuleParseError{Rule: rule, Clause: c.header, Line: bl.line, Reason: reason}
		}

		if slot == "isa" {
			if typ != "" {
				return "", nil, fail("isa given twice")
			}
			typ = raw
			continue
		}
		if seen[slot] {
			return "", nil, fail("slot " + slot + " given twice")
		}
		seen[slot] = true

		st := SlotTerm{Slot: slot}
		if strings.HasPrefix(raw, "~") {
			if !allowNegate {
				return "", nil, fail("negation not allowed here: " + raw)
			}
			st.Negate = true
			raw = raw[1:]
		}
		switch {
		case raw == "":
			return "", nil, fail("missing value for slot " + slot)
		case raw == "=":
			return "", nil, fail("empty variable name for slot " + slot)
		case strings.HasPrefix(raw, "="):
			st.Term = Term{Var: raw[1:]}
		case raw == "None":
			st.Term = Term{}
		default:
			st.Term = Term{Const: model.Sym(raw)}
		}
		slots = append(slots, st)
	}
	return typ, slots, nil
}

// checkVariables enforces that the first condition occurrence of a variable
// binds it and that every action variable is bound by the conditions.
func checkVariables(p *Production) error {
	bound := map[string]bool{}
	for _, c := range p.Conditions {
		if c.Kind != Pattern {
			continue
		}
		bound[c.Buffer] = true
		for _, s := range c.Slots {
			if !s.Term.IsVar() {
				continue
			}
			if s.Negate && !bound[s.Term.Var] {
				return &model.RuleParseError{Rule: p.Name, Clause: "=" + c.Buffer + ">", Line: c.Line,
					Reason: "variable =" + s.Term.Var + " first occurs negated"}
			}
			bound[s.Term.Var] = true
		}
	}
	for _, a := range p.Actions {
		for _, s := range a.Slots {
			if s.Term.IsVar() && !bound[s.Term.Var] {
				return &model.RuleParseError{Rule: p.Name, Clause: headerFor(a), Line: a.Line,
					Reason: "variable =" + s.Term.Var + " is not bound by any condition"}
			}
		}
	}
	return nil
}

func headerFor(a Action) string {
	switch a.Kind {
	case Modify:
		return "=" + a.Buffer + ">"
	case Request:
		return "+" + a.Buffer + ">"
	default:
		return "~" + a.Buffer + ">"
	}
}
