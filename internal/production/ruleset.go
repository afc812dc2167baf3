package production

import (
	"errors"
	"strconv"
	"strings"

	"github.com/maryam97/pyactr/internal/model"
)

// ParseRules parses a rule file: a sequence of blocks, each opened by a
// header line
//
//	rule <name> [utility=<u>]
//
// in column 0, followed by the indented rule text accepted by Parse.
// Lines starting with # are comments. Rules are returned in file order,
// which is their registration order. Error line numbers refer to the
// whole file.
func ParseRules(text string) ([]*Production, error) {
	type block struct {
		name    string
		utility float64
		start   int
		lines   []string
	}

	var blocks []*block
	seen := map[string]bool{}
	for i, raw := range strings.Split(text, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)

		if strings.HasPrefix(trimmed, "#") {
			trimmed, raw = "", ""
		}
		fields := strings.Fields(trimmed)
		// headers start in column 0; an indented "rule" is a slot name
		if len(fields) > 0 && fields[0] == "rule" && raw == strings.TrimLeft(raw, " \t") {
			b, err := parseHeader(fields, lineNum)
			if err != nil {
				return nil, err
			}
			if seen[b.name] {
				return nil, &model.RuleParseError{Rule: b.name, Line: lineNum, Reason: "duplicate rule name"}
			}
			seen[b.name] = true
			blocks = append(blocks, &block{name: b.name, utility: b.utility, start: lineNum})
			continue
		}

		if len(blocks) == 0 {
			if trimmed != "" {
				return nil, &model.RuleParseError{Line: lineNum, Reason: "text before the first rule header: " + trimmed}
			}
			continue
		}
		cur := blocks[len(blocks)-1]
		cur.lines = append(cur.lines, raw)
	}

	rules := make([]*Production, 0, len(blocks))
	for _, b := range blocks {
		p, err := Parse(b.name, strings.Join(b.lines, "\n"))
		if err != nil {
			var pe *model.RuleParseError
			if errors.As(err, &pe) {
				shifted := *pe
				shifted.Line += b.start
				return nil, &shifted
			}
			return nil, err
		}
		p.Utility = b.utility
		p.Index = len(rules)
		rules = append(rules, p)
	}
	return rules, nil
}

type header struct {
	name    string
	utility float64
}

func parseHeader(fields []string, line int) (header, error) {
	if len(fields) < 2 {
		return header{}, &model.RuleParseError{Line: line, Reason: "rule header needs a name"}
	}
	h := header{name: fields[1]}
	for _, f := range fields[2:] {
		key, val, ok := strings.Cut(f, "=")
		if !ok || key != "utility" {
			return header{}, &model.RuleParseError{Rule: h.name, Line: line, Reason: "unknown rule option " + f}
		}
		u, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return header{}, &model.RuleParseError{Rule: h.name, Line: line, Reason: "utility must be a number, got " + val}
		}
		h.utility = u
	}
	return h, nil
}
