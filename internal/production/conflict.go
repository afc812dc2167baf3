package production

import "fmt"

// Policy selects one production among the matching set.
type Policy int

const (
	// RuleOrder fires the earliest-registered matching production.
	RuleOrder Policy = iota
	// Utility fires the matching production with the highest utility,
	// ties broken by registration order.
	Utility
)

func (p Policy) String() string {
	switch p {
	case RuleOrder:
		return "rule-order"
	case Utility:
		return "utility"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses "rule-order" or "utility".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "rule-order":
		return RuleOrder, nil
	case "utility":
		return Utility, nil
	default:
		return RuleOrder, fmt.Errorf("unknown conflict resolution mode %q (valid: rule-order, utility)", s)
	}
}

// Select picks the production to fire. Matches must be in registration order.
func (p Policy) Select(matches []Match) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	best := matches[0]
	if p == Utility {
		for _, m := range matches[1:] {
			if m.Production.Utility > best.Production.Utility {
				best = m
			}
		}
	}
	return best, true
}
