package game

// Condition is a pure boolean predicate over the game state, built from a
// small closed grammar. The zero value (empty Type) evaluates to true so
// content items without a condition always run.
type Condition struct {
	Type string `json:"type"`

	// flag / not_flag
	Flag string `json:"flag,omitempty"`

	// variable comparison
	Variable string      `json:"variable,omitempty"`
	Op       string      `json:"op,omitempty"`
	Value    interface{} `json:"value,omitempty"`

	// item count check (at least Count, default 1)
	Item  string `json:"item,omitempty"`
	Count int    `json:"count,omitempty"`

	// chapter comparison
	Number int `json:"number,omitempty"`

	// and / or
	Conditions []Condition `json:"conditions,omitempty"`

	// not
	Condition *Condition `json:"condition,omitempty"`
}

// Evaluate runs a condition against the current state. Evaluation is pure
// and synchronous; it never mutates the store.
//
// Unknown condition types evaluate to true, preserving the permissive
// pass-through existing content depends on, but a system.warning names the
// offending tag so malformed conditions are visible instead of silently
// unlocking content forever.
func (s *State) Evaluate(c *Condition) bool {
	if c == nil || c.Type == "" {
		return true
	}

	switch c.Type {
	case "flag":
		return s.Flag(c.Flag)

	case "not_flag":
		return !s.Flag(c.Flag)

	case "variable":
		return compareScalars(s.Variable(c.Variable, nil), c.Op, c.Value)

	case "item":
		needed := c.Count
		if needed <= 0 {
			needed = 1
		}
		return s.ItemCount(c.Item) >= needed

	case "chapter":
		return compareScalars(float64(s.chapter), c.Op, float64(c.Number))

	case "and":
		for i := range c.Conditions {
			if !s.Evaluate(&c.Conditions[i]) {
				return false
			}
		}
		return true

	case "or":
		for i := range c.Conditions {
			if s.Evaluate(&c.Conditions[i]) {
				return true
			}
		}
		return len(c.Conditions) == 0

	case "not":
		return !s.Evaluate(c.Condition)

	default:
		s.bus.Emit("warning", "system.warning", "unknown condition type", map[string]interface{}{
			"condition_type": c.Type,
		})
		return true
	}
}

// compareScalars applies a comparison operator to two scalars. Numbers
// compare numerically (coercing int/float64 so JSON-decoded values work);
// everything else supports only eq/ne. A missing or unknown operator
// defaults to equality.
func compareScalars(actual interface{}, op string, expected interface{}) bool {
	an, aok := toNumber(actual)
	en, eok := toNumber(expected)
	if aok && eok {
		switch op {
		case "", "eq", "==":
			return an == en
		case "ne", "!=":
			return an != en
		case "gt", ">":
			return an > en
		case "gte", ">=":
			return an >= en
		case "lt", "<":
			return an < en
		case "lte", "<=":
			return an <= en
		default:
			return false
		}
	}

	switch op {
	case "", "eq", "==":
		return actual == expected
	case "ne", "!=":
		return actual != expected
	default:
		return false
	}
}
