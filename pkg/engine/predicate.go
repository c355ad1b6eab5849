package engine

import (
	"fmt"
	"strconv"
)

// CompareOp is a single comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpGt CompareOp = ">"
	OpLe CompareOp = "<="
	OpGe CompareOp = ">="
)

// Combine says how a predicate's conditions compose.
type Combine string

const (
	// CombineAnd - every condition must hold. The default.
	CombineAnd Combine = "and"

	// CombineOr - at least one condition must hold.
	CombineOr Combine = "or"
)

// Condition compares one column against a literal value.
type Condition struct {
	Column string      `json:"column"`
	Op     CompareOp   `json:"op"`
	Value  interface{} `json:"value"`
}

// Predicate filters rows. A nil predicate or one with no conditions matches
// every row. The engine consumes predicates already structured; turning query
// text into a Predicate belongs to the caller.
type Predicate struct {
	Conditions []Condition `json:"conditions"`
	Combine    Combine     `json:"combine,omitempty"`
}

// Matches reports whether a row's values satisfy the predicate.
func (p *Predicate) Matches(values map[string]interface{}) bool {
	if p == nil || len(p.Conditions) == 0 {
		return true
	}

	if p.Combine == CombineOr {
		for _, c := range p.Conditions {
			if c.matches(values) {
				return true
			}
		}
		return false
	}

	for _, c := range p.Conditions {
		if !c.matches(values) {
			return false
		}
	}
	return true
}

func (c Condition) matches(values map[string]interface{}) bool {
	left, ok := values[c.Column]
	if !ok {
		return false
	}
	return compare(left, c.Value, c.Op)
}

// compare evaluates left <op> right. When both sides are numeric the
// comparison is numeric; otherwise values are compared by their string form,
// mirroring how loosely typed row values behave.
func compare(left, right interface{}, op CompareOp) bool {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch op {
		case OpEq:
			return lf == rf
		case OpNe:
			return lf != rf
		case OpLt:
			return lf < rf
		case OpGt:
			return lf > rf
		case OpLe:
			return lf <= rf
		case OpGe:
			return lf >= rf
		}
		return false
	}

	ls, rs := fmt.Sprint(left), fmt.Sprint(right)
	switch op {
	case OpEq:
		return ls == rs
	case OpNe:
		return ls != rs
	case OpLt:
		return ls < rs
	case OpGt:
		return ls > rs
	case OpLe:
		return ls <= rs
	case OpGe:
		return ls >= rs
	}
	return false
}

// asFloat widens any numeric value (or numeric string) to float64.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
