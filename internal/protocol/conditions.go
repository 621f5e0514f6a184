package protocol

import (
	"reflect"
	"time"

	"github.com/oldmangrizzz/looktony/pkg/models"
)

// now is the clock temporal conditions read. Overridable in tests.
var now = time.Now

// Evaluate checks a single condition against a context. It is pure and never
// panics: type mismatches, absent keys and unknown kinds or operators all
// evaluate to false.
//
// Environmental and tactical conditions resolve their operand from the
// corresponding context sub-map (the Key entry when set, the whole sub-map
// otherwise). Temporal conditions resolve to the current wall-clock reading
// in unix milliseconds and ignore the context entirely.
func Evaluate(cond models.Condition, ctx *models.Context) bool {
	op, ok := operators[cond.Operator]
	if !ok {
		return false
	}
	resolved, ok := resolveOperand(cond, ctx)
	if !ok {
		return false
	}
	return op(resolved, cond.Value)
}

// AllSatisfied reports whether every condition in the set evaluates true.
// An empty set is vacuously satisfied.
func AllSatisfied(conds []models.Condition, ctx *models.Context) bool {
	for _, cond := range conds {
		if !Evaluate(cond, ctx) {
			return false
		}
	}
	return true
}

// resolveOperand produces the left-hand operand for a condition.
func resolveOperand(cond models.Condition, ctx *models.Context) (any, bool) {
	switch cond.Kind {
	case models.ConditionTemporal:
		return float64(now().UnixMilli()), true
	case models.ConditionEnvironmental, models.ConditionTactical:
		section := ctx.Section(cond.Kind)
		if section == nil {
			return nil, false
		}
		if cond.Key == "" {
			return section, true
		}
		v, ok := section[cond.Key]
		return v, ok
	default:
		return nil, false
	}
}

// operators is the closed dispatch table for the condition vocabulary.
var operators = map[models.Operator]func(resolved, expected any) bool{
	models.OpEquals:   opEquals,
	models.OpGreater:  opGreater,
	models.OpLess:     opLess,
	models.OpContains: opContains,
}

// opEquals is structural equality. Numeric operands are normalized first so
// an int reading matches a float comparison value.
func opEquals(resolved, expected any) bool {
	if a, ok := toFloat(resolved); ok {
		b, ok := toFloat(expected)
		return ok && a == b
	}
	return reflect.DeepEqual(resolved, expected)
}

func opGreater(resolved, expected any) bool {
	a, ok := toFloat(resolved)
	if !ok {
		return false
	}
	b, ok := toFloat(expected)
	return ok && a > b
}

func opLess(resolved, expected any) bool {
	a, ok := toFloat(resolved)
	if !ok {
		return false
	}
	b, ok := toFloat(expected)
	return ok && a < b
}

// opContains requires the resolved operand to be a sequence and checks
// membership of the expected value.
func opContains(resolved, expected any) bool {
	rv := reflect.ValueOf(resolved)
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if opEquals(rv.Index(i).Interface(), expected) {
			return true
		}
	}
	return false
}

// toFloat coerces numeric values to float64 for comparison.
func toFloat(v any) (float64, bool) {
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
	default:
		return 0, false
	}
}
