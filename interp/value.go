package interp

import "fmt"

// Values are represented as plain Go interface{}: nil (VOID), bool
// (ALIVE/DEAD), int64, float64, string, []interface{} (array),
// *Map (map), *Rite or *BuiltinFunc (callables), or an
// Entity. This mirrors the dynamic typing of the reference implementation
// directly rather than wrapping every value in a tagged struct.

// TypeName returns the ~ATH type name of a runtime value, as returned by
// the TYPEOF builtin.
func TypeName(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "VOID"
	case bool:
		return "BOOLEAN"
	case int64:
		return "INTEGER"
	case float64:
		return "FLOAT"
	case string:
		return "STRING"
	case []interface{}:
		return "ARRAY"
	case *Map:
		return "MAP"
	case Entity:
		return "ENTITY"
	case *Rite:
		return "RITE"
	case *BuiltinFunc:
		return "RITE"
	default:
		_ = val
		return "UNKNOWN"
	}
}

// Stringify produces the canonical string form of a value: UTTER/STRING and
// string concatenation with `+` both go through this.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "VOID"
	case bool:
		if val {
			return "ALIVE"
		}
		return "DEAD"
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return formatFloat(val)
	case string:
		return val
	case []interface{}:
		out := "["
		for i, e := range val {
			if i > 0 {
				out += ", "
			}
			out += Stringify(e)
		}
		return out + "]"
	case *Map:
		out := "{"
		for i, k := range val.Keys() {
			if i > 0 {
				out += ", "
			}
			v, _ := val.Get(k)
			out += k + ": " + Stringify(v)
		}
		return out + "}"
	case Entity:
		return val.Name()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatFloat appends ".0" when %g gives neither a decimal point nor an
// exponent, so 2.0 never collapses to the integer's string form. Values that
// %g prints in exponent form (1e+06) are returned as they are.
func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}
	return s + ".0"
}

// IsTruthy implements the truthiness rule used by conditionals, AND/OR
// short-circuiting, and NOT: VOID and false are falsy, zero numbers and
// empty strings/arrays/maps are falsy, everything else (including
// entities) is truthy.
func IsTruthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	case *Map:
		return val.Len() > 0
	default:
		return true
	}
}

// Equals implements `==`/`!=` for the runtime's value types.
func Equals(a, b interface{}) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		}
		return false
	case float64:
		switch bv := b.(type) {
		case int64:
			return av == float64(bv)
		case float64:
			return av == bv
		}
		return false
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equals(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			v, _ := av.Get(k)
			bvv, ok := bv.Get(k)
			if !ok || !Equals(v, bvv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
