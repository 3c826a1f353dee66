package docstore

import (
	"reflect"
	"strings"
	"time"
)

// resolve copies data, replacing ServerTimestamp with now and dropping Delete.
func resolve(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch x := v.(type) {
		case sentinel:
			if x == ServerTimestamp {
				out[k] = now
			}
		case arrayOp:
			out[k] = applyArrayOp(nil, x)
		case map[string]any:
			out[k] = resolve(x, now)
		default:
			out[k] = copyValue(v)
		}
	}
	return out
}

func applyArrayOp(current any, op arrayOp) []any {
	var out []any
	switch x := current.(type) {
	case []any:
		out = append(out, x...)
	case []string:
		for _, s := range x {
			out = append(out, s)
		}
	}
	if op.union {
		for _, v := range op.values {
			if !containsValue(out, v) {
				out = append(out, v)
			}
		}
		return out
	}
	kept := []any{}
	for _, v := range out {
		if !containsValue(op.values, v) {
			kept = append(kept, v)
		}
	}
	return kept
}

func containsValue(list []any, v any) bool {
	for _, x := range list {
		if equalValues(x, v) {
			return true
		}
	}
	return false
}

// merge applies patch onto dst field by field, recursing into nested maps
// the way a Firestore MergeAll write does.
func merge(dst, patch map[string]any, now time.Time) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range patch {
		switch x := v.(type) {
		case sentinel:
			if x == Delete {
				delete(dst, k)
			} else {
				dst[k] = now
			}
		case arrayOp:
			dst[k] = applyArrayOp(dst[k], x)
		case map[string]any:
			existing, _ := dst[k].(map[string]any)
			dst[k] = merge(existing, x, now)
		default:
			dst[k] = copyValue(v)
		}
	}
	return dst
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = copyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = copyValue(vv)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return copyValue(m).(map[string]any)
}

// lookup resolves a dotted field path such as "habits.sleepBucket".
func lookup(data map[string]any, field string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders nil < bool < number < time < string, as Firestore does.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case time.Time:
		y := b.(time.Time)
		return x.Compare(y)
	case string:
		return strings.Compare(x, b.(string))
	}
	if af, ok := toFloat(a); ok {
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case time.Time:
		return 3
	case string:
		return 4
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	return 5
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
