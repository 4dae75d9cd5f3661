package upstream

// RawMatch is one live event exactly as delivered by the upstream feed.
// The shape shifts between responses and over time, so every read goes
// through an accessor that reports absence instead of panicking; nothing
// outside the classifier should assume a field exists.
type RawMatch map[string]any

// Child descends through nested objects, returning nil when any step is
// missing or not an object.
func (m RawMatch) Child(keys ...string) RawMatch {
	cur := m
	for _, key := range keys {
		if cur == nil {
			return nil
		}
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// String returns the string at the given path.
func (m RawMatch) String(keys ...string) (string, bool) {
	v, ok := m.value(keys)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the number at the given path truncated to int. JSON numbers
// decode as float64; integers stored as strings are not accepted.
func (m RawMatch) Int(keys ...string) (int, bool) {
	v, ok := m.value(keys)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

// Int64 is Int for values that may exceed 32 bits (timestamps, event ids).
func (m RawMatch) Int64(keys ...string) (int64, bool) {
	v, ok := m.value(keys)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func (m RawMatch) value(keys []string) (any, bool) {
	if len(keys) == 0 || m == nil {
		return nil, false
	}
	parent := m
	if len(keys) > 1 {
		parent = m.Child(keys[:len(keys)-1]...)
		if parent == nil {
			return nil, false
		}
	}
	v, ok := parent[keys[len(keys)-1]]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
