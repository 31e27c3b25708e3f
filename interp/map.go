package interp

// Map is the runtime representation of a ~ATH map literal. Go's built-in
// map has no iteration order, but MapLiteral evaluation, KEYS/VALUES, and
// UTTER/STRING all need a stable, declaration-order view — so maps carry
// their own key order alongside the value table.
type Map struct {
	order  []string
	values map[string]interface{}
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]interface{}{}}
}

// Get returns the value at key and whether it was present.
func (m *Map) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or overwrites key, appending it to the order on first insert.
func (m *Map) Set(key string, value interface{}) {
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = value
}

// Delete removes key if present; a missing key is a no-op.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.order) }

// Keys returns the keys in declaration order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Values returns the values in the same order as Keys.
func (m *Map) Values() []interface{} {
	out := make([]interface{}, len(m.order))
	for i, k := range m.order {
		out[i] = m.values[k]
	}
	return out
}

// Clone returns a shallow copy with its own independent order slice, used by
// SET/DELETE which return a new map rather than mutating in place.
func (m *Map) Clone() *Map {
	clone := &Map{
		order:  make([]string, len(m.order)),
		values: make(map[string]interface{}, len(m.values)),
	}
	copy(clone.order, m.order)
	for k, v := range m.values {
		clone.values[k] = v
	}
	return clone
}
