package eventlog

// ScopeValues is an ordered mapping of string keys to values, uniquely
// identifying a scope instantiation. BaseScope is the default
// scope of a job that isn't part of a dynamically-expanded family.
// AllScopes is a reserved sentinel that a Job's scope must never be set to.
type ScopeValues struct {
	keys    []string
	values  map[string]any
	special string
}

// BaseScope is the default, empty scope.
var BaseScope = ScopeValues{}

// AllScopes is a reserved sentinel; Job construction rejects it.
var AllScopes = ScopeValues{special: "all_scopes"}

// ScopeKV is a single key/value pair used to build a ScopeValues in order.
type ScopeKV struct {
	Key   string
	Value any
}

// NewScopeValues builds a ScopeValues, preserving the given key order.
func NewScopeValues(pairs ...ScopeKV) ScopeValues {
	keys := make([]string, 0, len(pairs))
	values := make(map[string]any, len(pairs))
	for _, p := range pairs {
		if _, exists := values[p.Key]; !exists {
			keys = append(keys, p.Key)
		}
		values[p.Key] = p.Value
	}
	return ScopeValues{keys: keys, values: values}
}

// IsAllScopes reports whether this is the ALL_SCOPES sentinel.
func (s ScopeValues) IsAllScopes() bool { return s.special == "all_scopes" }

// Keys returns the scope's keys in construction order.
func (s ScopeValues) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the value for key and whether it was present.
func (s ScopeValues) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Len returns the number of keys in the scope.
func (s ScopeValues) Len() int { return len(s.keys) }
