package eventlog

import (
	"fmt"
	"sort"
	"strings"
)

// TopicName is a structured identifier: a set of string keys mapped to
// primitive values, held without any key order. The "base" key conventionally carries the unqualified
// job name. Two topic names are equal iff their key/value sets are equal.
// TopicName is frozen once constructed; Key returns a canonical, hashable
// representation suitable for use as a Go map key (TopicName itself holds a
// map internally and so is not comparable with ==).
type TopicName struct {
	values  map[string]any
	special string
}

// CurrentJob is the sentinel naming the job under evaluation in a predicate
// context. It never equals a constructed topic name.
var CurrentJob = TopicName{special: "current_job"}

// JobName builds the conventional single-key topic name for a job.
func JobName(name string) TopicName {
	return TopicName{values: map[string]any{"base": name}}
}

// NewTopicName builds a topic name from an arbitrary key/value set.
func NewTopicName(values map[string]any) TopicName {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return TopicName{values: cp}
}

// IsCurrentJob reports whether this is the CURRENT_JOB sentinel.
func (t TopicName) IsCurrentJob() bool { return t.special == "current_job" }

// Get returns the value for key and whether it was present.
func (t TopicName) Get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Base returns the conventional "base" key, if present.
func (t TopicName) Base() string {
	if v, ok := t.values["base"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// With returns a copy of t extended with key=value. It fails if t already
// has that key, matching the scope-expansion collision rule.
func (t TopicName) With(key string, value any) (TopicName, error) {
	if t.special != "" {
		return TopicName{}, fmt.Errorf("cannot extend sentinel topic name")
	}
	if _, exists := t.values[key]; exists {
		return TopicName{}, fmt.Errorf("topic name already has key %q", key)
	}
	nv := make(map[string]any, len(t.values)+1)
	for k, v := range t.values {
		nv[k] = v
	}
	nv[key] = value
	return TopicName{values: nv}, nil
}

// Key returns a canonical, deterministic string representation, used as the
// hash/map key for this topic name. Two topic names with the same key/value
// set produce the same Key regardless of construction order.
func (t TopicName) Key() string {
	if t.special != "" {
		return "@" + t.special
	}
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		fmt.Fprintf(&b, "%s=%v", k, t.values[k])
	}
	return b.String()
}

// Equal reports whether t and other name the same topic.
func (t TopicName) Equal(other TopicName) bool { return t.Key() == other.Key() }

// String implements fmt.Stringer.
func (t TopicName) String() string {
	if t.special != "" {
		return "<" + t.special + ">"
	}
	return t.Key()
}
