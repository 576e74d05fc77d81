package dimension

import (
	"fmt"
	"strings"
)

// Metadata is the snapshot stored with a master image (and taken once for
// the current machine at resolve time): the value of every known dimension
// plus the ordered subset the master cares about. A Metadata is never
// mutated after construction; accessors return copies.
type Metadata struct {
	description map[string]string
	criteria    []*Dimension
}

// Capture snapshots every catalog dimension from env and records criteria.
func Capture(env Environment, criteria ...*Dimension) (Metadata, error) {
	desc := make(map[string]string, len(catalog))
	for _, d := range catalog {
		desc[d.name] = d.Value(env)
	}
	return NewMetadata(desc, criteria)
}

// NewMetadata builds a Metadata from already known values, e.g. a decoded
// sidecar. Every criterion must be indexable. Description keys are kept
// verbatim so values of dimensions unknown to this build survive a round trip,
// but two keys that differ only in case are rejected.
func NewMetadata(description map[string]string, criteria []*Dimension) (Metadata, error) {
	seen := map[*Dimension]bool{}
	crit := make([]*Dimension, 0, len(criteria))
	for _, d := range criteria {
		if err := RequireIndexable(d); err != nil {
			return Metadata{}, err
		}
		if seen[d] {
			return Metadata{}, fmt.Errorf("duplicate criterion %s", d.name)
		}
		seen[d] = true
		crit = append(crit, d)
	}
	desc := make(map[string]string, len(description))
	folded := make(map[string]string, len(description))
	for k, v := range description {
		lk := strings.ToLower(k)
		if other, dup := folded[lk]; dup {
			a, b := other, k
			if b < a {
				a, b = b, a
			}
			return Metadata{}, fmt.Errorf("description keys %q and %q differ only in case", a, b)
		}
		folded[lk] = k
		desc[k] = v
	}
	return Metadata{description: desc, criteria: crit}, nil
}

// Value returns the recorded value of d, or "" when it was not recorded.
func (m Metadata) Value(d *Dimension) string {
	if v, ok := m.description[d.name]; ok {
		return v
	}
	// Keys are unique ignoring case, so at most one matches.
	for k, v := range m.description {
		if strings.EqualFold(k, d.name) {
			return v
		}
	}
	return ""
}

// Description returns a copy of the name → value map.
func (m Metadata) Description() map[string]string {
	out := make(map[string]string, len(m.description))
	for k, v := range m.description {
		out[k] = v
	}
	return out
}

// Criteria returns a copy of the ordered criteria.
func (m Metadata) Criteria() []*Dimension {
	out := make([]*Dimension, len(m.criteria))
	copy(out, m.criteria)
	return out
}

// HasCriterion reports whether d is one of the criteria.
func (m Metadata) HasCriterion(d *Dimension) bool {
	for _, c := range m.criteria {
		if c == d {
			return true
		}
	}
	return false
}
