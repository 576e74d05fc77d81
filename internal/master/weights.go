package master

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kamusis/baseline/internal/dimension"
)

// ErrInvalidWeight indicates a negative or unparsable weight.
var ErrInvalidWeight = errors.New("invalid weight")

// Weights lists the dimensions a caller requires to match, with their
// relative importance. Only indexable dimensions are accepted, and the
// check happens here, before any resolution runs.
type Weights struct {
	order  []*dimension.Dimension
	values map[*dimension.Dimension]int
}

// NewWeights returns an empty set.
func NewWeights() *Weights {
	return &Weights{values: make(map[*dimension.Dimension]int)}
}

// Set adds or updates the weight of d.
func (w *Weights) Set(d *dimension.Dimension, weight int) error {
	if err := dimension.RequireIndexable(d); err != nil {
		return err
	}
	if weight < 0 {
		return fmt.Errorf("%w: %s=%d must not be negative", ErrInvalidWeight, d.Name(), weight)
	}
	if _, ok := w.values[d]; !ok {
		w.order = append(w.order, d)
	}
	w.values[d] = weight
	return nil
}

// Get returns the weight of d and whether d is required at all.
func (w *Weights) Get(d *dimension.Dimension) (int, bool) {
	if w == nil {
		return 0, false
	}
	v, ok := w.values[d]
	return v, ok
}

// Dimensions returns the required dimensions in the order they were added.
func (w *Weights) Dimensions() []*dimension.Dimension {
	out := make([]*dimension.Dimension, len(w.order))
	copy(out, w.order)
	return out
}

// Len returns the number of required dimensions.
func (w *Weights) Len() int { return len(w.order) }

// ParseWeight parses "Name=N", e.g. "Theme=5".
func ParseWeight(s string) (*dimension.Dimension, int, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q, want Name=N", ErrInvalidWeight, s)
	}
	d, err := dimension.Lookup(name)
	if err != nil {
		return nil, 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q: %v", ErrInvalidWeight, s, err)
	}
	return d, n, nil
}

// WeightsFromMap builds Weights from a name → weight map. Names are added
// in catalog order so the result does not depend on map iteration.
func WeightsFromMap(m map[string]int) (*Weights, error) {
	w := NewWeights()
	byName := make(map[*dimension.Dimension]int, len(m))
	for name, v := range m {
		d, err := dimension.Lookup(name)
		if err != nil {
			return nil, err
		}
		byName[d] = v
	}
	for _, d := range dimension.All() {
		v, ok := byName[d]
		if !ok {
			continue
		}
		if err := w.Set(d, v); err != nil {
			return nil, err
		}
	}
	return w, nil
}
