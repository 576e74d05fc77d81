// Package tolerance models how much per-level channel error a capture may
// show before it counts as a visual regression. Tolerances are kept per DPI
// ratio, because scaled renderings legitimately differ more from their
// master than unscaled ones.
package tolerance

import (
	"fmt"
	"math"
	"sort"
)

// MaxLevel is the highest channel error level.
const MaxLevel = 255

// DefaultRatio is the ratio selected on a new Curve and assumed by legacy
// documents that carry no ratio.
const DefaultRatio = 1.0

// Table maps error levels to the allowed fraction at that level. Levels
// between two landmarks inherit the value of the lower one.
type Table struct {
	points map[uint8]float64
}

func newTable() *Table {
	return &Table{points: make(map[uint8]float64)}
}

// Set records a landmark. It fails without modifying t when level is outside
// [0,255] or fraction is outside [0,1].
func (t *Table) Set(level int, fraction float64) error {
	if err := checkLevel(level); err != nil {
		return err
	}
	if err := checkFraction(fraction); err != nil {
		return err
	}
	t.points[uint8(level)] = fraction
	return nil
}

// Get returns the landmark at exactly level.
func (t *Table) Get(level int) (float64, bool) {
	if level < 0 || level > MaxLevel {
		return 0, false
	}
	v, ok := t.points[uint8(level)]
	return v, ok
}

// Delete removes the landmark at level, if any.
func (t *Table) Delete(level int) {
	if level < 0 || level > MaxLevel {
		return
	}
	delete(t.points, uint8(level))
}

// Len returns the number of landmarks.
func (t *Table) Len() int { return len(t.points) }

// Levels returns the landmark levels in ascending order.
func (t *Table) Levels() []int {
	out := make([]int, 0, len(t.points))
	for l := range t.points {
		out = append(out, int(l))
	}
	sort.Ints(out)
	return out
}

func (t *Table) clone() *Table {
	c := &Table{points: make(map[uint8]float64, len(t.points))}
	for k, v := range t.points {
		c.points[k] = v
	}
	return c
}

// Curve holds one Table per DPI ratio plus the currently active ratio.
//
// A Curve has no internal locking. Once a Curve is handed to validators,
// treat it as read-only; to change it, Clone, edit the copy and swap.
type Curve struct {
	ratio  float64
	tables map[float64]*Table
}

// New returns an empty curve with DefaultRatio active.
func New() *Curve {
	return &Curve{ratio: DefaultRatio, tables: make(map[float64]*Table)}
}

// SetRatio selects the active ratio bucket.
func (c *Curve) SetRatio(r float64) error {
	if err := checkRatio(r); err != nil {
		return err
	}
	c.ratio = r
	return nil
}

// Ratio returns the active ratio.
func (c *Curve) Ratio() float64 { return c.ratio }

// Ratios returns every configured ratio in ascending order.
func (c *Curve) Ratios() []float64 {
	out := make([]float64, 0, len(c.tables))
	for r := range c.tables {
		out = append(out, r)
	}
	sort.Float64s(out)
	return out
}

// Entries returns the table for the active ratio, creating it if needed.
func (c *Curve) Entries() *Table {
	t, ok := c.tables[c.ratio]
	if !ok {
		t = newTable()
		c.tables[c.ratio] = t
	}
	return t
}

// TableFor returns the table of ratio r without creating it.
func (c *Curve) TableFor(r float64) (*Table, bool) {
	t, ok := c.tables[r]
	return t, ok
}

// activeLen is the landmark count at the active ratio; it never creates a table.
func (c *Curve) activeLen() int {
	if t, ok := c.tables[c.ratio]; ok {
		return t.Len()
	}
	return 0
}

// InterpolatedValue returns the tolerance in force at level: the value of
// the largest landmark at or below level. Despite the name this is a step
// function. NaN means no tolerance is configured there, which is different
// from a tolerance of zero.
func (c *Curve) InterpolatedValue(level int) float64 {
	t, ok := c.tables[c.ratio]
	if !ok || t.Len() == 0 {
		return math.NaN()
	}
	v := math.NaN()
	for _, l := range t.Levels() {
		if l > level {
			break
		}
		v = t.points[uint8(l)]
	}
	return v
}

// Clone returns a deep copy sharing no state with c.
func (c *Curve) Clone() *Curve {
	out := &Curve{ratio: c.ratio, tables: make(map[float64]*Table, len(c.tables))}
	for r, t := range c.tables {
		out.tables[r] = t.clone()
	}
	return out
}

// RatioBetween returns the DPI ratio of a capture taken at capturedDpi
// relative to a master recorded at masterDpi.
func RatioBetween(masterDpi, capturedDpi float64) (float64, error) {
	if err := checkRatio(masterDpi); err != nil {
		return 0, fmt.Errorf("master dpi: %w", err)
	}
	if err := checkRatio(capturedDpi); err != nil {
		return 0, fmt.Errorf("captured dpi: %w", err)
	}
	return capturedDpi / masterDpi, nil
}

func checkRatio(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return fmt.Errorf("%w: ratio must be a positive number, got %v", ErrInvalidArgument, r)
	}
	return nil
}

func checkLevel(level int) error {
	if level < 0 || level > MaxLevel {
		return fmt.Errorf("%w: level must be in [0,%d], got %d", ErrInvalidArgument, MaxLevel, level)
	}
	return nil
}

func checkFraction(f float64) error {
	if math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("%w: fraction must be in [0,1], got %v", ErrInvalidArgument, f)
	}
	return nil
}
