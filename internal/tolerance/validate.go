package tolerance

// LevelFailure is one histogram level whose observed fraction exceeded the
// threshold applied there.
type LevelFailure struct {
	Level    int
	Observed float64
	Allowed  float64
}

// Report is the detailed outcome of Check.
type Report struct {
	Passed   bool
	Tested   int
	Failures []LevelFailure
}

// Validate reports whether histogram is within the tolerance of c at its
// active ratio. See Check for the rules.
func Validate(c *Curve, histogram []float64) bool {
	return check(c, histogram, false).Passed
}

// Check validates histogram against c and returns every failing level.
//
// Rules:
//   - with no landmarks at the active ratio every level must be exactly 0;
//   - otherwise the threshold at level i is c.InterpolatedValue(i);
//   - a running value starting at 1.0 takes each threshold that differs
//     from it and from 1.0, and that running value is what gets applied.
//     A landmark of exactly 1.0 therefore never overrides an earlier one;
//   - level 0 is never tested;
//   - any observed fraction above the applied value fails the histogram.
//
// Levels past MaxLevel use the threshold of MaxLevel.
func Check(c *Curve, histogram []float64) Report {
	return check(c, histogram, true)
}

func check(c *Curve, histogram []float64, collect bool) Report {
	rep := Report{Passed: true}
	empty := c.activeLen() == 0

	applied := 1.0
	for i, observed := range histogram {
		threshold := 0.0
		if !empty {
			level := i
			if level > MaxLevel {
				level = MaxLevel
			}
			threshold = c.InterpolatedValue(level)
		}
		if threshold != applied && threshold != 1.0 {
			applied = threshold
		}
		if i == 0 {
			continue
		}
		rep.Tested++
		if observed > applied {
			rep.Passed = false
			if !collect {
				return rep
			}
			rep.Failures = append(rep.Failures, LevelFailure{Level: i, Observed: observed, Allowed: applied})
		}
	}
	return rep
}
