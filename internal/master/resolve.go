// Package master finds, stores and imports master (reference) images.
//
// A master is an image file plus a YAML sidecar recording the environment it
// was captured in and which dimensions it insists on matching. Resolve picks
// the best master for the current environment; it performs no I/O.
package master

import (
	"golang.org/x/text/cases"

	"github.com/kamusis/baseline/internal/dimension"
)

// Disqualified is the score of a candidate that cannot be used.
const Disqualified = -1

// Candidate is one stored master available for matching.
type Candidate struct {
	Path     string
	Metadata dimension.Metadata
}

// Resolution is the outcome of Resolve: either a found candidate or nothing.
// Not finding a master is a normal outcome; callers typically record a new one.
type Resolution struct {
	candidate Candidate
	score     int
	found     bool

	// Scores holds the score of every candidate, in input order.
	Scores []int
}

// Found returns the winning candidate, if any.
func (r Resolution) Found() (Candidate, bool) {
	return r.candidate, r.found
}

// Score returns the winning score, or Disqualified when nothing was found.
func (r Resolution) Score() int {
	if !r.found {
		return Disqualified
	}
	return r.score
}

// Resolve selects the candidate that best matches current under w.
//
// For every criterion a candidate records: if w does not require that
// dimension, or the current value differs (case-insensitively) from the
// recorded one, the candidate is disqualified; otherwise the weight is
// added. A candidate without criteria scores 0. The highest score wins and
// ties go to the earliest candidate, so callers must pass candidates in a
// deterministic order.
func Resolve(candidates []Candidate, current dimension.Metadata, w *Weights) Resolution {
	fold := cases.Fold()
	res := Resolution{score: Disqualified, Scores: make([]int, len(candidates))}
	for i, c := range candidates {
		s := score(fold, c, current, w)
		res.Scores[i] = s
		if s > res.score {
			res.candidate = c
			res.score = s
			res.found = true
		}
	}
	return res
}

// Score returns the score of a single candidate, Disqualified if unusable.
func Score(c Candidate, current dimension.Metadata, w *Weights) int {
	return score(cases.Fold(), c, current, w)
}

func score(fold cases.Caser, c Candidate, current dimension.Metadata, w *Weights) int {
	total := 0
	for _, d := range c.Metadata.Criteria() {
		weight, ok := w.Get(d)
		if !ok {
			return Disqualified
		}
		if fold.String(current.Value(d)) != fold.String(c.Metadata.Value(d)) {
			return Disqualified
		}
		total += weight
	}
	return total
}
