package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/kamusis/baseline/internal/config"
	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
	"github.com/kamusis/baseline/internal/tolerance"
)

// loadConfig loads ~/.baseline/baseline.yaml with the hint every command
// prints when init has not run yet.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'baseline init' first.", err)
	}
	return cfg, nil
}

// currentMetadata captures this machine's environment. criteria defaults to
// the config's criteria when empty.
func currentMetadata(cfg *config.Config, criteria []string) (dimension.Metadata, error) {
	if len(criteria) == 0 {
		criteria = cfg.Criteria
	}
	dims, err := dimension.ParseCriteria(criteria)
	if err != nil {
		return dimension.Metadata{}, err
	}
	env, err := cfg.Environment()
	if err != nil {
		return dimension.Metadata{}, err
	}
	return dimension.Capture(env, dims...)
}

// loadCurve reads the configured tolerance file. A missing file yields an
// empty curve, under which only pixel-identical captures pass.
func loadCurve(cfg *config.Config) (*tolerance.Curve, error) {
	c := tolerance.New()
	if err := c.LoadFile(cfg.ToleranceFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	return c, nil
}

// resolveWeights returns the weights given on the command line, or the
// config's weights when none were given.
func resolveWeights(cfg *config.Config, flags []string) (*master.Weights, error) {
	if len(flags) == 0 {
		return master.WeightsFromMap(cfg.Weights)
	}
	w := master.NewWeights()
	for _, f := range flags {
		d, n, err := master.ParseWeight(f)
		if err != nil {
			return nil, err
		}
		if err := w.Set(d, n); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// parseHistogram parses "a,b,c" into fractions.
func parseHistogram(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("histogram level %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// parseDpi reads a Dpi dimension value such as "96" or "144dpi".
func parseDpi(v string) (float64, error) {
	v = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(v)), "dpi")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dpi %q", v)
	}
	return f, nil
}

// applyDpiRatio activates the ratio between the master's and the current Dpi.
// Unknown or unparsable values leave the curve's ratio untouched.
func applyDpiRatio(c *tolerance.Curve, masterMeta, current dimension.Metadata) {
	md, err := parseDpi(masterMeta.Value(dimension.Dpi))
	if err != nil {
		return
	}
	cd, err := parseDpi(current.Value(dimension.Dpi))
	if err != nil {
		return
	}
	r, err := tolerance.RatioBetween(md, cd)
	if err != nil {
		return
	}
	_ = c.SetRatio(r)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
