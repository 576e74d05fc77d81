package cmd

import (
	"fmt"

	"github.com/kamusis/baseline/internal/tolerance"
	"github.com/spf13/cobra"
)

var (
	flagHistogram     string
	flagRatio         float64
	flagToleranceFile string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an error histogram against the tolerance curve",
	Long: `Validate a per-level error histogram (index = error level) against the
tolerance curve at the given DPI ratio.

  baseline validate --histogram 1,0.2,0.05,0 --ratio 1.5

Exits with code 1 when the histogram is out of tolerance.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&flagHistogram, "histogram", "", "Comma-separated fractions, one per error level")
	validateCmd.Flags().Float64Var(&flagRatio, "ratio", tolerance.DefaultRatio, "DPI ratio selecting the tolerance table")
	validateCmd.Flags().StringVar(&flagToleranceFile, "tolerance", "", "Tolerance XML file (default: tolerance_file from baseline.yaml)")
	_ = validateCmd.MarkFlagRequired("histogram")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	hist, err := parseHistogram(flagHistogram)
	if err != nil {
		return err
	}
	curve, err := curveFromFlagOrConfig(flagToleranceFile)
	if err != nil {
		return err
	}
	if err := curve.SetRatio(flagRatio); err != nil {
		return err
	}

	report := tolerance.Check(curve, hist)
	printSection("Validate")
	printReport("", report)
	if !report.Passed {
		return &exitError{code: 1}
	}
	return nil
}

// curveFromFlagOrConfig loads path when set, otherwise the configured file.
func curveFromFlagOrConfig(path string) (*tolerance.Curve, error) {
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return loadCurve(cfg)
	}
	c := tolerance.New()
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

func printReport(name string, r tolerance.Report) {
	if r.Passed {
		printOK(name, fmt.Sprintf("within tolerance (%d level(s) tested)", r.Tested))
		return
	}
	printErr(name, fmt.Sprintf("regression: %d of %d level(s) out of tolerance", len(r.Failures), r.Tested))
	for _, f := range r.Failures {
		printErr(name, fmt.Sprintf("  level %3d: %s > %s", f.Level, formatFloat(f.Observed), formatFloat(f.Allowed)))
	}
}
