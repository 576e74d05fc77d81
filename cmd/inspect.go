package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kamusis/baseline/internal/compare"
	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
	"github.com/spf13/cobra"
)

var flagAgainst string

var inspectCmd = &cobra.Command{
	Use:   "inspect <master-image>",
	Short: "Show the recorded environment of a master",
	Long: `Display a master's sidecar metadata: every recorded dimension, which of
them are match criteria, and how the master scores against this machine
with the configured weights.

With --against, the master is also compared with a capture and the
cumulative error histogram is summarised.

Example:
  baseline inspect ~/.baseline/masters/login.0.png
  baseline inspect login.0.png --against out/login.png`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&flagAgainst, "against", "", "Capture to compare with the master")
	rootCmd.AddCommand(inspectCmd)
}

// histogramMarks are the levels summarised by inspect --against.
var histogramMarks = []int{1, 2, 4, 8, 16, 32, 64, 128, 255}

func runInspect(_ *cobra.Command, args []string) error {
	path := args[0]
	meta, err := master.ReadMetadata(path)
	if err != nil {
		return err
	}

	printSection(filepath.Base(path))
	fmt.Printf("  path: %s\n", path)

	printBullet("Environment:")
	for _, d := range dimension.All() {
		v := meta.Value(d)
		if v == "" {
			continue
		}
		if meta.HasCriterion(d) {
			printOK(d.Name(), v+" (criterion)")
		} else {
			printInfo(d.Name(), v)
		}
	}

	if cfg, err := loadConfig(); err == nil {
		printBullet("Against this machine:")
		weights, err := master.WeightsFromMap(cfg.Weights)
		if err != nil {
			return err
		}
		current, err := currentMetadata(cfg, nil)
		if err != nil {
			return err
		}
		if s := master.Score(master.Candidate{Path: path, Metadata: meta}, current, weights); s == master.Disqualified {
			printSkip("", "disqualified with weights "+describeWeights(weights))
		} else {
			printOK("", fmt.Sprintf("score %d with weights %s", s, describeWeights(weights)))
		}
	} else {
		printWarn("", "no config: score against this machine not shown")
	}

	if flagAgainst == "" {
		return nil
	}
	m, err := compare.Decode(path)
	if err != nil {
		return err
	}
	c, err := compare.Decode(flagAgainst)
	if err != nil {
		return err
	}
	diff, err := compare.Compute(m, c)
	if err != nil {
		return err
	}
	printBullet("Difference from " + flagAgainst + ":")
	fmt.Printf("  perceptual hash distance: %d\n", diff.HashDistance)
	for _, level := range histogramMarks {
		fmt.Printf("  error ≥ %3d: %s\n", level, formatFloat(diff.Histogram[level]))
	}
	return nil
}
