package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kamusis/baseline/internal/master"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which master every test would use on this machine",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	weights, err := master.WeightsFromMap(cfg.Weights)
	if err != nil {
		return err
	}
	current, err := currentMetadata(cfg, nil)
	if err != nil {
		return err
	}
	all, err := master.Discover(cfg.MastersDir, master.PatternAll(cfg.EffectivePattern()))
	if err != nil {
		return err
	}
	names, groups := master.Group(all)

	printSection("Master Resolution")
	fmt.Printf("  weights: %s\n", describeWeights(weights))

	type line struct{ name, msg string }
	var resolved, needed []line
	for _, name := range names {
		res := master.Resolve(groups[name], current, weights)
		if winner, ok := res.Found(); ok {
			resolved = append(resolved, line{name, fmt.Sprintf("%s (score %d of %d candidate(s))",
				filepath.Base(winner.Path), res.Score(), len(groups[name]))})
		} else {
			needed = append(needed, line{name, fmt.Sprintf("baseline needed (%d candidate(s), none qualify)", len(groups[name]))})
		}
	}

	if len(resolved) > 0 {
		printBullet("Resolved:")
		for _, l := range resolved {
			printOK(l.name, l.msg)
		}
	}
	if len(needed) > 0 {
		printBullet("Baseline needed:")
		for _, l := range needed {
			printMiss(l.name, l.msg)
		}
	}
	if len(names) == 0 {
		fmt.Println()
		printSkip("", fmt.Sprintf("no masters in %s", cfg.MastersDir))
	}
	return nil
}
