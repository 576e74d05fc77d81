package cmd

import (
	"fmt"
	"strconv"

	"github.com/kamusis/baseline/internal/tolerance"
	"github.com/spf13/cobra"
)

var flagTolRatio float64

var toleranceCmd = &cobra.Command{
	Use:   "tolerance",
	Short: "Show or edit the tolerance curve",
	Long: `Inspect and edit the tolerance curve stored in tolerance_file.

A curve holds one table per DPI ratio. Each table maps an error level
(0-255) to the largest fraction of pixels allowed at or above that level;
between landmarks the value of the nearest lower landmark applies.`,
}

var toleranceShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every ratio and its landmarks",
	Args:  cobra.NoArgs,
	RunE:  runToleranceShow,
}

var toleranceSetCmd = &cobra.Command{
	Use:   "set <level> <fraction>",
	Short: "Add or replace a landmark",
	Args:  cobra.ExactArgs(2),
	RunE:  runToleranceSet,
}

var toleranceUnsetCmd = &cobra.Command{
	Use:   "unset <level>",
	Short: "Remove a landmark",
	Args:  cobra.ExactArgs(1),
	RunE:  runToleranceUnset,
}

func init() {
	for _, c := range []*cobra.Command{toleranceSetCmd, toleranceUnsetCmd} {
		c.Flags().Float64Var(&flagTolRatio, "ratio", tolerance.DefaultRatio, "DPI ratio of the table to edit")
	}
	toleranceCmd.AddCommand(toleranceShowCmd, toleranceSetCmd, toleranceUnsetCmd)
	rootCmd.AddCommand(toleranceCmd)
}

func runToleranceShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	curve, err := loadCurve(cfg)
	if err != nil {
		return err
	}

	printSection("Tolerance " + cfg.ToleranceFile)
	ratios := curve.Ratios()
	if len(ratios) == 0 {
		printInfo("", "no landmarks: only identical images pass")
		return nil
	}
	for _, r := range ratios {
		t, _ := curve.TableFor(r)
		printBullet(fmt.Sprintf("ratio %s:", formatFloat(r)))
		if t.Len() == 0 {
			printInfo("", "(empty)")
			continue
		}
		for _, level := range t.Levels() {
			f, _ := t.Get(level)
			fmt.Printf("  level %3d  ≤ %s\n", level, formatFloat(f))
		}
	}
	return nil
}

func runToleranceSet(_ *cobra.Command, args []string) error {
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid level %q: %w", args[0], err)
	}
	fraction, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid fraction %q: %w", args[1], err)
	}
	return editCurve(func(c *tolerance.Curve) error {
		if err := c.Entries().Set(level, fraction); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("ratio %s: level %d ≤ %s", formatFloat(c.Ratio()), level, formatFloat(fraction)))
		return nil
	})
}

func runToleranceUnset(_ *cobra.Command, args []string) error {
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid level %q: %w", args[0], err)
	}
	return editCurve(func(c *tolerance.Curve) error {
		t, ok := c.TableFor(c.Ratio())
		if !ok {
			printSkip("", fmt.Sprintf("ratio %s has no landmarks", formatFloat(c.Ratio())))
			return nil
		}
		if _, ok := t.Get(level); !ok {
			printSkip("", fmt.Sprintf("ratio %s has no landmark at level %d", formatFloat(c.Ratio()), level))
			return nil
		}
		t.Delete(level)
		printInfo("", fmt.Sprintf("ratio %s: level %d removed", formatFloat(c.Ratio()), level))
		return nil
	})
}

// editCurve applies edit to a copy of the configured curve at --ratio and
// saves the copy. The file is left untouched when edit fails.
func editCurve(edit func(*tolerance.Curve) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	curve, err := loadCurve(cfg)
	if err != nil {
		return err
	}
	next := curve.Clone()
	if err := next.SetRatio(flagTolRatio); err != nil {
		return err
	}
	if err := edit(next); err != nil {
		return err
	}
	return next.SaveFile(cfg.ToleranceFile)
}
