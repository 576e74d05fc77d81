package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
	"github.com/spf13/cobra"
)

var flagWeights []string

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Pick the master that best matches this machine",
	Long: `Score every stored master of <name> against the current environment and
print the winner.

Weights come from baseline.yaml unless --weight is given:
  baseline resolve login-dialog --weight Dpi=4 --weight Theme=3

Exits with code 2 when no master qualifies.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringArrayVarP(&flagWeights, "weight", "w", nil, "Required dimension and weight, Name=N (repeatable)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(_ *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	weights, err := resolveWeights(cfg, flagWeights)
	if err != nil {
		return err
	}
	current, err := currentMetadata(cfg, nil)
	if err != nil {
		return err
	}
	candidates, err := master.DiscoverName(cfg.MastersDir, cfg.EffectivePattern(), name)
	if err != nil {
		return err
	}

	printSection("Resolve " + name)
	fmt.Printf("  weights: %s\n", describeWeights(weights))

	res := master.Resolve(candidates, current, weights)
	if len(candidates) > 0 {
		printBullet("Candidates:")
		for i, c := range candidates {
			label := filepath.Base(c.Path)
			if s := res.Scores[i]; s == master.Disqualified {
				printSkip(label, "disqualified "+describeCriteria(c.Metadata))
			} else {
				printInfo(label, fmt.Sprintf("score %d %s", s, describeCriteria(c.Metadata)))
			}
		}
	}

	fmt.Println()
	winner, ok := res.Found()
	if !ok {
		printMiss(name, "baseline needed")
		return &exitError{code: 2}
	}
	printOK(name, fmt.Sprintf("%s (score %d)", winner.Path, res.Score()))
	return nil
}

func describeWeights(w *master.Weights) string {
	if w.Len() == 0 {
		return "(none)"
	}
	parts := make([]string, 0, w.Len())
	for _, d := range w.Dimensions() {
		n, _ := w.Get(d)
		parts = append(parts, fmt.Sprintf("%s=%d", d.Name(), n))
	}
	return strings.Join(parts, " ")
}

func describeCriteria(m dimension.Metadata) string {
	crit := m.Criteria()
	if len(crit) == 0 {
		return "(no criteria)"
	}
	parts := make([]string, 0, len(crit))
	for _, d := range crit {
		parts = append(parts, fmt.Sprintf("%s=%s", d.Name(), m.Value(d)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
