package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kamusis/baseline/internal/dimension"
	"github.com/spf13/cobra"
)

var dimensionsCmd = &cobra.Command{
	Use:     "dimensions",
	Aliases: []string{"dims"},
	Short:   "List environment dimensions and their current values",
	Long: `Print every dimension of the catalog, whether it can be used as a match
criterion, and the value captured on this machine.

Values come from baseline.yaml's dimensions map, then BASELINE_DIM_<NAME>
environment variables, then ~/.baseline/.env, then a system lookup.`,
	Args: cobra.NoArgs,
	RunE: runDimensions,
}

func init() {
	rootCmd.AddCommand(dimensionsCmd)
}

func runDimensions(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env, err := cfg.Environment()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINDEXABLE\tVALUE")
	for _, d := range dimension.All() {
		idx := "no"
		if d.Indexable() {
			idx = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name(), idx, d.Value(env))
	}
	return w.Flush()
}
