package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:          "baseline",
	Short:        "baseline: master resolution and tolerance checks for visual regression tests",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `baseline picks the reference ("master") image that best matches this
machine's environment, compares captures against it and decides pass/fail
with a DPI-aware tolerance curve. Configuration lives in ~/.baseline/.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug information to stderr")
}

// exitError carries a process exit code for outcomes that are not
// configuration errors, e.g. a regression (1) or a missing baseline (2).
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}
