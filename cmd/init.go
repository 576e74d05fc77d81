package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kamusis/baseline/internal/config"
	"github.com/kamusis/baseline/internal/tolerance"
	"github.com/spf13/cobra"
)

// defaultLandmarks seed tolerance.xml on first init: at 1:1 DPI a few pixels
// may differ slightly, almost none may differ a lot.
var defaultLandmarks = map[int]float64{
	1:  0.01,
	16: 0.001,
	64: 0,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.baseline with a default config, tolerance curve and masters dir",
	Long: `Initialize baseline at ~/.baseline/.

Writes baseline.yaml, tolerance.xml, a .env template for dimension
overrides, and creates the masters directory. Existing files are kept.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.baseline directory ──────────────────────────────────────
	dir, err := config.BaselineDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("baseline directory ready: %s", dir))

	// ── 2. Write baseline.yaml if missing ─────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ── 3. Masters directory ──────────────────────────────────────────────────
	if err := os.MkdirAll(cfg.MastersDir, 0o755); err != nil {
		return fmt.Errorf("cannot create masters dir %s: %w", cfg.MastersDir, err)
	}
	printOK("", fmt.Sprintf("Masters directory ready: %s", cfg.MastersDir))

	// ── 4. Default tolerance curve ────────────────────────────────────────────
	if _, err := os.Stat(cfg.ToleranceFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cfg.ToleranceFile), 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", filepath.Dir(cfg.ToleranceFile), err)
		}
		if err := defaultCurve().SaveFile(cfg.ToleranceFile); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Tolerance curve written: %s", cfg.ToleranceFile))
	} else {
		printSkip("", fmt.Sprintf("Tolerance curve already exists: %s", cfg.ToleranceFile))
	}

	// ── 5. .env template ──────────────────────────────────────────────────────
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if p, err := config.DotEnvPath(); err == nil {
		printOK("", fmt.Sprintf("Dimension overrides: %s", p))
	}

	fmt.Println("\n✓  baseline init complete. Run 'baseline doctor' to verify your environment.")
	return nil
}

func defaultCurve() *tolerance.Curve {
	c := tolerance.New()
	t := c.Entries()
	for level, f := range defaultLandmarks {
		// Constants above are in range.
		_ = t.Set(level, f)
	}
	return c
}
