package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kamusis/baseline/internal/config"
	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
	"github.com/kamusis/baseline/internal/tolerance"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that baseline's configuration, tolerance curve and masters directory
are usable. Run this command when something seems wrong, or before filing a
bug report.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the masters directory.

Currently fixes:
  - Orphaned sidecars: deletes .meta.yaml files whose image is gone

Images without a sidecar are reported but never deleted; record their
metadata with 'baseline master save' instead.

Run 'baseline doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printSection("baseline doctor fix")

	// ── Fix: delete orphaned sidecars ─────────────────────────────────────────
	fmt.Println("\n[ Orphaned sidecars ]")
	unlock, err := master.Lock(cfg.MastersDir, cfg.EffectiveLockTimeout())
	if err != nil {
		return err
	}
	defer unlock()

	_, sidecars := findOrphans(cfg.MastersDir)
	if len(sidecars) == 0 {
		printOK("", "no orphaned sidecars found, nothing to fix")
		return nil
	}

	var failed int
	for _, rel := range sidecars {
		full := filepath.Join(cfg.MastersDir, rel)
		if err := os.Remove(full); err != nil {
			printErr("", fmt.Sprintf("cannot delete %s: %v", rel, err))
			failed++
		} else {
			printOK("", fmt.Sprintf("deleted %s", rel))
		}
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be deleted", failed)
	}
	fmt.Printf("  ✓  %d orphaned sidecar(s) removed.\n", len(sidecars))
	return nil
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("baseline doctor")
	fmt.Println()

	// ── Check 1: ~/.baseline exists ───────────────────────────────────────────
	fmt.Println("[ baseline directory ]")
	dir, err := config.BaselineDir()
	if err != nil {
		failD("cannot determine home directory: %v", err)
	} else {
		cfgPath, _ := config.ConfigPath()
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			failD("~/.baseline/baseline.yaml not found, run 'baseline init' first")
		} else {
			printOK("", fmt.Sprintf("~/.baseline/ exists: %s", dir))
		}
	}
	fmt.Println()

	// ── Check 2: baseline.yaml is valid ───────────────────────────────────────
	fmt.Println("[ baseline.yaml ]")
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot load baseline.yaml: %v", loadErr)
	} else {
		printOK("", fmt.Sprintf("valid: %d weight(s), criteria %v, concurrency %d",
			len(cfg.Weights), cfg.Criteria, cfg.EffectiveConcurrency()))
		if len(cfg.Weights) == 0 {
			printWarn("", "no weights configured: only masters without criteria can match")
		}
	}
	fmt.Println()

	// ── Check 3: tolerance curve parses ───────────────────────────────────────
	fmt.Println("[ Tolerance curve ]")
	if loadErr == nil {
		curve := tolerance.New()
		if err := curve.LoadFile(cfg.ToleranceFile); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				printWarn("", fmt.Sprintf("%s not found: only identical images will pass", cfg.ToleranceFile))
			} else {
				failD("%v", err)
			}
		} else {
			ratios := curve.Ratios()
			parts := make([]string, 0, len(ratios))
			for _, r := range ratios {
				t, _ := curve.TableFor(r)
				parts = append(parts, fmt.Sprintf("%s (%d)", formatFloat(r), t.Len()))
			}
			printOK("", fmt.Sprintf("%d ratio(s): %s", len(ratios), strings.Join(parts, ", ")))
			if _, ok := curve.TableFor(tolerance.DefaultRatio); !ok {
				printWarn("", "no table for ratio 1: same-DPI captures must be identical")
			}
		}
	} else {
		printWarn("", "skipped (baseline.yaml not loaded)")
	}
	fmt.Println()

	// ── Check 4: masters directory ────────────────────────────────────────────
	fmt.Println("[ Masters ]")
	if loadErr == nil {
		if info, err := os.Stat(cfg.MastersDir); err != nil || !info.IsDir() {
			failD("masters dir %s missing, run 'baseline init'", cfg.MastersDir)
		} else {
			candidates, err := master.Discover(cfg.MastersDir, master.PatternAll(cfg.EffectivePattern()))
			if err != nil {
				failD("cannot scan %s: %v", cfg.MastersDir, err)
			} else {
				printOK("", fmt.Sprintf("%d master(s) in %s", len(candidates), cfg.MastersDir))
			}

			images, sidecars := findOrphans(cfg.MastersDir)
			for _, p := range images {
				printWarn("", fmt.Sprintf("image without sidecar (ignored by resolve): %s", p))
			}
			for _, p := range sidecars {
				printWarn("", fmt.Sprintf("sidecar without image: %s", p))
			}
			if len(sidecars) > 0 {
				fmt.Printf("\n  ⚠  %d orphaned sidecar(s). Run 'baseline doctor fix' to delete them.\n", len(sidecars))
				allOK = false
			}
		}
	} else {
		printWarn("", "skipped (baseline.yaml not loaded)")
	}
	fmt.Println()

	// ── Check 5: dimension values ─────────────────────────────────────────────
	fmt.Println("[ Dimensions ]")
	if loadErr == nil {
		env, err := cfg.Environment()
		if err != nil {
			failD("cannot read dimension overrides: %v", err)
		} else {
			for _, d := range dimension.All() {
				printInfo(d.Name(), fmt.Sprintf("%s (%s)", d.Value(env), dimensionSource(cfg, d)))
			}
		}
	} else {
		printWarn("", "skipped (baseline.yaml not loaded)")
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. baseline is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

// dimensionSource names where the value of d comes from.
func dimensionSource(cfg *config.Config, d *dimension.Dimension) string {
	if v, ok := dimension.Overrides(cfg.Dimensions).Lookup(d.Name()); ok && v != "" {
		return "baseline.yaml"
	}
	if v, err := config.GetConfigValue(dimension.EnvKey(d.Name())); err == nil && v != "" {
		return dimension.EnvKey(d.Name())
	}
	return "detected"
}

// findOrphans returns, relative to dir, the images that have no sidecar and
// the sidecars whose image is gone.
func findOrphans(dir string) (images, sidecars []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			present[e.Name()] = true
		}
	}
	for name := range present {
		switch {
		case strings.HasSuffix(name, master.SidecarSuffix):
			if !present[strings.TrimSuffix(name, master.SidecarSuffix)] {
				sidecars = append(sidecars, name)
			}
		case master.IsImage(name):
			if !present[name+master.SidecarSuffix] {
				images = append(images, name)
			}
		}
	}
	sort.Strings(images)
	sort.Strings(sidecars)
	return images, sidecars
}
