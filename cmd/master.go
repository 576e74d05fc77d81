package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kamusis/baseline/internal/master"
	"github.com/spf13/cobra"
)

var flagSaveCriteria []string

var masterCmd = &cobra.Command{
	Use:   "master",
	Short: "Manage stored master images",
}

var masterSaveCmd = &cobra.Command{
	Use:   "save <name> <image>",
	Short: "Store an image as a new master of <name>",
	Long: `Copy <image> into the masters directory as <name>.<n>.<ext> and record
this machine's environment next to it.

--criteria lists the dimensions the master insists on matching
(default: criteria from baseline.yaml). Only indexable dimensions
are accepted.`,
	Args: cobra.ExactArgs(2),
	RunE: runMasterSave,
}

var masterListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List stored masters and their criteria",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMasterList,
}

var masterImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import masters from another directory",
	Long: `Copy every master (image plus .meta.yaml sidecar) from <dir> into the
masters directory.

Images identical to a stored master of the same name are skipped. When a
different image already uses the file name, the incoming one is stored
under the next free index and reported as a conflict.`,
	Args: cobra.ExactArgs(1),
	RunE: runMasterImport,
}

func init() {
	masterSaveCmd.Flags().StringSliceVar(&flagSaveCriteria, "criteria", nil, "Dimensions this master must match, e.g. Dpi,Theme")
	masterCmd.AddCommand(masterSaveCmd, masterListCmd, masterImportCmd)
	rootCmd.AddCommand(masterCmd)
}

func runMasterSave(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	meta, err := currentMetadata(cfg, flagSaveCriteria)
	if err != nil {
		return err
	}
	stored, err := master.Save(master.SaveOptions{
		Dir:         cfg.MastersDir,
		Name:        args[0],
		Source:      args[1],
		Metadata:    meta,
		LockTimeout: cfg.EffectiveLockTimeout(),
	})
	if err != nil {
		return err
	}
	printOK(args[0], fmt.Sprintf("stored %s %s", stored, describeCriteria(meta)))
	return nil
}

func runMasterList(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var candidates []master.Candidate
	if len(args) == 1 {
		candidates, err = master.DiscoverName(cfg.MastersDir, cfg.EffectivePattern(), args[0])
	} else {
		candidates, err = master.Discover(cfg.MastersDir, master.PatternAll(cfg.EffectivePattern()))
	}
	if err != nil {
		return err
	}

	printSection("Masters " + cfg.MastersDir)
	names, groups := master.Group(candidates)
	if len(names) == 0 {
		printSkip("", "no masters stored")
		return nil
	}
	for _, name := range names {
		printBullet(name + ":")
		for _, c := range groups[name] {
			printInfo(filepath.Base(c.Path), describeCriteria(c.Metadata))
		}
	}
	return nil
}

func runMasterImport(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src := args[0]
	result, err := master.Import(src, cfg.MastersDir, cfg.EffectiveLockTimeout())
	if err != nil {
		return fmt.Errorf("import %s: %w", src, err)
	}

	printSection("Import " + src)
	printOK("", fmt.Sprintf("%d master(s) imported, %d skipped, %d conflict(s)", result.Imported, result.Skipped, len(result.Conflicts)))
	for _, p := range result.Invalid {
		printWarn("", fmt.Sprintf("not a master (needs <name>.<n> file name and sidecar): %s", p))
	}

	if len(result.Conflicts) > 0 {
		fmt.Printf("\n⚠  %d conflict(s) detected during import.\n", len(result.Conflicts))
		fmt.Println("   Both versions are kept; review and delete the one you don't need:")
		for _, c := range result.Conflicts {
			fmt.Printf("     - %s  ← conflicts with %s\n", c.Stored, c.Original)
		}
	}
	return nil
}
