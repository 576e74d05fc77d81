package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/kamusis/baseline/cmd.version=..." at release.
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show baseline version and build information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildStamp is what the version command reports.
type buildStamp struct {
	Version  string
	Commit   string
	Date     string
	Modified bool
}

// currentStamp prefers the linker-set values and falls back to the VCS
// settings the go tool embeds in local builds.
func currentStamp() buildStamp {
	info, _ := debug.ReadBuildInfo()
	return stampFrom(version, commit, buildDate, info)
}

func stampFrom(ver, rev, date string, info *debug.BuildInfo) buildStamp {
	s := buildStamp{Version: ver, Commit: rev, Date: date}
	if info == nil {
		return s
	}
	if s.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		s.Version = info.Main.Version
	}
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			if s.Commit == "" {
				s.Commit = kv.Value
			}
		case "vcs.time":
			if s.Date == "" {
				s.Date = kv.Value
			}
		case "vcs.modified":
			s.Modified = kv.Value == "true"
		}
	}
	return s
}

func runVersion(_ *cobra.Command, _ []string) error {
	s := currentStamp()
	rev := emptyAsNA(s.Commit)
	if s.Modified && s.Commit != "" {
		rev += " (modified)"
	}
	fmt.Printf("Version:    %s\n", s.Version)
	fmt.Printf("Commit:     %s\n", rev)
	fmt.Printf("Build Date: %s\n", emptyAsNA(s.Date))
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
