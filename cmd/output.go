package cmd

import (
	"fmt"
	"os"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions to ensure consistent icon usage and
// indentation throughout baseline's CLI output.
//
// Icon semantics:
//   ✓  pass / healthy
//   ✗  regression / error       (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   -  no usable master (baseline needed)
//   ~  neutral info / state change

// printSection prints a top-level section header, e.g. "=== Resolve ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printBullet prints a grouped-section bullet, e.g. "● Candidates:".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

// printLine prints "  <icon>  msg" or "  <icon>  [name] msg".
func printLine(icon, name, msg string) {
	if name == "" {
		fmt.Printf("  %s  %s\n", icon, msg)
	} else {
		fmt.Printf("  %s  [%s] %s\n", icon, name, msg)
	}
}

// printOK prints a success line.
//
//	name = "" → "  ✓  msg"
//	name set  → "  ✓  [name] msg"
func printOK(name, msg string) { printLine("✓", name, msg) }

// printErr prints an error line to stderr.
func printErr(name, msg string) {
	if name == "" {
		fmt.Fprintf(os.Stderr, "  ✗  %s\n", msg)
	} else {
		fmt.Fprintf(os.Stderr, "  ✗  [%s] %s\n", name, msg)
	}
}

// printWarn prints a warning line.
func printWarn(name, msg string) { printLine("⚠", name, msg) }

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) { printLine("○", name, msg) }

// printMiss prints a no-usable-master line.
func printMiss(name, msg string) { printLine("-", name, msg) }

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) { printLine("~", name, msg) }
