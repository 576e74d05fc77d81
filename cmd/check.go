package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kamusis/baseline/internal/compare"
	"github.com/kamusis/baseline/internal/config"
	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
	"github.com/kamusis/baseline/internal/tolerance"
	"github.com/kamusis/baseline/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	flagCreate        bool
	flagCheckTimeout  time.Duration
	flagCheckWeights  []string
	flagCheckCriteria []string
)

var checkCmd = &cobra.Command{
	Use:   "check <name=captured.png>...",
	Short: "Compare captures against their best-matching masters",
	Long: `Resolve a master for each capture, compare the two images and validate
the error histogram against the tolerance curve. Comparisons run
concurrently (concurrency in baseline.yaml).

  baseline check login=out/login.png settings=out/settings.png

With --create, a capture without a usable master is stored as a new master
tagged with this machine's environment.

Exit codes: 0 all passed, 1 regression or timeout, 2 baseline needed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagCreate, "create", false, "Store captures without a usable master as new masters")
	checkCmd.Flags().DurationVar(&flagCheckTimeout, "timeout", 0, "Give up waiting after this long (default: wait_timeout from baseline.yaml)")
	checkCmd.Flags().StringArrayVarP(&flagCheckWeights, "weight", "w", nil, "Required dimension and weight, Name=N (repeatable)")
	checkCmd.Flags().StringSliceVar(&flagCheckCriteria, "criteria", nil, "Criteria recorded on masters created with --create (default: criteria from baseline.yaml)")
	rootCmd.AddCommand(checkCmd)
}

// checkJob is one capture whose master was found and is being compared.
type checkJob struct {
	name     string
	captured string
	master   master.Candidate
	handle   tracker.Handle
	report   tolerance.Report
	distance int
	err      error
}

// parseCheckArg splits "name=path".
func parseCheckArg(arg string) (string, string, error) {
	name, path, ok := strings.Cut(arg, "=")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return "", "", fmt.Errorf("invalid argument %q, want name=captured.png", arg)
	}
	return name, path, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	weights, err := resolveWeights(cfg, flagCheckWeights)
	if err != nil {
		return err
	}
	current, err := currentMetadata(cfg, flagCheckCriteria)
	if err != nil {
		return err
	}
	curve, err := loadCurve(cfg)
	if err != nil {
		return err
	}
	timeout := flagCheckTimeout
	if timeout <= 0 {
		timeout = cfg.EffectiveWaitTimeout()
	}

	printSection("Check")

	tr := tracker.New(slog.Default())
	defer tr.ClearAll()

	var (
		jobs    []*checkJob
		missing int
		broken  int
	)
	for i, arg := range args {
		name, path, err := parseCheckArg(arg)
		if err != nil {
			return err
		}
		job, needed, err := prepareCheck(cfg, tr, i, name, path, current, weights)
		switch {
		case err != nil:
			printErr(name, err.Error())
			broken++
		case needed:
			missing++
		case job != nil:
			jobs = append(jobs, job)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	go runComparisons(jobs, curve, current, cfg.EffectiveConcurrency())
	waitErr := tr.Wait(ctx)

	failed, timedOut := reportCheck(jobs, tr.Results())
	if errors.Is(waitErr, context.DeadlineExceeded) {
		printWarn("", fmt.Sprintf("gave up after %s with %d comparison(s) unfinished", timeout, timedOut))
	}

	fmt.Println()
	switch {
	case failed+timedOut+broken > 0:
		return &exitError{code: 1, msg: fmt.Sprintf("✗  %d regression(s), %d unfinished, %d error(s).", failed, timedOut, broken)}
	case missing > 0:
		return &exitError{code: 2, msg: fmt.Sprintf("-  %d baseline(s) needed. Re-run with --create to record them.", missing)}
	}
	fmt.Printf("✓  %d comparison(s) within tolerance.\n", len(jobs))
	return nil
}

// prepareCheck resolves the master for one capture. It returns no job when
// no master qualifies: with --create the capture is stored as a new master,
// otherwise needed is true.
func prepareCheck(cfg *config.Config, tr *tracker.Tracker, index int, name, path string, current dimension.Metadata, w *master.Weights) (job *checkJob, needed bool, err error) {
	candidates, err := master.DiscoverName(cfg.MastersDir, cfg.EffectivePattern(), name)
	if err != nil {
		return nil, false, err
	}
	winner, ok := master.Resolve(candidates, current, w).Found()
	if !ok {
		if !flagCreate {
			printMiss(name, "baseline needed")
			return nil, true, nil
		}
		stored, err := master.Save(master.SaveOptions{
			Dir:         cfg.MastersDir,
			Name:        name,
			Source:      path,
			Metadata:    current,
			LockTimeout: cfg.EffectiveLockTimeout(),
		})
		if err != nil {
			return nil, false, err
		}
		printInfo(name, "master recorded: "+filepath.Base(stored))
		return nil, false, nil
	}

	masterImg, err := compare.Decode(winner.Path)
	if err != nil {
		return nil, false, err
	}
	capturedImg, err := compare.Decode(path)
	if err != nil {
		return nil, false, err
	}
	h := tr.Register(tracker.NewUnit(index, masterImg, capturedImg))
	return &checkJob{name: name, captured: path, master: winner, handle: h}, false, nil
}

// runComparisons compares every job with at most limit running at once and
// completes each job's unit with its verdict.
func runComparisons(jobs []*checkJob, curve *tolerance.Curve, current dimension.Metadata, limit int) {
	var g errgroup.Group
	g.SetLimit(limit)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			m, c := job.handle.Unit().Images()
			if m == nil || c == nil {
				// Released by ClearAll before this job got a slot.
				return nil
			}
			local := curve.Clone()
			applyDpiRatio(local, job.master.Metadata, current)
			if local.Ratio() != tolerance.DefaultRatio {
				m = compare.ScaleTo(m, c)
			}
			diff, err := compare.Compute(m, c)
			if err != nil {
				job.err = err
				job.handle.Complete(false)
				return nil
			}
			job.report = tolerance.Check(local, diff.Histogram)
			job.distance = diff.HashDistance
			slog.Debug("comparison done", "name", job.name, "captured", job.captured, "ratio", local.Ratio(), "passed", job.report.Passed, "hash_distance", diff.HashDistance)
			job.handle.Complete(job.report.Passed)
			return nil
		})
	}
	_ = g.Wait()
}

// reportCheck prints every outcome in registration order and returns the
// number of regressions and of unfinished comparisons.
func reportCheck(jobs []*checkJob, results []tracker.Outcome) (failed, unfinished int) {
	byIndex := make(map[int]*checkJob, len(jobs))
	for _, j := range jobs {
		byIndex[j.handle.Index()] = j
	}
	for _, r := range results {
		job := byIndex[r.Index]
		switch {
		case !r.Completed:
			printWarn(job.name, "comparison did not finish")
			unfinished++
		case job.err != nil:
			printErr(job.name, job.err.Error())
			failed++
		case r.Succeeded:
			printOK(job.name, fmt.Sprintf("matches %s (hash distance %d)", filepath.Base(job.master.Path), job.distance))
		default:
			printReport(job.name, job.report)
			failed++
		}
	}
	return failed, unfinished
}
