package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"contendq/internal/check"
	"contendq/internal/runner"
	"contendq/internal/scenario"
	"contendq/internal/stats"
)

// Start runs r headless, printing a progress line from the runner's updates
// and a summary at the end.
func Start(ctx context.Context, r *runner.Runner) (stats.Snapshot, time.Duration, error) {
	return run(ctx, r, os.Stdout)
}

func run(ctx context.Context, r *runner.Runner, out io.Writer) (stats.Snapshot, time.Duration, error) {
	printHeader(out, r)

	type result struct {
		snap stats.Snapshot
		err  error
	}
	done := make(chan result, 1)
	startTime := time.Now()

	// Start Runner
	go func() {
		snap, err := r.Run(ctx)
		done <- result{snap, err}
	}()

	for {
		select {
		case s := <-r.Updates:
			printProgress(out, r.Cfg, s)
		case res := <-done:
			elapsed := time.Since(startTime)
			if res.err != nil {
				fmt.Fprintf(out, "\n❌ %v\n", res.err)
				return res.snap, elapsed, res.err
			}
			// drain whatever is left so the last line shows 100%
			for len(r.Updates) > 0 {
				printProgress(out, r.Cfg, <-r.Updates)
			}
			printSummary(out, res.snap, elapsed)
			return res.snap, elapsed, nil
		}
	}
}

func printHeader(out io.Writer, r *runner.Runner) {
	cfg := r.Cfg
	fmt.Fprintf(out, "\n🚀 STARTING CONTENDQ LOAD TEST\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Target URL : %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Suite      : %s (%s)\n", r.Suite.Name, scenarioNames(r.Suite))
	fmt.Fprintf(out, "Users      : %d\n", cfg.NumUsers)
	if cfg.Duration > 0 {
		fmt.Fprintf(out, "Duration   : %s\n", cfg.Duration)
	} else {
		fmt.Fprintf(out, "Iterations : %d (shared)\n", cfg.Iterations)
	}
	fmt.Fprintf(out, "Timeout    : %ds\n", cfg.TimeoutSec)
	fmt.Fprintf(out, "Run        : %s\n", r.Seed.Tag())
	fmt.Fprintf(out, "======================================================================\n\n")
}

func scenarioNames(s scenario.Suite) string {
	names := make([]string, 0, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		if sc.Weight() != 1 {
			names = append(names, fmt.Sprintf("%s×%g", sc.Name(), sc.Weight()))
			continue
		}
		names = append(names, sc.Name())
	}
	return strings.Join(names, ", ")
}

func printProgress(out io.Writer, cfg runner.Config, s runner.StatsSnapshot) {
	target := fmt.Sprintf("%d it", cfg.Iterations)
	if cfg.Duration > 0 {
		target = cfg.Duration.String()
	}
	fmt.Fprintf(out, "\r%s %3.0f%% | %s/%s | VUs: %3d | Ops: %d | OK: %d | Conflict: %d | Unexp: %d | p90 %.0fms",
		progressBar(s.Progress, 20), s.Progress*100,
		s.Elapsed.Round(time.Second), target,
		s.ActiveUsers,
		s.Operations,
		s.Successful,
		s.Conflicts,
		s.Unexpected,
		s.P90Ms,
	)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(out io.Writer, snap stats.Snapshot, totalTime time.Duration) {
	ops := snap.Counter(scenario.MetricTotalOperations)
	reqs := snap.Counter(scenario.MetricHTTPReqs)
	rps := 0.0
	if totalTime > 0 {
		rps = float64(reqs) / totalTime.Seconds()
	}

	fmt.Fprintf(out, "\n\n📊 LOAD TEST RESULTS\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Total Duration        : %s\n", totalTime.Round(time.Millisecond))
	fmt.Fprintf(out, "Total Operations      : %d\n", ops)
	fmt.Fprintf(out, "Successful Operations : %d\n", snap.Counter(scenario.MetricSuccessfulOperations))
	fmt.Fprintf(out, "Conflicts (400)       : %d\n", snap.Counter(scenario.MetricConflictOperations))
	fmt.Fprintf(out, "Not Found (404)       : %d\n", snap.Counter(scenario.MetricNotFoundOperations))
	fmt.Fprintf(out, "Unexpected            : %d\n", snap.Counter(scenario.MetricUnexpectedOperations))
	fmt.Fprintf(out, "Steps Skipped         : %d\n", snap.Counter(scenario.MetricStepsSkipped))
	fmt.Fprintf(out, "HTTP Requests         : %d (%.2f/s)\n", reqs, rps)
	fmt.Fprintf(out, "Health Rate           : %.2f%%\n", snap.Rate(scenario.RateSystemHealthy)*100)
	fmt.Fprintf(out, "Checks Passed         : %.2f%%\n", snap.Rate(check.RateAll)*100)

	if d, ok := snap.Trends[scenario.TrendHTTPReqDuration]; ok {
		fmt.Fprintf(out, "\n⏱️  RESPONSE TIMES (ms)\n")
		fmt.Fprintf(out, "   Avg : %.2f\n", d.AvgMs)
		fmt.Fprintf(out, "   P50 : %.2f\n", d.P50Ms)
		fmt.Fprintf(out, "   P90 : %.2f\n", d.P90Ms)
		fmt.Fprintf(out, "   P95 : %.2f\n", d.P95Ms)
		fmt.Fprintf(out, "   P99 : %.2f\n", d.P99Ms)
		fmt.Fprintf(out, "   Max : %.2f\n", d.MaxMs)
	}

	printBreakdown(out, "🧮 OUTCOMES", snap, []string{
		scenario.MetricTeamCreated,
		scenario.MetricTeamAlreadyExists,
		scenario.MetricQuestionAllotted,
		scenario.MetricTeamHasQuestion,
		scenario.MetricConflictUnclassified,
		scenario.MetricQuestionNotFound,
		scenario.MetricQuestionCreated,
		scenario.MetricQuestionExists,
		scenario.MetricMysteryAssigned,
		scenario.MetricMysteryQuit,
		scenario.MetricAdminOperationSuccess,
		scenario.MetricDataRetrieved,
	})

	server := snap.Counter(scenario.MetricServerErrors)
	transport := snap.Counter(scenario.MetricTransportErrors)
	if server > 0 || transport > 0 {
		fmt.Fprintf(out, "\n❌ FAILURE SUMMARY\n")
		fmt.Fprintf(out, "   %d x server error (5xx)\n", server)
		fmt.Fprintf(out, "   %d x transport error\n", transport)
	}

	var failing []string
	for _, name := range stats.SortedKeys(snap.Rates) {
		if strings.HasPrefix(name, check.LabelRate("")) && snap.Rates[name] < 1 {
			failing = append(failing, name)
		}
	}
	if len(failing) > 0 {
		fmt.Fprintf(out, "\n⚠️  CHECKS BELOW 100%%\n")
		for _, name := range failing {
			rc := snap.RateCounts[name]
			fmt.Fprintf(out, "   %-40s %6.2f%% (%d/%d)\n",
				strings.TrimPrefix(name, check.LabelRate("")), snap.Rates[name]*100, rc.Passes, rc.Total)
		}
	}
	fmt.Fprintf(out, "======================================================================\n")
}

func printBreakdown(out io.Writer, title string, snap stats.Snapshot, names []string) {
	printed := false
	for _, name := range names {
		v := snap.Counter(name)
		if v == 0 {
			continue
		}
		if !printed {
			fmt.Fprintf(out, "\n%s\n", title)
			printed = true
		}
		fmt.Fprintf(out, "   %-26s %d\n", name, v)
	}
}
