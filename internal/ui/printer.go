package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
)

// Printer writes user-facing run output.
type Printer struct {
	out     io.Writer
	verbose bool
}

func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

func (p *Printer) Successf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, Success("✓")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, Error("✗")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Warningf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, Warning("⚠")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Infof(format string, args ...interface{}) {
	fmt.Fprintln(p.out, Info("ℹ")+" "+fmt.Sprintf(format, args...))
}

// FileProcessed reports one file as soon as it is done.
func (p *Printer) FileProcessed(r renamer.FileResult) {
	name := filepath.Base(r.Path)
	switch r.Outcome {
	case renamer.OutcomeRenamed:
		verb := "Renamed"
		if r.DryRun {
			verb = "Would rename"
		}
		p.Successf("%s %s %s %s", verb, Path(name), Dim("→"), Target(filepath.Base(r.Target)))
	case renamer.OutcomeNoOp:
		if p.verbose {
			fmt.Fprintf(p.out, "%s %s %s\n", Dim("·"), name, Dim("("+r.Reason+")"))
		}
	case renamer.OutcomeSkipped:
		reason := r.Reason
		if r.Reason == decision.ReasonProviderError && r.Err != nil {
			reason += ": " + r.Err.Error()
		}
		p.Warningf("Skipped %s: %s", Path(name), reason)
	default:
		p.Errorf("Failed %s: %v", Path(name), r.Err)
	}
}

// RunSummary prints totals and how to undo the run.
func (p *Printer) RunSummary(r *renamer.Report) {
	fmt.Fprintln(p.out)
	renamed := "Renamed"
	if len(r.Results) > 0 && r.Results[0].DryRun {
		renamed = "Would rename"
	}
	parts := []string{
		fmt.Sprintf("%s %d", renamed, r.Renamed()),
		fmt.Sprintf("unchanged %d", r.NoOps()),
		fmt.Sprintf("skipped %d", r.Skipped()),
	}
	if n := r.Failed(); n > 0 {
		parts = append(parts, fmt.Sprintf("failed %d", n))
	}
	fmt.Fprintln(p.out, strings.Join(parts, ", "))

	reasons := r.SkipReasons()
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(p.out, "  %s %s\n", Dim(fmt.Sprintf("%3d", reasons[k])), k)
	}

	if r.Aborted {
		p.Warningf("Run aborted; files already renamed keep their new names")
	}
	if r.RunID != "" && r.Renamed() > 0 {
		fmt.Fprintf(p.out, "%s\n", Dim("Undo with: jellyrename undo "+shortID(r.RunID)))
	}
}

func (p *Printer) UndoSummary(r *renamer.UndoReport) {
	for _, res := range r.Results {
		from := filepath.Base(res.Entry.TargetPath)
		to := filepath.Base(res.Entry.SourcePath)
		switch res.Outcome {
		case renamer.OutcomeRenamed:
			verb := "Restored"
			if r.DryRun {
				verb = "Would restore"
			}
			p.Successf("%s %s %s %s", verb, Path(from), Dim("→"), Target(to))
		case renamer.OutcomeFailed:
			p.Errorf("Failed %s: %v", Path(from), res.Err)
		default:
			p.Warningf("Skipped %s: %s", Path(from), res.Reason)
		}
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Restored %d of %d file(s) from run %s\n",
		r.Restored(), len(r.Results), r.Run.ShortID())
}

// Runs lists history runs, newest first.
func (p *Printer) Runs(runs []history.Run) {
	if len(runs) == 0 {
		p.Infof("No runs recorded yet")
		return
	}
	t := NewTable("RUN", "STARTED", "MODE", "STATUS", "RENAMED", "SKIPPED", "ARGS")
	for _, r := range runs {
		t.AddRow(r.ShortID(), FormatAge(r.StartedAt), r.Mode, r.Status,
			strconv.Itoa(r.Renamed), strconv.Itoa(r.Skipped), r.Args)
	}
	t.Render(p.out)
}

// RunEntries lists the renames of one run.
func (p *Printer) RunEntries(run history.Run, entries []history.Entry) {
	fmt.Fprintf(p.out, "Run %s  %s  %s  %s\n", run.ShortID(), run.Mode, run.Status, Dim(FormatAge(run.StartedAt)))
	if len(entries) == 0 {
		p.Infof("No renames in this run")
		return
	}
	rows := make([][]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		state := ""
		if e.Undone() {
			state = "undone"
		}
		rows = append(rows, []string{filepath.Base(e.SourcePath), filepath.Base(e.TargetPath), Show(e.ShowName), state})
	}
	CompactTable(p.out, []string{"FROM", "TO", "SHOW", ""}, rows)
}

// WatchStats prints the totals of a watch session. scan is nil when periodic
// rescans were disabled.
func (p *Printer) WatchStats(s renamer.StatsSnapshot, scan *scanner.ScannerStatus) {
	fmt.Fprintf(p.out, "Watched for %s: renamed %d, unchanged %d, skipped %d, errors %d\n",
		FormatDuration(s.Uptime), s.Renamed, s.Unchanged, s.Skipped, s.Errors)
	if scan == nil {
		return
	}
	if scan.LastScan.IsZero() {
		fmt.Fprintln(p.out, Dim("Periodic scan: never ran"))
		return
	}
	line := fmt.Sprintf("Periodic scan: last %s", FormatAge(scan.LastScan))
	if scan.SkippedTicks > 0 {
		line += fmt.Sprintf(", %d skipped", scan.SkippedTicks)
	}
	if !scan.Healthy {
		p.Warningf("%s, failing: %s", line, scan.LastError)
		return
	}
	fmt.Fprintln(p.out, Dim(line))
}

func shortID(id string) string {
	return history.Run{ID: id}.ShortID()
}
