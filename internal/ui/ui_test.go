package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	DisableColors()
}

func TestLinePrompterConfirm(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader(" y \na"), &out)

	answer, err := p.Confirm("/tv/scrubs.s01e01.avi", "Scrubs - [01x01] - My First Day.avi")
	require.NoError(t, err)
	assert.Equal(t, "y", answer)
	assert.Contains(t, out.String(), "scrubs.s01e01.avi")
	assert.Contains(t, out.String(), "→ Scrubs - [01x01] - My First Day.avi")
	assert.Contains(t, out.String(), "[a]lways")

	// last line without a newline still counts
	answer, err = p.Confirm("/tv/scrubs.s01e02.avi", "Scrubs - [01x02] - My Mentor.avi")
	require.NoError(t, err)
	assert.Equal(t, "a", answer)

	_, err = p.Confirm("/tv/scrubs.s01e03.avi", "x.avi")
	assert.True(t, errors.Is(err, io.EOF))
}

func TestLinePrompterChoose(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("2\n"), &out)

	answer, err := p.Choose("doctor.who.s01e01.mkv", `Multiple shows match "doctor who"`,
		[]string{"Doctor Who (1963)", "Doctor Who (2005)"})
	require.NoError(t, err)
	assert.Equal(t, "2", answer)
	assert.Contains(t, out.String(), "[1] Doctor Who (1963)")
	assert.Contains(t, out.String(), "[2] Doctor Who (2005)")
	assert.Contains(t, out.String(), "Choose 1-2")

	p.Invalid("7")
	assert.Contains(t, out.String(), `"7" is not a valid answer`)
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		p := NewLinePrompter(strings.NewReader(tt.input), io.Discard)
		got, err := p.AskYesNo("Undo run?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestLinePrompterSatisfiesPrompter(t *testing.T) {
	var _ decision.Prompter = NewLinePrompter(strings.NewReader(""), io.Discard)
}

func TestPrinterFileProcessed(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		result  renamer.FileResult
		want    string
	}{
		{
			name: "renamed",
			result: renamer.FileResult{
				Path: "/tv/scrubs.s01e01.avi", Target: "/tv/Scrubs - [01x01] - My First Day.avi",
				Outcome: renamer.OutcomeRenamed,
			},
			want: "✓ Renamed scrubs.s01e01.avi → Scrubs - [01x01] - My First Day.avi\n",
		},
		{
			name: "dry run",
			result: renamer.FileResult{
				Path: "/tv/scrubs.s01e01.avi", Target: "/tv/Scrubs - [01x01] - My First Day.avi",
				Outcome: renamer.OutcomeRenamed, DryRun: true,
			},
			want: "✓ Would rename scrubs.s01e01.avi → Scrubs - [01x01] - My First Day.avi\n",
		},
		{
			name:   "skipped",
			result: renamer.FileResult{Path: "/tv/a.avi", Outcome: renamer.OutcomeSkipped, Reason: decision.ReasonDestinationExists},
			want:   "⚠ Skipped a.avi: destination exists\n",
		},
		{
			name: "provider error detail",
			result: renamer.FileResult{
				Path: "/tv/a.avi", Outcome: renamer.OutcomeSkipped,
				Reason: decision.ReasonProviderError, Err: errors.New("timeout"),
			},
			want: "⚠ Skipped a.avi: provider error: timeout\n",
		},
		{
			name:   "unchanged hidden",
			result: renamer.FileResult{Path: "/tv/a.avi", Outcome: renamer.OutcomeNoOp, Reason: decision.ReasonAlreadyNamed},
			want:   "",
		},
		{
			name:    "unchanged verbose",
			verbose: true,
			result:  renamer.FileResult{Path: "/tv/a.avi", Outcome: renamer.OutcomeNoOp, Reason: decision.ReasonAlreadyNamed},
			want:    "· a.avi (already named correctly)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			NewPrinter(&out, tt.verbose).FileProcessed(tt.result)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRunSummary(t *testing.T) {
	report := &renamer.Report{
		RunID: "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed",
		Results: []renamer.FileResult{
			{Outcome: renamer.OutcomeRenamed},
			{Outcome: renamer.OutcomeSkipped, Reason: decision.ReasonNoMatch},
			{Outcome: renamer.OutcomeSkipped, Reason: decision.ReasonNoMatch},
			{Outcome: renamer.OutcomeNoOp},
		},
	}
	var out bytes.Buffer
	NewPrinter(&out, false).RunSummary(report)

	assert.Contains(t, out.String(), "Renamed 1, unchanged 1, skipped 2")
	assert.Contains(t, out.String(), "  2 no match found")
	assert.Contains(t, out.String(), "jellyrename undo 1b9d6bcd")
}

func TestWatchStats(t *testing.T) {
	snap := renamer.StatsSnapshot{Renamed: 2, Unchanged: 1, Skipped: 3, Uptime: time.Minute}

	var out bytes.Buffer
	NewPrinter(&out, false).WatchStats(snap, nil)
	assert.Contains(t, out.String(), "renamed 2, unchanged 1, skipped 3, errors 0")
	assert.NotContains(t, out.String(), "Periodic scan")

	out.Reset()
	NewPrinter(&out, false).WatchStats(snap, &scanner.ScannerStatus{Healthy: true})
	assert.Contains(t, out.String(), "Periodic scan: never ran")

	out.Reset()
	NewPrinter(&out, false).WatchStats(snap, &scanner.ScannerStatus{
		Healthy:      false,
		LastScan:     time.Now().Add(-2 * time.Hour),
		LastError:    "scan panic: boom",
		SkippedTicks: 4,
	})
	assert.Contains(t, out.String(), "Periodic scan: last 2 hours ago, 4 skipped, failing: scan panic: boom")
}

func TestRunsTable(t *testing.T) {
	var out bytes.Buffer
	NewPrinter(&out, false).Runs([]history.Run{{
		ID: "1b9d6bcd-bbfd", Mode: "batch", Status: history.StatusComplete,
		Renamed: 3, StartedAt: time.Now().Add(-2 * time.Hour), Args: "/tv",
	}})
	assert.Contains(t, out.String(), "1b9d6bcd")
	assert.Contains(t, out.String(), "2 hours ago")
	assert.Contains(t, out.String(), "complete")

	out.Reset()
	NewPrinter(&out, false).Runs(nil)
	assert.Contains(t, out.String(), "No runs recorded yet")
}

func TestTableAlignsWideRunes(t *testing.T) {
	var out bytes.Buffer
	tbl := NewTable("TITLE", "N")
	tbl.AddRow("The Panty Piñata Polarization", "7")
	tbl.AddRow("Pilot", "1")
	tbl.Render(&out)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	width := len([]rune(lines[0]))
	for _, l := range lines {
		assert.Equal(t, width, len([]rune(l)), l)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Piñata ...", truncate("Piñata Polarization", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "-", FormatAge(time.Time{}))
	assert.Equal(t, "3 minutes ago", FormatAge(time.Now().Add(-3*time.Minute)))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}
