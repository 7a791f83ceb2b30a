package renamer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/history"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/provider/providertest"
	"github.com/Nomadcxx/jellyrename/internal/resolver"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answers struct {
	lines    []string
	prompted []string
}

func (a *answers) next() (string, error) {
	if len(a.lines) == 0 {
		return "", io.EOF
	}
	line := a.lines[0]
	a.lines = a.lines[1:]
	return line, nil
}

func (a *answers) Confirm(source, destination string) (string, error) {
	a.prompted = append(a.prompted, destination)
	return a.next()
}

func (a *answers) Choose(source, question string, candidates []string) (string, error) {
	a.prompted = append(a.prompted, question)
	return a.next()
}

func (a *answers) Invalid(string) {}

type fixture struct {
	dir      string
	provider *providertest.Static
	prompter *answers
	journal  *history.Journal
	pipeline *Pipeline
}

func newFixture(t *testing.T, engineOpts []decision.Option, opts ...Option) *fixture {
	t.Helper()

	journal, err := history.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	prov := providertest.New().
		AddShow(provider.Show{ID: 1, Name: "Scrubs", Year: 2001}, 1, "My First Day", "My Mentor", "My Best Friend's Mistake").
		AddShow(provider.Show{ID: 2, Name: "The Big Bang Theory", Year: 2007}, 2,
			"The Bad Fish Paradigm", "The Codpiece Topology", "The Barbarian Sublimation",
			"The Griffin Equivalency", "The Euclid Alternative", "The Cooper-Nowitzki Theorem",
			"The Panty Piñata Polarization")

	f := &fixture{
		dir:      t.TempDir(),
		provider: prov,
		prompter: &answers{},
		journal:  journal,
	}
	res := resolver.New(prov)
	engine := decision.NewEngine(f.prompter, res, engineOpts...)
	opts = append([]Option{WithJournal(journal)}, opts...)
	f.pipeline = New(res, engine, organizer.NewOrganizer(), opts...)
	return f
}

func (f *fixture) touch(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *fixture) names(t *testing.T) []string {
	t.Helper()
	var names []string
	err := filepath.WalkDir(f.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(f.dir, path)
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(names)
	return names
}

func TestInteractiveConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "scrubs.s01e01.avi", "jd")
	f.prompter.lines = []string{"y"}

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Interactive, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Scrubs - [01x01] - My First Day.avi"}, f.prompter.prompted)
	assert.Equal(t, []string{"Scrubs - [01x01] - My First Day.avi"}, f.names(t))
	assert.Equal(t, 1, report.Renamed())
	assert.Equal(t, decision.Interactive, report.FinalMode)
}

func TestInvalidAnswerIsAskedAgain(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "scrubs.s01e01.avi", "jd")
	f.prompter.lines = []string{"maybe", "y"}

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Interactive, nil)
	require.NoError(t, err)
	assert.Len(t, f.prompter.prompted, 2)
	assert.Equal(t, 1, report.Renamed())
}

func TestAlwaysAnswerStopsPrompting(t *testing.T) {
	f := newFixture(t, nil)
	files := []string{
		f.touch(t, "scrubs.s01e01.avi", "1"),
		f.touch(t, "scrubs.s01e02.avi", "2"),
		f.touch(t, "scrubs.s01e03.avi", "3"),
	}
	f.prompter.lines = []string{"a"}

	report, err := f.pipeline.Run(context.Background(), files, decision.Interactive, nil)
	require.NoError(t, err)

	assert.Len(t, f.prompter.prompted, 1)
	assert.Equal(t, 3, report.Renamed())
	assert.Equal(t, decision.AlwaysRename, report.FinalMode)
	assert.Equal(t, []string{
		"Scrubs - [01x01] - My First Day.avi",
		"Scrubs - [01x02] - My Mentor.avi",
		"Scrubs - [01x03] - My Best Friend's Mistake.avi",
	}, f.names(t))
}

func TestQuitKeepsEarlierRenames(t *testing.T) {
	f := newFixture(t, nil)
	files := []string{
		f.touch(t, "scrubs.s01e01.avi", "1"),
		f.touch(t, "scrubs.s01e02.avi", "2"),
	}
	f.prompter.lines = []string{"y", "q"}

	report, err := f.pipeline.Run(context.Background(), files, decision.Interactive, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, decision.ErrUserAbort))
	assert.True(t, report.Aborted)
	assert.Equal(t, 1, report.Renamed())
	assert.Equal(t, []string{"Scrubs - [01x01] - My First Day.avi", "scrubs.s01e02.avi"}, f.names(t))

	runs, err := f.journal.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.StatusAborted, runs[0].Status)
	assert.Equal(t, 1, runs[0].Entries)
}

func TestEndOfInputAborts(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "scrubs.s01e01.avi", "jd")

	_, err := f.pipeline.Run(context.Background(), []string{src}, decision.Interactive, nil)
	assert.True(t, errors.Is(err, decision.ErrUserAbort))
	assert.Equal(t, []string{"scrubs.s01e01.avi"}, f.names(t))
}

func TestFallbackRenameWithoutMatch(t *testing.T) {
	f := newFixture(t, []decision.Option{decision.WithFallbackRename(true)})
	src := f.touch(t, "a.fake.show.s12e24.fake.avi", "fake")

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Batch, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Renamed())
	assert.Equal(t, []string{"a fake show - [12x24].avi"}, f.names(t))
}

func TestBatchSkipsUnmatched(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "a.fake.show.s12e24.fake.avi", "fake")

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Batch, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped())
	assert.Equal(t, map[string]int{decision.ReasonNoMatch: 1}, report.SkipReasons())
	assert.Equal(t, []string{"a.fake.show.s12e24.fake.avi"}, f.names(t))
}

func TestDestinationExistsInBatch(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "Scrubs.s01e01.avi", "download")
	f.touch(t, "Scrubs - [01x01] - My First Day.avi", "library")

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Batch, nil)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeSkipped, report.Results[0].Outcome)
	assert.Equal(t, decision.ReasonDestinationExists, report.Results[0].Reason)

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "download", string(data))
	data, err = os.ReadFile(filepath.Join(f.dir, "Scrubs - [01x01] - My First Day.avi"))
	require.NoError(t, err)
	assert.Equal(t, "library", string(data))
}

func TestNonASCIITitle(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "The Big Bang Theory - S02E07 - The Panty Pinata Polarization.avi", "bbt")

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.AlwaysRename, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Renamed())
	assert.Equal(t, []string{"The Big Bang Theory - [02x07] - The Panty Piñata Polarization.avi"}, f.names(t))
}

func TestRecursiveTraversal(t *testing.T) {
	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{
			name:      "top level only",
			recursive: false,
			want:      []string{"Scrubs - [01x01] - My First Day.avi", "nested/Scrubs.s01e02.avi"},
		},
		{
			name:      "recursive",
			recursive: true,
			want:      []string{"Scrubs - [01x01] - My First Day.avi", "nested/Scrubs - [01x02] - My Mentor.avi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.touch(t, "Scrubs.s01e01.avi", "1")
			f.touch(t, "nested/Scrubs.s01e02.avi", "2")

			files, err := scanner.Collect([]string{f.dir}, scanner.Options{Recursive: tt.recursive})
			require.NoError(t, err)

			_, err = f.pipeline.Run(context.Background(), files, decision.AlwaysRename, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.names(t))
		})
	}
}

func TestSecondRunIsNoOp(t *testing.T) {
	f := newFixture(t, nil)
	f.provider.AddShow(provider.Show{ID: 3, Name: "Bleach", Year: 2004}, 1,
		"A Shinigami Is Born", "A Shinigami's Work", "The Older Brother's Wish", "Cursed Parakeet", "The Fifth")
	f.touch(t, "scrubs.s01e01.avi", "1")
	f.touch(t, "scrubs.s01e02.avi", "2")
	f.touch(t, "[SubsPlease] Bleach - 05 [ABCD1234].mkv", "5")
	f.touch(t, "Bleach - Episode 4.mkv", "4")

	run := func() *Report {
		files, err := scanner.Collect([]string{f.dir}, scanner.Options{})
		require.NoError(t, err)
		report, err := f.pipeline.Run(context.Background(), files, decision.AlwaysRename, nil)
		require.NoError(t, err)
		return report
	}

	first := run()
	assert.Equal(t, 4, first.Renamed())
	after := f.names(t)
	assert.Equal(t, []string{
		"Bleach - [04] - Cursed Parakeet.mkv",
		"Bleach - [05] - The Fifth.mkv",
		"Scrubs - [01x01] - My First Day.avi",
		"Scrubs - [01x02] - My Mentor.avi",
	}, after)

	second := run()
	assert.Equal(t, 0, second.Renamed())
	assert.Equal(t, 4, second.NoOps())
	assert.Equal(t, 0, second.Skipped())
	assert.Equal(t, after, f.names(t))
}

func TestAmbiguousShowNeedsSelection(t *testing.T) {
	build := func(t *testing.T) *fixture {
		f := newFixture(t, nil)
		f.provider.AddShow(provider.Show{ID: 10, Name: "Doctor Who", Year: 1963}, 1, "An Unearthly Child")
		f.provider.AddShow(provider.Show{ID: 11, Name: "Doctor Who", Year: 2005}, 1, "Rose")
		return f
	}

	for _, mode := range []decision.Mode{decision.Batch, decision.AlwaysRename} {
		t.Run(mode.String(), func(t *testing.T) {
			f := build(t)
			src := f.touch(t, "doctor.who.s01e01.mkv", "x")
			report, err := f.pipeline.Run(context.Background(), []string{src}, mode, nil)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{decision.ReasonAmbiguous: 1}, report.SkipReasons())
			assert.Equal(t, []string{"doctor.who.s01e01.mkv"}, f.names(t))
		})
	}

	t.Run("interactive", func(t *testing.T) {
		f := build(t)
		src := f.touch(t, "doctor.who.s01e01.mkv", "x")
		f.prompter.lines = []string{"2", "y"}
		report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Interactive, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Renamed())
		assert.Equal(t, []string{"Doctor Who - [01x01] - Rose.mkv"}, f.names(t))
	})
}

func TestUnparseableFileIsSkipped(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "holiday video.avi", "x")

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.Batch, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, decision.ReasonNoPattern, report.Results[0].Reason)
	assert.Equal(t, 0, f.provider.SearchCalls)
}

func TestProviderFailures(t *testing.T) {
	t.Run("skipped and run continues", func(t *testing.T) {
		f := newFixture(t, nil)
		f.provider.Err = errors.New("connection refused")
		files := []string{
			f.touch(t, "scrubs.s01e01.avi", "1"),
			f.touch(t, "scrubs.s01e02.avi", "2"),
		}

		report, err := f.pipeline.Run(context.Background(), files, decision.Batch, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{decision.ReasonProviderError: 2}, report.SkipReasons())
		for _, r := range report.Results {
			assert.True(t, errors.Is(r.Err, provider.ErrProvider))
		}
	})

	t.Run("limit stops the run", func(t *testing.T) {
		f := newFixture(t, nil, WithMaxConsecutiveProviderFailures(2))
		f.provider.Err = errors.New("connection refused")
		files := []string{
			f.touch(t, "scrubs.s01e01.avi", "1"),
			f.touch(t, "scrubs.s01e02.avi", "2"),
			f.touch(t, "scrubs.s01e03.avi", "3"),
		}

		report, err := f.pipeline.Run(context.Background(), files, decision.Batch, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTooManyProviderFailures))
		assert.True(t, errors.Is(err, provider.ErrProvider))
		assert.Len(t, report.Results, 2)

		runs, err := f.journal.Runs(1)
		require.NoError(t, err)
		assert.Equal(t, history.StatusFailed, runs[0].Status)
	})
}

func TestDryRunLeavesFilesAndHistory(t *testing.T) {
	journal, err := history.OpenInMemory()
	require.NoError(t, err)
	defer journal.Close()

	prov := providertest.New().AddShow(provider.Show{ID: 1, Name: "Scrubs"}, 1, "My First Day")
	res := resolver.New(prov)
	p := New(res, decision.NewEngine(&answers{}, res), organizer.NewOrganizer(organizer.WithDryRun(true)), WithJournal(journal))

	dir := t.TempDir()
	src := filepath.Join(dir, "scrubs.s01e01.avi")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	report, err := p.Run(context.Background(), []string{src}, decision.AlwaysRename, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeRenamed, report.Results[0].Outcome)
	assert.True(t, report.Results[0].DryRun)
	assert.FileExists(t, src)

	runs, err := journal.Runs(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDestinationDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "library")
	f := newFixture(t, nil, WithDestination(dest))
	src := f.touch(t, "scrubs.s01e01.avi", "x")

	report, err := f.pipeline.Run(context.Background(), []string{src}, decision.AlwaysRename, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Renamed())
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(dest, "Scrubs - [01x01] - My First Day.avi"))
}

type recorder struct {
	results []FileResult
}

func (r *recorder) FileProcessed(res FileResult) {
	r.results = append(r.results, res)
}

func TestObserverSeesEveryFile(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, nil, WithObserver(rec))
	files := []string{
		f.touch(t, "scrubs.s01e01.avi", "1"),
		f.touch(t, "holiday.avi", "2"),
	}

	_, err := f.pipeline.Run(context.Background(), files, decision.Batch, nil)
	require.NoError(t, err)
	require.Len(t, rec.results, 2)
	assert.Equal(t, OutcomeRenamed, rec.results[0].Outcome)
	assert.Equal(t, "Scrubs", rec.results[0].ShowName)
	assert.Equal(t, OutcomeSkipped, rec.results[1].Outcome)
}

func TestCancelledContextStopsRun(t *testing.T) {
	f := newFixture(t, nil)
	src := f.touch(t, "scrubs.s01e01.avi", "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.pipeline.Run(ctx, []string{src}, decision.Batch, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}
