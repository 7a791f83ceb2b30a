package renamer

import (
	"github.com/Nomadcxx/jellyrename/internal/decision"
	"github.com/Nomadcxx/jellyrename/internal/naming"
)

type Outcome int

const (
	OutcomeRenamed Outcome = iota
	OutcomeNoOp
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRenamed:
		return "renamed"
	case OutcomeNoOp:
		return "unchanged"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult is what happened to one file.
type FileResult struct {
	Path     string
	Target   string
	ShowName string
	Outcome  Outcome
	Reason   string
	Err      error
	DryRun   bool
	Parsed   *naming.ParsedFilename
}

func (r *FileResult) skip(reason string, err error) {
	r.Outcome = OutcomeSkipped
	r.Reason = reason
	r.Err = err
}

type Report struct {
	RunID     string
	StartMode decision.Mode
	FinalMode decision.Mode
	Aborted   bool
	Results   []FileResult
}

func (r *Report) add(res FileResult) {
	r.Results = append(r.Results, res)
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Report) Renamed() int { return r.count(OutcomeRenamed) }
func (r *Report) NoOps() int   { return r.count(OutcomeNoOp) }
func (r *Report) Skipped() int { return r.count(OutcomeSkipped) }
func (r *Report) Failed() int  { return r.count(OutcomeFailed) }

// SkipReasons counts skipped files by reason.
func (r *Report) SkipReasons() map[string]int {
	reasons := make(map[string]int)
	for _, res := range r.Results {
		if res.Outcome == OutcomeSkipped {
			reasons[res.Reason]++
		}
	}
	return reasons
}
