// Package decision turns a lookup result and the active confirmation mode
// into an accept or skip decision for one file.
package decision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/Nomadcxx/jellyrename/internal/resolver"
)

// ErrUserAbort is returned when the user answers "q". Files already
// renamed stay renamed.
var ErrUserAbort = errors.New("aborted by user")

// Skip reasons reported to the user and written to the log.
const (
	ReasonNoMatch           = "no match found"
	ReasonAmbiguous         = "ambiguous match"
	ReasonDestinationExists = "destination exists"
	ReasonProviderError     = "provider error"
	ReasonNoPattern         = "no pattern matched"
	ReasonDeclined          = "declined by user"
	ReasonNonContiguous     = "non-contiguous episodes"
	ReasonAlreadyNamed      = "already named correctly"
)

type Status int

const (
	Accepted Status = iota
	Skipped
	// Deferred marks an unusable answer; the engine asks again and never
	// returns it.
	Deferred
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Skipped:
		return "skipped"
	case Deferred:
		return "deferred"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Decision is the terminal outcome for one file. DestinationName is a bare
// filename; the committer joins it with the destination directory.
type Decision struct {
	SourcePath      string
	DestinationName string
	Status          Status
	Reason          string
	Match           *resolver.Match
}

// Outcome carries the decision and the mode for the rest of the run.
type Outcome struct {
	Decision Decision
	Mode     Mode
}

// Prompter asks the user questions and returns the raw answer line.
// Returning io.EOF means there is no more input.
type Prompter interface {
	Confirm(source, destination string) (string, error)
	Choose(source, question string, candidates []string) (string, error)
	Invalid(answer string)
}

// ShowResolver resolves episodes once a show has been chosen.
type ShowResolver interface {
	ResolveShow(ctx context.Context, parsed *naming.ParsedFilename, show provider.Show) (resolver.SearchResult, error)
}

type Engine struct {
	prompter       Prompter
	resolver       ShowResolver
	template       naming.Template
	selectFirst    bool
	fallbackRename bool
}

type Option func(*Engine)

// WithSelectFirst picks the first candidate instead of asking for one.
// Interactive runs still confirm the result.
func WithSelectFirst(enabled bool) Option {
	return func(e *Engine) {
		e.selectFirst = enabled
	}
}

// WithFallbackRename lets unattended runs rename unmatched files to a name
// built from the parsed tokens alone.
func WithFallbackRename(enabled bool) Option {
	return func(e *Engine) {
		e.fallbackRename = enabled
	}
}

func WithTemplate(t naming.Template) Option {
	return func(e *Engine) {
		e.template = t
	}
}

func NewEngine(prompter Prompter, sr ShowResolver, opts ...Option) *Engine {
	e := &Engine{
		prompter: prompter,
		resolver: sr,
		template: naming.DefaultNamingTemplate(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide runs the state machine for one file. The returned error is
// ErrUserAbort or a provider error from a follow-up lookup.
func (e *Engine) Decide(ctx context.Context, mode Mode, parsed *naming.ParsedFilename, result resolver.SearchResult) (Outcome, error) {
	skip := func(reason string) (Outcome, error) {
		return Outcome{Decision: Decision{SourcePath: parsed.RawPath, Status: Skipped, Reason: reason}, Mode: mode}, nil
	}

	switch r := result.(type) {
	case resolver.SingleMatch:
		match := r.Match
		name, err := e.DestinationName(parsed, &match)
		if err != nil {
			return skip(renderReason(err))
		}
		if mode.Unattended() {
			return accept(parsed, name, &match, mode), nil
		}
		return e.confirm(mode, parsed, name, &match)

	case resolver.NoMatch:
		name, err := e.DestinationName(parsed, nil)
		if err != nil {
			return skip(renderReason(err))
		}
		if mode.Unattended() {
			if e.fallbackRename {
				return accept(parsed, name, nil, mode), nil
			}
			return skip(ReasonNoMatch)
		}
		return e.confirm(mode, parsed, name, nil)

	case resolver.MultipleShowMatches:
		if len(r.Shows) == 0 {
			return skip(ReasonNoMatch)
		}
		idx := 0
		if !e.selectFirst {
			if mode.Unattended() {
				return skip(ReasonAmbiguous)
			}
			labels := make([]string, len(r.Shows))
			for i, s := range r.Shows {
				labels[i] = s.String()
			}
			var ok bool
			var err error
			idx, ok, err = e.choose(parsed, fmt.Sprintf("Multiple shows match %q", r.Query), labels)
			if err != nil {
				return Outcome{Mode: mode}, err
			}
			if !ok {
				return skip(ReasonDeclined)
			}
		}
		next, err := e.resolver.ResolveShow(ctx, parsed, r.Shows[idx])
		if err != nil {
			return Outcome{Mode: mode}, err
		}
		if _, again := next.(resolver.MultipleShowMatches); again {
			return skip(ReasonAmbiguous)
		}
		return e.Decide(ctx, mode, parsed, next)

	case resolver.MultipleEpisodeMatches:
		if len(r.Options) == 0 {
			return skip(ReasonNoMatch)
		}
		idx := 0
		if !e.selectFirst {
			if mode.Unattended() {
				return skip(ReasonAmbiguous)
			}
			labels := make([]string, len(r.Options))
			for i, opt := range r.Options {
				labels[i] = naming.JoinTitles(opt.Titles())
			}
			var ok bool
			var err error
			idx, ok, err = e.choose(parsed, fmt.Sprintf("Multiple episode titles for %s", r.Show.Name), labels)
			if err != nil {
				return Outcome{Mode: mode}, err
			}
			if !ok {
				return skip(ReasonDeclined)
			}
		}
		return e.Decide(ctx, mode, parsed, resolver.SingleMatch{Match: r.Options[idx]})

	default:
		return Outcome{Mode: mode}, fmt.Errorf("unhandled search result %T", result)
	}
}

// DestinationName renders the new filename for a match, or the fallback
// name from parsed tokens when match is nil.
func (e *Engine) DestinationName(parsed *naming.ParsedFilename, match *resolver.Match) (string, error) {
	data := naming.NameData{
		ShowName:  parsed.ShowName,
		Season:    parsed.Season,
		Episodes:  parsed.EpisodeNumbers(),
		Extension: parsed.Extension,
	}
	if match != nil {
		data.ShowName = match.Show.Name
		data.Titles = match.Titles()
	}
	return e.template.Render(data)
}

func (e *Engine) confirm(mode Mode, parsed *naming.ParsedFilename, name string, match *resolver.Match) (Outcome, error) {
	for {
		answer, err := e.prompter.Confirm(parsed.RawPath, name)
		if err != nil {
			return Outcome{Mode: mode}, promptError(err)
		}
		status, next, err := interpretConfirm(answer, mode)
		if err != nil {
			return Outcome{Mode: mode}, err
		}
		switch status {
		case Accepted:
			return accept(parsed, name, match, next), nil
		case Skipped:
			return Outcome{Decision: Decision{SourcePath: parsed.RawPath, Status: Skipped, Reason: ReasonDeclined, Match: match}, Mode: next}, nil
		default:
			e.prompter.Invalid(answer)
		}
	}
}

// choose asks for a candidate number. ok is false when the user skips.
func (e *Engine) choose(parsed *naming.ParsedFilename, question string, labels []string) (int, bool, error) {
	for {
		answer, err := e.prompter.Choose(parsed.RawPath, question, labels)
		if err != nil {
			return 0, false, promptError(err)
		}
		idx, status, err := interpretChoice(answer, len(labels))
		if err != nil {
			return 0, false, err
		}
		switch status {
		case Accepted:
			return idx, true, nil
		case Skipped:
			return 0, false, nil
		default:
			e.prompter.Invalid(answer)
		}
	}
}

func interpretConfirm(answer string, mode Mode) (Status, Mode, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return Accepted, mode, nil
	case "a", "always":
		return Accepted, AlwaysRename, nil
	case "n", "no", "s", "skip":
		return Skipped, mode, nil
	case "q", "quit":
		return Skipped, mode, ErrUserAbort
	default:
		return Deferred, mode, nil
	}
}

// interpretChoice maps a 1-based answer to an index into n candidates.
func interpretChoice(answer string, n int) (int, Status, error) {
	a := strings.ToLower(strings.TrimSpace(answer))
	switch a {
	case "s", "skip":
		return 0, Skipped, nil
	case "q", "quit":
		return 0, Skipped, ErrUserAbort
	}
	num, err := strconv.Atoi(a)
	if err != nil || num < 1 || num > n {
		return 0, Deferred, nil
	}
	return num - 1, Accepted, nil
}

func accept(parsed *naming.ParsedFilename, name string, match *resolver.Match, mode Mode) Outcome {
	return Outcome{
		Decision: Decision{
			SourcePath:      parsed.RawPath,
			DestinationName: name,
			Status:          Accepted,
			Match:           match,
		},
		Mode: mode,
	}
}

func promptError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: end of input", ErrUserAbort)
	}
	return fmt.Errorf("reading answer: %w", err)
}

func renderReason(err error) string {
	if errors.Is(err, naming.ErrNonContiguousEpisodes) {
		return ReasonNonContiguous
	}
	return err.Error()
}
