package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/moistari/rls"
)

// ErrNoPattern is matched by every *ParseError.
var ErrNoPattern = errors.New("no pattern matched")

// ParseError reports a filename that no rule could parse. Callers skip the
// file and keep going.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", filepath.Base(e.Path), e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrNoPattern
}

// ParsedFilename is the structured form of an episode filename. Values are
// built once by Parse and must not be modified afterwards.
type ParsedFilename struct {
	RawPath   string
	ShowName  string
	Season    *int
	Episodes  []int
	Extension string
	Rule      string
	Extra     map[string]string
}

// EpisodeNumbers returns a copy of the parsed episode numbers.
func (p *ParsedFilename) EpisodeNumbers() []int {
	out := make([]int, len(p.Episodes))
	copy(out, p.Episodes)
	return out
}

// ExtraTokens returns a copy of the extra tokens found around the episode.
func (p *ParsedFilename) ExtraTokens() map[string]string {
	out := make(map[string]string, len(p.Extra))
	for k, v := range p.Extra {
		out[k] = v
	}
	return out
}

// HasSeason reports whether the filename carried a season number.
func (p *ParsedFilename) HasSeason() bool {
	return p.Season != nil
}

// SeasonOr returns the parsed season or def when the filename had none.
func (p *ParsedFilename) SeasonOr(def int) int {
	if p.Season == nil {
		return def
	}
	return *p.Season
}

func (p *ParsedFilename) String() string {
	eps := make([]string, len(p.Episodes))
	for i, e := range p.Episodes {
		eps[i] = strconv.Itoa(e)
	}
	if p.Season == nil {
		return fmt.Sprintf("%s e%s", p.ShowName, strings.Join(eps, ","))
	}
	return fmt.Sprintf("%s s%d e%s", p.ShowName, *p.Season, strings.Join(eps, ","))
}

var (
	separatorRegex = regexp.MustCompile(`[._]+`)
	spaceRegex     = regexp.MustCompile(`\s+`)
	leadGroupRegex = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*`)
	crcRegex       = regexp.MustCompile(`\[([0-9A-Fa-f]{8})\]`)
	digitsRegex    = regexp.MustCompile(`\d+`)

	extensionRegex    = regexp.MustCompile(`^[0-9]?[A-Za-z][A-Za-z0-9]{0,4}$`)
	releaseTokenRegex = regexp.MustCompile(`(?i)^(?:s\d+(?:e\d+)*|e\d+|ep\d+|\d+x\d+|\d{3,4}[pi]|[xh]26[45])$`)
)

// Parse extracts show, season and episode numbers from a file path. The rule
// table is tried in order and the first full match wins.
func Parse(rawPath string) (*ParsedFilename, error) {
	base := filepath.Base(rawPath)
	ext := fileExtension(base)
	stem := strings.TrimSuffix(base, ext)

	for _, rule := range Rules {
		parsed, ok := rule.apply(stem)
		if !ok {
			continue
		}
		parsed.RawPath = rawPath
		parsed.Extension = ext
		parsed.Rule = rule.Name
		addReleaseTokens(parsed.Extra, stem)
		return parsed, nil
	}

	return nil, &ParseError{Path: rawPath, Reason: ErrNoPattern.Error()}
}

func (r ParseRule) apply(stem string) (*ParsedFilename, bool) {
	m := r.Pattern.FindStringSubmatch(stem)
	if m == nil {
		return nil, false
	}
	group := func(name string) string {
		if i := r.Pattern.SubexpIndex(name); i >= 0 && i < len(m) {
			return m[i]
		}
		return ""
	}

	extra := make(map[string]string)
	show := cleanShowName(group("show"), extra)
	if show == "" {
		return nil, false
	}
	if g := group("group"); g != "" {
		extra["group"] = strings.TrimSpace(g)
	}

	var season *int
	if s := group("season"); s != "" {
		n := atoi(s)
		season = &n
	}

	var episodes []int
	switch r.Episodes {
	case EpisodeSingle:
		episodes = []int{atoi(group("first"))}
	case EpisodeRange:
		first, last := atoi(group("first")), atoi(group("last"))
		if group("last") == "" {
			last = first
		}
		if last < first || last-first > maxRangeSpan {
			return nil, false
		}
		for e := first; e <= last; e++ {
			episodes = append(episodes, e)
		}
	case EpisodeList:
		for _, d := range digitsRegex.FindAllString(group("list"), -1) {
			episodes = append(episodes, atoi(d))
		}
	}
	episodes = sortUnique(episodes)
	if len(episodes) == 0 {
		return nil, false
	}

	if rest := strings.TrimSpace(group("rest")); rest != "" {
		extra["remainder"] = rest
		if crc := crcRegex.FindStringSubmatch(rest); crc != nil {
			extra["crc"] = strings.ToUpper(crc[1])
		}
	}

	return &ParsedFilename{
		ShowName: show,
		Season:   season,
		Episodes: episodes,
		Extra:    extra,
	}, true
}

// fileExtension returns the extension of base, or "" when the last dotted
// token is part of the release name, as in "show.s01e01" or "show.s01e01.720p".
func fileExtension(base string) string {
	ext := filepath.Ext(base)
	token := strings.TrimPrefix(ext, ".")
	if !extensionRegex.MatchString(token) || releaseTokenRegex.MatchString(token) {
		return ""
	}
	return ext
}

// cleanShowName turns dotted or underscored show tokens into a spaced name.
// Case and non-ASCII bytes are kept as they are.
func cleanShowName(s string, extra map[string]string) string {
	if m := leadGroupRegex.FindStringSubmatch(s); m != nil {
		if strings.TrimSpace(m[1]) != "" {
			extra["group"] = strings.TrimSpace(m[1])
		}
		s = s[len(m[0]):]
	}
	s = separatorRegex.ReplaceAllString(s, " ")
	s = spaceRegex.ReplaceAllString(s, " ")
	return strings.Trim(s, " -[(")
}

func addReleaseTokens(extra map[string]string, stem string) {
	r := rls.ParseString(stem)
	if r.Resolution != "" {
		extra["resolution"] = r.Resolution
	}
	if r.Source != "" {
		extra["source"] = r.Source
	}
	if len(r.Codec) > 0 {
		extra["codec"] = strings.Join(r.Codec, ",")
	}
	if r.Group != "" {
		extra["release_group"] = r.Group
	}
}

func sortUnique(in []int) []int {
	if len(in) == 0 {
		return in
	}
	sort.Ints(in)
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
