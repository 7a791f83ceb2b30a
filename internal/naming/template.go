package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultTemplate              = "{show_name} - [{season}x{episode}] - {episode_name}"
	DefaultTemplateWithoutSeason = "{show_name} - [{episode}] - {episode_name}"
)

var (
	// ErrNonContiguousEpisodes is returned for multi-episode files such as
	// s01e01e03 whose numbers cannot be written as a single range.
	ErrNonContiguousEpisodes = errors.New("non-contiguous episodes")

	ErrInvalidTemplate = errors.New("invalid naming template")
)

var (
	placeholderRegex  = regexp.MustCompile(`\{[^{}]*\}`)
	episodeNameRegex  = regexp.MustCompile(`[ \-_.:|]*\{episode_name\}`)
	numberedTitleRegx = regexp.MustCompile(`^(.*?)\s*\((\d+)\)$`)

	knownPlaceholders = map[string]bool{
		"{show_name}":    true,
		"{season}":       true,
		"{episode}":      true,
		"{episode_name}": true,
	}

	windowsUnsafe = []string{`\`, ":", "*", "?", `"`, "<", ">", "|"}
)

// Template renders destination filenames.
type Template struct {
	WithSeason    string
	WithoutSeason string
	WindowsSafe   bool
}

// DefaultNamingTemplate returns the stock "Show - [01x02] - Title" layout.
func DefaultNamingTemplate() Template {
	return Template{
		WithSeason:    DefaultTemplate,
		WithoutSeason: DefaultTemplateWithoutSeason,
	}
}

// NameData is everything a template can substitute.
type NameData struct {
	ShowName  string
	Season    *int
	Episodes  []int
	Titles    []string
	Extension string
}

// ValidateTemplate rejects unknown placeholders and templates without {episode}.
func ValidateTemplate(tmpl string) error {
	for _, ph := range placeholderRegex.FindAllString(tmpl, -1) {
		if !knownPlaceholders[ph] {
			return fmt.Errorf("%w: unknown placeholder %s", ErrInvalidTemplate, ph)
		}
	}
	if !strings.Contains(tmpl, "{episode}") {
		return fmt.Errorf("%w: %q has no {episode} placeholder", ErrInvalidTemplate, tmpl)
	}
	return nil
}

// Render builds the destination filename, extension included. A missing
// title removes {episode_name} along with the separator run before it.
func (t Template) Render(d NameData) (string, error) {
	tmpl := t.WithSeason
	if d.Season == nil {
		tmpl = t.WithoutSeason
	}
	if tmpl == "" {
		tmpl = DefaultTemplate
		if d.Season == nil {
			tmpl = DefaultTemplateWithoutSeason
		}
	}

	episode, err := FormatEpisodes(d.Episodes)
	if err != nil {
		return "", err
	}

	title := JoinTitles(d.Titles)
	if title == "" {
		tmpl = episodeNameRegex.ReplaceAllString(tmpl, "")
	}

	season := ""
	if d.Season != nil {
		season = fmt.Sprintf("%02d", *d.Season)
	}

	r := strings.NewReplacer(
		"{show_name}", t.sanitize(d.ShowName),
		"{season}", season,
		"{episode}", episode,
		"{episode_name}", t.sanitize(title),
	)
	name := strings.TrimSpace(r.Replace(tmpl))
	if name == "" {
		return "", fmt.Errorf("%w: rendered an empty name", ErrInvalidTemplate)
	}
	return name + d.Extension, nil
}

func (t Template) sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\x00", "_")
	if t.WindowsSafe {
		for _, c := range windowsUnsafe {
			s = strings.ReplaceAll(s, c, "_")
		}
	}
	return strings.TrimSpace(s)
}

// FormatEpisodes renders "01" or "01-03". Episodes must be ascending and
// contiguous.
func FormatEpisodes(episodes []int) (string, error) {
	if len(episodes) == 0 {
		return "", fmt.Errorf("%w: no episode numbers", ErrInvalidTemplate)
	}
	for i := 1; i < len(episodes); i++ {
		if episodes[i] != episodes[i-1]+1 {
			return "", fmt.Errorf("%w: %v", ErrNonContiguousEpisodes, episodes)
		}
	}
	first, last := episodes[0], episodes[len(episodes)-1]
	if first == last {
		return fmt.Sprintf("%02d", first), nil
	}
	return fmt.Sprintf("%02d-%02d", first, last), nil
}

// JoinTitles merges the titles of a multi-episode file. "Pilot (1)" and
// "Pilot (2)" become "Pilot (1-2)"; anything else is comma separated.
func JoinTitles(titles []string) string {
	var nonEmpty []string
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	}

	var base string
	var nums []int
	for i, t := range nonEmpty {
		m := numberedTitleRegx.FindStringSubmatch(t)
		if m == nil || (i > 0 && m[1] != base) {
			return strings.Join(nonEmpty, ", ")
		}
		base = m[1]
		n, _ := strconv.Atoi(m[2])
		if i > 0 && n != nums[i-1]+1 {
			return strings.Join(nonEmpty, ", ")
		}
		nums = append(nums, n)
	}
	return fmt.Sprintf("%s (%d-%d)", base, nums[0], nums[len(nums)-1])
}
