package naming

import "regexp"

// EpisodeForm says how a rule's episode captures turn into numbers.
type EpisodeForm int

const (
	EpisodeSingle EpisodeForm = iota // "first" group holds one number
	EpisodeRange                     // "first" to "last" inclusive; a missing "last" means one episode
	EpisodeList                      // every number inside the "list" group
)

// maxRangeSpan stops "S01E01-720p" style names from reading as a range.
const maxRangeSpan = 50

// ParseRule is one entry of the ordered rule table. Patterns use the named
// groups show, season, first, last, list, group and rest.
type ParseRule struct {
	Name     string
	Pattern  *regexp.Regexp
	Episodes EpisodeForm
}

// Rules is the parse precedence list. More specific shapes come first so
// that "s01e01-e02" is never read as a single episode with a suffix.
var Rules = []ParseRule{
	{
		Name:     "SxxEyy-range",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]+\[?s(?P<season>\d{1,3})[ ._]?e(?P<first>\d{1,3})(?:-e?|[ ._]-[ ._]?e|-[ ._]e)(?P<last>\d{1,3})\]?(?P<rest>\D.*)?$`),
		Episodes: EpisodeRange,
	},
	{
		Name:     "SxxEyy-list",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]+\[?s(?P<season>\d{1,3})[ ._]?(?P<list>e\d{1,3}(?:[ ._\-]?e\d{1,3})+)\]?(?P<rest>\D.*)?$`),
		Episodes: EpisodeList,
	},
	{
		Name:     "NxYY-range",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]*\[?(?P<season>\d{1,3})x(?P<first>\d{1,3})-(?P<last>\d{1,3})\]?(?P<rest>\D.*)?$`),
		Episodes: EpisodeRange,
	},
	{
		Name:     "NxYY-list",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]*\[?(?P<season>\d{1,3})(?P<list>(?:x\d{1,3}){2,})\]?(?P<rest>\D.*)?$`),
		Episodes: EpisodeList,
	},
	{
		Name:     "SxxEyy",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]+\[?s(?P<season>\d{1,3})[ ._]?e(?P<first>\d{1,3})\]?(?P<rest>\D.*)?$`),
		Episodes: EpisodeSingle,
	},
	{
		Name:     "NxYY",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]*\[?(?P<season>\d{1,3})x(?P<first>\d{1,3})\]?(?P<rest>\D.*)?$`),
		Episodes: EpisodeSingle,
	},
	{
		Name:     "Season-Episode-words",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]+season[ ._\-]*(?P<season>\d{1,3})[ ._\-]*episode[ ._\-]*(?P<first>\d{1,3})(?P<rest>\D.*)?$`),
		Episodes: EpisodeSingle,
	},
	{
		// seasonless output names: "Show - [05] - Title", "Show - [05-06] - Title"
		Name:     "Bracketed-episode",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._]+-[ ._]+\[(?P<first>\d{1,4})(?:-(?P<last>\d{1,4}))?\](?P<rest>\D.*)?$`),
		Episodes: EpisodeRange,
	},
	{
		Name:     "Anime-dash",
		Pattern:  regexp.MustCompile(`(?i)^\[(?P<group>[^\]]+)\][ ._]*(?P<show>.+?)[ ._]+-[ ._]+(?P<first>\d{1,4})(?:v\d)?(?P<rest>[ ._\[(].*)?$`),
		Episodes: EpisodeSingle,
	},
	{
		Name:     "Compact-NYY",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]+(?P<season>[1-9])(?P<first>\d{2})(?P<rest>[ ._\-].*)?$`),
		Episodes: EpisodeSingle,
	},
	{
		Name:     "Episode-keyword",
		Pattern:  regexp.MustCompile(`(?i)^(?P<show>.+?)[ ._\-]+(?:episode|ep)[ ._\-]*(?P<first>\d{1,4})(?P<rest>\D.*)?$`),
		Episodes: EpisodeSingle,
	},
}
