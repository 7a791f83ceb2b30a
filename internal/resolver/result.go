package resolver

import (
	"fmt"

	"github.com/Nomadcxx/jellyrename/internal/provider"
)

// SearchResult is the closed set of lookup outcomes: NoMatch, SingleMatch,
// MultipleShowMatches and MultipleEpisodeMatches. Callers switch on the
// concrete type and must handle every case.
type SearchResult interface {
	isSearchResult()
}

// Reasons carried by NoMatch.
const (
	ReasonNoShow         = "no show found"
	ReasonNoEpisode      = "episode not found"
	ReasonEmptyShowQuery = "empty show name"
)

// NoMatch means the provider knows nothing usable for the file.
type NoMatch struct {
	Reason string
}

// SingleMatch is one unambiguous show with a title for every episode.
type SingleMatch struct {
	Match Match
}

// MultipleShowMatches lists distinct shows that fit the parsed name.
type MultipleShowMatches struct {
	Query string
	Shows []provider.Show
}

// MultipleEpisodeMatches lists alternative title sets inside one show.
type MultipleEpisodeMatches struct {
	Show    provider.Show
	Options []Match
}

func (NoMatch) isSearchResult()                {}
func (SingleMatch) isSearchResult()            {}
func (MultipleShowMatches) isSearchResult()    {}
func (MultipleEpisodeMatches) isSearchResult() {}

// EpisodeCandidate is one resolved episode.
type EpisodeCandidate struct {
	ShowName string
	Season   int
	Episode  int
	Title    string
}

// Match is a complete resolution: one candidate per parsed episode number.
type Match struct {
	Show     provider.Show
	Episodes []EpisodeCandidate
}

// Titles returns the episode titles in episode order.
func (m Match) Titles() []string {
	titles := make([]string, len(m.Episodes))
	for i, ep := range m.Episodes {
		titles[i] = ep.Title
	}
	return titles
}

// EpisodeNumbers returns the episode numbers in order.
func (m Match) EpisodeNumbers() []int {
	nums := make([]int, len(m.Episodes))
	for i, ep := range m.Episodes {
		nums[i] = ep.Episode
	}
	return nums
}

func (m Match) String() string {
	if len(m.Episodes) == 0 {
		return m.Show.Name
	}
	first := m.Episodes[0]
	return fmt.Sprintf("%s s%02de%02d %v", m.Show.Name, first.Season, first.Episode, m.Titles())
}
