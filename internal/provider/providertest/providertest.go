// Package providertest supplies an in-memory provider for tests.
package providertest

import (
	"context"
	"strings"
	"sync"

	"github.com/Nomadcxx/jellyrename/internal/provider"
)

// Static serves a fixed catalogue and counts the calls made against it.
type Static struct {
	mu       sync.Mutex
	shows    []provider.Show
	episodes map[[3]int][]provider.Episode

	// Err, when set, is returned from every call.
	Err error

	SearchCalls  int
	EpisodeCalls int
}

func New() *Static {
	return &Static{episodes: make(map[[3]int][]provider.Episode)}
}

func (s *Static) Name() string { return "static" }

// AddShow registers a show. Episode titles are given in episode order
// starting at 1 for the given season.
func (s *Static) AddShow(show provider.Show, season int, titles ...string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows = append(s.shows, show)
	for i, title := range titles {
		key := [3]int{show.ID, season, i + 1}
		s.episodes[key] = append(s.episodes[key], provider.Episode{
			ShowID: show.ID, Season: season, Number: i + 1, Title: title,
		})
	}
	return s
}

// AddEpisode registers one episode record; repeated calls for the same
// number model inconsistent provider data.
func (s *Static) AddEpisode(showID, season, number int, title string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [3]int{showID, season, number}
	s.episodes[key] = append(s.episodes[key], provider.Episode{
		ShowID: showID, Season: season, Number: number, Title: title,
	})
	return s
}

// SearchShows matches shows whose normalized name contains the query.
func (s *Static) SearchShows(ctx context.Context, name string) ([]provider.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	query := provider.NormalizeName(name)
	var out []provider.Show
	for _, show := range s.shows {
		if strings.Contains(provider.NormalizeName(show.Name), query) {
			out = append(out, show)
		}
	}
	return out, nil
}

func (s *Static) Episodes(ctx context.Context, showID, season, episode int) ([]provider.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EpisodeCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.episodes[[3]int{showID, season, episode}], nil
}
