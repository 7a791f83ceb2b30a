// Package resolver turns parsed filenames into canonical show and episode
// data using a metadata provider.
package resolver

import (
	"context"

	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/provider"
)

// maxEpisodeOptions caps the title combinations offered for one file.
const maxEpisodeOptions = 20

type episodeKey struct {
	showID  int
	season  int
	episode int
}

// Resolver queries a provider through a run-scoped, append-only cache.
// It is not safe for concurrent use; files are processed one at a time.
type Resolver struct {
	provider      provider.Provider
	defaultSeason int
	shows         map[string][]provider.Show
	episodes      map[episodeKey][]provider.Episode
}

type Option func(*Resolver)

// WithDefaultSeason sets the season used for files without one.
func WithDefaultSeason(season int) Option {
	return func(r *Resolver) {
		r.defaultSeason = season
	}
}

func New(p provider.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		provider:      p,
		defaultSeason: 1,
		shows:         make(map[string][]provider.Show),
		episodes:      make(map[episodeKey][]provider.Episode),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProviderName reports which provider backs the resolver.
func (r *Resolver) ProviderName() string {
	return r.provider.Name()
}

// Resolve looks up the parsed show and its episodes. A non-nil error is
// always a provider failure and is never reported as NoMatch.
func (r *Resolver) Resolve(ctx context.Context, parsed *naming.ParsedFilename) (SearchResult, error) {
	query := provider.NormalizeName(parsed.ShowName)
	if query == "" {
		return NoMatch{Reason: ReasonEmptyShowQuery}, nil
	}

	shows, err := r.searchShows(ctx, query)
	if err != nil {
		return nil, err
	}

	switch len(shows) {
	case 0:
		return NoMatch{Reason: ReasonNoShow}, nil
	case 1:
		return r.ResolveShow(ctx, parsed, shows[0])
	}

	var exact []provider.Show
	for _, s := range shows {
		if provider.NormalizeName(s.Name) == query {
			exact = append(exact, s)
		}
	}
	if len(exact) == 1 {
		return r.ResolveShow(ctx, parsed, exact[0])
	}

	return MultipleShowMatches{Query: parsed.ShowName, Shows: exactFirst(shows, query)}, nil
}

// ResolveShow resolves the parsed episodes inside an already chosen show.
func (r *Resolver) ResolveShow(ctx context.Context, parsed *naming.ParsedFilename, show provider.Show) (SearchResult, error) {
	season := parsed.SeasonOr(r.defaultSeason)

	perEpisode := make([][]EpisodeCandidate, 0, len(parsed.Episodes))
	for _, number := range parsed.Episodes {
		records, err := r.lookupEpisodes(ctx, show.ID, season, number)
		if err != nil {
			return nil, err
		}
		candidates := distinctCandidates(show, season, number, records)
		if len(candidates) == 0 {
			return NoMatch{Reason: ReasonNoEpisode}, nil
		}
		perEpisode = append(perEpisode, candidates)
	}

	options := combine(show, perEpisode)
	if len(options) == 1 {
		return SingleMatch{Match: options[0]}, nil
	}
	return MultipleEpisodeMatches{Show: show, Options: options}, nil
}

func (r *Resolver) searchShows(ctx context.Context, query string) ([]provider.Show, error) {
	if cached, ok := r.shows[query]; ok {
		return cached, nil
	}
	shows, err := r.provider.SearchShows(ctx, query)
	if err != nil {
		return nil, provider.Wrap(r.provider.Name(), "search", err)
	}
	shows = distinctShows(shows)
	r.shows[query] = shows
	return shows, nil
}

func (r *Resolver) lookupEpisodes(ctx context.Context, showID, season, episode int) ([]provider.Episode, error) {
	key := episodeKey{showID: showID, season: season, episode: episode}
	if cached, ok := r.episodes[key]; ok {
		return cached, nil
	}
	records, err := r.provider.Episodes(ctx, showID, season, episode)
	if err != nil {
		return nil, provider.Wrap(r.provider.Name(), "episodes", err)
	}
	r.episodes[key] = records
	return records, nil
}

func distinctShows(shows []provider.Show) []provider.Show {
	seen := make(map[int]bool, len(shows))
	out := make([]provider.Show, 0, len(shows))
	for _, s := range shows {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// exactFirst moves exact name matches to the front, keeping provider order.
func exactFirst(shows []provider.Show, query string) []provider.Show {
	out := make([]provider.Show, 0, len(shows))
	var rest []provider.Show
	for _, s := range shows {
		if provider.NormalizeName(s.Name) == query {
			out = append(out, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(out, rest...)
}

func distinctCandidates(show provider.Show, season, number int, records []provider.Episode) []EpisodeCandidate {
	seen := make(map[string]bool, len(records))
	var out []EpisodeCandidate
	for _, rec := range records {
		if seen[rec.Title] {
			continue
		}
		seen[rec.Title] = true
		out = append(out, EpisodeCandidate{
			ShowName: show.Name,
			Season:   season,
			Episode:  number,
			Title:    rec.Title,
		})
	}
	return out
}

// combine builds every title combination across the episodes of a file.
func combine(show provider.Show, perEpisode [][]EpisodeCandidate) []Match {
	options := []Match{{Show: show}}
	for _, candidates := range perEpisode {
		var next []Match
		for _, opt := range options {
			for _, c := range candidates {
				if len(next) >= maxEpisodeOptions {
					break
				}
				eps := make([]EpisodeCandidate, len(opt.Episodes), len(opt.Episodes)+1)
				copy(eps, opt.Episodes)
				next = append(next, Match{Show: show, Episodes: append(eps, c)})
			}
		}
		options = next
	}
	return options
}
