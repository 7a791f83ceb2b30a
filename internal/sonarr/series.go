package sonarr

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/provider"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

func (c *Client) GetAllSeries(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := c.get(ctx, "/api/v3/series", nil, &series); err != nil {
		return nil, fmt.Errorf("getting series: %w", err)
	}
	return series, nil
}

// FindSeriesByTitle returns library series whose normalized title or slug
// contains the normalized query, closest titles first.
func (c *Client) FindSeriesByTitle(ctx context.Context, title string) ([]Series, error) {
	allSeries, err := c.GetAllSeries(ctx)
	if err != nil {
		return nil, err
	}

	query := provider.NormalizeName(title)
	if query == "" {
		return nil, nil
	}
	slugQuery := strings.ReplaceAll(query, " ", "-")

	var matches []Series
	var titles []string
	for _, s := range allSeries {
		normalized := provider.NormalizeName(s.Title)
		if strings.Contains(normalized, query) ||
			strings.Contains(strings.ToLower(s.TitleSlug), slugQuery) {
			matches = append(matches, s)
			titles = append(titles, normalized)
		}
	}

	if len(matches) < 2 {
		return matches, nil
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)
	ordered := make([]Series, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, r := range ranks {
		ordered = append(ordered, matches[r.OriginalIndex])
		seen[r.OriginalIndex] = true
	}
	for i, s := range matches {
		if !seen[i] {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

func (c *Client) GetEpisodes(ctx context.Context, seriesID int) ([]Episode, error) {
	q := url.Values{}
	q.Set("seriesId", strconv.Itoa(seriesID))
	var episodes []Episode
	if err := c.get(ctx, "/api/v3/episode", q, &episodes); err != nil {
		return nil, fmt.Errorf("getting episodes for series %d: %w", seriesID, err)
	}
	return episodes, nil
}

// FindEpisodes returns every record numbered season/episode. Sonarr can hold
// duplicates after a TVDB renumbering, so this may return more than one.
func (c *Client) FindEpisodes(ctx context.Context, seriesID, seasonNumber, episodeNumber int) ([]Episode, error) {
	episodes, err := c.GetEpisodes(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	var found []Episode
	for _, ep := range episodes {
		if ep.SeasonNumber == seasonNumber && ep.EpisodeNumber == episodeNumber {
			found = append(found, ep)
		}
	}
	return found, nil
}
