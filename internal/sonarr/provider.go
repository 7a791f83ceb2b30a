package sonarr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Nomadcxx/jellyrename/internal/provider"
)

const providerKey = "sonarr"

// Provider answers metadata lookups from the series already in a Sonarr
// library.
type Provider struct {
	client *Client
}

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return providerKey
}

func (p *Provider) SearchShows(ctx context.Context, name string) ([]provider.Show, error) {
	series, err := p.client.FindSeriesByTitle(ctx, name)
	if err != nil {
		return nil, provider.Wrap(providerKey, "search "+strconv.Quote(name), err)
	}

	shows := make([]provider.Show, 0, len(series))
	for _, s := range series {
		shows = append(shows, provider.Show{ID: s.ID, Name: s.Title, Year: s.Year})
	}
	return shows, nil
}

func (p *Provider) Episodes(ctx context.Context, showID, season, episode int) ([]provider.Episode, error) {
	found, err := p.client.FindEpisodes(ctx, showID, season, episode)
	if err != nil {
		return nil, provider.Wrap(providerKey, fmt.Sprintf("episode %d s%02de%02d", showID, season, episode), err)
	}

	episodes := make([]provider.Episode, 0, len(found))
	for _, ep := range found {
		episodes = append(episodes, provider.Episode{
			ShowID:  ep.SeriesID,
			Season:  ep.SeasonNumber,
			Number:  ep.EpisodeNumber,
			Title:   ep.Title,
			AirDate: ep.AirDate,
		})
	}
	return episodes, nil
}
