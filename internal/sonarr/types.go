package sonarr

import "time"

// Series represents a TV series in Sonarr
type Series struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	TitleSlug  string    `json:"titleSlug"`
	SortTitle  string    `json:"sortTitle"`
	Path       string    `json:"path"`
	Year       int       `json:"year"`
	TvdbID     int       `json:"tvdbId"`
	Status     string    `json:"status"`
	SeriesType string    `json:"seriesType"`
	Monitored  bool      `json:"monitored"`
	Added      time.Time `json:"added"`
}

// Episode represents a single episode record
type Episode struct {
	ID                    int    `json:"id"`
	SeriesID              int    `json:"seriesId"`
	TvdbID                int    `json:"tvdbId"`
	SeasonNumber          int    `json:"seasonNumber"`
	EpisodeNumber         int    `json:"episodeNumber"`
	Title                 string `json:"title"`
	AirDate               string `json:"airDate"`
	HasFile               bool   `json:"hasFile"`
	AbsoluteEpisodeNumber *int   `json:"absoluteEpisodeNumber"`
}

// SystemStatus is the subset of /api/v3/system/status we read
type SystemStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}
