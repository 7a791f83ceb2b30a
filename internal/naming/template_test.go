package naming

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRender(t *testing.T) {
	tmpl := DefaultNamingTemplate()

	tests := []struct {
		name string
		data NameData
		want string
	}{
		{
			name: "single episode with title",
			data: NameData{ShowName: "Scrubs", Season: intPtr(1), Episodes: []int{1}, Titles: []string{"My First Day"}, Extension: ".avi"},
			want: "Scrubs - [01x01] - My First Day.avi",
		},
		{
			name: "missing title collapses segment",
			data: NameData{ShowName: "a fake show", Season: intPtr(12), Episodes: []int{24}, Extension: ".avi"},
			want: "a fake show - [12x24].avi",
		},
		{
			name: "blank titles count as missing",
			data: NameData{ShowName: "Show", Season: intPtr(1), Episodes: []int{2}, Titles: []string{"", "  "}, Extension: ".mkv"},
			want: "Show - [01x02].mkv",
		},
		{
			name: "slash in title",
			data: NameData{ShowName: "Total Access 24/7", Season: intPtr(1), Episodes: []int{1}, Titles: []string{"Episode #1"}, Extension: ".avi"},
			want: "Total Access 24_7 - [01x01] - Episode #1.avi",
		},
		{
			name: "multi episode range",
			data: NameData{ShowName: "Scrubs", Season: intPtr(1), Episodes: []int{1, 2}, Titles: []string{"My First Day", "My Mentor"}, Extension: ".avi"},
			want: "Scrubs - [01x01-02] - My First Day, My Mentor.avi",
		},
		{
			name: "numbered parts collapse",
			data: NameData{ShowName: "Lost", Season: intPtr(1), Episodes: []int{1, 2}, Titles: []string{"Pilot (1)", "Pilot (2)"}, Extension: ".mkv"},
			want: "Lost - [01x01-02] - Pilot (1-2).mkv",
		},
		{
			name: "no season uses second template",
			data: NameData{ShowName: "Show Name", Episodes: []int{7}, Titles: []string{"Arrival"}, Extension: ".mkv"},
			want: "Show Name - [07] - Arrival.mkv",
		},
		{
			name: "non-ASCII title bytes kept",
			data: NameData{ShowName: "The Big Bang Theory", Season: intPtr(2), Episodes: []int{7}, Titles: []string{"The Panty Piñata Polarization"}, Extension: ".avi"},
			want: "The Big Bang Theory - [02x07] - The Panty Piñata Polarization.avi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmpl.Render(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateRender_Custom(t *testing.T) {
	tmpl := Template{WithSeason: "{show_name}.S{season}E{episode}.{episode_name}"}

	got, err := tmpl.Render(NameData{ShowName: "Show", Season: intPtr(3), Episodes: []int{4}, Titles: []string{"Title"}, Extension: ".mkv"})
	require.NoError(t, err)
	assert.Equal(t, "Show.S03E04.Title.mkv", got)

	got, err = tmpl.Render(NameData{ShowName: "Show", Season: intPtr(3), Episodes: []int{4}, Extension: ".mkv"})
	require.NoError(t, err)
	assert.Equal(t, "Show.S03E04.mkv", got)
}

func TestTemplateRender_WindowsSafe(t *testing.T) {
	tmpl := DefaultNamingTemplate()
	tmpl.WindowsSafe = true

	got, err := tmpl.Render(NameData{ShowName: "Show", Season: intPtr(1), Episodes: []int{1}, Titles: []string{"What? Now: Yes"}, Extension: ".mkv"})
	require.NoError(t, err)
	assert.Equal(t, "Show - [01x01] - What_ Now_ Yes.mkv", got)
}

func TestTemplateRender_NonContiguous(t *testing.T) {
	_, err := DefaultNamingTemplate().Render(NameData{ShowName: "Show", Season: intPtr(1), Episodes: []int{1, 3}, Extension: ".avi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonContiguousEpisodes))
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate(DefaultTemplate))
	assert.NoError(t, ValidateTemplate(DefaultTemplateWithoutSeason))

	err := ValidateTemplate("{show_name} - {seasonno}x{episode}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTemplate))

	err = ValidateTemplate("{show_name} - {episode_name}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTemplate))
}

func TestFormatEpisodes(t *testing.T) {
	got, err := FormatEpisodes([]int{5})
	require.NoError(t, err)
	assert.Equal(t, "05", got)

	got, err = FormatEpisodes([]int{9, 10, 11})
	require.NoError(t, err)
	assert.Equal(t, "09-11", got)

	got, err = FormatEpisodes([]int{101})
	require.NoError(t, err)
	assert.Equal(t, "101", got)

	_, err = FormatEpisodes(nil)
	assert.Error(t, err)
}

func TestJoinTitles(t *testing.T) {
	assert.Equal(t, "", JoinTitles(nil))
	assert.Equal(t, "One", JoinTitles([]string{"One"}))
	assert.Equal(t, "One, Two", JoinTitles([]string{"One", "Two"}))
	assert.Equal(t, "Part (1-3)", JoinTitles([]string{"Part (1)", "Part (2)", "Part (3)"}))
	assert.Equal(t, "Part (1), Part (3)", JoinTitles([]string{"Part (1)", "Part (3)"}))
	assert.Equal(t, "A (1), B (2)", JoinTitles([]string{"A (1)", "B (2)"}))
}
