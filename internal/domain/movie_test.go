package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendingScoreDecaysWithAge(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m := &Movie{ViewCount: 100, Likes: 50, CreatedAt: now}

	assert.InDelta(t, 70.0, m.TrendingScore(now, DefaultTrendingPolicy), 1e-9)

	m.CreatedAt = now.Add(-15 * 24 * time.Hour)
	assert.InDelta(t, 35.0, m.TrendingScore(now, DefaultTrendingPolicy), 1e-9)

	// старше окна - действует нижняя граница 0.1
	m.CreatedAt = now.Add(-90 * 24 * time.Hour)
	assert.InDelta(t, 7.0, m.TrendingScore(now, DefaultTrendingPolicy), 1e-9)
}

func TestTrendingScoreFutureCreatedAtIsNotBoosted(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m := &Movie{ViewCount: 10, CreatedAt: now.Add(time.Hour)}
	assert.InDelta(t, 4.0, m.TrendingScore(now, DefaultTrendingPolicy), 1e-9)
}

func TestSummaryOmitsDownloadLink(t *testing.T) {
	m := &Movie{ID: "x", Title: "T", DownloadLink: "https://example.com/file", Likes: 3}
	s := m.Summary()
	assert.Equal(t, "x", s.ID)
	assert.Equal(t, 3, s.Likes)
}

func TestUpdateMovieRequestApply(t *testing.T) {
	title := "New"
	rating := 7
	m := &Movie{Title: "Old", Categories: []string{"Drama"}, Rating: 2}
	req := UpdateMovieRequest{Title: &title, Rating: &rating, Artists: []string{"A"}}
	req.Apply(m)

	assert.Equal(t, "New", m.Title)
	assert.Equal(t, 7, m.Rating)
	assert.Equal(t, []string{"Drama"}, []string(m.Categories))
	assert.Equal(t, []string{"A"}, []string(m.Artists))
}

func TestValidatorReleaseYear(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	req := CreateMovieRequest{
		Title:        "Movie",
		Categories:   []string{"Drama"},
		Artists:      []string{"Someone"},
		Director:     "Director",
		Language:     "English",
		DownloadLink: "https://example.com/movie",
		ReleaseYear:  time.Now().Year(),
		Rating:       5,
	}
	assert.NoError(t, v.Struct(req))

	req.ReleaseYear = time.Now().Year() + MaxReleaseYearAhead + 1
	assert.Error(t, v.Struct(req))

	req.ReleaseYear = 0
	req.Rating = 11
	assert.Error(t, v.Struct(req))
}
