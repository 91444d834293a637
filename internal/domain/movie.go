// internal/domain/movie.go
package domain

import (
	"math"
	"time"

	"github.com/lib/pq"
)

// Movie представляет основную доменную модель фильма в каталоге
type Movie struct {
	ID           string         `json:"id" db:"id"`
	Title        string         `json:"title" db:"title"`
	Categories   pq.StringArray `json:"categories" db:"categories"`
	Artists      pq.StringArray `json:"artists" db:"artists"`
	Director     string         `json:"director" db:"director"`
	Language     string         `json:"language" db:"language"`
	ReleaseYear  int            `json:"releaseYear,omitempty" db:"release_year"`
	Duration     string         `json:"duration,omitempty" db:"duration"`
	Description  string         `json:"description,omitempty" db:"description"`
	PosterURL    string         `json:"posterUrl,omitempty" db:"poster_url"`
	TrailerURL   string         `json:"trailerUrl,omitempty" db:"trailer_url"`
	DownloadLink string         `json:"downloadLink,omitempty" db:"download_link"`
	ViewCount    int            `json:"viewCount" db:"view_count"`
	Likes        int            `json:"likes" db:"likes"`
	Dislikes     int            `json:"dislikes" db:"dislikes"`
	Rating       int            `json:"rating" db:"rating"`
	IsActive     bool           `json:"isActive" db:"is_active"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// MovieSummary - фильм без ссылки на скачивание, для списков и рекомендаций
type MovieSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Categories  []string  `json:"categories"`
	Artists     []string  `json:"artists"`
	Director    string    `json:"director"`
	Language    string    `json:"language"`
	ReleaseYear int       `json:"releaseYear,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Description string    `json:"description,omitempty"`
	PosterURL   string    `json:"posterUrl,omitempty"`
	TrailerURL  string    `json:"trailerUrl,omitempty"`
	ViewCount   int       `json:"viewCount"`
	Likes       int       `json:"likes"`
	Dislikes    int       `json:"dislikes"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary возвращает представление фильма без DownloadLink
func (m *Movie) Summary() MovieSummary {
	return MovieSummary{
		ID:          m.ID,
		Title:       m.Title,
		Categories:  []string(m.Categories),
		Artists:     []string(m.Artists),
		Director:    m.Director,
		Language:    m.Language,
		ReleaseYear: m.ReleaseYear,
		Duration:    m.Duration,
		Description: m.Description,
		PosterURL:   m.PosterURL,
		TrailerURL:  m.TrailerURL,
		ViewCount:   m.ViewCount,
		Likes:       m.Likes,
		Dislikes:    m.Dislikes,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
	}
}

// Summaries преобразует список фильмов в список MovieSummary
func Summaries(movies []*Movie) []MovieSummary {
	out := make([]MovieSummary, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Summary())
	}
	return out
}

// TrendingPolicy задает параметры формулы популярности с затуханием по давности
type TrendingPolicy struct {
	ViewWeight float64
	LikeWeight float64
	Window     time.Duration // за это время вес падает до MinRecency
	MinRecency float64
}

// DefaultTrendingPolicy: (0.4*views + 0.6*likes) * max(0.1, 1 - days/30)
var DefaultTrendingPolicy = TrendingPolicy{
	ViewWeight: 0.4,
	LikeWeight: 0.6,
	Window:     30 * 24 * time.Hour,
	MinRecency: 0.1,
}

// TrendingScore вычисляет рейтинг популярности фильма на момент now.
func (m *Movie) TrendingScore(now time.Time, p TrendingPolicy) float64 {
	popularity := p.ViewWeight*float64(m.ViewCount) + p.LikeWeight*float64(m.Likes)
	recency := 1.0
	if p.Window > 0 {
		age := now.Sub(m.CreatedAt)
		if age < 0 {
			age = 0
		}
		recency = 1 - float64(age)/float64(p.Window)
	}
	return popularity * math.Max(p.MinRecency, recency)
}

// FilterOptions - различные значения для фильтров каталога
type FilterOptions struct {
	Categories []string `json:"categories"`
	Artists    []string `json:"artists"`
	Languages  []string `json:"languages"`
}

// CreateMovieRequest определяет тело запроса для создания нового фильма
type CreateMovieRequest struct {
	Title        string   `json:"title" validate:"required,min=1,max=255"`
	Categories   []string `json:"categories" validate:"required,min=1,dive,required,max=50"`
	Artists      []string `json:"artists" validate:"required,min=1,dive,required,max=100"`
	Director     string   `json:"director" validate:"required,min=2,max=100"`
	Language     string   `json:"language" validate:"required,min=2,max=50"`
	DownloadLink string   `json:"downloadLink" validate:"required,url"`
	Description  string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	ReleaseYear  int      `json:"releaseYear,omitempty" validate:"omitempty,gte=1900,releaseyear"`
	Duration     string   `json:"duration,omitempty" validate:"omitempty,max=20"`
	PosterURL    string   `json:"posterUrl,omitempty" validate:"omitempty,url"`
	TrailerURL   string   `json:"trailerUrl,omitempty" validate:"omitempty,url"`
	Rating       int      `json:"rating" validate:"gte=0,lte=10"`
}

// UpdateMovieRequest - частичное обновление, nil поля не меняются
type UpdateMovieRequest struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Categories   []string `json:"categories,omitempty" validate:"omitempty,min=1,dive,required,max=50"`
	Artists      []string `json:"artists,omitempty" validate:"omitempty,min=1,dive,required,max=100"`
	Director     *string  `json:"director,omitempty" validate:"omitempty,min=2,max=100"`
	Language     *string  `json:"language,omitempty" validate:"omitempty,min=2,max=50"`
	DownloadLink *string  `json:"downloadLink,omitempty" validate:"omitempty,url"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	ReleaseYear  *int     `json:"releaseYear,omitempty" validate:"omitempty,gte=1900,releaseyear"`
	Duration     *string  `json:"duration,omitempty" validate:"omitempty,max=20"`
	PosterURL    *string  `json:"posterUrl,omitempty" validate:"omitempty,url"`
	TrailerURL   *string  `json:"trailerUrl,omitempty" validate:"omitempty,url"`
	Rating       *int     `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// Apply переносит заданные поля запроса в фильм
func (r *UpdateMovieRequest) Apply(m *Movie) {
	if r.Title != nil {
		m.Title = *r.Title
	}
	if len(r.Categories) > 0 {
		m.Categories = pq.StringArray(r.Categories)
	}
	if len(r.Artists) > 0 {
		m.Artists = pq.StringArray(r.Artists)
	}
	if r.Director != nil {
		m.Director = *r.Director
	}
	if r.Language != nil {
		m.Language = *r.Language
	}
	if r.DownloadLink != nil {
		m.DownloadLink = *r.DownloadLink
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.ReleaseYear != nil {
		m.ReleaseYear = *r.ReleaseYear
	}
	if r.Duration != nil {
		m.Duration = *r.Duration
	}
	if r.PosterURL != nil {
		m.PosterURL = *r.PosterURL
	}
	if r.TrailerURL != nil {
		m.TrailerURL = *r.TrailerURL
	}
	if r.Rating != nil {
		m.Rating = *r.Rating
	}
}
