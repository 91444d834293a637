package catalog

import (
	"cmp"
	"context"
	"slices"

	"movie-catalog/internal/domain"
)

// Trending возвращает активные фильмы по убыванию TrendingScore.
// При равном счете сохраняется порядок создания.
func (s *Service) Trending(ctx context.Context, limit int) ([]domain.MovieSummary, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, classify("trending", err)
	}

	movies, err := s.movies.ListActive(ctx)
	if err != nil {
		return nil, classify("trending", err)
	}

	now := s.now()
	type scored struct {
		movie *domain.Movie
		score float64
	}
	ranked := make([]scored, len(movies))
	for i, m := range movies {
		ranked[i] = scored{movie: m, score: m.TrendingScore(now, s.cfg.Trending)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]domain.MovieSummary, len(ranked))
	for i, r := range ranked {
		out[i] = r.movie.Summary()
	}
	return out, nil
}
