package catalog

import (
	"context"
	"log/slog"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/metrics"
	"movie-catalog/internal/store"
)

// Recommend подбирает активные фильмы, совпадающие по категориям или артистам
// с фильмами, которые понравились пользователю. Понравившиеся фильмы не возвращаются.
// Порядок: viewCount по убыванию, затем likes. Результат не кешируется.
func (s *Service) Recommend(ctx context.Context, userID string, limit int) ([]domain.MovieSummary, error) {
	limit, err := s.normalizeLimit(limit)
	if err != nil {
		return nil, classify("recommend", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("recommend", err)
	}
	if len(user.LikedMovies) == 0 {
		metrics.RecordRecommendations(0)
		return []domain.MovieSummary{}, nil
	}

	liked, err := s.movies.GetByIDs(ctx, user.LikedMovies)
	if err != nil {
		return nil, classify("recommend", err)
	}
	var categories, artists []string
	seenCategory := make(map[string]bool)
	seenArtist := make(map[string]bool)
	for _, m := range liked {
		for _, c := range m.Categories {
			if !seenCategory[c] {
				seenCategory[c] = true
				categories = append(categories, c)
			}
		}
		for _, a := range m.Artists {
			if !seenArtist[a] {
				seenArtist[a] = true
				artists = append(artists, a)
			}
		}
	}
	if len(categories) == 0 && len(artists) == 0 {
		metrics.RecordRecommendations(0)
		return []domain.MovieSummary{}, nil
	}

	related, err := s.movies.FindRelated(ctx, store.RelatedParams{
		ExcludeIDs: user.LikedMovies,
		Categories: categories,
		Artists:    artists,
		Limit:      limit,
	})
	if err != nil {
		return nil, classify("recommend", err)
	}

	metrics.RecordRecommendations(len(related))
	s.logger.DebugContext(ctx, "Recommendations computed",
		slog.String("userID", userID), slog.Int("liked", len(user.LikedMovies)), slog.Int("returned", len(related)))
	return domain.Summaries(related), nil
}
