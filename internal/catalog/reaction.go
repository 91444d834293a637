package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/metrics"
	"movie-catalog/internal/store"
)

// ApplyReaction переводит реакцию пользователя на фильм в состояние action и
// согласует счетчики фильма. Изменения пользователя и фильма фиксируются вместе.
// Повторный like на уже понравившийся фильм снимает и снова ставит лайк, не переключая его.
func (s *Service) ApplyReaction(ctx context.Context, userID, movieID, action string) (*domain.ReactionResult, error) {
	act, err := domain.ParseReactionAction(action)
	if err != nil {
		return nil, fmt.Errorf("apply reaction: %w: %q", ErrInvalidAction, action)
	}

	var result domain.ReactionResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.ActiveMovie(ctx, movieID); err != nil {
			return err
		}

		adj := user.ApplyReaction(movieID, act)
		if err := tx.SaveUserActivity(ctx, user); err != nil {
			return err
		}
		likes, dislikes, err := tx.AdjustReactionCounters(ctx, movieID, adj)
		if err != nil {
			return err
		}
		result = domain.ReactionResult{
			Likes:        likes,
			Dislikes:     dislikes,
			UserReaction: domain.ResultReaction(act),
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to apply reaction",
			slog.String("userID", userID), slog.String("movieID", movieID),
			slog.String("action", string(act)), slog.String("error", err.Error()))
		return nil, classify("apply reaction", err)
	}

	metrics.RecordReaction(string(act))
	s.logger.InfoContext(ctx, "Reaction applied",
		slog.String("userID", userID), slog.String("movieID", movieID), slog.String("action", string(act)),
		slog.Int("likes", result.Likes), slog.Int("dislikes", result.Dislikes))
	return &result, nil
}

// Reaction возвращает текущую реакцию пользователя на фильм (nil, если ее нет).
// Клиент использует ее, чтобы перевести переключатель в одно из канонических действий.
func (s *Service) Reaction(ctx context.Context, userID, movieID string) (*domain.ReactionAction, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("get reaction", err)
	}
	return user.ReactionTo(movieID), nil
}

// LikedMovies возвращает фильмы из множества likedMovies пользователя
func (s *Service) LikedMovies(ctx context.Context, userID string) ([]domain.MovieSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("liked movies", err)
	}
	return s.activeSummaries(ctx, "liked movies", user.LikedMovies)
}

// DislikedMovies возвращает фильмы из множества dislikedMovies пользователя
func (s *Service) DislikedMovies(ctx context.Context, userID string) ([]domain.MovieSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("disliked movies", err)
	}
	return s.activeSummaries(ctx, "disliked movies", user.DislikedMovies)
}

func (s *Service) activeSummaries(ctx context.Context, op string, ids []string) ([]domain.MovieSummary, error) {
	if len(ids) == 0 {
		return []domain.MovieSummary{}, nil
	}
	movies, err := s.movies.GetByIDs(ctx, ids)
	if err != nil {
		return nil, classify(op, err)
	}
	out := make([]domain.MovieSummary, 0, len(movies))
	for _, m := range movies {
		if m.IsActive {
			out = append(out, m.Summary())
		}
	}
	return out, nil
}
