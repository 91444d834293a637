package catalog

import (
	"context"
	"log/slog"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/metrics"
	"movie-catalog/internal/store"
)

// RecordVisit ставит фильм первым в истории просмотров пользователя и
// увеличивает viewCount фильма ровно на один. Возвращает новый viewCount.
func (s *Service) RecordVisit(ctx context.Context, userID, movieID string) (int, error) {
	var views int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.ActiveMovie(ctx, movieID); err != nil {
			return err
		}
		user.RecentlyVisited = user.RecentlyVisited.Record(movieID, s.now(), s.cfg.RecentlyVisitedCapacity)
		if err := tx.SaveUserActivity(ctx, user); err != nil {
			return err
		}
		views, err = tx.IncrementViewCount(ctx, movieID)
		return err
	})
	if err != nil {
		return 0, classify("record visit", err)
	}

	metrics.RecordVisit()
	metrics.RecordView()
	s.logger.DebugContext(ctx, "Visit recorded",
		slog.String("userID", userID), slog.String("movieID", movieID), slog.Int("viewCount", views))
	return views, nil
}

// RecordView учитывает анонимный просмотр: только viewCount, без истории
func (s *Service) RecordView(ctx context.Context, movieID string) (int, error) {
	var views int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		views, err = tx.IncrementViewCount(ctx, movieID)
		return err
	})
	if err != nil {
		return 0, classify("record view", err)
	}
	metrics.RecordView()
	return views, nil
}

// RecentlyVisited возвращает историю просмотров с данными фильмов.
// Удаленные и деактивированные фильмы пропускаются.
func (s *Service) RecentlyVisited(ctx context.Context, userID string) ([]domain.VisitedMovie, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("recently visited", err)
	}
	if len(user.RecentlyVisited) == 0 {
		return []domain.VisitedMovie{}, nil
	}

	movies, err := s.movies.GetByIDs(ctx, user.RecentlyVisited.MovieIDs())
	if err != nil {
		return nil, classify("recently visited", err)
	}
	byID := make(map[string]*domain.Movie, len(movies))
	for _, m := range movies {
		if m.IsActive {
			byID[m.ID] = m
		}
	}

	out := make([]domain.VisitedMovie, 0, len(user.RecentlyVisited))
	for _, v := range user.RecentlyVisited {
		if m, ok := byID[v.MovieID]; ok {
			out = append(out, domain.VisitedMovie{Movie: m.Summary(), VisitedAt: v.VisitedAt})
		}
	}
	return out, nil
}
