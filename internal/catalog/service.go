// Package catalog содержит бизнес-операции каталога: реакции, рекомендации,
// тренды и историю просмотров пользователя.
package catalog

import (
	"fmt"
	"log/slog"
	"time"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/store"
)

// Config - параметры алгоритмов каталога
type Config struct {
	RecentlyVisitedCapacity int
	MaxLimit                int // верхняя граница limit для рекомендаций и трендов
	Trending                domain.TrendingPolicy
}

// DefaultConfig возвращает значения по умолчанию
func DefaultConfig() Config {
	return Config{
		RecentlyVisitedCapacity: domain.DefaultRecentlyVisitedCapacity,
		MaxLimit:                100,
		Trending:                domain.DefaultTrendingPolicy,
	}
}

// Service реализует операции каталога поверх хранилищ.
type Service struct {
	movies store.MovieStore
	users  store.UserStore
	tx     store.Transactor
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewService(movies store.MovieStore, users store.UserStore, tx store.Transactor, cfg Config, logger *slog.Logger) *Service {
	if cfg.RecentlyVisitedCapacity <= 0 {
		cfg.RecentlyVisitedCapacity = domain.DefaultRecentlyVisitedCapacity
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.Trending.Window <= 0 {
		cfg.Trending = domain.DefaultTrendingPolicy
	}
	return &Service{
		movies: movies,
		users:  users,
		tx:     tx,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// normalizeLimit проверяет limit и ограничивает его сверху
func (s *Service) normalizeLimit(limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("%w: limit must be positive, got %d", ErrValidation, limit)
	}
	return min(limit, s.cfg.MaxLimit), nil
}
