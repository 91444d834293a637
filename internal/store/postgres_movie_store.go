// internal/store/postgres_movie_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"movie-catalog/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Для обработки ошибок PostgreSQL и работы с массивами TEXT[]
)

const movieColumns = `id, title, categories, artists, director, language, release_year, duration, description,
poster_url, trailer_url, download_link, view_count, likes, dislikes, rating, is_active, created_at, updated_at`

// sortColumns - белый список сортировок, чтобы не подставлять ввод пользователя в SQL
var sortColumns = map[string]string{
	SortByCreatedAt:   "created_at",
	SortByTitle:       "LOWER(title)",
	SortByReleaseYear: "release_year",
	SortByViewCount:   "view_count",
	SortByLikes:       "likes",
	SortByRating:      "rating",
}

// PostgresMovieStore реализует MovieStore для PostgreSQL.
type PostgresMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresMovieStore создает новый экземпляр PostgresMovieStore.
func NewPostgresMovieStore(db *sqlx.DB, logger *slog.Logger) (*PostgresMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresMovieStore{db: db, logger: logger}, nil
}

// Create создает новый фильм в базе данных.
func (s *PostgresMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	query := `INSERT INTO movies (` + movieColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	movie.CreatedAt = time.Now().UTC()
	movie.UpdatedAt = movie.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	_, err := s.db.ExecContext(ctx, query,
		movie.ID, movie.Title, pq.Array(movie.Categories), pq.Array(movie.Artists), movie.Director, movie.Language,
		movie.ReleaseYear, movie.Duration, movie.Description, movie.PosterURL, movie.TrailerURL, movie.DownloadLink,
		movie.ViewCount, movie.Likes, movie.Dislikes, movie.Rating, movie.IsActive, movie.CreatedAt, movie.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			s.logger.WarnContext(ctx, "Movie already exists (unique constraint violation in DB)", slog.String("constraint", pqErr.Constraint))
			return ErrMovieAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create movie: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.String("movieID", movie.ID))
	return nil
}

// GetByID находит активный фильм по его ID.
func (s *PostgresMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1 AND is_active`
	var movie domain.Movie

	s.logger.DebugContext(ctx, "Executing GetMovieByID query", slog.String("movieID", id))
	if err := s.db.GetContext(ctx, &movie, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}
	return &movie, nil
}

func (s *PostgresMovieStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Movie, error) {
	if len(ids) == 0 {
		return []*domain.Movie{}, nil
	}
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ANY($1)`
	var movies []*domain.Movie
	if err := s.db.SelectContext(ctx, &movies, query, pq.Array(ids)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get movies by IDs from DB", slog.Int("count", len(ids)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movies by IDs: %w", err)
	}
	return orderByIDs(movies, ids), nil
}

// Update обновляет описательные поля фильма. Счетчики меняются только через Tx.
func (s *PostgresMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	query := `UPDATE movies SET title = $1, categories = $2, artists = $3, director = $4, language = $5,
              release_year = $6, duration = $7, description = $8, poster_url = $9, trailer_url = $10,
              download_link = $11, rating = $12, updated_at = $13
              WHERE id = $14 AND is_active`
	movie.UpdatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing Update movie query", slog.String("movieID", movie.ID))
	result, err := s.db.ExecContext(ctx, query,
		movie.Title, pq.Array(movie.Categories), pq.Array(movie.Artists), movie.Director, movie.Language,
		movie.ReleaseYear, movie.Duration, movie.Description, movie.PosterURL, movie.TrailerURL,
		movie.DownloadLink, movie.Rating, movie.UpdatedAt, movie.ID,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update movie in DB", slog.String("movieID", movie.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update movie: %w", err)
	}
	return requireRow(result, ErrMovieNotFound)
}

// Deactivate выполняет мягкое удаление фильма.
func (s *PostgresMovieStore) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE movies SET is_active = FALSE, updated_at = $1 WHERE id = $2 AND is_active`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to deactivate movie in DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to deactivate movie: %w", err)
	}
	if err := requireRow(result, ErrMovieNotFound); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Movie deactivated in DB", slog.String("movieID", id))
	return nil
}

// List возвращает страницу активных фильмов на основе предоставленных параметров.
func (s *PostgresMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	conditions := []string{"is_active"}
	var args []interface{}
	argID := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(title ILIKE $%[1]d ESCAPE '\'
            OR EXISTS (SELECT 1 FROM unnest(categories) c WHERE c ILIKE $%[1]d ESCAPE '\')
            OR EXISTS (SELECT 1 FROM unnest(artists) a WHERE a ILIKE $%[1]d ESCAPE '\'))`, argID))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argID++
	}
	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(categories) c WHERE LOWER(c) = LOWER($%d))", argID))
		args = append(args, params.Category)
		argID++
	}
	if params.Artist != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(artists) a WHERE LOWER(a) = LOWER($%d))", argID))
		args = append(args, params.Artist)
		argID++
	}
	if params.Language != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(language) = LOWER($%d)", argID))
		args = append(args, params.Language)
		argID++
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM movies`+where, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count movies in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	if total == 0 {
		return []*domain.Movie{}, 0, nil
	}

	column, ok := sortColumns[params.SortBy]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}
	direction := "ASC"
	if params.SortDesc {
		direction = "DESC"
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 12
	}

	query := `SELECT ` + movieColumns + ` FROM movies` + where +
		fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d", column, direction, argID, argID+1)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	s.logger.DebugContext(ctx, "Executing List movies select query", slog.String("query", query), slog.Any("args", args))
	var movies []*domain.Movie
	if err := s.db.SelectContext(ctx, &movies, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, total, nil
}

func (s *PostgresMovieStore) ListActive(ctx context.Context) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE is_active ORDER BY created_at ASC, id ASC`
	var movies []*domain.Movie
	if err := s.db.SelectContext(ctx, &movies, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list active movies from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list active movies: %w", err)
	}
	return movies, nil
}

func (s *PostgresMovieStore) FindRelated(ctx context.Context, params RelatedParams) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies
              WHERE is_active
                AND NOT (id = ANY($1))
                AND (categories && $2 OR artists && $3)
              ORDER BY view_count DESC, likes DESC, created_at ASC, id ASC
              LIMIT $4`
	var movies []*domain.Movie
	err := s.db.SelectContext(ctx, &movies, query,
		pq.Array(params.ExcludeIDs), pq.Array(params.Categories), pq.Array(params.Artists), params.Limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to find related movies in DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to find related movies: %w", err)
	}
	return movies, nil
}

// FilterOptions возвращает различные категории, артистов и языки активных фильмов.
func (s *PostgresMovieStore) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	opts := &domain.FilterOptions{Categories: []string{}, Artists: []string{}, Languages: []string{}}
	queries := []struct {
		dest  *[]string
		query string
	}{
		{&opts.Categories, `SELECT DISTINCT unnest(categories) AS v FROM movies WHERE is_active ORDER BY v`},
		{&opts.Artists, `SELECT DISTINCT unnest(artists) AS v FROM movies WHERE is_active ORDER BY v`},
		{&opts.Languages, `SELECT DISTINCT language AS v FROM movies WHERE is_active AND language <> '' ORDER BY v`},
	}
	for _, q := range queries {
		if err := s.db.SelectContext(ctx, q.dest, q.query); err != nil {
			s.logger.ErrorContext(ctx, "Failed to load filter options from DB", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to load filter options: %w", err)
		}
	}
	return opts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы LIKE, чтобы поиск был буквальным
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
