package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/metrics"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLSTATE коды, при которых транзакцию можно безопасно повторить
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// PostgresTransactor выполняет операции реакций и просмотров в транзакции PostgreSQL.
// Строка пользователя блокируется через SELECT ... FOR UPDATE, счетчики фильма
// меняются одним UPDATE ... RETURNING, поэтому параллельные запросы не теряют изменений.
type PostgresTransactor struct {
	db         *sqlx.DB
	logger     *slog.Logger
	maxRetries int
}

func NewPostgresTransactor(db *sqlx.DB, maxRetries int, logger *slog.Logger) (*PostgresTransactor, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &PostgresTransactor{db: db, logger: logger, maxRetries: maxRetries}, nil
}

func (t *PostgresTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		start := time.Now()
		err = t.runOnce(ctx, fn)
		metrics.RecordTx(time.Since(start), err)

		state, retryable := retryableState(err)
		if !retryable || attempt >= t.maxRetries || ctx.Err() != nil {
			return err
		}
		metrics.RecordTxRetry(state)
		t.logger.WarnContext(ctx, "Retrying catalog transaction",
			slog.Int("attempt", attempt+1), slog.String("sqlstate", state))
	}
}

func (t *PostgresTransactor) runOnce(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(ctx, &postgresTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			t.logger.ErrorContext(ctx, "Failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func retryableState(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	code := string(pqErr.Code)
	return code, code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (p *postgresTx) UserForUpdate(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := p.tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return &user, nil
}

func (p *postgresTx) ActiveMovie(ctx context.Context, movieID string) (*domain.Movie, error) {
	var movie domain.Movie
	err := p.tx.GetContext(ctx, &movie, `SELECT `+movieColumns+` FROM movies WHERE id = $1 AND is_active`, movieID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &movie, nil
}

func (p *postgresTx) SaveUserActivity(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET liked_movies = $1, disliked_movies = $2, recently_visited = $3, updated_at = $4
              WHERE id = $5`
	liked := user.LikedMovies
	if liked == nil {
		liked = pq.StringArray{}
	}
	disliked := user.DislikedMovies
	if disliked == nil {
		disliked = pq.StringArray{}
	}
	result, err := p.tx.ExecContext(ctx, query, liked, disliked, user.RecentlyVisited, time.Now().UTC(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to save user activity: %w", err)
	}
	return requireRow(result, ErrUserNotFound)
}

func (p *postgresTx) AdjustReactionCounters(ctx context.Context, movieID string, adj domain.CounterAdjustment) (int, int, error) {
	query := `UPDATE movies
              SET likes = GREATEST(likes - $1, 0) + $2,
                  dislikes = GREATEST(dislikes - $3, 0) + $4
              WHERE id = $5 AND is_active
              RETURNING likes, dislikes`
	var likes, dislikes int
	err := p.tx.QueryRowxContext(ctx, query,
		adj.LikesRemoved, adj.LikesAdded, adj.DislikesRemoved, adj.DislikesAdded, movieID).Scan(&likes, &dislikes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrMovieNotFound
		}
		return 0, 0, fmt.Errorf("failed to adjust reaction counters: %w", err)
	}
	return likes, dislikes, nil
}

func (p *postgresTx) IncrementViewCount(ctx context.Context, movieID string) (int, error) {
	var views int
	err := p.tx.QueryRowxContext(ctx,
		`UPDATE movies SET view_count = view_count + 1 WHERE id = $1 AND is_active RETURNING view_count`, movieID).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrMovieNotFound
		}
		return 0, fmt.Errorf("failed to increment view count: %w", err)
	}
	return views, nil
}
