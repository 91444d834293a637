package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"movie-catalog/internal/domain"

	"github.com/jmoiron/sqlx"
)

const commentColumns = `id, movie_id, user_id, username, content, is_edited, edited_at, created_at, updated_at`

// PostgresCommentStore реализует CommentStore для PostgreSQL.
type PostgresCommentStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPostgresCommentStore(db *sqlx.DB, logger *slog.Logger) (*PostgresCommentStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresCommentStore{db: db, logger: logger}, nil
}

func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	query := `INSERT INTO comments (` + commentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	comment.CreatedAt = time.Now().UTC()
	comment.UpdatedAt = comment.CreatedAt

	_, err := s.db.ExecContext(ctx, query, comment.ID, comment.MovieID, comment.UserID, comment.Username,
		comment.Content, comment.IsEdited, comment.EditedAt, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create comment in DB", slog.String("movieID", comment.MovieID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	s.logger.InfoContext(ctx, "Comment created successfully in DB", slog.String("commentID", comment.ID), slog.String("movieID", comment.MovieID))
	return nil
}

func (s *PostgresCommentStore) GetByID(ctx context.Context, commentID string) (*domain.Comment, error) {
	var comment domain.Comment
	err := s.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get comment by ID from DB", slog.String("commentID", commentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return &comment, nil
}

// ListByMovie возвращает комментарии фильма, новые первыми.
func (s *PostgresCommentStore) ListByMovie(ctx context.Context, movieID string, params CommentListParams) ([]*domain.Comment, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE movie_id = $1`, movieID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count comments in DB", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if total == 0 {
		return []*domain.Comment{}, 0, nil
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 50
	}

	query := `SELECT ` + commentColumns + ` FROM comments WHERE movie_id = $1
              ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	var comments []*domain.Comment
	if err := s.db.SelectContext(ctx, &comments, query, movieID, params.PageSize, (params.Page-1)*params.PageSize); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list comments from DB", slog.String("movieID", movieID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

func (s *PostgresCommentStore) Update(ctx context.Context, comment *domain.Comment) error {
	query := `UPDATE comments SET content = $1, is_edited = $2, edited_at = $3, updated_at = $4 WHERE id = $5`
	result, err := s.db.ExecContext(ctx, query, comment.Content, comment.IsEdited, comment.EditedAt, comment.UpdatedAt, comment.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update comment in DB", slog.String("commentID", comment.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return requireRow(result, ErrCommentNotFound)
}
