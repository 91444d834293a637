package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxCommentPageSize = 50

type commentListResponse struct {
	Comments []*domain.Comment `json:"comments"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// ListComments возвращает комментарии к фильму, новые первыми
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		h.respondError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit < 1 {
		h.respondError(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	params := store.CommentListParams{Page: page, PageSize: min(limit, maxCommentPageSize)}

	comments, total, err := h.comments.ListByMovie(ctx, movieID, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list comments", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve comments")
		return
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	h.respondJSON(w, r, http.StatusOK, commentListResponse{
		Comments: comments,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// CreateComment добавляет комментарий к активному фильму от имени текущего пользователя
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	movieID := mux.Vars(r)["movieId"]

	var req domain.CreateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.logger.WarnContext(ctx, "Attempt to comment on non-existent movie", slog.String("movieID", movieID))
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to check movie for comment", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to create comment")
		}
		return
	}
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.respondError(w, r, http.StatusNotFound, "User not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to load comment author", slog.String("userID", userID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to create comment")
		}
		return
	}

	now := time.Now().UTC()
	comment := &domain.Comment{
		ID:        uuid.NewString(),
		MovieID:   movieID,
		UserID:    userID,
		Username:  user.Username,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.comments.Create(ctx, comment); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create comment in store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create comment")
		return
	}
	h.logger.InfoContext(ctx, "Comment created", slog.String("commentID", comment.ID), slog.String("movieID", movieID))
	h.respondJSON(w, r, http.StatusCreated, comment)
}

// UpdateComment редактирует собственный комментарий пользователя
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	commentID := mux.Vars(r)["commentId"]

	var req domain.UpdateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Comment not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to load comment", slog.String("commentID", commentID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update comment")
		}
		return
	}
	if comment.MovieID != mux.Vars(r)["movieId"] {
		h.respondError(w, r, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != userID {
		h.logger.WarnContext(ctx, "Attempt to edit someone else's comment", slog.String("commentID", commentID), slog.String("userID", userID))
		h.respondError(w, r, http.StatusForbidden, "You can only edit your own comments")
		return
	}

	comment.Edit(req.Content, time.Now().UTC())
	if err := h.comments.Update(ctx, comment); err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Comment not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to update comment in store", slog.String("commentID", commentID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update comment")
		}
		return
	}
	h.respondJSON(w, r, http.StatusOK, comment)
}
