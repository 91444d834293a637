package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
)

var sortFields = map[string]bool{
	store.SortByCreatedAt:   true,
	store.SortByTitle:       true,
	store.SortByReleaseYear: true,
	store.SortByViewCount:   true,
	store.SortByLikes:       true,
	store.SortByRating:      true,
}

type movieListResponse struct {
	Movies      []domain.MovieSummary `json:"movies"`
	Total       int                   `json:"total"`
	TotalPages  int                   `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
}

// ListMovies возвращает активные фильмы с пагинацией, фильтрами и сортировкой.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	h.logger.InfoContext(ctx, "ListMovies endpoint hit", slog.String("query", q.Encode()))

	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		h.respondError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	pageSize, err := queryInt(r, "limit", h.opts.DefaultPageSize)
	if err != nil || pageSize < 1 {
		h.respondError(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	pageSize = min(pageSize, h.opts.MaxPageSize)

	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = store.SortByCreatedAt
	}
	if !sortFields[sortBy] {
		h.respondError(w, r, http.StatusBadRequest, "unsupported sortBy value")
		return
	}
	sortDesc := true
	switch strings.ToLower(q.Get("sortOrder")) {
	case "", "desc":
	case "asc":
		sortDesc = false
	default:
		h.respondError(w, r, http.StatusBadRequest, "sortOrder must be asc or desc")
		return
	}

	params := store.MovieListParams{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(q.Get("search")),
		Category: q.Get("category"),
		Artist:   q.Get("artist"),
		Language: q.Get("language"),
		SortBy:   sortBy,
		SortDesc: sortDesc,
	}
	movies, total, err := h.movies.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list movies from store", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve movies")
		return
	}

	h.respondJSON(w, r, http.StatusOK, movieListResponse{
		Movies:      domain.Summaries(movies),
		Total:       total,
		TotalPages:  (total + pageSize - 1) / pageSize,
		CurrentPage: page,
	})
}

// GetMovie возвращает активный фильм со ссылкой на скачивание.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	movie, err := h.movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
		} else {
			h.logger.ErrorContext(ctx, "Error finding movie by ID", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Error finding movie")
		}
		return
	}
	h.respondJSON(w, r, http.StatusOK, movie)
}

func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.movies.FilterOptions(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load filter options", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve filter options")
		return
	}
	h.respondJSON(w, r, http.StatusOK, opts)
}

// Trending возвращает популярные фильмы по формуле с затуханием.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", h.opts.DefaultLimit)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	movies, err := h.catalog.Trending(r.Context(), limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, movies)
}

// CreateMovie добавляет фильм в каталог (только администратор).
func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req domain.CreateMovieRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	movie := &domain.Movie{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Categories:   pq.StringArray(req.Categories),
		Artists:      pq.StringArray(req.Artists),
		Director:     req.Director,
		Language:     req.Language,
		ReleaseYear:  req.ReleaseYear,
		Duration:     req.Duration,
		Description:  req.Description,
		PosterURL:    req.PosterURL,
		TrailerURL:   req.TrailerURL,
		DownloadLink: req.DownloadLink,
		Rating:       req.Rating,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.movies.Create(ctx, movie); err != nil {
		if errors.Is(err, store.ErrMovieAlreadyExists) {
			h.respondError(w, r, http.StatusConflict, "Movie already exists")
		} else {
			h.logger.ErrorContext(ctx, "Failed to create movie in store", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to create movie")
		}
		return
	}
	h.logger.InfoContext(ctx, "Movie created", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	h.respondJSON(w, r, http.StatusCreated, movie)
}

// UpdateMovie частично обновляет фильм (только администратор). Счетчики не меняются.
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]
	var req domain.UpdateMovieRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	movie, err := h.movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
		} else {
			h.logger.ErrorContext(ctx, "Error finding movie for update", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update movie")
		}
		return
	}
	req.Apply(movie)
	if err := h.movies.Update(ctx, movie); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to update movie in store", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to update movie")
		}
		return
	}

	updated, err := h.movies.GetByID(ctx, movieID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to reload updated movie", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update movie")
		return
	}
	h.logger.InfoContext(ctx, "Movie updated", slog.String("movieID", movieID))
	h.respondJSON(w, r, http.StatusOK, updated)
}

// DeleteMovie скрывает фильм из каталога (isActive = false).
func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]
	if err := h.movies.Deactivate(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Movie not found")
		} else {
			h.logger.ErrorContext(ctx, "Failed to deactivate movie", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to delete movie")
		}
		return
	}
	h.logger.InfoContext(ctx, "Movie deactivated", slog.String("movieID", movieID))
	h.respondJSON(w, r, http.StatusOK, map[string]string{"message": "Movie deleted successfully"})
}
