package api

import (
	"log/slog"
	"net/http"

	"movie-catalog/internal/domain"

	"github.com/gorilla/mux"
)

type reactionRequest struct {
	Action string `json:"action"`
}

type userReactionResponse struct {
	UserReaction *domain.ReactionAction `json:"userReaction"`
}

type viewResponse struct {
	ViewCount int  `json:"viewCount"`
	Recorded  bool `json:"recorded"` // true, если просмотр попал в историю пользователя
}

// currentUserID достает ID пользователя из контекста; при отсутствии отвечает 401
func (h *Handler) currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "UserID not found in context for an authenticated route", slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

// ApplyReaction ставит, меняет или снимает реакцию пользователя на фильм
func (h *Handler) ApplyReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	var req reactionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	movieID := mux.Vars(r)["movieId"]

	result, err := h.catalog.ApplyReaction(r.Context(), userID, movieID, req.Action)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, result)
}

// GetReaction возвращает текущую реакцию пользователя на фильм
func (h *Handler) GetReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	reaction, err := h.catalog.Reaction(r.Context(), userID, mux.Vars(r)["movieId"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, userReactionResponse{UserReaction: reaction})
}

// RecordView увеличивает счетчик просмотров. С токеном фильм также попадает в историю.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	movieID := mux.Vars(r)["movieId"]
	var (
		views int
		err   error
	)
	userID, authenticated := UserIDFromContext(r.Context())
	if authenticated {
		views, err = h.catalog.RecordVisit(r.Context(), userID, movieID)
	} else {
		views, err = h.catalog.RecordView(r.Context(), movieID)
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, viewResponse{ViewCount: views, Recorded: authenticated})
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", h.opts.DefaultLimit)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	movies, err := h.catalog.Recommend(r.Context(), userID, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, movies)
}

func (h *Handler) RecentlyVisited(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	visits, err := h.catalog.RecentlyVisited(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, visits)
}

func (h *Handler) LikedMovies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	movies, err := h.catalog.LikedMovies(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, movies)
}

func (h *Handler) DislikedMovies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}
	movies, err := h.catalog.DislikedMovies(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, movies)
}
