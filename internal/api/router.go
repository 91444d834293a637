package api

import (
	"net/http"
	"time"

	"movie-catalog/internal/metrics"

	"github.com/gorilla/mux"
)

// RouterOptions - настройки middleware маршрутизатора
type RouterOptions struct {
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

// NewRouter создает HTTP маршрутизатор каталога
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(MetricsMiddleware, RequestTimeout(opts.RequestTimeout))

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	authed := func(fn http.HandlerFunc) http.Handler { return h.AuthMiddleware(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return h.AuthMiddleware(h.RequireAdmin(fn)) }

	apiRouter := router.PathPrefix("/api").Subrouter()
	if opts.RateLimitEnabled && opts.RateLimitRequests > 0 {
		apiRouter.Use(h.RateLimit(opts.RateLimitRequests, opts.RateLimitWindow))
	}

	// Пользователи
	usersRouter := apiRouter.PathPrefix("/users").Subrouter()
	usersRouter.HandleFunc("/register", h.RegisterUser).Methods(http.MethodPost)
	usersRouter.HandleFunc("/login", h.LoginUser).Methods(http.MethodPost)
	usersRouter.Handle("/me", authed(h.GetUserProfile)).Methods(http.MethodGet)
	usersRouter.Handle("/me", authed(h.UpdateUserProfile)).Methods(http.MethodPut)
	usersRouter.Handle("/me/recommendations", authed(h.Recommendations)).Methods(http.MethodGet)
	usersRouter.Handle("/me/recently-visited", authed(h.RecentlyVisited)).Methods(http.MethodGet)
	usersRouter.Handle("/me/liked-movies", authed(h.LikedMovies)).Methods(http.MethodGet)
	usersRouter.Handle("/me/disliked-movies", authed(h.DislikedMovies)).Methods(http.MethodGet)

	// Фильмы. Статические пути регистрируются раньше /{movieId}.
	moviesRouter := apiRouter.PathPrefix("/movies").Subrouter()
	moviesRouter.HandleFunc("", h.ListMovies).Methods(http.MethodGet)
	moviesRouter.Handle("", admin(h.CreateMovie)).Methods(http.MethodPost)
	moviesRouter.HandleFunc("/trending", h.Trending).Methods(http.MethodGet)
	moviesRouter.HandleFunc("/filter-options", h.FilterOptions).Methods(http.MethodGet)
	moviesRouter.HandleFunc("/{movieId}", h.GetMovie).Methods(http.MethodGet)
	moviesRouter.Handle("/{movieId}", admin(h.UpdateMovie)).Methods(http.MethodPut)
	moviesRouter.Handle("/{movieId}", admin(h.DeleteMovie)).Methods(http.MethodDelete)

	moviesRouter.Handle("/{movieId}/reaction", authed(h.ApplyReaction)).Methods(http.MethodPost)
	moviesRouter.Handle("/{movieId}/reaction", authed(h.GetReaction)).Methods(http.MethodGet)
	moviesRouter.Handle("/{movieId}/view", h.OptionalAuthMiddleware(http.HandlerFunc(h.RecordView))).Methods(http.MethodPost)

	moviesRouter.HandleFunc("/{movieId}/comments", h.ListComments).Methods(http.MethodGet)
	moviesRouter.Handle("/{movieId}/comments", authed(h.CreateComment)).Methods(http.MethodPost)
	moviesRouter.Handle("/{movieId}/comments/{commentId}", authed(h.UpdateComment)).Methods(http.MethodPut)

	return router
}
