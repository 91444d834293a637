package store

import (
	"context"
	"errors"

	"movie-catalog/internal/domain"
)

// Кастомные ошибки хранилища
var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrMovieAlreadyExists = errors.New("movie with this id already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this email or username already exists")
	ErrCommentNotFound    = errors.New("comment not found")
)

// Поля, по которым разрешена сортировка списка фильмов
const (
	SortByCreatedAt   = "createdAt"
	SortByTitle       = "title"
	SortByReleaseYear = "releaseYear"
	SortByViewCount   = "viewCount"
	SortByLikes       = "likes"
	SortByRating      = "rating"
)

// MovieListParams - параметры выборки активных фильмов
type MovieListParams struct {
	Page     int
	PageSize int
	Search   string // регистронезависимый поиск по названию, категориям и артистам
	Category string
	Artist   string
	Language string
	SortBy   string // одно из SortBy* значений
	SortDesc bool
}

// RelatedParams - параметры поиска фильмов, похожих на понравившиеся
type RelatedParams struct {
	ExcludeIDs []string
	Categories []string
	Artists    []string
	Limit      int
}

// CommentListParams - пагинация комментариев
type CommentListParams struct {
	Page     int
	PageSize int
}

// MovieStore определяет интерфейс для операций с каталогом фильмов.
type MovieStore interface {
	Create(ctx context.Context, movie *domain.Movie) error
	GetByID(ctx context.Context, id string) (*domain.Movie, error) // только активные фильмы
	// GetByIDs возвращает фильмы (включая неактивные) в порядке ids, пропуская отсутствующие.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Movie, error)
	Update(ctx context.Context, movie *domain.Movie) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error)
	// ListActive возвращает все активные фильмы в порядке создания.
	ListActive(ctx context.Context) ([]*domain.Movie, error)
	// FindRelated ищет активные фильмы, пересекающиеся по категориям или артистам,
	// упорядоченные по viewCount, затем likes.
	FindRelated(ctx context.Context, params RelatedParams) ([]*domain.Movie, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
}

// UserStore определяет интерфейс для операций с данными пользователей.
// Update меняет только профиль; реакции и историю пишет Tx.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// CommentStore определяет интерфейс для операций с комментариями.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, commentID string) (*domain.Comment, error)
	ListByMovie(ctx context.Context, movieID string, params CommentListParams) ([]*domain.Comment, int, error)
	Update(ctx context.Context, comment *domain.Comment) error
}

// Tx - операции, которые фиксируются вместе: изменения пользователя и счетчиков фильма.
type Tx interface {
	// UserForUpdate читает пользователя и блокирует его до конца транзакции.
	UserForUpdate(ctx context.Context, userID string) (*domain.User, error)
	ActiveMovie(ctx context.Context, movieID string) (*domain.Movie, error)
	// SaveUserActivity сохраняет likedMovies, dislikedMovies и recentlyVisited.
	SaveUserActivity(ctx context.Context, user *domain.User) error
	// AdjustReactionCounters атомарно меняет likes/dislikes и возвращает новые значения.
	AdjustReactionCounters(ctx context.Context, movieID string, adj domain.CounterAdjustment) (likes int, dislikes int, err error)
	IncrementViewCount(ctx context.Context, movieID string) (int, error)
}

// Transactor выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

func orderByIDs(movies []*domain.Movie, ids []string) []*domain.Movie {
	byID := make(map[string]*domain.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	out := make([]*domain.Movie, 0, len(movies))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, m)
		}
	}
	return out
}
