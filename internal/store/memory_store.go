package store

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"movie-catalog/internal/domain"
)

// MemoryMovieStore - хранилище каталога в памяти, для разработки и тестов
type MemoryMovieStore struct {
	mu     sync.RWMutex
	movies map[string]*domain.Movie
	order  []string // порядок создания
	logger *slog.Logger
}

// NewMemoryMovieStore создает пустой MemoryMovieStore
func NewMemoryMovieStore(logger *slog.Logger) *MemoryMovieStore {
	return &MemoryMovieStore{
		movies: make(map[string]*domain.Movie),
		logger: logger,
	}
}

func cloneMovie(m *domain.Movie) *domain.Movie {
	c := *m
	c.Categories = slices.Clone(m.Categories)
	c.Artists = slices.Clone(m.Artists)
	return &c
}

func (s *MemoryMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.movies[movie.ID]; exists {
		return ErrMovieAlreadyExists
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}
	movie.UpdatedAt = movie.CreatedAt
	s.movies[movie.ID] = cloneMovie(movie)
	s.order = append(s.order, movie.ID)
	s.logger.DebugContext(ctx, "Movie created in memory store", slog.String("movieID", movie.ID))
	return nil
}

func (s *MemoryMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok || !m.IsActive {
		return nil, ErrMovieNotFound
	}
	return cloneMovie(m), nil
}

func (s *MemoryMovieStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []*domain.Movie
	for _, id := range ids {
		if m, ok := s.movies[id]; ok {
			found = append(found, cloneMovie(m))
		}
	}
	return orderByIDs(found, ids), nil
}

// Update перезаписывает поля фильма, кроме счетчиков и даты создания
func (s *MemoryMovieStore) Update(ctx context.Context, movie *domain.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.movies[movie.ID]
	if !ok || !existing.IsActive {
		return ErrMovieNotFound
	}
	updated := cloneMovie(movie)
	updated.ViewCount = existing.ViewCount
	updated.Likes = existing.Likes
	updated.Dislikes = existing.Dislikes
	updated.IsActive = true
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.movies[movie.ID] = updated
	movie.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *MemoryMovieStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movies[id]
	if !ok || !m.IsActive {
		return ErrMovieNotFound
	}
	m.IsActive = false
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryMovieStore) activeLocked() []*domain.Movie {
	out := make([]*domain.Movie, 0, len(s.order))
	for _, id := range s.order {
		if m := s.movies[id]; m.IsActive {
			out = append(out, cloneMovie(m))
		}
	}
	return out
}

func (s *MemoryMovieStore) ListActive(ctx context.Context) ([]*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked(), nil
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}

func anySubstringFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func compareMovies(a, b *domain.Movie, sortBy string) int {
	switch sortBy {
	case SortByTitle:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortByReleaseYear:
		return cmp.Compare(a.ReleaseYear, b.ReleaseYear)
	case SortByViewCount:
		return cmp.Compare(a.ViewCount, b.ViewCount)
	case SortByLikes:
		return cmp.Compare(a.Likes, b.Likes)
	case SortByRating:
		return cmp.Compare(a.Rating, b.Rating)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (s *MemoryMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(params.Search)
	var filtered []*domain.Movie
	for _, m := range s.activeLocked() {
		if search != "" && !strings.Contains(strings.ToLower(m.Title), search) &&
			!anySubstringFold(m.Categories, search) && !anySubstringFold(m.Artists, search) {
			continue
		}
		if params.Category != "" && !containsFold(m.Categories, params.Category) {
			continue
		}
		if params.Artist != "" && !containsFold(m.Artists, params.Artist) {
			continue
		}
		if params.Language != "" && !strings.EqualFold(m.Language, params.Language) {
			continue
		}
		filtered = append(filtered, m)
	}

	slices.SortStableFunc(filtered, func(a, b *domain.Movie) int {
		c := compareMovies(a, b, params.SortBy)
		if params.SortDesc {
			return -c
		}
		return c
	})

	total := len(filtered)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 12
	}
	start := (params.Page - 1) * params.PageSize
	if start >= total {
		return []*domain.Movie{}, total, nil
	}
	end := min(start+params.PageSize, total)
	return filtered[start:end], total, nil
}

func (s *MemoryMovieStore) FindRelated(ctx context.Context, params RelatedParams) ([]*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var related []*domain.Movie
	for _, m := range s.activeLocked() {
		if slices.Contains(params.ExcludeIDs, m.ID) {
			continue
		}
		if intersects(m.Categories, params.Categories) || intersects(m.Artists, params.Artists) {
			related = append(related, m)
		}
	}
	slices.SortStableFunc(related, func(a, b *domain.Movie) int {
		if c := cmp.Compare(b.ViewCount, a.ViewCount); c != 0 {
			return c
		}
		return cmp.Compare(b.Likes, a.Likes)
	})
	if params.Limit > 0 && len(related) > params.Limit {
		related = related[:params.Limit]
	}
	return related, nil
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}

func (s *MemoryMovieStore) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories, artists, languages []string
	for _, m := range s.activeLocked() {
		categories = append(categories, m.Categories...)
		artists = append(artists, m.Artists...)
		if m.Language != "" {
			languages = append(languages, m.Language)
		}
	}
	return &domain.FilterOptions{
		Categories: distinctSorted(categories),
		Artists:    distinctSorted(artists),
		Languages:  distinctSorted(languages),
	}, nil
}

func distinctSorted(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}

// MemoryUserStore для начальной разработки и тестов
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[string]*domain.User // Ключ: UserID
	logger *slog.Logger
}

// NewMemoryUserStore создает новый экземпляр MemoryUserStore
func NewMemoryUserStore(logger *slog.Logger) *MemoryUserStore {
	return &MemoryUserStore{
		users:  make(map[string]*domain.User),
		logger: logger,
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.LikedMovies = slices.Clone(u.LikedMovies)
	c.DislikedMovies = slices.Clone(u.DislikedMovies)
	c.RecentlyVisited = slices.Clone(u.RecentlyVisited)
	return &c
}

func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			s.logger.WarnContext(ctx, "User already exists in memory store", slog.String("email", user.Email), slog.String("username", user.Username))
			return ErrUserAlreadyExists
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if user.LikedMovies == nil {
		user.LikedMovies = []string{}
	}
	if user.DislikedMovies == nil {
		user.DislikedMovies = []string{}
	}
	if user.RecentlyVisited == nil {
		user.RecentlyVisited = domain.VisitHistory{}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return cloneUser(u), nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	for _, u := range s.users {
		if u.ID != user.ID && (u.Username == user.Username || strings.EqualFold(u.Email, user.Email)) {
			return ErrUserAlreadyExists
		}
	}
	existing.Username = user.Username
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role
	existing.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

// MemoryCommentStore хранит комментарии в памяти
type MemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]*domain.Comment
	byMovie  map[string][]string // movieID -> commentIDs в порядке создания
}

func NewMemoryCommentStore() *MemoryCommentStore {
	return &MemoryCommentStore{
		comments: make(map[string]*domain.Comment),
		byMovie:  make(map[string][]string),
	}
}

func (s *MemoryCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	comment.UpdatedAt = comment.CreatedAt
	c := *comment
	s.comments[c.ID] = &c
	s.byMovie[c.MovieID] = append(s.byMovie[c.MovieID], c.ID)
	return nil
}

func (s *MemoryCommentStore) GetByID(ctx context.Context, commentID string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[commentID]
	if !ok {
		return nil, ErrCommentNotFound
	}
	cc := *c
	return &cc, nil
}

// ListByMovie возвращает комментарии фильма, новые первыми
func (s *MemoryCommentStore) ListByMovie(ctx context.Context, movieID string, params CommentListParams) ([]*domain.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byMovie[movieID]
	total := len(ids)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 50
	}
	start := (params.Page - 1) * params.PageSize
	if start >= total {
		return []*domain.Comment{}, total, nil
	}
	end := min(start+params.PageSize, total)

	out := make([]*domain.Comment, 0, end-start)
	for i := start; i < end; i++ {
		c := *s.comments[ids[total-1-i]]
		out = append(out, &c)
	}
	return out, total, nil
}

func (s *MemoryCommentStore) Update(ctx context.Context, comment *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.comments[comment.ID]
	if !ok {
		return ErrCommentNotFound
	}
	existing.Content = comment.Content
	existing.IsEdited = comment.IsEdited
	existing.EditedAt = comment.EditedAt
	existing.UpdatedAt = comment.UpdatedAt
	return nil
}

// MemoryTransactor сериализует транзакции и применяет изменения только при фиксации.
type MemoryTransactor struct {
	mu     sync.Mutex
	movies *MemoryMovieStore
	users  *MemoryUserStore
}

func NewMemoryTransactor(movies *MemoryMovieStore, users *MemoryUserStore) *MemoryTransactor {
	return &MemoryTransactor{movies: movies, users: users}
}

func (t *MemoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx := &memoryTx{
		parent: t,
		users:  make(map[string]*domain.User),
		movies: make(map[string]*domain.Movie),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memoryTx struct {
	parent *MemoryTransactor
	users  map[string]*domain.User
	movies map[string]*domain.Movie
}

func (tx *memoryTx) UserForUpdate(ctx context.Context, userID string) (*domain.User, error) {
	if u, ok := tx.users[userID]; ok {
		return cloneUser(u), nil
	}
	u, err := tx.parent.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tx.users[userID] = u
	return cloneUser(u), nil
}

func (tx *memoryTx) movie(ctx context.Context, movieID string) (*domain.Movie, error) {
	if m, ok := tx.movies[movieID]; ok {
		return m, nil
	}
	m, err := tx.parent.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	tx.movies[movieID] = m
	return m, nil
}

func (tx *memoryTx) ActiveMovie(ctx context.Context, movieID string) (*domain.Movie, error) {
	m, err := tx.movie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return cloneMovie(m), nil
}

func (tx *memoryTx) SaveUserActivity(ctx context.Context, user *domain.User) error {
	if _, ok := tx.users[user.ID]; !ok {
		if _, err := tx.UserForUpdate(ctx, user.ID); err != nil {
			return err
		}
	}
	tx.users[user.ID] = cloneUser(user)
	return nil
}

func (tx *memoryTx) AdjustReactionCounters(ctx context.Context, movieID string, adj domain.CounterAdjustment) (int, int, error) {
	m, err := tx.movie(ctx, movieID)
	if err != nil {
		return 0, 0, err
	}
	m.Likes, m.Dislikes = adj.ApplyTo(m.Likes, m.Dislikes)
	return m.Likes, m.Dislikes, nil
}

func (tx *memoryTx) IncrementViewCount(ctx context.Context, movieID string) (int, error) {
	m, err := tx.movie(ctx, movieID)
	if err != nil {
		return 0, err
	}
	m.ViewCount++
	return m.ViewCount, nil
}

func (tx *memoryTx) commit() {
	now := time.Now().UTC()

	tx.parent.users.mu.Lock()
	for id, u := range tx.users {
		if existing, ok := tx.parent.users.users[id]; ok {
			existing.LikedMovies = slices.Clone(u.LikedMovies)
			existing.DislikedMovies = slices.Clone(u.DislikedMovies)
			existing.RecentlyVisited = slices.Clone(u.RecentlyVisited)
			existing.UpdatedAt = now
		}
	}
	tx.parent.users.mu.Unlock()

	tx.parent.movies.mu.Lock()
	for id, m := range tx.movies {
		if existing, ok := tx.parent.movies.movies[id]; ok {
			existing.ViewCount = m.ViewCount
			existing.Likes = m.Likes
			existing.Dislikes = m.Dislikes
		}
	}
	tx.parent.movies.mu.Unlock()
}
