package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"movie-catalog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedMovies(t *testing.T, s *MemoryMovieStore, movies ...*domain.Movie) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, m := range movies {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		}
		require.NoError(t, s.Create(context.Background(), m))
	}
}

func TestMemoryMovieStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMovieStore(discardLogger())
	seedMovies(t, s, &domain.Movie{ID: "m1", Title: "Heat", IsActive: true})

	got, err := s.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Title)

	got.Title = "mutated"
	again, _ := s.GetByID(ctx, "m1")
	assert.Equal(t, "Heat", again.Title, "store must return copies")

	err = s.Create(ctx, &domain.Movie{ID: "m1", IsActive: true})
	assert.ErrorIs(t, err, ErrMovieAlreadyExists)
}

func TestMemoryMovieStoreInactiveHidden(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMovieStore(discardLogger())
	seedMovies(t, s,
		&domain.Movie{ID: "m1", IsActive: true},
		&domain.Movie{ID: "m2", IsActive: true},
	)
	require.NoError(t, s.Deactivate(ctx, "m2"))

	_, err := s.GetByID(ctx, "m2")
	assert.ErrorIs(t, err, ErrMovieNotFound)

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "m1", active[0].ID)

	byIDs, err := s.GetByIDs(ctx, []string{"m2", "missing", "m1"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "m2", byIDs[0].ID)
	assert.Equal(t, "m1", byIDs[1].ID)

	assert.ErrorIs(t, s.Deactivate(ctx, "m2"), ErrMovieNotFound)
}

func TestMemoryMovieStoreUpdateKeepsCounters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMovieStore(discardLogger())
	seedMovies(t, s, &domain.Movie{ID: "m1", Title: "Old", Likes: 5, ViewCount: 9, IsActive: true})

	require.NoError(t, s.Update(ctx, &domain.Movie{ID: "m1", Title: "New", IsActive: true}))
	got, err := s.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, 5, got.Likes)
	assert.Equal(t, 9, got.ViewCount)
}

func TestMemoryMovieStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMovieStore(discardLogger())
	seedMovies(t, s,
		&domain.Movie{ID: "m1", Title: "Alien", Categories: []string{"Sci-Fi"}, Language: "English", Rating: 8, IsActive: true},
		&domain.Movie{ID: "m2", Title: "Amelie", Categories: []string{"Romance"}, Language: "French", Rating: 9, IsActive: true},
		&domain.Movie{ID: "m3", Title: "Arrival", Categories: []string{"Sci-Fi"}, Artists: []string{"Amy Adams"}, Language: "English", Rating: 7, IsActive: true},
	)

	movies, total, err := s.List(ctx, MovieListParams{Category: "sci-fi", SortBy: SortByRating, SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, movies, 2)
	assert.Equal(t, "m1", movies[0].ID)
	assert.Equal(t, "m3", movies[1].ID)

	movies, total, err = s.List(ctx, MovieListParams{Search: "amy"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "m3", movies[0].ID)

	movies, total, err = s.List(ctx, MovieListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, movies, 1)
	assert.Equal(t, "m3", movies[0].ID)

	movies, _, err = s.List(ctx, MovieListParams{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestMemoryMovieStoreFindRelated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryMovieStore(discardLogger())
	seedMovies(t, s,
		&domain.Movie{ID: "liked", Categories: []string{"Drama"}, IsActive: true},
		&domain.Movie{ID: "a", Categories: []string{"Drama"}, ViewCount: 10, Likes: 1, IsActive: true},
		&domain.Movie{ID: "b", Artists: []string{"X"}, ViewCount: 10, Likes: 3, IsActive: true},
		&domain.Movie{ID: "c", Categories: []string{"Drama"}, ViewCount: 50, IsActive: true},
		&domain.Movie{ID: "d", Categories: []string{"Comedy"}, ViewCount: 99, IsActive: true},
		&domain.Movie{ID: "e", Categories: []string{"Drama"}, ViewCount: 1000, IsActive: false},
	)

	related, err := s.FindRelated(ctx, RelatedParams{
		ExcludeIDs: []string{"liked"},
		Categories: []string{"Drama"},
		Artists:    []string{"X"},
		Limit:      10,
	})
	require.NoError(t, err)
	ids := make([]string, 0, len(related))
	for _, m := range related {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	related, err = s.FindRelated(ctx, RelatedParams{Categories: []string{"Drama"}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "c", related[0].ID)
}

func TestMemoryMovieStoreFilterOptions(t *testing.T) {
	s := NewMemoryMovieStore(discardLogger())
	seedMovies(t, s,
		&domain.Movie{ID: "m1", Categories: []string{"Drama", "Crime"}, Artists: []string{"Pacino"}, Language: "English", IsActive: true},
		&domain.Movie{ID: "m2", Categories: []string{"Drama"}, Language: "Italian", IsActive: true},
		&domain.Movie{ID: "m3", Categories: []string{"Horror"}, Language: "Korean", IsActive: false},
	)

	opts, err := s.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Crime", "Drama"}, opts.Categories)
	assert.Equal(t, []string{"Pacino"}, opts.Artists)
	assert.Equal(t, []string{"English", "Italian"}, opts.Languages)
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore(discardLogger())

	u := &domain.User{ID: "u1", Username: "neo", Email: "neo@example.com"}
	require.NoError(t, s.Create(ctx, u))
	assert.NotNil(t, u.LikedMovies)

	err := s.Create(ctx, &domain.User{ID: "u2", Username: "other", Email: "NEO@example.com"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	got, err := s.GetByEmail(ctx, "Neo@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got.Username = "thomas"
	got.LikedMovies = []string{"m1"}
	require.NoError(t, s.Update(ctx, got))

	reloaded, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "thomas", reloaded.Username)
	assert.Empty(t, reloaded.LikedMovies, "profile update must not touch reactions")

	_, err = s.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryCommentStoreNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCommentStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.Create(ctx, &domain.Comment{ID: id, MovieID: "m1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, s.Create(ctx, &domain.Comment{ID: "other", MovieID: "m2"}))

	comments, total, err := s.ListByMovie(ctx, "m1", CommentListParams{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, comments, 2)
	assert.Equal(t, "c3", comments[0].ID)
	assert.Equal(t, "c2", comments[1].ID)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func newMemoryFixture(t *testing.T) (*MemoryMovieStore, *MemoryUserStore, *MemoryTransactor) {
	t.Helper()
	movies := NewMemoryMovieStore(discardLogger())
	users := NewMemoryUserStore(discardLogger())
	seedMovies(t, movies, &domain.Movie{ID: "m1", Likes: 5, IsActive: true})
	require.NoError(t, users.Create(context.Background(), &domain.User{ID: "u1", Username: "u1", Email: "u1@example.com"}))
	return movies, users, NewMemoryTransactor(movies, users)
}

func TestMemoryTransactorCommits(t *testing.T) {
	ctx := context.Background()
	movies, users, tr := newMemoryFixture(t)

	err := tr.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.UserForUpdate(ctx, "u1")
		if err != nil {
			return err
		}
		adj := u.ApplyReaction("m1", domain.ActionLike)
		if err := tx.SaveUserActivity(ctx, u); err != nil {
			return err
		}
		likes, dislikes, err := tx.AdjustReactionCounters(ctx, "m1", adj)
		assert.Equal(t, 6, likes)
		assert.Equal(t, 0, dislikes)
		if err != nil {
			return err
		}
		_, err = tx.IncrementViewCount(ctx, "m1")
		return err
	})
	require.NoError(t, err)

	m, _ := movies.GetByID(ctx, "m1")
	assert.Equal(t, 6, m.Likes)
	assert.Equal(t, 1, m.ViewCount)
	u, _ := users.GetByID(ctx, "u1")
	assert.Equal(t, []string{"m1"}, []string(u.LikedMovies))
}

func TestMemoryTransactorRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	movies, users, tr := newMemoryFixture(t)
	boom := errors.New("boom")

	err := tr.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		u, err := tx.UserForUpdate(ctx, "u1")
		if err != nil {
			return err
		}
		adj := u.ApplyReaction("m1", domain.ActionDislike)
		if err := tx.SaveUserActivity(ctx, u); err != nil {
			return err
		}
		if _, _, err := tx.AdjustReactionCounters(ctx, "m1", adj); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	m, _ := movies.GetByID(ctx, "m1")
	assert.Equal(t, 5, m.Likes)
	assert.Equal(t, 0, m.Dislikes)
	u, _ := users.GetByID(ctx, "u1")
	assert.Empty(t, u.DislikedMovies)
}

func TestMemoryTxMissingRows(t *testing.T) {
	ctx := context.Background()
	_, _, tr := newMemoryFixture(t)

	err := tr.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.UserForUpdate(ctx, "ghost")
		return err
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = tr.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.IncrementViewCount(ctx, "ghost")
		return err
	})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}
