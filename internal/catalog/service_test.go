package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"movie-catalog/internal/domain"
	"movie-catalog/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	movies *store.MemoryMovieStore
	users  *store.MemoryUserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	movies := store.NewMemoryMovieStore(logger)
	users := store.NewMemoryUserStore(logger)
	svc := NewService(movies, users, store.NewMemoryTransactor(movies, users), DefaultConfig(), logger)
	svc.now = func() time.Time { return testNow }
	return &fixture{svc: svc, movies: movies, users: users}
}

func (f *fixture) addMovie(t *testing.T, m *domain.Movie) {
	t.Helper()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = testNow
	}
	m.IsActive = true
	require.NoError(t, f.movies.Create(context.Background(), m))
}

func (f *fixture) addUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &domain.User{ID: id, Username: id, Email: id + "@example.com"}))
}

func (f *fixture) movie(t *testing.T, id string) *domain.Movie {
	t.Helper()
	m, err := f.movies.GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func ids(movies []domain.MovieSummary) []string {
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func TestApplyReactionLikeThenDislikeScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "A", Likes: 5})
	f.addUser(t, "U")

	res, err := f.svc.ApplyReaction(ctx, "U", "A", "like")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Likes)
	assert.Equal(t, 0, res.Dislikes)
	require.NotNil(t, res.UserReaction)
	assert.Equal(t, domain.ActionLike, *res.UserReaction)

	res, err = f.svc.ApplyReaction(ctx, "U", "A", "dislike")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Likes)
	assert.Equal(t, 1, res.Dislikes)
	require.NotNil(t, res.UserReaction)
	assert.Equal(t, domain.ActionDislike, *res.UserReaction)

	u := f.user(t, "U")
	assert.NotContains(t, u.LikedMovies, "A")
	assert.Contains(t, u.DislikedMovies, "A")
	m := f.movie(t, "A")
	assert.Equal(t, 5, m.Likes)
	assert.Equal(t, 1, m.Dislikes)
}

func TestApplyReactionLikeIncrementsByOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Likes: 3, Dislikes: 2})
	f.addUser(t, "u1")

	_, err := f.svc.ApplyReaction(ctx, "u1", "m1", "like")
	require.NoError(t, err)

	m := f.movie(t, "m1")
	assert.Equal(t, 4, m.Likes)
	assert.Equal(t, 2, m.Dislikes)
	u := f.user(t, "u1")
	assert.Contains(t, u.LikedMovies, "m1")
	assert.NotContains(t, u.DislikedMovies, "m1")
}

func TestApplyReactionRepeatedLikeKeepsCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1"})
	f.addUser(t, "u1")

	_, err := f.svc.ApplyReaction(ctx, "u1", "m1", "like")
	require.NoError(t, err)
	res, err := f.svc.ApplyReaction(ctx, "u1", "m1", "like")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Likes)
	assert.Equal(t, []string{"m1"}, []string(f.user(t, "u1").LikedMovies))
}

func TestApplyReactionRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Likes: 2, Dislikes: 7})
	f.addUser(t, "u1")

	res, err := f.svc.ApplyReaction(ctx, "u1", "m1", "remove")
	require.NoError(t, err)
	assert.Nil(t, res.UserReaction)
	assert.Equal(t, 2, res.Likes)
	assert.Equal(t, 7, res.Dislikes)
	u := f.user(t, "u1")
	assert.Empty(t, u.LikedMovies)
	assert.Empty(t, u.DislikedMovies)

	_, err = f.svc.ApplyReaction(ctx, "u1", "m1", "dislike")
	require.NoError(t, err)
	res, err = f.svc.ApplyReaction(ctx, "u1", "m1", "remove")
	require.NoError(t, err)
	assert.Equal(t, 7, res.Dislikes)
	assert.Empty(t, f.user(t, "u1").DislikedMovies)
}

func TestApplyReactionCountersNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Likes: 0})
	f.addUser(t, "u1")
	// рассинхронизированные данные: фильм в likedMovies, но likes = 0
	require.NoError(t, store.NewMemoryTransactor(f.movies, f.users).WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		u, err := tx.UserForUpdate(ctx, "u1")
		if err != nil {
			return err
		}
		u.LikedMovies = []string{"m1"}
		return tx.SaveUserActivity(ctx, u)
	}))

	res, err := f.svc.ApplyReaction(ctx, "u1", "m1", "remove")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Likes)
}

func TestApplyReactionErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Likes: 1})
	f.addMovie(t, &domain.Movie{ID: "gone"})
	require.NoError(t, f.movies.Deactivate(ctx, "gone"))
	f.addUser(t, "u1")

	_, err := f.svc.ApplyReaction(ctx, "u1", "m1", "toggle")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = f.svc.ApplyReaction(ctx, "ghost", "m1", "like")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.ApplyReaction(ctx, "u1", "missing", "like")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.ApplyReaction(ctx, "u1", "gone", "like")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.user(t, "u1").LikedMovies, "failed reactions must not leave partial writes")
	assert.Equal(t, 1, f.movie(t, "m1").Likes)
}

type failingTransactor struct {
	inner store.Transactor
	err   error
}

func (f failingTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, failingTx{Tx: tx, err: f.err})
	})
}

type failingTx struct {
	store.Tx
	err error
}

func (f failingTx) AdjustReactionCounters(context.Context, string, domain.CounterAdjustment) (int, int, error) {
	return 0, 0, f.err
}

func TestApplyReactionPersistenceFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Likes: 5})
	f.addUser(t, "u1")
	dbErr := errors.New("connection reset")
	f.svc.tx = failingTransactor{inner: store.NewMemoryTransactor(f.movies, f.users), err: dbErr}

	_, err := f.svc.ApplyReaction(ctx, "u1", "m1", "like")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, f.user(t, "u1").LikedMovies)
	assert.Equal(t, 5, f.movie(t, "m1").Likes)
}

func TestApplyReactionConcurrentUsersDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1"})
	const n = 20
	for i := range n {
		f.addUser(t, fmt.Sprintf("u%d", i))
	}

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.ApplyReaction(ctx, id, "m1", "like")
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	assert.Equal(t, n, f.movie(t, "m1").Likes)
}

func TestReactionAndLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1"})
	f.addMovie(t, &domain.Movie{ID: "m2"})
	f.addMovie(t, &domain.Movie{ID: "m3"})
	f.addUser(t, "u1")

	_, err := f.svc.ApplyReaction(ctx, "u1", "m1", "like")
	require.NoError(t, err)
	_, err = f.svc.ApplyReaction(ctx, "u1", "m2", "like")
	require.NoError(t, err)
	_, err = f.svc.ApplyReaction(ctx, "u1", "m3", "dislike")
	require.NoError(t, err)
	require.NoError(t, f.movies.Deactivate(ctx, "m2"))

	r, err := f.svc.Reaction(ctx, "u1", "m3")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, domain.ActionDislike, *r)

	r, err = f.svc.Reaction(ctx, "u1", "other")
	require.NoError(t, err)
	assert.Nil(t, r)

	liked, err := f.svc.LikedMovies(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids(liked))

	disliked, err := f.svc.DislikedMovies(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m3"}, ids(disliked))

	_, err = f.svc.LikedMovies(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "liked1", Categories: []string{"Drama"}, Artists: []string{"Pacino"}})
	f.addMovie(t, &domain.Movie{ID: "liked2", Categories: []string{"Crime"}})
	f.addMovie(t, &domain.Movie{ID: "both", Categories: []string{"Drama"}, Artists: []string{"Pacino"}, ViewCount: 5})
	f.addMovie(t, &domain.Movie{ID: "popular", Categories: []string{"Crime"}, ViewCount: 100})
	f.addMovie(t, &domain.Movie{ID: "tie-more-likes", Artists: []string{"Pacino"}, ViewCount: 5, Likes: 9})
	f.addMovie(t, &domain.Movie{ID: "unrelated", Categories: []string{"Comedy"}, ViewCount: 1000})
	f.addUser(t, "u1")
	_, err := f.svc.ApplyReaction(ctx, "u1", "liked1", "like")
	require.NoError(t, err)
	_, err = f.svc.ApplyReaction(ctx, "u1", "liked2", "like")
	require.NoError(t, err)

	recs, err := f.svc.Recommend(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"popular", "tie-more-likes", "both"}, ids(recs))
	for _, id := range ids(recs) {
		assert.NotContains(t, []string{"liked1", "liked2"}, id)
	}

	recs, err = f.svc.Recommend(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRecommendEdgeCases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Categories: []string{"Drama"}})
	f.addUser(t, "u1")

	recs, err := f.svc.Recommend(ctx, "u1", 10)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, err = f.svc.Recommend(ctx, "ghost", 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Recommend(ctx, "u1", 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTrendingOrdersByDecayedScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	day := 24 * time.Hour
	// old-hit: 400*0.1 = 40, fresh: 50*1 = 50, half: 94*0.5 = 47, quiet: 0.4
	f.addMovie(t, &domain.Movie{ID: "old-hit", ViewCount: 1000, CreatedAt: testNow.Add(-60 * day)})
	f.addMovie(t, &domain.Movie{ID: "fresh", ViewCount: 50, Likes: 50, CreatedAt: testNow})
	f.addMovie(t, &domain.Movie{ID: "half", ViewCount: 100, Likes: 90, CreatedAt: testNow.Add(-15 * day)})
	f.addMovie(t, &domain.Movie{ID: "quiet", ViewCount: 1, CreatedAt: testNow})

	got, err := f.svc.Trending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "half", "old-hit", "quiet"}, ids(got))

	got, err = f.svc.Trending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "half"}, ids(got))

	_, err = f.svc.Trending(ctx, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTrendingSkipsInactiveAndKeepsTieOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i, id := range []string{"a", "b", "c"} {
		f.addMovie(t, &domain.Movie{ID: id, CreatedAt: testNow.Add(time.Duration(i) * time.Second)})
	}
	f.addMovie(t, &domain.Movie{ID: "hidden", ViewCount: 500})
	require.NoError(t, f.movies.Deactivate(ctx, "hidden"))

	got, err := f.svc.Trending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestRecordVisitTwiceKeepsSingleEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1"})
	f.addMovie(t, &domain.Movie{ID: "m2"})
	f.addUser(t, "u1")

	first := testNow
	second := testNow.Add(time.Minute)
	f.svc.now = func() time.Time { return first }
	_, err := f.svc.RecordVisit(ctx, "u1", "m1")
	require.NoError(t, err)
	_, err = f.svc.RecordVisit(ctx, "u1", "m2")
	require.NoError(t, err)
	f.svc.now = func() time.Time { return second }
	views, err := f.svc.RecordVisit(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, views, "every visit counts as a view")

	history := f.user(t, "u1").RecentlyVisited
	require.Len(t, history, 2)
	assert.Equal(t, "m1", history[0].MovieID)
	assert.True(t, history[0].VisitedAt.Equal(second))
	assert.Equal(t, "m2", history[1].MovieID)
}

func TestRecordVisitCapsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1")
	for i := range 20 {
		id := fmt.Sprintf("m%02d", i)
		f.addMovie(t, &domain.Movie{ID: id})
		_, err := f.svc.RecordVisit(ctx, "u1", id)
		require.NoError(t, err)
	}

	history := f.user(t, "u1").RecentlyVisited
	require.Len(t, history, domain.DefaultRecentlyVisitedCapacity)
	assert.Equal(t, "m19", history[0].MovieID)
	assert.Equal(t, "m05", history[len(history)-1].MovieID)
}

func TestRecordVisitErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1"})
	f.addUser(t, "u1")

	_, err := f.svc.RecordVisit(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.RecordVisit(ctx, "ghost", "m1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.movie(t, "m1").ViewCount)
}

func TestRecordViewAndRecentlyVisited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMovie(t, &domain.Movie{ID: "m1", Title: "Heat", DownloadLink: "https://dl/heat"})
	f.addMovie(t, &domain.Movie{ID: "m2"})
	f.addUser(t, "u1")

	views, err := f.svc.RecordView(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, views)
	assert.Empty(t, f.user(t, "u1").RecentlyVisited)

	_, err = f.svc.RecordView(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.RecordVisit(ctx, "u1", "m1")
	require.NoError(t, err)
	_, err = f.svc.RecordVisit(ctx, "u1", "m2")
	require.NoError(t, err)
	require.NoError(t, f.movies.Deactivate(ctx, "m2"))

	visited, err := f.svc.RecentlyVisited(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, visited, 1)
	assert.Equal(t, "Heat", visited[0].Movie.Title)
	assert.Equal(t, 2, visited[0].Movie.ViewCount)
}
