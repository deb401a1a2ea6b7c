package blog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osstd/The-Blog/internal/db/entities"
	"github.com/osstd/The-Blog/internal/db/interfaces"
)

func setupRatingTest(t *testing.T) (interfaces.Database, *RatingService, *entities.User, *entities.Post) {
	t.Helper()

	database := newTestDatabase(t)
	accounts := NewAccountService(database, testLogger())
	posts := NewPostService(database, testLogger())
	ratings := NewRatingService(database, testLogger())

	author := registerUser(t, accounts, "author@example.com")
	grantPosting(t, database, author.ID)
	author.CanPost = true
	post, err := posts.Create(context.Background(), author, validPostInputFixture())
	require.NoError(t, err)

	reader := registerUser(t, accounts, "reader@example.com")
	return database, ratings, reader, post
}

func TestCreateRatingBoundaries(t *testing.T) {
	database, ratings, reader, post := setupRatingTest(t)

	t.Run("above range", func(t *testing.T) {
		_, err := ratings.Create(context.Background(), reader, post.ID, 10.0001)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("below range", func(t *testing.T) {
		_, err := ratings.Create(context.Background(), reader, post.ID, -0.0001)
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	count, err := database.Repository(entities.RatingSchema()).Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	t.Run("lower bound valid", func(t *testing.T) {
		rating, err := ratings.Create(context.Background(), reader, post.ID, 0)
		require.NoError(t, err)
		assert.Zero(t, rating.Value)
	})

	t.Run("upper bound valid", func(t *testing.T) {
		updated, err := ratings.Edit(context.Background(), reader, mustOwnRating(t, ratings, reader).ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 10.0, updated.Value)
	})
}

func mustOwnRating(t *testing.T, ratings *RatingService, user *entities.User) *entities.Rating {
	t.Helper()

	list, err := ratings.ListByAuthor(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}

func TestCreateSecondRatingConflicts(t *testing.T) {
	_, ratings, reader, post := setupRatingTest(t)

	_, err := ratings.Create(context.Background(), reader, post.ID, 5)
	require.NoError(t, err)

	_, err = ratings.Create(context.Background(), reader, post.ID, 6)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestEditRatingOwnerOnly(t *testing.T) {
	database, ratings, reader, post := setupRatingTest(t)

	rating, err := ratings.Create(context.Background(), reader, post.ID, 4)
	require.NoError(t, err)

	accounts := NewAccountService(database, testLogger())
	adminSeed := registerUser(t, accounts, "admin@example.com")
	admin := makeAdmin(t, database, adminSeed.ID)

	_, err = ratings.Edit(context.Background(), admin, rating.ID, 1)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	updated, err := ratings.Edit(context.Background(), reader, rating.ID, 9.5)
	require.NoError(t, err)
	assert.Equal(t, 9.5, updated.Value)
}

func TestDeleteRatingOwnerOnly(t *testing.T) {
	database, ratings, reader, post := setupRatingTest(t)

	rating, err := ratings.Create(context.Background(), reader, post.ID, 4)
	require.NoError(t, err)

	accounts := NewAccountService(database, testLogger())
	other := registerUser(t, accounts, "other@example.com")

	_, err = ratings.Delete(context.Background(), other, rating.ID)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = ratings.Delete(context.Background(), reader, rating.ID)
	require.NoError(t, err)

	count, err := database.Repository(entities.RatingSchema()).Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRatingOnMissingPost(t *testing.T) {
	_, ratings, reader, _ := setupRatingTest(t)

	_, err := ratings.Create(context.Background(), reader, 9999, 5)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
