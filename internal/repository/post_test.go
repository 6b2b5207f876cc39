package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"skillshare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: 1, Content: "Content"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NotNil(t, post.LikedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	post, err := repo.GetByID(context.Background(), 5)
	assert.Nil(t, post)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListByUsersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	grace := seedUser(t, db, "grace")
	linus := seedUser(t, db, "linus")

	base := time.Now().Add(-time.Hour)
	for i, author := range []uint{ada.ID, grace.ID, linus.ID, ada.ID} {
		p := &models.Post{UserID: author, Content: "post", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, p))
	}

	posts, err := repo.ListByUsers(ctx, []uint{ada.ID, grace.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, ada.ID, posts[0].UserID)
	assert.Equal(t, grace.ID, posts[1].UserID)
	assert.True(t, posts[0].CreatedAt.After(posts[2].CreatedAt))

	empty, err := repo.ListByUsers(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_ListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	ada := seedUser(t, db, "ada")
	base := time.Now().Add(-time.Hour)
	// Inserted out of order so id order and time order disagree.
	for _, offset := range []int{2, 0, 1} {
		p := &models.Post{UserID: ada.ID, Content: "post", CreatedAt: base.Add(time.Duration(offset) * time.Minute)}
		require.NoError(t, repo.Create(ctx, p))
	}

	posts, err := repo.ListRecent(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, uint(1), posts[0].ID)
	assert.Equal(t, uint(3), posts[1].ID)
	assert.Equal(t, uint(2), posts[2].ID)

	page, err := repo.ListRecent(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint(3), page[0].ID)
}

func TestPostRepository_UpdateRejectsStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	post := &models.Post{UserID: owner.ID, Content: "hello"}
	require.NoError(t, repo.Create(ctx, post))

	first, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)

	require.True(t, first.AddLike(10))
	require.NoError(t, repo.Update(ctx, first))

	require.True(t, second.AddLike(11))
	assert.ErrorIs(t, repo.Update(ctx, second), models.ErrStaleRecord)

	stored, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{10}, []uint(stored.LikedBy))
	assert.Equal(t, 1, stored.LikesCount)
	assert.Equal(t, first.Version, stored.Version)
}

func TestPostRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	post := &models.Post{UserID: owner.ID, Content: "bye"}
	require.NoError(t, repo.Create(ctx, post))
	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err := repo.GetByID(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
