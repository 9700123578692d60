package sqlite3_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/db/sqlite3"
	"github.com/nasermirzaei89/remarks/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "remarks.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sqlite3.NewDB(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	err = sqlite3.MigrateUp(ctx, db)
	require.NoError(t, err)

	return db
}

func insertUser(t *testing.T, repo *sqlite3.UserRepository, username string) *accounts.User {
	t.Helper()

	user := &accounts.User{Username: username, Avatar: accounts.DefaultAvatar}
	err := repo.Insert(context.Background(), user)
	require.NoError(t, err)

	return user
}

func insertComment(t *testing.T, repo *sqlite3.CommentRepository, userID int64, parentID *int64) *discuss.Comment {
	t.Helper()

	comment := &discuss.Comment{
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
		UserID:    userID,
		ParentID:  parentID,
	}
	err := repo.Insert(context.Background(), comment)
	require.NoError(t, err)

	return comment
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite3.NewUserRepository(db)

	amy := insertUser(t, repo, "amyrobson")
	assert.NotZero(t, amy.ID)

	t.Run("find by id and username", func(t *testing.T) {
		found, err := repo.Find(ctx, amy.ID)
		require.NoError(t, err)
		assert.Equal(t, amy, found)

		found, err = repo.FindByUsername(ctx, "amyrobson")
		require.NoError(t, err)
		assert.Equal(t, amy.ID, found.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.Find(ctx, 999)

		notFoundErr := &accounts.UserNotFoundError{}
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, int64(999), notFoundErr.ID)

		_, err = repo.FindByUsername(ctx, "nobody")

		byUsernameErr := &accounts.UserByUsernameNotFoundError{}
		require.ErrorAs(t, err, &byUsernameErr)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Insert(ctx, &accounts.User{Username: "amyrobson", Avatar: "x"})

		alreadyExistsErr := &accounts.UserAlreadyExistsError{}
		require.ErrorAs(t, err, &alreadyExistsErr)
	})

	t.Run("update and list", func(t *testing.T) {
		amy.Avatar = "./images/avatars/image-amyrobson.webp"
		err := repo.Update(ctx, amy)
		require.NoError(t, err)

		insertUser(t, repo, "maxblagun")

		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, amy.Avatar, users[0].Avatar)

		usernames, err := repo.ListUsernames(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"amyrobson", "maxblagun"}, usernames)
	})

	t.Run("update and delete missing user", func(t *testing.T) {
		notFoundErr := &accounts.UserNotFoundError{}

		err := repo.Update(ctx, &accounts.User{ID: 404, Username: "ghost", Avatar: "x"})
		require.ErrorAs(t, err, &notFoundErr)

		err = repo.Delete(ctx, 404)
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := sqlite3.NewUserRepository(db)
	repo := sqlite3.NewCommentRepository(db)

	amy := insertUser(t, users, "amyrobson")
	maxb := insertUser(t, users, "maxblagun")

	root := insertComment(t, repo, amy.ID, nil)
	reply := insertComment(t, repo, maxb.ID, &root.ID)

	t.Run("find keeps nullable fields", func(t *testing.T) {
		found, err := repo.Find(ctx, root.ID)
		require.NoError(t, err)
		assert.Nil(t, found.ParentID)
		assert.Nil(t, found.ReplyingTo)

		found, err = repo.Find(ctx, reply.ID)
		require.NoError(t, err)
		require.NotNil(t, found.ParentID)
		assert.Equal(t, root.ID, *found.ParentID)
		assert.WithinDuration(t, reply.CreatedAt, found.CreatedAt, time.Second)
	})

	t.Run("list in creation order", func(t *testing.T) {
		comments, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, root.ID, comments[0].ID)
		assert.Equal(t, reply.ID, comments[1].ID)
	})

	t.Run("update", func(t *testing.T) {
		replyingTo := "amyrobson"
		reply.Content = "edited"
		reply.Score = 4
		reply.ReplyingTo = &replyingTo

		err := repo.Update(ctx, reply)
		require.NoError(t, err)

		found, err := repo.Find(ctx, reply.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", found.Content)
		assert.Equal(t, 4, found.Score)
		require.NotNil(t, found.ReplyingTo)
		assert.Equal(t, "amyrobson", *found.ReplyingTo)
	})

	t.Run("deleting a parent removes its replies", func(t *testing.T) {
		err := repo.Delete(ctx, root.ID)
		require.NoError(t, err)

		_, err = repo.Find(ctx, reply.ID)

		notFoundErr := &discuss.CommentNotFoundError{}
		require.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("deleting a user removes its comments", func(t *testing.T) {
		own := insertComment(t, repo, maxb.ID, nil)

		err := users.Delete(ctx, maxb.ID)
		require.NoError(t, err)

		_, err = repo.Find(ctx, own.ID)

		notFoundErr := &discuss.CommentNotFoundError{}
		require.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("delete missing comment", func(t *testing.T) {
		err := repo.Delete(ctx, 12345)

		notFoundErr := &discuss.CommentNotFoundError{}
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestMigrateDown(t *testing.T) {
	db := newTestDB(t)

	err := sqlite3.MigrateDown(db)
	require.NoError(t, err)

	_, err = sqlite3.NewUserRepository(db).List(context.Background())
	require.Error(t, err)
}
