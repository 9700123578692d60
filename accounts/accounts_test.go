package accounts_test

import (
	"context"
	"slices"
	"strconv"
	"testing"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users   []accounts.User
	lookups int
	nextID  int64
}

func (repo *stubUserRepo) Insert(_ context.Context, user *accounts.User) error {
	for _, existing := range repo.users {
		if existing.Username == user.Username {
			return &accounts.UserAlreadyExistsError{Username: user.Username}
		}
	}

	repo.nextID++
	user.ID = repo.nextID
	repo.users = append(repo.users, *user)

	return nil
}

func (repo *stubUserRepo) Find(_ context.Context, userID int64) (*accounts.User, error) {
	for _, user := range repo.users {
		if user.ID == userID {
			return &user, nil
		}
	}

	return nil, &accounts.UserNotFoundError{ID: userID}
}

func (repo *stubUserRepo) FindByUsername(_ context.Context, username string) (*accounts.User, error) {
	repo.lookups++

	for _, user := range repo.users {
		if user.Username == username {
			return &user, nil
		}
	}

	return nil, &accounts.UserByUsernameNotFoundError{Username: username}
}

func (repo *stubUserRepo) List(context.Context) ([]*accounts.User, error) {
	users := make([]*accounts.User, 0, len(repo.users))
	for _, user := range repo.users {
		users = append(users, &user)
	}

	return users, nil
}

func (repo *stubUserRepo) ListUsernames(context.Context) ([]string, error) {
	usernames := make([]string, 0, len(repo.users))
	for _, user := range repo.users {
		usernames = append(usernames, user.Username)
	}

	return usernames, nil
}

func (repo *stubUserRepo) Update(_ context.Context, user *accounts.User) error {
	idx := slices.IndexFunc(repo.users, func(u accounts.User) bool { return u.ID == user.ID })
	if idx < 0 {
		return &accounts.UserNotFoundError{ID: user.ID}
	}

	repo.users[idx] = *user

	return nil
}

func (repo *stubUserRepo) Delete(_ context.Context, userID int64) error {
	idx := slices.IndexFunc(repo.users, func(u accounts.User) bool { return u.ID == userID })
	if idx < 0 {
		return &accounts.UserNotFoundError{ID: userID}
	}

	repo.users = slices.Delete(repo.users, idx, idx+1)

	return nil
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc := accounts.NewService(&stubUserRepo{})

	user, err := svc.CreateUser(ctx, accounts.CreateUserRequest{Username: "amyrobson"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, accounts.DefaultAvatar, user.Avatar)

	_, err = svc.CreateUser(ctx, accounts.CreateUserRequest{Username: "amyrobson"})

	var alreadyExistsErr *accounts.UserAlreadyExistsError
	require.ErrorAs(t, err, &alreadyExistsErr)
	assert.Equal(t, "amyrobson", alreadyExistsErr.Username)

	_, err = svc.CreateUser(ctx, accounts.CreateUserRequest{Username: " \t"})

	var validationErr *accounts.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "username", validationErr.Field)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc := accounts.NewService(&stubUserRepo{})

	user, err := svc.CreateUser(ctx, accounts.CreateUserRequest{
		Username: "amyrobson",
		Avatar:   "./images/avatars/image-amyrobson.webp",
	})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, 99, accounts.UpdateUserRequest{Username: ""})

	var notFoundErr *accounts.UserNotFoundError
	require.ErrorAs(t, err, &notFoundErr, "a missing user wins over validation")

	_, err = svc.UpdateUser(ctx, user.ID, accounts.UpdateUserRequest{Username: ""})

	var validationErr *accounts.ValidationError
	require.ErrorAs(t, err, &validationErr)

	updated, err := svc.UpdateUser(ctx, user.ID, accounts.UpdateUserRequest{Username: "amy"})
	require.NoError(t, err)
	assert.Equal(t, "amy", updated.Username)
	assert.Equal(t, accounts.DefaultAvatar, updated.Avatar)
}

func TestGetUserByIdentifier(t *testing.T) {
	ctx := context.Background()
	svc := accounts.NewService(&stubUserRepo{})

	user, err := svc.CreateUser(ctx, accounts.CreateUserRequest{Username: "maxblagun"})
	require.NoError(t, err)

	byID, err := svc.GetUserByIdentifier(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	byName, err := svc.GetUserByIdentifier(ctx, "maxblagun")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = svc.GetUserByIdentifier(ctx, "2")

	var notFoundErr *accounts.UserNotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	_, err = svc.GetUserByIdentifier(ctx, "ramsesmiron")

	var byUsernameErr *accounts.UserByUsernameNotFoundError
	require.ErrorAs(t, err, &byUsernameErr)
}

func TestUsernameFilterSkipsLookups(t *testing.T) {
	ctx := context.Background()
	repo := &stubUserRepo{}
	svc := accounts.NewService(repo)

	_, err := svc.CreateUser(ctx, accounts.CreateUserRequest{Username: "amyrobson"})
	require.NoError(t, err)

	err = svc.LoadUsernameFilter(ctx, 100, 0.01)
	require.NoError(t, err)

	_, err = svc.GetUserByUsername(ctx, "amyrobson")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lookups)

	_, err = svc.CreateUser(ctx, accounts.CreateUserRequest{Username: "juliusomo"})
	require.NoError(t, err)

	_, err = svc.GetUserByUsername(ctx, "juliusomo")
	require.NoError(t, err, "created users are added to the filter")
	assert.Equal(t, 2, repo.lookups)

	_, err = svc.GetUserByUsername(ctx, "nobody")

	var notFoundErr *accounts.UserByUsernameNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, 2, repo.lookups)
}

func TestUsernameFilter(t *testing.T) {
	t.Parallel()

	filter := accounts.NewUsernameFilter(1000, 0.01)

	names := []string{"amyrobson", "maxblagun", "ramsesmiron", "juliusomo"}
	for _, name := range names {
		filter.Add(name)
	}

	for _, name := range names {
		assert.True(t, filter.MayContain(name), name)
	}

	assert.Equal(t, len(names), filter.Len())
	assert.Greater(t, filter.FillRatio(), 0.0)
	assert.Less(t, filter.FillRatio(), 0.1)

	falsePositives := 0

	for i := range 1000 {
		if filter.MayContain("unknown-" + strconv.Itoa(i)) {
			falsePositives++
		}
	}

	assert.Less(t, falsePositives, 50)
}

func TestUsernameFilterDegenerateSizing(t *testing.T) {
	t.Parallel()

	filter := accounts.NewUsernameFilter(0, 0)

	assert.False(t, filter.MayContain("amyrobson"))
	assert.Zero(t, filter.FillRatio())

	filter.Add("amyrobson")
	filter.Add("amyrobson")

	assert.True(t, filter.MayContain("amyrobson"))
	assert.Equal(t, 2, filter.Len())
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc := accounts.NewService(&stubUserRepo{})

	user, err := svc.CreateUser(ctx, accounts.CreateUserRequest{Username: "amyrobson"})
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, user.ID)
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, user.ID)

	var notFoundErr *accounts.UserNotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
