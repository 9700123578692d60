package accounts

import (
	"context"
	"fmt"
)

// DefaultAvatar is stored for users created or updated without an avatar.
const DefaultAvatar = "./images/avatars/image-default.webp"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type UserRepository interface {
	Insert(ctx context.Context, user *User) (err error)
	Find(ctx context.Context, userID int64) (user *User, err error)
	FindByUsername(ctx context.Context, username string) (user *User, err error)
	List(ctx context.Context) (users []*User, err error)
	ListUsernames(ctx context.Context) (usernames []string, err error)
	Update(ctx context.Context, user *User) (err error)
	Delete(ctx context.Context, userID int64) (err error)
}

type UserNotFoundError struct {
	ID int64
}

func (err UserNotFoundError) Error() string {
	return fmt.Sprintf("user with id %d not found", err.ID)
}

type UserByUsernameNotFoundError struct {
	Username string
}

func (err UserByUsernameNotFoundError) Error() string {
	return fmt.Sprintf("user with username %q not found", err.Username)
}

type UserAlreadyExistsError struct {
	Username string
}

func (err UserAlreadyExistsError) Error() string {
	return fmt.Sprintf("user with username %q already exists", err.Username)
}

type ValidationError struct {
	Field   string
	Message string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Message)
}
