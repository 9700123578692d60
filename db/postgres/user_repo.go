package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/nasermirzaei89/remarks/accounts"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

var _ accounts.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func toUser(m *userModel) *accounts.User {
	return &accounts.User{ID: m.ID, Username: m.Username, Avatar: m.Avatar}
}

func (repo *UserRepository) Insert(ctx context.Context, user *accounts.User) error {
	m := userModel{Username: user.Username, Avatar: user.Avatar}

	err := repo.db.WithContext(ctx).Create(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &accounts.UserAlreadyExistsError{Username: user.Username}
		}

		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = m.ID

	return nil
}

func (repo *UserRepository) Find(ctx context.Context, userID int64) (*accounts.User, error) {
	var m userModel

	err := repo.db.WithContext(ctx).First(&m, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &accounts.UserNotFoundError{ID: userID}
		}

		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return toUser(&m), nil
}

func (repo *UserRepository) FindByUsername(ctx context.Context, username string) (*accounts.User, error) {
	var m userModel

	err := repo.db.WithContext(ctx).First(&m, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &accounts.UserByUsernameNotFoundError{Username: username}
		}

		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return toUser(&m), nil
}

func (repo *UserRepository) List(ctx context.Context) ([]*accounts.User, error) {
	var ms []userModel

	err := repo.db.WithContext(ctx).Order("id ASC").Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*accounts.User, 0, len(ms))
	for i := range ms {
		users = append(users, toUser(&ms[i]))
	}

	return users, nil
}

func (repo *UserRepository) ListUsernames(ctx context.Context) ([]string, error) {
	var usernames []string

	err := repo.db.WithContext(ctx).Model(&userModel{}).Pluck("username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}

	return usernames, nil
}

func (repo *UserRepository) Update(ctx context.Context, user *accounts.User) error {
	res := repo.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"username": user.Username,
			"avatar":   user.Avatar,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return &accounts.UserAlreadyExistsError{Username: user.Username}
		}

		return fmt.Errorf("failed to update user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return &accounts.UserNotFoundError{ID: user.ID}
	}

	return nil
}

func (repo *UserRepository) Delete(ctx context.Context, userID int64) error {
	res := repo.db.WithContext(ctx).Delete(&userModel{}, userID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return &accounts.UserNotFoundError{ID: userID}
	}

	return nil
}
