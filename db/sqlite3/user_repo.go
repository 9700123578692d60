package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/remarks/accounts"
)

const tableUsers = "users"

type UserRepository struct {
	db *sql.DB
}

var _ accounts.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const (
	userFieldID       = "id"
	userFieldUsername = "username"
	userFieldAvatar   = "avatar"
)

func userColumns() []string {
	return []string{
		userFieldID,
		userFieldUsername,
		userFieldAvatar,
	}
}

func scanUser(row sq.RowScanner) (*accounts.User, error) {
	var user accounts.User

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Avatar,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &user, nil
}

func (repo *UserRepository) Insert(ctx context.Context, user *accounts.User) error {
	q := sq.Insert(tableUsers).
		Columns(userFieldUsername, userFieldAvatar).
		Values(user.Username, user.Avatar)

	q = q.RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return &accounts.UserAlreadyExistsError{Username: user.Username}
		}

		return fmt.Errorf("failed to exec insert: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted user id: %w", err)
	}

	return nil
}

func (repo *UserRepository) Find(ctx context.Context, userID int64) (*accounts.User, error) {
	q := sq.Select(userColumns()...).
		From(tableUsers).
		Where(sq.Eq{userFieldID: userID})

	q = q.RunWith(repo.db)

	user, err := scanUser(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &accounts.UserNotFoundError{ID: userID}
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

func (repo *UserRepository) FindByUsername(ctx context.Context, username string) (*accounts.User, error) {
	q := sq.Select(userColumns()...).
		From(tableUsers).
		Where(sq.Eq{userFieldUsername: username})

	q = q.RunWith(repo.db)

	user, err := scanUser(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &accounts.UserByUsernameNotFoundError{Username: username}
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

func (repo *UserRepository) List(ctx context.Context) ([]*accounts.User, error) {
	q := sq.Select(userColumns()...).
		From(tableUsers).
		OrderBy(userFieldID + " ASC").
		RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	users := make([]*accounts.User, 0)

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user failed: %w", err)
		}

		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return users, nil
}

func (repo *UserRepository) ListUsernames(ctx context.Context) ([]string, error) {
	q := sq.Select(userFieldUsername).From(tableUsers).RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string

	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}

		usernames = append(usernames, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}

	return usernames, nil
}

func (repo *UserRepository) Update(ctx context.Context, user *accounts.User) error {
	q := sq.Update(tableUsers).
		SetMap(sq.Eq{
			userFieldUsername: user.Username,
			userFieldAvatar:   user.Avatar,
		}).
		Where(sq.Eq{userFieldID: user.ID}).
		RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return &accounts.UserAlreadyExistsError{Username: user.Username}
		}

		return fmt.Errorf("failed to exec update: %w", err)
	}

	return requireAffected(res, &accounts.UserNotFoundError{ID: user.ID})
}

func (repo *UserRepository) Delete(ctx context.Context, userID int64) error {
	q := sq.Delete(tableUsers).
		Where(sq.Eq{userFieldID: userID}).
		RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return requireAffected(res, &accounts.UserNotFoundError{ID: userID})
}

func requireAffected(res sql.Result, notFoundErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if n == 0 {
		return notFoundErr
	}

	return nil
}
