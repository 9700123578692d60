package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

type Service struct {
	userRepo  UserRepository
	usernames *UsernameFilter
}

func NewService(userRepo UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
	}
}

// LoadUsernameFilter primes the username filter used to answer lookups of
// unknown usernames without a query.
func (svc *Service) LoadUsernameFilter(ctx context.Context, minCapacity uint, falsePositiveRate float64) error {
	usernames, err := svc.userRepo.ListUsernames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list usernames for filter: %w", err)
	}

	capacity := max(uint(len(usernames)), minCapacity)

	filter := NewUsernameFilter(capacity, falsePositiveRate)
	for _, username := range usernames {
		filter.Add(username)
	}

	svc.usernames = filter

	slog.InfoContext(ctx, "username filter loaded", "usernames", filter.Len(), "fillRatio", filter.FillRatio())

	return nil
}

func (svc *Service) rememberUsername(username string) {
	if svc.usernames != nil {
		svc.usernames.Add(username)
	}
}

func (svc *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := svc.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (svc *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	return user, nil
}

func (svc *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	if svc.usernames != nil && !svc.usernames.MayContain(username) {
		return nil, &UserByUsernameNotFoundError{Username: username}
	}

	user, err := svc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return user, nil
}

// GetUserByIdentifier resolves a numeric identifier as an id and anything
// else as a username.
func (svc *Service) GetUserByIdentifier(ctx context.Context, identifier string) (*User, error) {
	userID, err := strconv.ParseInt(identifier, 10, 64)
	if err == nil {
		return svc.GetUser(ctx, userID)
	}

	return svc.GetUserByUsername(ctx, identifier)
}

type CreateUserRequest struct {
	Username string
	Avatar   string
}

func (svc *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, &ValidationError{Field: "username", Message: "username is required"}
	}

	user := &User{
		Username: req.Username,
		Avatar:   avatarOrDefault(req.Avatar),
	}

	err := svc.userRepo.Insert(ctx, user)
	if err != nil {
		var alreadyExistsErr *UserAlreadyExistsError
		if errors.As(err, &alreadyExistsErr) {
			svc.rememberUsername(req.Username)

			return nil, alreadyExistsErr
		}

		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	svc.rememberUsername(user.Username)

	return user, nil
}

type UpdateUserRequest struct {
	Username string
	Avatar   string
}

func (svc *Service) UpdateUser(ctx context.Context, userID int64, req UpdateUserRequest) (*User, error) {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if strings.TrimSpace(req.Username) == "" {
		return nil, &ValidationError{Field: "username", Message: "username is required"}
	}

	user.Username = req.Username
	user.Avatar = avatarOrDefault(req.Avatar)

	err = svc.userRepo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	svc.rememberUsername(user.Username)

	return user, nil
}

func (svc *Service) DeleteUser(ctx context.Context, userID int64) error {
	err := svc.userRepo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

func avatarOrDefault(avatar string) string {
	if avatar == "" {
		return DefaultAvatar
	}

	return avatar
}
