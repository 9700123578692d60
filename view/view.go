// Package view holds the client-side state of one comment thread session:
// the flat comment collection as returned by the store, the author cache and
// the local votes. Mutations reach the store first and touch local state only
// after it confirms.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/client"
	"github.com/nasermirzaei89/remarks/discuss"
	"github.com/nasermirzaei89/remarks/thread"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultUsername   = "juliusomo"
	defaultFetchLimit = 8

	// UnknownAuthor names authors whose lookup failed during load.
	UnknownAuthor = "unknown"
)

var (
	ErrNotOwner       = errors.New("comment is not owned by the current user")
	ErrEmptyContent   = errors.New("content is required")
	ErrUnknownComment = errors.New("comment is not part of the view")
	ErrSelfReply      = errors.New("cannot reply to your own comment")
)

// Store is the subset of the REST client the view talks to.
type Store interface {
	ListComments(ctx context.Context) ([]discuss.Comment, error)
	CreateComment(ctx context.Context, req client.CreateCommentRequest) (*discuss.Comment, error)
	UpdateComment(ctx context.Context, commentID int64, req client.UpdateCommentRequest) (*discuss.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
	GetUser(ctx context.Context, identifier string) (*accounts.User, error)
	GetUserByID(ctx context.Context, userID int64) (*accounts.User, error)
	CreateUser(ctx context.Context, req client.CreateUserRequest) (*accounts.User, error)
}

var _ Store = (*client.Client)(nil)

type View struct {
	store      Store
	username   string
	fetchLimit int

	mu          sync.Mutex
	loaded      bool
	currentUser *accounts.User
	comments    []discuss.Comment
	users       map[int64]*accounts.User
	votes       map[int64]int
}

func New(store Store, username string) *View {
	if username == "" {
		username = DefaultUsername
	}

	return &View{
		store:      store,
		username:   username,
		fetchLimit: defaultFetchLimit,
		users:      make(map[int64]*accounts.User),
		votes:      make(map[int64]int),
	}
}

// Load fetches the current user, the comments and their authors once.
// Later calls are no-ops until Reload.
func (v *View) Load(ctx context.Context) error {
	_, err := v.load(ctx)

	return err
}

// load returns the current user read under the same lock as the loaded flag.
func (v *View) load(ctx context.Context) (*accounts.User, error) {
	v.mu.Lock()
	if v.loaded {
		currentUser := v.currentUser
		v.mu.Unlock()

		return currentUser, nil
	}
	v.mu.Unlock()

	currentUser, err := v.resolveCurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	comments, err := v.store.ListComments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	v.mu.Lock()
	v.users[currentUser.ID] = currentUser
	v.mu.Unlock()

	err = v.fetchAuthors(ctx, comments)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.currentUser = currentUser
	v.comments = comments
	v.loaded = true

	return currentUser, nil
}

// Reload drops every piece of local state, including votes, and loads again.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	v.loaded = false
	v.currentUser = nil
	v.comments = nil
	v.users = make(map[int64]*accounts.User)
	v.votes = make(map[int64]int)
	v.mu.Unlock()

	return v.Load(ctx)
}

func (v *View) resolveCurrentUser(ctx context.Context) (*accounts.User, error) {
	user, err := v.store.GetUser(ctx, v.username)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	user, err = v.store.CreateUser(ctx, client.CreateUserRequest{Username: v.username})
	if err != nil {
		return nil, fmt.Errorf("failed to create current user: %w", err)
	}

	return user, nil
}

func (v *View) fetchAuthors(ctx context.Context, comments []discuss.Comment) error {
	var missing []int64

	v.mu.Lock()

	for _, comment := range comments {
		if _, ok := v.users[comment.UserID]; ok {
			continue
		}

		if slices.Contains(missing, comment.UserID) {
			continue
		}

		missing = append(missing, comment.UserID)
	}

	v.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.fetchLimit)

	for _, userID := range missing {
		g.Go(func() error {
			user, err := v.store.GetUserByID(gctx, userID)
			if err != nil {
				slog.ErrorContext(gctx, "failed to get author", "userId", userID, "error", err)

				return nil
			}

			v.mu.Lock()
			v.users[user.ID] = user
			v.mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	// A cancelled load must not leave authors marked unknown.
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("failed to get authors: %w", err)
	}

	return nil
}

func (v *View) CurrentUser() (accounts.User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.currentUser == nil {
		return accounts.User{}, false
	}

	return *v.currentUser, true
}

// Comments returns a copy of the flat collection in store order.
func (v *View) Comments() []discuss.Comment {
	v.mu.Lock()
	defer v.mu.Unlock()

	return slices.Clone(v.comments)
}

func (v *View) User(userID int64) (accounts.User, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[userID]
	if !ok {
		return accounts.User{}, false
	}

	return *user, true
}

func (v *View) find(commentID int64) (discuss.Comment, bool) {
	idx := slices.IndexFunc(v.comments, func(c discuss.Comment) bool { return c.ID == commentID })
	if idx < 0 {
		return discuss.Comment{}, false
	}

	return v.comments[idx], true
}

// Owned returns the comment when the current user authored it.
func (v *View) Owned(commentID int64) (discuss.Comment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	comment, ok := v.find(commentID)
	if !ok {
		return discuss.Comment{}, ErrUnknownComment
	}

	if v.currentUser == nil || comment.UserID != v.currentUser.ID {
		return discuss.Comment{}, ErrNotOwner
	}

	return comment, nil
}

func (v *View) AddComment(ctx context.Context, content string) (*discuss.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	currentUser, err := v.load(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := v.store.CreateComment(ctx, client.CreateCommentRequest{
		Content: content,
		Score:   0,
		UserID:  currentUser.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	v.mu.Lock()
	v.comments = thread.AddRoot(v.comments, *comment)
	v.mu.Unlock()

	return comment, nil
}

// AddReply answers the comment identified by parentID, replying to its author.
func (v *View) AddReply(ctx context.Context, parentID int64, content string) (*discuss.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	currentUser, err := v.load(ctx)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	parent, ok := v.find(parentID)
	parentAuthor := v.users[parent.UserID]
	v.mu.Unlock()

	if !ok {
		return nil, ErrUnknownComment
	}

	if parent.UserID == currentUser.ID {
		return nil, ErrSelfReply
	}

	if parentAuthor == nil {
		parentAuthor, err = v.store.GetUserByID(ctx, parent.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent author: %w", err)
		}
	}

	replyingTo := parentAuthor.Username

	reply, err := v.store.CreateComment(ctx, client.CreateCommentRequest{
		Content:    content,
		Score:      0,
		UserID:     currentUser.ID,
		ParentID:   &parentID,
		ReplyingTo: &replyingTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	v.mu.Lock()
	v.users[parentAuthor.ID] = parentAuthor
	v.comments = thread.AddReply(v.comments, parentID, *reply)
	v.mu.Unlock()

	return reply, nil
}

// Edit replaces the content of an owned comment. Blank content is left for
// the store to reject.
func (v *View) Edit(ctx context.Context, commentID int64, content string) (*discuss.Comment, error) {
	err := v.Load(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := v.Owned(commentID)
	if err != nil {
		return nil, err
	}

	updated, err := v.store.UpdateComment(ctx, commentID, client.UpdateCommentRequest{
		Content:    content,
		Score:      comment.Score,
		ReplyingTo: comment.ReplyingTo,
		ParentID:   comment.ParentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	v.mu.Lock()
	v.comments = thread.Update(v.comments, *updated)
	v.mu.Unlock()

	return updated, nil
}

func (v *View) Remove(ctx context.Context, commentID int64) error {
	err := v.Load(ctx)
	if err != nil {
		return err
	}

	_, err = v.Owned(commentID)
	if err != nil {
		return err
	}

	err = v.store.DeleteComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	v.mu.Lock()
	v.comments = thread.Remove(v.comments, commentID)
	delete(v.votes, commentID)
	v.mu.Unlock()

	return nil
}
