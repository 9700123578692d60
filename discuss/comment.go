package discuss

import (
	"context"
	"fmt"
	"time"
)

type Comment struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	Score      int       `json:"score"`
	UserID     int64     `json:"userId"`
	ParentID   *int64    `json:"parentId"`
	ReplyingTo *string   `json:"replyingTo"`
}

// IsReply reports whether the comment is threaded under another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != nil
}

type CommentRepository interface {
	Insert(ctx context.Context, comment *Comment) (err error)
	Find(ctx context.Context, commentID int64) (comment *Comment, err error)
	List(ctx context.Context) (comments []*Comment, err error)
	Update(ctx context.Context, comment *Comment) (err error)
	Delete(ctx context.Context, commentID int64) (err error)
}

type CommentNotFoundError struct {
	ID int64
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %d not found", err.ID)
}

type ParentCommentNotFoundError struct {
	ID int64
}

func (err ParentCommentNotFoundError) Error() string {
	return fmt.Sprintf("parent comment with id %d not found", err.ID)
}

type ValidationError struct {
	Field   string
	Message string
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Message)
}

// SelfReplyError is returned when an edit makes a comment address its own author.
type SelfReplyError struct {
	CommentID int64
	Username  string
}

func (err SelfReplyError) Error() string {
	return fmt.Sprintf("comment %d cannot reply to its own author %q", err.CommentID, err.Username)
}
