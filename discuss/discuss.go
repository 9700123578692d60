package discuss

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nasermirzaei89/remarks/accounts"
)

// UserDirectory resolves comment authors and replyingTo usernames.
type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (*accounts.User, error)
	GetUserByUsername(ctx context.Context, username string) (*accounts.User, error)
}

type Service struct {
	commentRepo CommentRepository
	users       UserDirectory
}

func NewService(commentRepo CommentRepository, users UserDirectory) *Service {
	return &Service{
		commentRepo: commentRepo,
		users:       users,
	}
}

type CreateCommentRequest struct {
	Content    string
	Score      *int
	UserID     int64
	ParentID   *int64
	ReplyingTo string
}

func (svc *Service) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	err := validateContentAndScore(req.Content, req.Score)
	if err != nil {
		return nil, err
	}

	if req.UserID <= 0 {
		return nil, &ValidationError{Field: "userId", Message: "a valid user id is required"}
	}

	user, err := svc.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	replyingTo, err := svc.resolveReplyingTo(ctx, req.ReplyingTo)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		err = svc.ensureParentExists(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
	}

	comment := &Comment{
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
		Score:      *req.Score,
		UserID:     user.ID,
		ParentID:   req.ParentID,
		ReplyingTo: replyingTo,
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) ListComments(ctx context.Context) ([]*Comment, error) {
	comments, err := svc.commentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (svc *Service) GetComment(ctx context.Context, commentID int64) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

// UpdateCommentRequest replaces every editable field. A nil ParentID or an
// empty ReplyingTo clears the stored value.
type UpdateCommentRequest struct {
	Content    string
	Score      *int
	ReplyingTo string
	ParentID   *int64
}

func (svc *Service) UpdateComment(ctx context.Context, commentID int64, req UpdateCommentRequest) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	err = validateContentAndScore(req.Content, req.Score)
	if err != nil {
		return nil, err
	}

	var replyingTo *string

	if req.ReplyingTo != "" {
		target, err := svc.users.GetUserByUsername(ctx, req.ReplyingTo)
		if err != nil {
			return nil, fmt.Errorf("failed to get replied user: %w", err)
		}

		if target.ID == comment.UserID {
			return nil, &SelfReplyError{CommentID: comment.ID, Username: target.Username}
		}

		replyingTo = &req.ReplyingTo
	}

	if req.ParentID != nil {
		if *req.ParentID == comment.ID {
			return nil, &ValidationError{Field: "parentId", Message: "a comment cannot be its own parent"}
		}

		err = svc.ensureParentExists(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
	}

	comment.Content = req.Content
	comment.Score = *req.Score
	comment.ReplyingTo = replyingTo
	comment.ParentID = req.ParentID

	err = svc.commentRepo.Update(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) DeleteComment(ctx context.Context, commentID int64) error {
	err := svc.commentRepo.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

func validateContentAndScore(content string, score *int) error {
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}

	if score == nil {
		return &ValidationError{Field: "score", Message: "score is required"}
	}

	return nil
}

func (svc *Service) resolveReplyingTo(ctx context.Context, username string) (*string, error) {
	if username == "" {
		return nil, nil
	}

	_, err := svc.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get replied user: %w", err)
	}

	return &username, nil
}

func (svc *Service) ensureParentExists(ctx context.Context, parentID int64) error {
	_, err := svc.commentRepo.Find(ctx, parentID)
	if err != nil {
		var notFoundErr *CommentNotFoundError
		if errors.As(err, &notFoundErr) {
			return &ParentCommentNotFoundError{ID: parentID}
		}

		return fmt.Errorf("failed to find parent comment: %w", err)
	}

	return nil
}
