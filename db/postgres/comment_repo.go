package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/nasermirzaei89/remarks/discuss"
	"gorm.io/gorm"
)

type CommentRepository struct {
	db *gorm.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func toComment(m *commentModel) *discuss.Comment {
	return &discuss.Comment{
		ID:         m.ID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		Score:      m.Score,
		UserID:     m.UserID,
		ParentID:   m.ParentID,
		ReplyingTo: m.ReplyingTo,
	}
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	m := commentModel{
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
		Score:      comment.Score,
		UserID:     comment.UserID,
		ParentID:   comment.ParentID,
		ReplyingTo: comment.ReplyingTo,
	}

	err := repo.db.WithContext(ctx).Omit("User", "Replies").Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	comment.ID = m.ID

	return nil
}

func (repo *CommentRepository) Find(ctx context.Context, commentID int64) (*discuss.Comment, error) {
	var m commentModel

	err := repo.db.WithContext(ctx).First(&m, "id = ?", commentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &discuss.CommentNotFoundError{ID: commentID}
		}

		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return toComment(&m), nil
}

func (repo *CommentRepository) List(ctx context.Context) ([]*discuss.Comment, error) {
	var ms []commentModel

	err := repo.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]*discuss.Comment, 0, len(ms))
	for i := range ms {
		comments = append(comments, toComment(&ms[i]))
	}

	return comments, nil
}

func (repo *CommentRepository) Update(ctx context.Context, comment *discuss.Comment) error {
	res := repo.db.WithContext(ctx).
		Model(&commentModel{}).
		Where("id = ?", comment.ID).
		Updates(map[string]any{
			"content":     comment.Content,
			"score":       comment.Score,
			"parent_id":   comment.ParentID,
			"replying_to": comment.ReplyingTo,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update comment: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return &discuss.CommentNotFoundError{ID: comment.ID}
	}

	return nil
}

func (repo *CommentRepository) Delete(ctx context.Context, commentID int64) error {
	res := repo.db.WithContext(ctx).Delete(&commentModel{}, commentID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return &discuss.CommentNotFoundError{ID: commentID}
	}

	return nil
}
