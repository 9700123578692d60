package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/remarks/discuss"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID         = "id"
	commentFieldContent    = "content"
	commentFieldCreatedAt  = "created_at"
	commentFieldScore      = "score"
	commentFieldUserID     = "user_id"
	commentFieldParentID   = "parent_id"
	commentFieldReplyingTo = "replying_to"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldContent,
		commentFieldCreatedAt,
		commentFieldScore,
		commentFieldUserID,
		commentFieldParentID,
		commentFieldReplyingTo,
	}
}

func scanComment(row sq.RowScanner) (*discuss.Comment, error) {
	var comment discuss.Comment

	err := row.Scan(
		&comment.ID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.Score,
		&comment.UserID,
		&comment.ParentID,
		&comment.ReplyingTo,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &comment, nil
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	q := sq.Insert(tableComments).
		Columns(commentColumns()[1:]...).
		Values(
			comment.Content,
			comment.CreatedAt,
			comment.Score,
			comment.UserID,
			comment.ParentID,
			comment.ReplyingTo,
		)

	q = q.RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	comment.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted comment id: %w", err)
	}

	return nil
}

func (repo *CommentRepository) Find(ctx context.Context, commentID int64) (*discuss.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldID: commentID})

	q = q.RunWith(repo.db)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &discuss.CommentNotFoundError{ID: commentID}
		}

		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return comment, nil
}

func (repo *CommentRepository) List(ctx context.Context) ([]*discuss.Comment, error) {
	query := sq.Select(commentColumns()...).
		From(tableComments).
		OrderBy(commentFieldCreatedAt+" ASC", commentFieldID+" ASC")

	query = query.RunWith(repo.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	comments := make([]*discuss.Comment, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment failed: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return comments, nil
}

func (repo *CommentRepository) Update(ctx context.Context, comment *discuss.Comment) error {
	q := sq.Update(tableComments).
		SetMap(sq.Eq{
			commentFieldContent:    comment.Content,
			commentFieldScore:      comment.Score,
			commentFieldParentID:   comment.ParentID,
			commentFieldReplyingTo: comment.ReplyingTo,
		}).
		Where(sq.Eq{commentFieldID: comment.ID}).
		RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	return requireAffected(res, &discuss.CommentNotFoundError{ID: comment.ID})
}

func (repo *CommentRepository) Delete(ctx context.Context, commentID int64) error {
	q := sq.Delete(tableComments).
		Where(sq.Eq{commentFieldID: commentID}).
		RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	return requireAffected(res, &discuss.CommentNotFoundError{ID: commentID})
}
