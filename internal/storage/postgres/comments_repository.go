package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mingle-social/server/internal/domain/comments"
)

var _ comments.Repository = (*CommentRepository)(nil)

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (comments.Comment, error) {
	var c comments.Comment
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&c.ID, &c.UserID, &c.PostID, &c.Body, &createdAt); err != nil {
		return comments.Comment{}, err
	}
	c.CreatedAt = createdAt.Time
	return c, nil
}

func (r *CommentRepository) Create(ctx context.Context, userID, postID int64, body string) (comments.Comment, error) {
	if _, err := r.PostOwner(ctx, postID); err != nil {
		return comments.Comment{}, err
	}

	comment, err := scanComment(r.pool.QueryRow(ctx, `
INSERT INTO comments (user_id, post_id, body)
VALUES ($1, $2, $3)
RETURNING id, user_id, post_id, body, created_at`,
		userID, postID, body))
	if err != nil {
		if isForeignKeyViolation(err) {
			return comments.Comment{}, comments.ErrPostNotFound
		}
		return comments.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (comments.Comment, error) {
	comment, err := scanComment(r.pool.QueryRow(ctx,
		`SELECT id, user_id, post_id, body, created_at FROM comments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comments.Comment{}, comments.ErrNotFound
		}
		return comments.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepository) Update(ctx context.Context, id int64, body string) (comments.Comment, error) {
	comment, err := scanComment(r.pool.QueryRow(ctx, `
UPDATE comments
   SET body = $2
 WHERE id = $1
RETURNING id, user_id, post_id, body, created_at`,
		id, body))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comments.Comment{}, comments.ErrNotFound
		}
		return comments.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return comments.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) ByPost(ctx context.Context, postID int64, offset, limit int) ([]comments.Comment, int64, error) {
	if _, err := r.PostOwner(ctx, postID); err != nil {
		return nil, 0, err
	}

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM comments WHERE post_id = $1`, postID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, post_id, body, created_at
  FROM comments
 WHERE post_id = $1
 ORDER BY created_at ASC, id ASC
 LIMIT $2 OFFSET $3`,
		postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	result := []comments.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return result, total, nil
}

func (r *CommentRepository) PostOwner(ctx context.Context, postID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx,
		`SELECT user_id FROM posts WHERE id = $1`, postID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, comments.ErrPostNotFound
		}
		return 0, fmt.Errorf("get post owner: %w", err)
	}
	return ownerID, nil
}
