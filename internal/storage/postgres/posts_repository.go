package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mingle-social/server/internal/domain/posts"
	"github.com/mingle-social/server/internal/domain/users"
)

var _ posts.Repository = (*PostRepository)(nil)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

const postColumns = `
p.id, p.user_id, p.caption, p.location, p.created_at,
COALESCE(ARRAY(SELECT ph.id FROM photos ph WHERE ph.post_id = p.id ORDER BY ph.id), '{}'::bigint[]),
(SELECT count(*) FROM post_likes pl WHERE pl.post_id = p.id),
(SELECT count(*) FROM comments c WHERE c.post_id = p.id)`

func scanPost(row pgx.Row) (posts.Post, error) {
	var p posts.Post
	var createdAt pgtype.Timestamptz
	err := row.Scan(&p.ID, &p.UserID, &p.Caption, &p.Location, &createdAt,
		&p.PhotoIDs, &p.LikeCount, &p.CommentCount)
	if err != nil {
		return posts.Post{}, err
	}
	p.CreatedAt = createdAt.Time
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, params posts.CreateParams) (posts.Post, error) {
	var created posts.Post
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var postID int64
		err := tx.QueryRow(ctx, `
INSERT INTO posts (user_id, caption, location)
VALUES ($1, $2, $3)
RETURNING id`,
			params.UserID, params.Caption, params.Location).Scan(&postID)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}

		// A photo can only be claimed by its uploader, and only once.
		for _, photoID := range params.PhotoIDs {
			tag, err := tx.Exec(ctx, `
UPDATE photos
   SET post_id = $1
 WHERE id = $2 AND user_id = $3 AND post_id IS NULL`,
				postID, photoID, params.UserID)
			if err != nil {
				return fmt.Errorf("claim photo %d: %w", photoID, err)
			}
			if tag.RowsAffected() == 0 {
				return posts.ErrPhotoNotFound
			}
		}

		for _, attachment := range params.Attachments {
			_, err := tx.Exec(ctx, `
INSERT INTO photos (user_id, post_id, filename, content_type, file_data)
VALUES ($1, $2, $3, $4, $5)`,
				params.UserID, postID, attachment.Filename, attachment.ContentType, attachment.Data)
			if err != nil {
				return fmt.Errorf("insert attachment: %w", err)
			}
		}

		created, err = scanPost(tx.QueryRow(ctx,
			`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, postID))
		if err != nil {
			return fmt.Errorf("reload post: %w", err)
		}
		return nil
	})
	if err != nil {
		return posts.Post{}, err
	}
	return created, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (posts.Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return posts.Post{}, posts.ErrNotFound
		}
		return posts.Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (r *PostRepository) Update(ctx context.Context, id int64, params posts.UpdateParams) (posts.Post, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE posts
   SET caption  = COALESCE($2, caption),
       location = COALESCE($3, location)
 WHERE id = $1`,
		id, params.Caption, params.Location)
	if err != nil {
		return posts.Post{}, fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return posts.Post{}, posts.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM post_likes WHERE post_id = $1`,
			`DELETE FROM comments WHERE post_id = $1`,
			`DELETE FROM photos WHERE post_id = $1`,
		}
		for _, sql := range steps {
			if _, err := tx.Exec(ctx, sql, id); err != nil {
				return fmt.Errorf("cascade delete post %d: %w", id, err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete post %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return posts.ErrNotFound
		}
		return nil
	})
}

func (r *PostRepository) Search(ctx context.Context, query string, offset, limit int) ([]posts.Post, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM posts WHERE caption ILIKE '%' || $1 || '%'`, query).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	return r.list(ctx, `
SELECT `+postColumns+`
  FROM posts p
 WHERE p.caption ILIKE '%' || $1 || '%'
 ORDER BY p.created_at DESC, p.id DESC
 LIMIT $2 OFFSET $3`, total, query, limit, offset)
}

func (r *PostRepository) ByUser(ctx context.Context, userID int64, offset, limit int) ([]posts.Post, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM posts WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	return r.list(ctx, `
SELECT `+postColumns+`
  FROM posts p
 WHERE p.user_id = $1
 ORDER BY p.created_at DESC, p.id DESC
 LIMIT $2 OFFSET $3`, total, userID, limit, offset)
}

func (r *PostRepository) list(ctx context.Context, sql string, total int64, args ...any) ([]posts.Post, int64, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	result := []posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return result, total, nil
}

// Feed lists posts by the user and everyone they follow, newest first.
func (r *PostRepository) Feed(ctx context.Context, userID int64, offset, limit int) ([]posts.FeedItem, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
SELECT count(*)
  FROM posts
 WHERE user_id = $1
    OR user_id IN (SELECT followed_id FROM follows WHERE follower_id = $1)`,
		userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count feed: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+postColumns+`,
       u.id, u.username, u.profile_photo_id,
       EXISTS(SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followed_id = u.id)
  FROM posts p
  JOIN users u ON u.id = p.user_id
 WHERE p.user_id = $1
    OR p.user_id IN (SELECT followed_id FROM follows WHERE follower_id = $1)
 ORDER BY p.created_at DESC, p.id DESC
 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list feed: %w", err)
	}
	defer rows.Close()

	items := []posts.FeedItem{}
	for rows.Next() {
		var item posts.FeedItem
		var createdAt pgtype.Timestamptz
		err := rows.Scan(&item.ID, &item.UserID, &item.Caption, &item.Location, &createdAt,
			&item.PhotoIDs, &item.LikeCount, &item.CommentCount,
			&item.Author.ID, &item.Author.Username, &item.Author.ProfilePhotoID,
			&item.IsFollowing)
		if err != nil {
			return nil, 0, fmt.Errorf("scan feed item: %w", err)
		}
		item.CreatedAt = createdAt.Time
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list feed: %w", err)
	}
	return items, total, nil
}

func (r *PostRepository) Like(ctx context.Context, userID, postID int64) error {
	if err := r.ensureExists(ctx, postID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO post_likes (user_id, post_id)
VALUES ($1, $2)
ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *PostRepository) Unlike(ctx context.Context, userID, postID int64) error {
	if err := r.ensureExists(ctx, postID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM post_likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (r *PostRepository) Likers(ctx context.Context, postID int64, offset, limit int) ([]users.Summary, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count likers: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT u.id, u.username, u.profile_photo_id
  FROM post_likes pl
  JOIN users u ON u.id = pl.user_id
 WHERE pl.post_id = $1
 ORDER BY pl.created_at DESC, u.id DESC
 LIMIT $2 OFFSET $3`,
		postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list likers: %w", err)
	}
	defer rows.Close()

	likers := []users.Summary{}
	for rows.Next() {
		var s users.Summary
		if err := rows.Scan(&s.ID, &s.Username, &s.ProfilePhotoID); err != nil {
			return nil, 0, fmt.Errorf("scan liker: %w", err)
		}
		likers = append(likers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list likers: %w", err)
	}
	return likers, total, nil
}

func (r *PostRepository) ensureExists(ctx context.Context, postID int64) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return posts.ErrNotFound
	}
	return nil
}
