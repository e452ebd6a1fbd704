package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mingle-social/server/internal/domain/photos"
)

var _ photos.Repository = (*PhotoRepository)(nil)

type PhotoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

func (r *PhotoRepository) Create(ctx context.Context, params photos.CreateParams) (photos.Photo, error) {
	var photo photos.Photo
	var uploadedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
INSERT INTO photos (user_id, post_id, filename, content_type, file_data)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, post_id, filename, content_type, uploaded_at`,
		params.UserID, params.PostID, params.Filename, params.ContentType, params.Data).
		Scan(&photo.ID, &photo.UserID, &photo.PostID, &photo.Filename,
			&photo.ContentType, &uploadedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return photos.Photo{}, photos.ErrPostNotFound
		}
		return photos.Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	photo.UploadedAt = uploadedAt.Time
	photo.Data = params.Data
	return photo, nil
}

func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (photos.Photo, error) {
	var photo photos.Photo
	var uploadedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, post_id, filename, content_type, file_data, uploaded_at
  FROM photos
 WHERE id = $1`, id).
		Scan(&photo.ID, &photo.UserID, &photo.PostID, &photo.Filename,
			&photo.ContentType, &photo.Data, &uploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return photos.Photo{}, photos.ErrNotFound
		}
		return photos.Photo{}, fmt.Errorf("get photo: %w", err)
	}
	photo.UploadedAt = uploadedAt.Time
	return photo, nil
}

// Delete clears any avatar or cover pointer at the photo before removing
// it, all in one transaction.
func (r *PhotoRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET profile_photo_id = NULL WHERE profile_photo_id = $1`, id); err != nil {
			return fmt.Errorf("unlink avatar: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE events SET cover_photo_id = NULL WHERE cover_photo_id = $1`, id); err != nil {
			return fmt.Errorf("unlink cover: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete photo: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return photos.ErrNotFound
		}
		return nil
	})
}

func (r *PhotoRepository) PostOwner(ctx context.Context, postID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx,
		`SELECT user_id FROM posts WHERE id = $1`, postID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, photos.ErrPostNotFound
		}
		return 0, fmt.Errorf("get post owner: %w", err)
	}
	return ownerID, nil
}
