package photos

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("photo not found")
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("not the photo owner")
	ErrEmptyUpload  = errors.New("no file provided")
)

type Photo struct {
	ID          int64
	UserID      int64
	PostID      *int64
	Filename    string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

type CreateParams struct {
	UserID      int64
	PostID      *int64
	Filename    string
	ContentType string
	Data        []byte
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (Photo, error)
	// GetByID returns the photo including its binary data.
	GetByID(ctx context.Context, id int64) (Photo, error)
	Delete(ctx context.Context, id int64) error
	// PostOwner returns the author of a post, for upload linkage checks.
	PostOwner(ctx context.Context, postID int64) (int64, error)
}
