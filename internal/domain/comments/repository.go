package comments

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("comment not found")
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("not allowed to modify this comment")
)

type Comment struct {
	ID        int64
	UserID    int64
	PostID    int64
	Body      string
	CreatedAt time.Time
}

type Repository interface {
	// Create returns ErrPostNotFound when the post does not exist.
	Create(ctx context.Context, userID, postID int64, body string) (Comment, error)
	GetByID(ctx context.Context, id int64) (Comment, error)
	Update(ctx context.Context, id int64, body string) (Comment, error)
	Delete(ctx context.Context, id int64) error

	// ByPost lists comments oldest first, id ascending on ties.
	ByPost(ctx context.Context, postID int64, offset, limit int) ([]Comment, int64, error)
	// PostOwner returns the author of a post, for delete authorization.
	PostOwner(ctx context.Context, postID int64) (int64, error)
}
