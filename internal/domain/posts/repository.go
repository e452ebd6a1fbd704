package posts

import (
	"context"
	"errors"
	"time"

	"github.com/mingle-social/server/internal/domain/users"
)

var (
	ErrNotFound      = errors.New("post not found")
	ErrForbidden     = errors.New("not the post owner")
	ErrPhotoNotFound = errors.New("photo not found")
)

type Post struct {
	ID           int64
	UserID       int64
	Caption      string
	Location     *string
	CreatedAt    time.Time
	PhotoIDs     []int64
	LikeCount    int64
	CommentCount int64
}

// FeedItem decorates a post with its author and the requester's follow
// state toward that author.
type FeedItem struct {
	Post
	Author      users.Summary
	IsFollowing bool
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateParams struct {
	UserID   int64
	Caption  string
	Location *string
	// PhotoIDs claims photos uploaded ahead of the post. An unknown id
	// fails the whole creation with ErrPhotoNotFound.
	PhotoIDs    []int64
	Attachments []Attachment
}

type UpdateParams struct {
	Caption  *string
	Location *string
}

type Repository interface {
	// Create inserts the post, claims PhotoIDs, and stores Attachments in
	// one transaction.
	Create(ctx context.Context, params CreateParams) (Post, error)
	GetByID(ctx context.Context, id int64) (Post, error)
	Update(ctx context.Context, id int64, params UpdateParams) (Post, error)
	// Delete removes likes, comments, photos, and the post in one
	// transaction.
	Delete(ctx context.Context, id int64) error

	Search(ctx context.Context, query string, offset, limit int) ([]Post, int64, error)
	// Feed lists posts by userID and everyone they follow, newest first.
	Feed(ctx context.Context, userID int64, offset, limit int) ([]FeedItem, int64, error)
	ByUser(ctx context.Context, userID int64, offset, limit int) ([]Post, int64, error)

	Like(ctx context.Context, userID, postID int64) error
	Unlike(ctx context.Context, userID, postID int64) error
	// Likers lists users who liked the post, most recent like first.
	Likers(ctx context.Context, postID int64, offset, limit int) ([]users.Summary, int64, error)
}
