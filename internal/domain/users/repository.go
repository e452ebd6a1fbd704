package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSelfFollow         = errors.New("cannot follow yourself")
	ErrNoAvatar           = errors.New("no profile photo set")
)

type User struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	Username       string
	PasswordHash   string
	DateOfBirth    time.Time
	Bio            *string
	ProfilePhotoID *int64
	CreatedAt      time.Time
}

// Counts aggregates a profile's activity numbers.
type Counts struct {
	Posts     int64
	Events    int64
	Followers int64
	Following int64
}

// Summary is the compact user shape embedded in listings.
type Summary struct {
	ID             int64
	Username       string
	ProfilePhotoID *int64
}

type CreateParams struct {
	FirstName    string
	LastName     string
	Email        string
	Username     string
	PasswordHash string
	DateOfBirth  time.Time
}

type UpdateParams struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Username     *string
	PasswordHash *string
	DateOfBirth  *time.Time
	Bio          *string
}

type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (User, error)

	// Delete removes the user and everything they own in one transaction:
	// likes, RSVPs, comments on their posts, their comments, posts, photos,
	// follow edges, hosted events (with other users' RSVPs and host rows),
	// then the account row.
	Delete(ctx context.Context, id int64) error

	Counts(ctx context.Context, id int64) (Counts, error)

	Follow(ctx context.Context, followerID, followedID int64) error
	Unfollow(ctx context.Context, followerID, followedID int64) error
	IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error)
	Followers(ctx context.Context, userID int64, offset, limit int) ([]Summary, int64, error)
	Following(ctx context.Context, userID int64, offset, limit int) ([]Summary, int64, error)

	Search(ctx context.Context, query string, offset, limit int) ([]Summary, int64, error)

	// SetAvatar stores the photo, points profile_photo_id at it, and deletes
	// the previous avatar photo when the user owned it, all in one
	// transaction. Returns the new photo id.
	SetAvatar(ctx context.Context, userID int64, upload AvatarUpload) (int64, error)
	// ClearAvatar unsets profile_photo_id and deletes the photo row when the
	// user owned it. Returns ErrNoAvatar when nothing is set.
	ClearAvatar(ctx context.Context, userID int64) error
}
