package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mingle-social/server/internal/sanitize"
)

// BcryptCost is the cost factor for bcrypt password hashing.
const BcryptCost = 12

// Profile is a user as seen by a requester: the account, its activity
// counts, and whether the requester follows it.
type Profile struct {
	User        User
	Counts      Counts
	IsFollowing bool
}

type RegisterParams struct {
	FirstName   string
	LastName    string
	Email       string
	Username    string
	Password    string
	DateOfBirth time.Time
}

type ProfileUpdateParams struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Username    *string
	Password    *string
	DateOfBirth *time.Time
	Bio         *string
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, CreateParams{
		FirstName:    sanitize.Text(params.FirstName),
		LastName:     sanitize.Text(params.LastName),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: string(hash),
		DateOfBirth:  params.DateOfBirth,
	})
}

// Login verifies the credentials and returns the account. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID int64) (User, error) {
	return s.repo.GetByID(ctx, userID)
}

// Me returns the requester's own profile. IsFollowing is always false
// for a self view.
func (s *Service) Me(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	counts, err := s.repo.Counts(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load counts: %w", err)
	}
	return Profile{User: user, Counts: counts}, nil
}

// ProfileByUsername returns a public profile. requesterID zero means the
// request is anonymous and IsFollowing stays false.
func (s *Service) ProfileByUsername(ctx context.Context, username string, requesterID int64) (Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	counts, err := s.repo.Counts(ctx, user.ID)
	if err != nil {
		return Profile{}, fmt.Errorf("load counts: %w", err)
	}

	following := false
	if requesterID != 0 && requesterID != user.ID {
		following, err = s.repo.IsFollowing(ctx, requesterID, user.ID)
		if err != nil {
			return Profile{}, fmt.Errorf("check follow edge: %w", err)
		}
	}
	return Profile{User: user, Counts: counts, IsFollowing: following}, nil
}

func (s *Service) Update(ctx context.Context, userID int64, params ProfileUpdateParams) (User, error) {
	update := UpdateParams{
		FirstName:   sanitize.TextPtr(params.FirstName),
		LastName:    sanitize.TextPtr(params.LastName),
		Email:       params.Email,
		Username:    params.Username,
		DateOfBirth: params.DateOfBirth,
		Bio:         sanitize.TextPtr(params.Bio),
	}

	if params.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), BcryptCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		hashed := string(hash)
		update.PasswordHash = &hashed
	}

	return s.repo.Update(ctx, userID, update)
}

func (s *Service) Delete(ctx context.Context, userID int64) error {
	return s.repo.Delete(ctx, userID)
}

func (s *Service) Follow(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	return s.repo.Follow(ctx, followerID, followedID)
}

// Unfollow is idempotent: removing an edge that does not exist, the
// self edge included, is a no-op success.
func (s *Service) Unfollow(ctx context.Context, followerID, followedID int64) error {
	return s.repo.Unfollow(ctx, followerID, followedID)
}

func (s *Service) Followers(ctx context.Context, userID int64, offset, limit int) ([]Summary, int64, error) {
	return s.repo.Followers(ctx, userID, offset, limit)
}

func (s *Service) Following(ctx context.Context, userID int64, offset, limit int) ([]Summary, int64, error) {
	return s.repo.Following(ctx, userID, offset, limit)
}

func (s *Service) Search(ctx context.Context, query string, offset, limit int) ([]Summary, int64, error) {
	return s.repo.Search(ctx, query, offset, limit)
}

func (s *Service) SetAvatar(ctx context.Context, userID int64, upload AvatarUpload) (int64, error) {
	return s.repo.SetAvatar(ctx, userID, upload)
}

func (s *Service) ClearAvatar(ctx context.Context, userID int64) error {
	return s.repo.ClearAvatar(ctx, userID)
}
