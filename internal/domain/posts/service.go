package posts

import (
	"context"
	"errors"
	"fmt"

	"github.com/mingle-social/server/internal/authz"
	"github.com/mingle-social/server/internal/domain/users"
	"github.com/mingle-social/server/internal/sanitize"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Post, error) {
	params.Caption = sanitize.Text(params.Caption)
	params.Location = sanitize.TextPtr(params.Location)
	return s.repo.Create(ctx, params)
}

func (s *Service) Get(ctx context.Context, id int64) (Post, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial edit. Only the post owner may edit.
func (s *Service) Update(ctx context.Context, requesterID, postID int64, params UpdateParams) (Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if !authz.IsOwner(requesterID, post.UserID) {
		return Post{}, ErrForbidden
	}

	params.Caption = sanitize.TextPtr(params.Caption)
	params.Location = sanitize.TextPtr(params.Location)
	return s.repo.Update(ctx, postID, params)
}

func (s *Service) Delete(ctx context.Context, requesterID, postID int64) error {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !authz.IsOwner(requesterID, post.UserID) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}
	return nil
}

func (s *Service) Search(ctx context.Context, query string, offset, limit int) ([]Post, int64, error) {
	return s.repo.Search(ctx, query, offset, limit)
}

func (s *Service) Feed(ctx context.Context, userID int64, offset, limit int) ([]FeedItem, int64, error) {
	return s.repo.Feed(ctx, userID, offset, limit)
}

func (s *Service) ByUser(ctx context.Context, userID int64, offset, limit int) ([]Post, int64, error) {
	return s.repo.ByUser(ctx, userID, offset, limit)
}

// Like is idempotent: liking an already-liked post succeeds silently.
func (s *Service) Like(ctx context.Context, userID, postID int64) error {
	return s.repo.Like(ctx, userID, postID)
}

// Unlike is idempotent: removing an absent like succeeds silently.
func (s *Service) Unlike(ctx context.Context, userID, postID int64) error {
	return s.repo.Unlike(ctx, userID, postID)
}

func (s *Service) Likers(ctx context.Context, postID int64, offset, limit int) ([]users.Summary, int64, error) {
	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	return s.repo.Likers(ctx, postID, offset, limit)
}
