package comments

import (
	"context"
	"fmt"

	"github.com/mingle-social/server/internal/authz"
	"github.com/mingle-social/server/internal/sanitize"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID, postID int64, body string) (Comment, error) {
	return s.repo.Create(ctx, userID, postID, sanitize.Text(body))
}

func (s *Service) Get(ctx context.Context, id int64) (Comment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies an edit. Only the comment author may edit.
func (s *Service) Update(ctx context.Context, requesterID, commentID int64, body string) (Comment, error) {
	comment, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return Comment{}, err
	}
	if !authz.CanEditComment(requesterID, comment.UserID) {
		return Comment{}, ErrForbidden
	}
	return s.repo.Update(ctx, commentID, sanitize.Text(body))
}

// Delete allows the comment author or the owner of the commented post.
func (s *Service) Delete(ctx context.Context, requesterID, commentID int64) error {
	comment, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	postOwner, err := s.repo.PostOwner(ctx, comment.PostID)
	if err != nil {
		return fmt.Errorf("lookup post owner: %w", err)
	}
	if !authz.CanDeleteComment(requesterID, comment.UserID, postOwner) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, commentID)
}

func (s *Service) ByPost(ctx context.Context, postID int64, offset, limit int) ([]Comment, int64, error) {
	return s.repo.ByPost(ctx, postID, offset, limit)
}
