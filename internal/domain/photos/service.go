package photos

import (
	"context"
	"errors"
	"fmt"

	"github.com/mingle-social/server/internal/authz"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upload stores a standalone photo. When params.PostID is set the post
// must exist and belong to the uploader.
func (s *Service) Upload(ctx context.Context, params CreateParams) (Photo, error) {
	if len(params.Data) == 0 {
		return Photo{}, ErrEmptyUpload
	}

	if params.PostID != nil {
		owner, err := s.repo.PostOwner(ctx, *params.PostID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				return Photo{}, ErrPostNotFound
			}
			return Photo{}, fmt.Errorf("lookup post owner: %w", err)
		}
		if !authz.IsOwner(params.UserID, owner) {
			return Photo{}, ErrForbidden
		}
	}

	return s.repo.Create(ctx, params)
}

func (s *Service) Get(ctx context.Context, id int64) (Photo, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a photo. Only the uploader may delete.
func (s *Service) Delete(ctx context.Context, requesterID, photoID int64) error {
	photo, err := s.repo.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if !authz.IsOwner(requesterID, photo.UserID) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, photoID)
}
