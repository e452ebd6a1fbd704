package photos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	Repository

	photos     map[int64]Photo
	postOwners map[int64]int64
	created    *CreateParams
	deleted    []int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		photos:     map[int64]Photo{},
		postOwners: map[int64]int64{},
	}
}

func (s *stubRepo) Create(_ context.Context, params CreateParams) (Photo, error) {
	s.created = &params
	return Photo{ID: 1, UserID: params.UserID, PostID: params.PostID}, nil
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (Photo, error) {
	photo, ok := s.photos[id]
	if !ok {
		return Photo{}, ErrNotFound
	}
	return photo, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) PostOwner(_ context.Context, postID int64) (int64, error) {
	owner, ok := s.postOwners[postID]
	if !ok {
		return 0, ErrPostNotFound
	}
	return owner, nil
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Upload(context.Background(), CreateParams{UserID: 3, Filename: "a.jpg"})
	require.ErrorIs(t, err, ErrEmptyUpload)
}

func TestUploadStandalone(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	photo, err := svc.Upload(context.Background(), CreateParams{
		UserID:      3,
		Filename:    "a.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), photo.ID)
	require.Nil(t, repo.created.PostID)
}

func TestUploadLinkedToPost(t *testing.T) {
	repo := newStubRepo()
	repo.postOwners[5] = 3
	svc := NewService(repo)

	postID := int64(5)
	_, err := svc.Upload(context.Background(), CreateParams{
		UserID: 3, PostID: &postID, Filename: "a.jpg", Data: []byte{1},
	})
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), CreateParams{
		UserID: 4, PostID: &postID, Filename: "a.jpg", Data: []byte{1},
	})
	require.ErrorIs(t, err, ErrForbidden)

	missing := int64(99)
	_, err = svc.Upload(context.Background(), CreateParams{
		UserID: 3, PostID: &missing, Filename: "a.jpg", Data: []byte{1},
	})
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeleteOwnerOnly(t *testing.T) {
	repo := newStubRepo()
	repo.photos[7] = Photo{ID: 7, UserID: 3}
	svc := NewService(repo)

	require.ErrorIs(t, svc.Delete(context.Background(), 4, 7), ErrForbidden)
	require.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), 3, 7))
	require.Equal(t, []int64{7}, repo.deleted)

	require.ErrorIs(t, svc.Delete(context.Background(), 3, 99), ErrNotFound)
}
