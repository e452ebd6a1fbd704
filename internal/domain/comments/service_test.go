package comments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	Repository

	comments   map[int64]Comment
	postOwners map[int64]int64
	created    *Comment
	updated    *Comment
	deleted    []int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		comments:   map[int64]Comment{},
		postOwners: map[int64]int64{},
	}
}

func (s *stubRepo) Create(_ context.Context, userID, postID int64, body string) (Comment, error) {
	if _, ok := s.postOwners[postID]; !ok {
		return Comment{}, ErrPostNotFound
	}
	comment := Comment{ID: 1, UserID: userID, PostID: postID, Body: body}
	s.created = &comment
	return comment, nil
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return comment, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, body string) (Comment, error) {
	comment := s.comments[id]
	comment.Body = body
	s.updated = &comment
	return comment, nil
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

func TestCreateSanitizesBody(t *testing.T) {
	repo := newStubRepo()
	repo.postOwners[5] = 2
	svc := NewService(repo)

	comment, err := svc.Create(context.Background(), 3, 5, "<img src=x onerror=alert(1)>nice shot")
	require.NoError(t, err)
	require.Equal(t, "nice shot", comment.Body)
}

func TestCreateUnknownPost(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Create(context.Background(), 3, 99, "hello")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdateAuthorOnly(t *testing.T) {
	repo := newStubRepo()
	repo.comments[8] = Comment{ID: 8, UserID: 3, PostID: 5}
	svc := NewService(repo)

	_, err := svc.Update(context.Background(), 4, 8, "edit")
	require.ErrorIs(t, err, ErrForbidden)
	require.Nil(t, repo.updated)

	updated, err := svc.Update(context.Background(), 3, 8, "edit")
	require.NoError(t, err)
	require.Equal(t, "edit", updated.Body)
}

func TestDeleteAuthorOrPostOwner(t *testing.T) {
	repo := newStubRepo()
	repo.comments[8] = Comment{ID: 8, UserID: 3, PostID: 5}
	repo.postOwners[5] = 2
	svc := NewService(repo)

	require.ErrorIs(t, svc.Delete(context.Background(), 9, 8), ErrForbidden)
	require.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), 3, 8), "comment author")
	require.NoError(t, svc.Delete(context.Background(), 2, 8), "post owner")
	require.Equal(t, []int64{8, 8}, repo.deleted)
}

func TestDeleteUnknownComment(t *testing.T) {
	svc := NewService(newStubRepo())

	require.ErrorIs(t, svc.Delete(context.Background(), 3, 99), ErrNotFound)
}
