package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/authz"
	"github.com/mingle-social/server/internal/domain/comments"
	"github.com/mingle-social/server/internal/domain/events"
	"github.com/mingle-social/server/internal/domain/photos"
	"github.com/mingle-social/server/internal/domain/posts"
	"github.com/mingle-social/server/internal/domain/users"
)

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(data))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// Repository stubs. Each embeds its interface so only the methods a test
// exercises need real bodies.

type stubUserRepo struct {
	users.Repository

	byID        map[int64]users.User
	byEmail     map[string]users.User
	byUsername  map[string]users.User
	counts      users.Counts
	summaries   []users.Summary
	followErr   error
	avatarID    int64
	createdWith *users.CreateParams
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:       map[int64]users.User{},
		byEmail:    map[string]users.User{},
		byUsername: map[string]users.User{},
	}
}

func (s *stubUserRepo) add(u users.User) {
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u
	s.byUsername[u.Username] = u
}

func (s *stubUserRepo) Create(_ context.Context, params users.CreateParams) (users.User, error) {
	s.createdWith = &params
	return users.User{
		ID: 1, FirstName: params.FirstName, LastName: params.LastName,
		Email: params.Email, Username: params.Username, DateOfBirth: params.DateOfBirth,
	}, nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id int64) (users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (users.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) GetByUsername(_ context.Context, username string) (users.User, error) {
	u, ok := s.byUsername[username]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) Counts(_ context.Context, _ int64) (users.Counts, error) {
	return s.counts, nil
}

func (s *stubUserRepo) IsFollowing(_ context.Context, _, _ int64) (bool, error) {
	return false, nil
}

func (s *stubUserRepo) Follow(_ context.Context, _, _ int64) error {
	return s.followErr
}

func (s *stubUserRepo) Followers(_ context.Context, _ int64, _, _ int) ([]users.Summary, int64, error) {
	return s.summaries, int64(len(s.summaries)), nil
}

func (s *stubUserRepo) Search(_ context.Context, _ string, _, _ int) ([]users.Summary, int64, error) {
	return s.summaries, int64(len(s.summaries)), nil
}

func (s *stubUserRepo) SetAvatar(_ context.Context, _ int64, _ users.AvatarUpload) (int64, error) {
	return s.avatarID, nil
}

type stubPostRepo struct {
	posts.Repository

	byID        map[int64]posts.Post
	list        []posts.Post
	feed        []posts.FeedItem
	likers      []users.Summary
	createdWith *posts.CreateParams
	updatedWith *posts.UpdateParams
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{byID: map[int64]posts.Post{}}
}

func (s *stubPostRepo) Create(_ context.Context, params posts.CreateParams) (posts.Post, error) {
	s.createdWith = &params
	return posts.Post{ID: 1, UserID: params.UserID, Caption: params.Caption, Location: params.Location, PhotoIDs: []int64{}}, nil
}

func (s *stubPostRepo) GetByID(_ context.Context, id int64) (posts.Post, error) {
	p, ok := s.byID[id]
	if !ok {
		return posts.Post{}, posts.ErrNotFound
	}
	return p, nil
}

func (s *stubPostRepo) Update(_ context.Context, id int64, params posts.UpdateParams) (posts.Post, error) {
	s.updatedWith = &params
	return s.byID[id], nil
}

func (s *stubPostRepo) Search(_ context.Context, _ string, _, _ int) ([]posts.Post, int64, error) {
	return s.list, int64(len(s.list)), nil
}

func (s *stubPostRepo) Feed(_ context.Context, _ int64, _, _ int) ([]posts.FeedItem, int64, error) {
	return s.feed, int64(len(s.feed)), nil
}

func (s *stubPostRepo) Likers(_ context.Context, _ int64, _, _ int) ([]users.Summary, int64, error) {
	return s.likers, int64(len(s.likers)), nil
}

type stubCommentRepo struct {
	comments.Repository

	byID      map[int64]comments.Comment
	postOwner map[int64]int64
	createErr error
	deleted   []int64
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{byID: map[int64]comments.Comment{}, postOwner: map[int64]int64{}}
}

func (s *stubCommentRepo) Create(_ context.Context, userID, postID int64, body string) (comments.Comment, error) {
	if s.createErr != nil {
		return comments.Comment{}, s.createErr
	}
	return comments.Comment{ID: 1, UserID: userID, PostID: postID, Body: body}, nil
}

func (s *stubCommentRepo) GetByID(_ context.Context, id int64) (comments.Comment, error) {
	c, ok := s.byID[id]
	if !ok {
		return comments.Comment{}, comments.ErrNotFound
	}
	return c, nil
}

func (s *stubCommentRepo) Update(_ context.Context, id int64, body string) (comments.Comment, error) {
	c := s.byID[id]
	c.Body = body
	return c, nil
}

func (s *stubCommentRepo) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCommentRepo) PostOwner(_ context.Context, postID int64) (int64, error) {
	owner, ok := s.postOwner[postID]
	if !ok {
		return 0, comments.ErrPostNotFound
	}
	return owner, nil
}

type stubEventRepo struct {
	events.Repository

	byID        map[int64]events.Event
	hosts       map[int64]authz.HostSet
	list        []events.Event
	createdWith *events.CreateParams
	coverID     int64
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{byID: map[int64]events.Event{}, hosts: map[int64]authz.HostSet{}}
}

func (s *stubEventRepo) Create(_ context.Context, params events.CreateParams, ownerID int64) (events.Event, error) {
	s.createdWith = &params
	return events.Event{ID: 1, Title: params.Title, StartTime: params.StartTime,
		Hosts: []events.Host{{UserID: ownerID, Role: "owner"}}, AttendeeIDs: []int64{}}, nil
}

func (s *stubEventRepo) GetByID(_ context.Context, id int64) (events.Event, error) {
	e, ok := s.byID[id]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return e, nil
}

func (s *stubEventRepo) Hosts(_ context.Context, eventID int64) (authz.HostSet, error) {
	return s.hosts[eventID], nil
}

func (s *stubEventRepo) Search(_ context.Context, _ events.SearchFilters, _, _ int) ([]events.Event, int64, error) {
	return s.list, int64(len(s.list)), nil
}

func (s *stubEventRepo) Hosting(_ context.Context, _ int64, _ events.TimeRange, _, _ int) ([]events.Event, int64, error) {
	return s.list, int64(len(s.list)), nil
}

func (s *stubEventRepo) SetCover(_ context.Context, _, _ int64, _ events.CoverUpload) (int64, error) {
	return s.coverID, nil
}

type stubPhotoRepo struct {
	photos.Repository

	byID      map[int64]photos.Photo
	postOwner map[int64]int64
	deleted   []int64
}

func newStubPhotoRepo() *stubPhotoRepo {
	return &stubPhotoRepo{byID: map[int64]photos.Photo{}, postOwner: map[int64]int64{}}
}

func (s *stubPhotoRepo) Create(_ context.Context, params photos.CreateParams) (photos.Photo, error) {
	return photos.Photo{ID: 1, UserID: params.UserID, PostID: params.PostID,
		Filename: params.Filename, ContentType: params.ContentType, Data: params.Data}, nil
}

func (s *stubPhotoRepo) GetByID(_ context.Context, id int64) (photos.Photo, error) {
	p, ok := s.byID[id]
	if !ok {
		return photos.Photo{}, photos.ErrNotFound
	}
	return p, nil
}

func (s *stubPhotoRepo) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubPhotoRepo) PostOwner(_ context.Context, postID int64) (int64, error) {
	owner, ok := s.postOwner[postID]
	if !ok {
		return 0, photos.ErrPostNotFound
	}
	return owner, nil
}
