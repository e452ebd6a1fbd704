package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mingle-social/server/internal/domain/posts"
	"github.com/mingle-social/server/internal/domain/users"
)

func newPostHandler(repo *stubPostRepo) *PostHandler {
	return NewPostHandler(posts.NewService(repo))
}

func TestCreatePostJSON(t *testing.T) {
	repo := newStubPostRepo()
	handler := newPostHandler(repo)

	req := asUser(jsonRequest(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"caption": "sunset", "location": "pier 39",
	}), 4)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body postPayload
	decodeBody(t, rec, &body)
	require.Equal(t, "sunset", body.Caption)
	require.Equal(t, int64(4), body.UserID)
	require.NotNil(t, body.PhotoIDs)

	require.Equal(t, int64(4), repo.createdWith.UserID)
}

func TestCreatePostMissingCaption(t *testing.T) {
	handler := newPostHandler(newStubPostRepo())

	req := asUser(jsonRequest(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"location": "pier 39",
	}), 4)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "caption")
}

func TestCreatePostMultipart(t *testing.T) {
	repo := newStubPostRepo()
	handler := newPostHandler(repo)

	req := multipartRequest(t, "/api/v1/posts",
		map[string]string{"caption": "beach day", "photo_ids": "12"},
		"files", "a.jpg", []byte{0xff, 0xd8})
	rec := httptest.NewRecorder()
	handler.Create(rec, asUser(req, 4))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []int64{12}, repo.createdWith.PhotoIDs)
	require.Len(t, repo.createdWith.Attachments, 1)
	require.Equal(t, "a.jpg", repo.createdWith.Attachments[0].Filename)
}

func TestCreatePostMultipartBadPhotoID(t *testing.T) {
	handler := newPostHandler(newStubPostRepo())

	req := multipartRequest(t, "/api/v1/posts",
		map[string]string{"caption": "beach day", "photo_ids": "twelve"}, "", "", nil)
	rec := httptest.NewRecorder()
	handler.Create(rec, asUser(req, 4))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid photo id")
}

func TestSearchRequiresQueryParams(t *testing.T) {
	handler := newPostHandler(newStubPostRepo())

	rec := httptest.NewRecorder()
	handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/search", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchPerPageClamped(t *testing.T) {
	handler := newPostHandler(newStubPostRepo())

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/posts/search?query_params=sun&per_page=500", nil)
	rec := httptest.NewRecorder()
	handler.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		PerPage int `json:"per_page"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, perPagePostSearchMax, body.PerPage)
}

func TestUpdatePostForbidden(t *testing.T) {
	repo := newStubPostRepo()
	repo.byID[8] = posts.Post{ID: 8, UserID: 1}
	handler := newPostHandler(repo)

	req := asUser(jsonRequest(t, http.MethodPut, "/api/v1/posts/8", map[string]any{
		"caption": "mine now",
	}), 2)
	req.SetPathValue("id", "8")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetPostNotFound(t *testing.T) {
	handler := newPostHandler(newStubPostRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/404", nil)
	req.SetPathValue("id", "404")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Post not found")
}

func TestFeedCarriesAuthor(t *testing.T) {
	repo := newStubPostRepo()
	repo.feed = []posts.FeedItem{{
		Post:        posts.Post{ID: 1, UserID: 2, Caption: "hi", PhotoIDs: []int64{}},
		Author:      users.Summary{ID: 2, Username: "grace"},
		IsFollowing: true,
	}}
	handler := newPostHandler(repo)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/posts/feed", nil), 9)
	rec := httptest.NewRecorder()
	handler.Feed(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []feedItemPayload `json:"items"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Items, 1)
	require.Equal(t, "grace", body.Items[0].Author.Username)
	require.True(t, body.Items[0].IsFollowing)
}

func TestLikersRequiresExistingPost(t *testing.T) {
	repo := newStubPostRepo()
	repo.byID[3] = posts.Post{ID: 3, UserID: 1}
	repo.likers = []users.Summary{{ID: 5, Username: "mia"}}
	handler := newPostHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/3/likes", nil)
	req.SetPathValue("id", "3")
	rec := httptest.NewRecorder()
	handler.Likers(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/posts/99/likes", nil)
	req.SetPathValue("id", strconv.Itoa(99))
	rec = httptest.NewRecorder()
	handler.Likers(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
