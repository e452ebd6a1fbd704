package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mingle-social/server/internal/auth"
	"github.com/mingle-social/server/internal/domain/photos"
	"github.com/mingle-social/server/internal/domain/users"
)

func newUserHandler(repo *stubUserRepo) *UserHandler {
	tokens := auth.NewJWTManager("test-secret", 20*time.Minute, "mingle")
	return NewUserHandler(users.NewService(repo), photos.NewService(newStubPhotoRepo()), tokens)
}

func TestRegisterValidationFieldMap(t *testing.T) {
	handler := newUserHandler(newStubUserRepo())

	req := jsonRequest(t, http.MethodPost, "/api/v1/users", map[string]any{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email":         "not-an-email",
		"username":      "al",
		"password":      "short",
		"date_of_birth": "1990-01-01",
	})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Message map[string]string `json:"message"`
	}
	decodeBody(t, rec, &body)
	require.Contains(t, body.Message, "email")
	require.Contains(t, body.Message, "username")
	require.Contains(t, body.Message, "password")
	require.NotContains(t, body.Message, "first_name")
}

func TestRegisterCreated(t *testing.T) {
	repo := newStubUserRepo()
	handler := newUserHandler(repo)

	req := jsonRequest(t, http.MethodPost, "/api/v1/users", map[string]any{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email":         "ada@example.com",
		"username":      "ada",
		"password":      "s3cret-pass",
		"date_of_birth": "1990-01-01",
	})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body userPayload
	decodeBody(t, rec, &body)
	require.Equal(t, "ada", body.Username)
	require.Equal(t, "1990-01-01", body.DateOfBirth)
	require.NotContains(t, rec.Body.String(), "password")

	require.NotNil(t, repo.createdWith)
	require.NotEqual(t, "s3cret-pass", repo.createdWith.PasswordHash, "password must be hashed")
}

func TestRegisterBadDate(t *testing.T) {
	handler := newUserHandler(newStubUserRepo())

	req := jsonRequest(t, http.MethodPost, "/api/v1/users", map[string]any{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"email":         "ada@example.com",
		"username":      "ada",
		"password":      "s3cret-pass",
		"date_of_birth": "01/01/1990",
	})
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "date_of_birth")
}

func TestLoginWelcomeShape(t *testing.T) {
	repo := newStubUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.add(users.User{ID: 7, FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Username: "ada", PasswordHash: string(hash)})
	handler := newUserHandler(repo)

	req := jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]any{
		"email": "ada@example.com", "password": "s3cret-pass",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		ID      int64  `json:"id"`
	}
	decodeBody(t, rec, &body)
	require.Equal(t, "Welcome Ada Lovelace", body.Message)
	require.NotEmpty(t, body.Token)
	require.Equal(t, int64(7), body.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.add(users.User{ID: 7, Email: "ada@example.com", PasswordHash: string(hash)})
	handler := newUserHandler(repo)

	req := jsonRequest(t, http.MethodPost, "/api/v1/users/login", map[string]any{
		"email": "ada@example.com", "password": "wrong-pass",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid email or password")
}

func TestFollowSelfRejected(t *testing.T) {
	handler := newUserHandler(newStubUserRepo())

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/users/5/follow", nil), 5)
	req.SetPathValue("id", "5")
	rec := httptest.NewRecorder()
	handler.Follow(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Cannot follow yourself")
}

func TestSearchRequiresQuery(t *testing.T) {
	handler := newUserHandler(newStubUserRepo())

	rec := httptest.NewRecorder()
	handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/search", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowersEnvelope(t *testing.T) {
	repo := newStubUserRepo()
	repo.summaries = []users.Summary{{ID: 2, Username: "grace"}, {ID: 3, Username: "mia"}}
	handler := newUserHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1/followers", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.Followers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items   []summaryPayload `json:"items"`
		Page    int              `json:"page"`
		PerPage int              `json:"per_page"`
		Total   int64            `json:"total"`
		Pages   int              `json:"pages"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Items, 2)
	require.Equal(t, 1, body.Page)
	require.Equal(t, perPageFollowLists, body.PerPage)
	require.Equal(t, int64(2), body.Total)
	require.Equal(t, 1, body.Pages)
}

func TestUploadAvatar(t *testing.T) {
	repo := newStubUserRepo()
	repo.avatarID = 42
	handler := newUserHandler(repo)

	req := asUser(multipartRequest(t, "/api/v1/users/me/avatar", nil, "photo", "me.png", []byte{0x89, 0x50}), 1)
	rec := httptest.NewRecorder()
	handler.UploadAvatar(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"photo_id":42}`, rec.Body.String())
}

func TestUploadAvatarMissingFile(t *testing.T) {
	handler := newUserHandler(newStubUserRepo())

	req := asUser(multipartRequest(t, "/api/v1/users/me/avatar", map[string]string{"note": "x"}, "", "", nil), 1)
	rec := httptest.NewRecorder()
	handler.UploadAvatar(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvatarStreamsBytes(t *testing.T) {
	userRepo := newStubUserRepo()
	photoID := int64(9)
	userRepo.add(users.User{ID: 3, Username: "ada", ProfilePhotoID: &photoID})

	photoRepo := newStubPhotoRepo()
	uploadedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	photoRepo.byID[photoID] = photos.Photo{
		ID: photoID, UserID: 3, ContentType: "image/png",
		Data: []byte{0x89, 0x50}, UploadedAt: uploadedAt,
	}

	tokens := auth.NewJWTManager("test-secret", 20*time.Minute, "mingle")
	handler := NewUserHandler(users.NewService(userRepo), photos.NewService(photoRepo), tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/3/avatar", nil)
	req.SetPathValue("id", "3")
	rec := httptest.NewRecorder()
	handler.Avatar(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, []byte{0x89, 0x50}, rec.Body.Bytes())
	require.NotEmpty(t, rec.Header().Get("Last-Modified"))
}
