package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/api/pagination"
	"github.com/mingle-social/server/internal/auth"
	"github.com/mingle-social/server/internal/domain/photos"
	"github.com/mingle-social/server/internal/domain/users"
)

const (
	perPageFollowLists = 30
	perPageUserSearch  = 30

	dateLayout = "2006-01-02"
)

type UserHandler struct {
	users  *users.Service
	photos *photos.Service
	tokens *auth.JWTManager
}

func NewUserHandler(usersSvc *users.Service, photosSvc *photos.Service, tokens *auth.JWTManager) *UserHandler {
	return &UserHandler{users: usersSvc, photos: photosSvc, tokens: tokens}
}

type userPayload struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	DateOfBirth    string    `json:"date_of_birth"`
	Bio            *string   `json:"bio"`
	ProfilePhotoID *int64    `json:"profile_photo_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type profilePayload struct {
	userPayload
	PostCount      int64 `json:"post_count"`
	EventCount     int64 `json:"event_count"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
}

type summaryPayload struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	ProfilePhotoID *int64 `json:"profile_photo_id"`
}

func toUserPayload(user users.User) userPayload {
	return userPayload{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Username:       user.Username,
		DateOfBirth:    user.DateOfBirth.Format(dateLayout),
		Bio:            user.Bio,
		ProfilePhotoID: user.ProfilePhotoID,
		CreatedAt:      user.CreatedAt,
	}
}

func toProfilePayload(profile users.Profile) profilePayload {
	return profilePayload{
		userPayload:    toUserPayload(profile.User),
		PostCount:      profile.Counts.Posts,
		EventCount:     profile.Counts.Events,
		FollowerCount:  profile.Counts.Followers,
		FollowingCount: profile.Counts.Following,
		IsFollowing:    profile.IsFollowing,
	}
}

func toSummaryPayloads(summaries []users.Summary) []summaryPayload {
	out := make([]summaryPayload, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryPayload{ID: s.ID, Username: s.Username, ProfilePhotoID: s.ProfilePhotoID})
	}
	return out
}

type registerRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		apierr.WriteFields(w, r, http.StatusBadRequest,
			map[string]string{"date_of_birth": "Must be a YYYY-MM-DD date"})
		return
	}

	user, err := h.users.Register(r.Context(), users.RegisterParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DateOfBirth: dob,
	})
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toUserPayload(user))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		apierr.Internal(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Welcome %s %s", user.FirstName, user.LastName),
		"token":   token,
		"id":      user.ID,
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Me(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProfilePayload(profile))
}

type updateUserRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,max=50"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Username    *string `json:"username" validate:"omitempty,min=3,max=30"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
	DateOfBirth *string `json:"date_of_birth"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}

	params := users.ProfileUpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Bio:       req.Bio,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *req.DateOfBirth)
		if err != nil {
			apierr.WriteFields(w, r, http.StatusBadRequest,
				map[string]string{"date_of_birth": "Must be a YYYY-MM-DD date"})
			return
		}
		params.DateOfBirth = &dob
	}

	user, err := h.users.Update(r.Context(), middleware.UserID(r.Context()), params)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toUserPayload(user))
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), middleware.UserID(r.Context())); err != nil {
		writeUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ByUsername(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	profile, err := h.users.ProfileByUsername(r.Context(), username, middleware.UserID(r.Context()))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProfilePayload(profile))
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		apierr.Write(w, r, http.StatusBadRequest, "Missing search query", nil)
		return
	}
	params := pagination.ParsePage(r.URL.Query(), perPageUserSearch)
	results, total, err := h.users.Search(r.Context(), query, params.Offset(), params.PerPage)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toSummaryPayloads(results), params, total))
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	h.toggleFollow(w, r, h.users.Follow)
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	h.toggleFollow(w, r, h.users.Unfollow)
}

func (h *UserHandler) toggleFollow(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, followerID, followedID int64) error) {
	targetID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := op(r.Context(), middleware.UserID(r.Context()), targetID); err != nil {
		writeUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, h.users.Followers)
}

func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, h.users.Following)
}

func (h *UserHandler) followList(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, userID int64, offset, limit int) ([]users.Summary, int64, error)) {
	userID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	params := pagination.ParsePage(r.URL.Query(), perPageFollowLists)
	results, total, err := list(r.Context(), userID, params.Offset(), params.PerPage)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toSummaryPayloads(results), params, total))
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	part, ok := readUpload(w, r, "photo")
	if !ok {
		return
	}
	if len(part.Data) == 0 {
		apierr.Write(w, r, http.StatusBadRequest, "Empty file upload", nil)
		return
	}

	photoID, err := h.users.SetAvatar(r.Context(), middleware.UserID(r.Context()), users.AvatarUpload{
		Filename:    part.Filename,
		ContentType: part.ContentType,
		Data:        part.Data,
	})
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]int64{"photo_id": photoID})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.users.ClearAvatar(r.Context(), middleware.UserID(r.Context())); err != nil {
		writeUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Avatar streams the raw profile photo bytes for a user.
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	if user.ProfilePhotoID == nil {
		apierr.Write(w, r, http.StatusNotFound, "User has no profile photo", nil)
		return
	}
	photo, err := h.photos.Get(r.Context(), *user.ProfilePhotoID)
	if err != nil {
		writePhotoError(w, r, err)
		return
	}
	servePhotoBytes(w, photo)
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		apierr.Write(w, r, http.StatusNotFound, "User not found", err)
	case errors.Is(err, users.ErrEmailTaken):
		apierr.Write(w, r, http.StatusConflict, "Email is already taken", err)
	case errors.Is(err, users.ErrUsernameTaken):
		apierr.Write(w, r, http.StatusConflict, "Username is already taken", err)
	case errors.Is(err, users.ErrInvalidCredentials):
		apierr.Write(w, r, http.StatusForbidden, "Invalid email or password", err)
	case errors.Is(err, users.ErrSelfFollow):
		apierr.Write(w, r, http.StatusBadRequest, "Cannot follow yourself", err)
	case errors.Is(err, users.ErrNoAvatar):
		apierr.Write(w, r, http.StatusBadRequest, "No profile photo set", err)
	default:
		apierr.Internal(w, r, err)
	}
}
