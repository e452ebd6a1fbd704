package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/api/pagination"
	"github.com/mingle-social/server/internal/domain/posts"
)

const (
	perPagePostSearch    = 20
	perPagePostSearchMax = 40
	perPageFeed          = 10
	perPagePostsByUser   = 15
	perPageLikers        = 40
)

type PostHandler struct {
	posts *posts.Service
}

func NewPostHandler(postsSvc *posts.Service) *PostHandler {
	return &PostHandler{posts: postsSvc}
}

type postPayload struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Caption      string    `json:"caption"`
	Location     *string   `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	PhotoIDs     []int64   `json:"photo_ids"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
}

type feedItemPayload struct {
	postPayload
	Author      summaryPayload `json:"author"`
	IsFollowing bool           `json:"is_following"`
}

func toPostPayload(post posts.Post) postPayload {
	photoIDs := post.PhotoIDs
	if photoIDs == nil {
		photoIDs = []int64{}
	}
	return postPayload{
		ID:           post.ID,
		UserID:       post.UserID,
		Caption:      post.Caption,
		Location:     post.Location,
		CreatedAt:    post.CreatedAt,
		PhotoIDs:     photoIDs,
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
	}
}

func toPostPayloads(list []posts.Post) []postPayload {
	out := make([]postPayload, 0, len(list))
	for _, post := range list {
		out = append(out, toPostPayload(post))
	}
	return out
}

type createPostRequest struct {
	Caption  string  `json:"caption" validate:"required,max=2000"`
	Location *string `json:"location" validate:"omitempty,max=100"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	params := posts.CreateParams{UserID: middleware.UserID(r.Context())}

	if isMultipart(r) {
		if !h.parseMultipartCreate(w, r, &params) {
			return
		}
	} else {
		var req createPostRequest
		if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
			return
		}
		params.Caption = req.Caption
		params.Location = req.Location
	}

	post, err := h.posts.Create(r.Context(), params)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toPostPayload(post))
}

func (h *PostHandler) parseMultipartCreate(w http.ResponseWriter, r *http.Request, params *posts.CreateParams) bool {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return false
	}

	params.Caption = r.FormValue("caption")
	if params.Caption == "" {
		apierr.WriteFields(w, r, http.StatusBadRequest,
			map[string]string{"caption": "This field is required"})
		return false
	}
	if location := r.FormValue("location"); location != "" {
		params.Location = &location
	}

	for _, raw := range r.MultipartForm.Value["photo_ids"] {
		photoID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || photoID <= 0 {
			apierr.Write(w, r, http.StatusBadRequest, "Invalid photo id", err)
			return false
		}
		params.PhotoIDs = append(params.PhotoIDs, photoID)
	}

	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			apierr.Write(w, r, http.StatusBadRequest, "Unreadable file upload", err)
			return false
		}
		part, err := readPart(file, header)
		file.Close()
		if err != nil {
			apierr.Write(w, r, http.StatusBadRequest, "Unreadable file upload", err)
			return false
		}
		params.Attachments = append(params.Attachments, posts.Attachment{
			Filename:    part.Filename,
			ContentType: part.ContentType,
			Data:        part.Data,
		})
	}
	return true
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(r.Context(), postID)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPostPayload(post))
}

type updatePostRequest struct {
	Caption  *string `json:"caption" validate:"omitempty,max=2000"`
	Location *string `json:"location" validate:"omitempty,max=100"`
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req updatePostRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}

	post, err := h.posts.Update(r.Context(), middleware.UserID(r.Context()), postID,
		posts.UpdateParams{Caption: req.Caption, Location: req.Location})
	if err != nil {
		writePostError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toPostPayload(post))
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(r.Context(), middleware.UserID(r.Context()), postID); err != nil {
		writePostError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query_params")
	if query == "" {
		apierr.Write(w, r, http.StatusBadRequest, "Missing search query", nil)
		return
	}
	params := pagination.ParsePageSize(r.URL.Query(), perPagePostSearch, perPagePostSearchMax)
	results, total, err := h.posts.Search(r.Context(), query, params.Offset(), params.PerPage)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toPostPayloads(results), params, total))
}

func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParsePage(r.URL.Query(), perPageFeed)
	items, total, err := h.posts.Feed(r.Context(), middleware.UserID(r.Context()), params.Offset(), params.PerPage)
	if err != nil {
		writePostError(w, r, err)
		return
	}

	payload := make([]feedItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, feedItemPayload{
			postPayload: toPostPayload(item.Post),
			Author: summaryPayload{
				ID:             item.Author.ID,
				Username:       item.Author.Username,
				ProfilePhotoID: item.Author.ProfilePhotoID,
			},
			IsFollowing: item.IsFollowing,
		})
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(payload, params, total))
}

func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	params := pagination.ParsePage(r.URL.Query(), perPagePostsByUser)
	results, total, err := h.posts.ByUser(r.Context(), userID, params.Offset(), params.PerPage)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toPostPayloads(results), params, total))
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.posts.Like)
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.posts.Unlike)
}

func (h *PostHandler) toggleLike(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, postID int64) error) {
	postID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := op(r.Context(), middleware.UserID(r.Context()), postID); err != nil {
		writePostError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Likers(w http.ResponseWriter, r *http.Request) {
	postID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	params := pagination.ParsePage(r.URL.Query(), perPageLikers)
	results, total, err := h.posts.Likers(r.Context(), postID, params.Offset(), params.PerPage)
	if err != nil {
		writePostError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(toSummaryPayloads(results), params, total))
}

func writePostError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Post not found", err)
	case errors.Is(err, posts.ErrPhotoNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Photo not found", err)
	case errors.Is(err, posts.ErrForbidden):
		apierr.Write(w, r, http.StatusForbidden, "You do not own this post", err)
	default:
		apierr.Internal(w, r, err)
	}
}
