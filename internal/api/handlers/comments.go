package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/api/pagination"
	"github.com/mingle-social/server/internal/domain/comments"
)

const perPageComments = 40

type CommentHandler struct {
	comments *comments.Service
}

func NewCommentHandler(commentsSvc *comments.Service) *CommentHandler {
	return &CommentHandler{comments: commentsSvc}
}

type commentPayload struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PostID    int64     `json:"post_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentPayload(comment comments.Comment) commentPayload {
	return commentPayload{
		ID:        comment.ID,
		UserID:    comment.UserID,
		PostID:    comment.PostID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

type createCommentRequest struct {
	PostID int64  `json:"post_id" validate:"required,gt=0"`
	Body   string `json:"body" validate:"required,max=1000"`
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), middleware.UserID(r.Context()), req.PostID, req.Body)
	if err != nil {
		writeCommentError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toCommentPayload(comment))
}

func (h *CommentHandler) ByPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	params := pagination.ParsePage(r.URL.Query(), perPageComments)
	results, total, err := h.comments.ByPost(r.Context(), postID, params.Offset(), params.PerPage)
	if err != nil {
		writeCommentError(w, r, err)
		return
	}

	payload := make([]commentPayload, 0, len(results))
	for _, comment := range results {
		payload = append(payload, toCommentPayload(comment))
	}
	writeJSON(w, r, http.StatusOK, pagination.NewEnvelope(payload, params, total))
}

type updateCommentRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	commentID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	var req updateCommentRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, r, req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), middleware.UserID(r.Context()), commentID, req.Body)
	if err != nil {
		writeCommentError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCommentPayload(comment))
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	commentID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), middleware.UserID(r.Context()), commentID); err != nil {
		writeCommentError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCommentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, comments.ErrNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Comment not found", err)
	case errors.Is(err, comments.ErrPostNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Post not found", err)
	case errors.Is(err, comments.ErrForbidden):
		apierr.Write(w, r, http.StatusForbidden, "You may not modify this comment", err)
	default:
		apierr.Internal(w, r, err)
	}
}
