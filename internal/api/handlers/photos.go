package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/api/middleware"
	"github.com/mingle-social/server/internal/domain/photos"
)

type PhotoHandler struct {
	photos *photos.Service
}

func NewPhotoHandler(photosSvc *photos.Service) *PhotoHandler {
	return &PhotoHandler{photos: photosSvc}
}

// Upload stores a standalone photo, optionally linked to one of the
// uploader's posts via the post_id form field.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	part, ok := readUpload(w, r, "photo")
	if !ok {
		return
	}
	if len(part.Data) == 0 {
		apierr.Write(w, r, http.StatusBadRequest, "Empty file upload", nil)
		return
	}

	params := photos.CreateParams{
		UserID:      middleware.UserID(r.Context()),
		Filename:    part.Filename,
		ContentType: part.ContentType,
		Data:        part.Data,
	}
	if raw := r.FormValue("post_id"); raw != "" {
		postID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || postID <= 0 {
			apierr.Write(w, r, http.StatusBadRequest, "Invalid post_id", err)
			return
		}
		params.PostID = &postID
	}

	photo, err := h.photos.Upload(r.Context(), params)
	if err != nil {
		writePhotoError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{
		"id":           photo.ID,
		"filename":     photo.Filename,
		"content_type": photo.ContentType,
		"post_id":      photo.PostID,
		"uploaded_at":  photo.UploadedAt,
	})
}

// Get streams the raw photo bytes with the stored content type.
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	photoID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	photo, err := h.photos.Get(r.Context(), photoID)
	if err != nil {
		writePhotoError(w, r, err)
		return
	}
	servePhotoBytes(w, photo)
}

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	photoID, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.photos.Delete(r.Context(), middleware.UserID(r.Context()), photoID); err != nil {
		writePhotoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func servePhotoBytes(w http.ResponseWriter, photo photos.Photo) {
	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(photo.Data)))
	w.Header().Set("Last-Modified", photo.UploadedAt.UTC().Format(http.TimeFormat))
	_, _ = w.Write(photo.Data)
}

func writePhotoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, photos.ErrNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Photo not found", err)
	case errors.Is(err, photos.ErrPostNotFound):
		apierr.Write(w, r, http.StatusNotFound, "Post not found", err)
	case errors.Is(err, photos.ErrForbidden):
		apierr.Write(w, r, http.StatusForbidden, "You do not own this resource", err)
	case errors.Is(err, photos.ErrEmptyUpload):
		apierr.Write(w, r, http.StatusBadRequest, "Empty file upload", err)
	default:
		apierr.Internal(w, r, err)
	}
}
