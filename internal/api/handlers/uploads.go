package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/mingle-social/server/internal/api/apierr"
)

type upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// readUpload pulls a single file part out of a multipart form, writing
// the 400 itself when the part is missing or unreadable.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (upload, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return upload{}, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		apierr.Write(w, r, http.StatusBadRequest, fmt.Sprintf("Missing %s file", field), err)
		return upload{}, false
	}
	defer file.Close()

	part, err := readPart(file, header)
	if err != nil {
		apierr.Write(w, r, http.StatusBadRequest, "Unreadable file upload", err)
		return upload{}, false
	}
	return part, true
}

func readPart(file multipart.File, header *multipart.FileHeader) (upload, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return upload{
		Filename:    strings.TrimSpace(header.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
