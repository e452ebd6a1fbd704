package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteStringMessage(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/posts/99", nil)

	Write(w, r, http.StatusNotFound, "Post not found", errors.New("no rows"))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Post not found", body["message"])
}

func TestWriteFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)

	WriteFields(w, r, http.StatusBadRequest, map[string]string{
		"email":    "must be a valid email address",
		"username": "is required",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Message map[string]string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "is required", body.Message["username"])
	require.Equal(t, "must be a valid email address", body.Message["email"])
}

func TestInternalHidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/users/me", nil)

	Internal(w, r, errors.New("pq: deadlock detected"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "deadlock")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Internal server error", body["message"])
}
