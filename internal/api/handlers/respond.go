package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mingle-social/server/internal/api/apierr"
)

// maxJSONBody caps request bodies to keep a hostile client from
// exhausting memory. Multipart uploads have their own limit.
const maxJSONBody = 1 << 20

// maxMultipartMemory is the in-memory threshold for multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 10 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		apierr.Internal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("write response")
	}
}

// decodeJSON parses the request body into dst. On failure it writes the
// 400 response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

var errBadID = errors.New("malformed id")

// pathID parses an integer path value such as {id}.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// requirePathID parses {name} and writes the 400 itself on failure.
func requirePathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := pathID(r, name)
	if err != nil {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}
