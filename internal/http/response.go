package http

import (
	"encoding/json"
	"net/http"

	"team-checkin/backend/internal/log"
)

// maxBodyBytes bounds request bodies; a full check-in is well under 4 KiB.
const maxBodyBytes = 64 << 10

const internalMessage = "something went wrong, please try again"

type APIError struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, APIError{Message: msg})
}

// fail maps err to a status and writes it. Server-side failures are logged
// and answered with a generic message.
func fail(w http.ResponseWriter, r *http.Request, err error, mapErr func(error) (int, string)) {
	status, msg := mapErr(err)
	if status >= 500 {
		log.GetLogger(r.Context()).WithError(err).Error("request failed")
	}
	Fail(w, status, msg)
}

// decodeBody reads a JSON body into dst and answers 400 when it is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		Fail(w, 400, "invalid json")
		return false
	}
	return true
}
