package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/discuss"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}

// writeServiceError maps domain errors to their status code. Unknown errors
// are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		commentValidationErr *discuss.ValidationError
		userValidationErr    *accounts.ValidationError
		selfReplyErr         *discuss.SelfReplyError
		commentNotFoundErr   *discuss.CommentNotFoundError
		parentNotFoundErr    *discuss.ParentCommentNotFoundError
		userNotFoundErr      *accounts.UserNotFoundError
		usernameNotFoundErr  *accounts.UserByUsernameNotFoundError
		alreadyExistsErr     *accounts.UserAlreadyExistsError
	)

	switch {
	case errors.As(err, &commentValidationErr):
		writeError(w, r, http.StatusBadRequest, commentValidationErr.Error())
	case errors.As(err, &userValidationErr):
		writeError(w, r, http.StatusBadRequest, userValidationErr.Error())
	case errors.As(err, &selfReplyErr):
		writeError(w, r, http.StatusBadRequest, selfReplyErr.Error())
	case errors.As(err, &commentNotFoundErr):
		writeError(w, r, http.StatusNotFound, commentNotFoundErr.Error())
	case errors.As(err, &parentNotFoundErr):
		writeError(w, r, http.StatusNotFound, parentNotFoundErr.Error())
	case errors.As(err, &userNotFoundErr):
		writeError(w, r, http.StatusNotFound, userNotFoundErr.Error())
	case errors.As(err, &usernameNotFoundErr):
		writeError(w, r, http.StatusNotFound, usernameNotFoundErr.Error())
	case errors.As(err, &alreadyExistsErr):
		writeError(w, r, http.StatusConflict, alreadyExistsErr.Error())
	default:
		slog.ErrorContext(r.Context(), "failed to handle request", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))

		return false
	}

	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid id %q", r.PathValue("id")))

		return 0, false
	}

	return id, true
}
