package http

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/practice"
	"github.com/mind-engage/mindengage-cbt/internal/sessions"
	"github.com/mind-engage/mindengage-cbt/internal/storage"
	"github.com/mind-engage/mindengage-cbt/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondJSON(w, status, errorBody{Code: code, Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Code: "bad_request", Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, cbt.ErrInvalidStateTransition):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, cbt.ErrUnknownQuestionID):
		return http.StatusBadRequest, "unknown_question"
	case errors.Is(err, cbt.ErrInvalidOption):
		return http.StatusBadRequest, "invalid_option"
	case errors.Is(err, cbt.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_config"
	case errors.Is(err, cbt.ErrEmptyQuestionSet):
		return http.StatusUnprocessableEntity, "empty_question_set"
	case errors.Is(err, sessions.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, sessions.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, documents.ErrNotFound),
		errors.Is(err, practice.ErrQuestionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, documents.ErrUnsupported):
		return http.StatusUnsupportedMediaType, "unsupported_document"
	case errors.Is(err, documents.ErrNoContent):
		return http.StatusUnprocessableEntity, "empty_document"
	}
	return http.StatusInternalServerError, "internal"
}

// paging reads ?limit=&offset= with a cap on limit.
func paging(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
