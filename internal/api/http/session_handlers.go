package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-cbt/internal/auth/middleware"
	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/rbac"
	"github.com/mind-engage/mindengage-cbt/internal/sessions"
	"github.com/mind-engage/mindengage-cbt/internal/store"
)

// viewer is the owner filter for read-only routes: empty for roles that may
// see every user's sessions.
func viewer(r *http.Request) string {
	if rbac.Can(r.Context(), "result:view-all") {
		return ""
	}
	return auth.SubjectFromContext(r.Context())
}

// POST /sessions
func StartSessionHandler(m *sessions.Manager, defaults cbt.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg cbt.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			badRequest(w, "bad json")
			return
		}
		if cfg.QuestionCount == 0 {
			cfg.QuestionCount = defaults.QuestionCount
		}
		if cfg.TimeLimitMinutes == 0 {
			cfg.TimeLimitMinutes = defaults.TimeLimitMinutes
		}
		if cfg.Difficulty == "" {
			cfg.Difficulty = defaults.Difficulty
		}
		s, err := m.Start(r.Context(), auth.SubjectFromContext(r.Context()), cfg)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, s)
	}
}

// GET /sessions/{id}
func GetSessionHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := m.View(r.Context(), viewer(r), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// GET /sessions/{id}/questions/{index}
func GetQuestionHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			badRequest(w, "index must be a number")
			return
		}
		q, e, err := m.Question(r.Context(), viewer(r), chi.URLParam(r, "id"), idx)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"index": idx, "question": q, "answer": e})
	}
}

type questionRequest struct {
	QuestionID string `json:"question_id"`
	Option     string `json:"option,omitempty"`
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad json")
		return req, false
	}
	if req.QuestionID == "" {
		badRequest(w, "question_id required")
		return req, false
	}
	return req, true
}

// POST /sessions/{id}/answers  {"question_id": "...", "option": "B"}
func AnswerHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}
		err := m.Answer(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), req.QuestionID, req.Option)
		if err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /sessions/{id}/flags  {"question_id": "..."}
func FlagHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}
		flagged, err := m.Flag(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), req.QuestionID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"question_id": req.QuestionID, "flagged": flagged})
	}
}

// POST /sessions/{id}/focus  {"question_id": "..."}
func FocusHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}
		if err := m.Focus(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "id"), req.QuestionID); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /sessions/{id}/submit
func SubmitHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := m.Submit(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// DELETE /sessions/{id}
func DiscardHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.Discard(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /sessions/{id}/result
func ResultHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := m.Result(r.Context(), viewer(r), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// GET /results?limit=&offset=&owner=
// owner is honoured only for roles that may see every result.
func ListResultsHandler(m *sessions.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := paging(r)
		owner := viewer(r)
		if owner == "" {
			owner = r.URL.Query().Get("owner")
		}
		rs, err := m.ListResults(r.Context(), store.ResultListOpts{OwnerID: owner, Limit: limit, Offset: offset})
		if err != nil {
			respondError(w, err)
			return
		}
		// the list view drops per-question review data
		for i := range rs {
			rs[i].Questions = nil
		}
		respondJSON(w, http.StatusOK, rs)
	}
}
