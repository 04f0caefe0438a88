package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/practice"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
)

// POST /theory/questions  {"document_ids": [...], "count": 5}
func TheoryQuestionsHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DocumentIDs []string `json:"document_ids"`
			Count       int      `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if req.Count <= 0 {
			req.Count = questions.DefaultTheoryCount
		}
		qs, err := svc.TheoryQuestions(r.Context(), req.DocumentIDs, req.Count)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, qs)
	}
}

// POST /theory/grade  {"question": {...}, "answer": "..."}
func TheoryGradeHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question cbt.TheoryQuestion `json:"question"`
			Answer   string             `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		if req.Question.SuggestedAnswer == "" {
			badRequest(w, "question.suggested_answer required")
			return
		}
		res, err := svc.GradeTheory(r.Context(), req.Question, req.Answer)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"result":           res,
			"percent":          res.Percent(),
			"suggested_answer": req.Question.SuggestedAnswer,
		})
	}
}

// POST /practice/check  {"document_id": "...", "question_id": "...", "option": "B"}
func CheckHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DocumentID string `json:"document_id"`
			QuestionID string `json:"question_id"`
			Option     string `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "bad json")
			return
		}
		c, err := svc.Check(r.Context(), req.DocumentID, req.QuestionID, req.Option)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}
