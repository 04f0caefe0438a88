// Package practice serves the untimed study flows: theory prompts graded from
// free text, and instant checks of single bank questions.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/grading"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
)

var ErrQuestionNotFound = errors.New("question not found")

const keyTermsPerAnswer = 6

type Service struct {
	docs   documents.Library
	bank   *questions.Bank
	grader grading.Grader
}

func NewService(docs documents.Library, bank *questions.Bank, grader grading.Grader) *Service {
	return &Service{docs: docs, bank: bank, grader: grader}
}

// TheoryQuestions extracts open-ended prompts from the given documents.
// Unknown ids are ignored; generic prompts fill any gap.
func (s *Service) TheoryQuestions(ctx context.Context, documentIDs []string, count int) ([]cbt.TheoryQuestion, error) {
	docs, err := documents.GetMany(ctx, s.docs, documentIDs)
	if err != nil {
		return nil, err
	}
	return questions.GenerateTheoryQuestions(documentIDs, docs, count), nil
}

// GradeTheory scores a free-text answer against the key terms of the suggested answer.
func (s *Service) GradeTheory(ctx context.Context, q cbt.TheoryQuestion, answer string) (grading.Result, error) {
	points := q.Points
	if points <= 0 {
		points = 5
	}
	return s.grader.Grade(ctx, grading.Q{
		Type:      "theory",
		Points:    float64(points),
		AnswerKey: grading.Keywords(q.SuggestedAnswer, keyTermsPerAnswer),
		Reference: q.SuggestedAnswer,
	}, answer)
}

type Check struct {
	QuestionID    string         `json:"question_id"`
	Correct       bool           `json:"correct"`
	CorrectAnswer string         `json:"correct_answer"`
	Explanation   string         `json:"explanation,omitempty"`
	Result        grading.Result `json:"result"`
}

// Check grades one option against a bank question and reveals the key.
func (s *Service) Check(ctx context.Context, documentID, questionID, option string) (Check, error) {
	for _, q := range s.bank.Questions(documentID) {
		if q.ID != questionID {
			continue
		}
		res, err := s.grader.Grade(ctx, grading.Q{
			Type:      "objective",
			Points:    float64(q.Points),
			AnswerKey: []string{q.CorrectAnswer},
		}, strings.TrimSpace(option))
		if err != nil {
			return Check{}, fmt.Errorf("check %s: %w", questionID, cbt.ErrInvalidOption)
		}
		return Check{
			QuestionID:    q.ID,
			Correct:       res.AutoPoints > 0,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Result:        res,
		}, nil
	}
	return Check{}, fmt.Errorf("%s/%s: %w", documentID, questionID, ErrQuestionNotFound)
}
