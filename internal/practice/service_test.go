package practice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
	"github.com/mind-engage/mindengage-cbt/internal/grading"
	"github.com/mind-engage/mindengage-cbt/internal/questions"
)

func newService(t *testing.T) *Service {
	t.Helper()
	lib := documents.NewInMemoryLibrary()
	_ = lib.Put(context.Background(), documents.Document{
		ID:    "osmo",
		Title: "Osmosis",
		Text:  "Osmosis moves water across a semipermeable membrane toward higher solute concentration.\nCells swell in hypotonic solutions because water flows inward.",
	})
	bank := questions.NewBank()
	bank.AddQuestions("osmo", []cbt.Question{{
		ID:            "o1",
		Prompt:        "Water moves toward?",
		Options:       []cbt.Option{{Label: "A", Text: "low solute"}, {Label: "B", Text: "high solute"}},
		CorrectAnswer: "B",
		Difficulty:    cbt.DifficultyEasy,
		Explanation:   "Water follows solute.",
	}})
	return NewService(lib, bank, grading.NewDefaultGrader(grading.WithMinWords(8)))
}

func TestTheoryRoundTrip(t *testing.T) {
	s := newService(t)
	qs, err := s.TheoryQuestions(context.Background(), []string{"osmo", "missing"}, 2)
	if err != nil || len(qs) != 2 {
		t.Fatalf("questions = %v, %v", qs, err)
	}
	q := qs[0]
	if q.SourceDocumentID != "osmo" || !strings.Contains(q.SuggestedAnswer, "semipermeable") {
		t.Fatalf("question = %+v", q)
	}

	res, err := s.GradeTheory(context.Background(), q, q.SuggestedAnswer)
	if err != nil {
		t.Fatal(err)
	}
	if res.Percent() != 100 {
		t.Fatalf("echoing the suggested answer scored %d%%: %+v", res.Percent(), res)
	}
	poor, _ := s.GradeTheory(context.Background(), q, "not sure")
	if poor.AutoPoints >= res.AutoPoints || !poor.NeedsManual {
		t.Fatalf("poor answer = %+v", poor)
	}
}

func TestCheck(t *testing.T) {
	s := newService(t)
	c, err := s.Check(context.Background(), "osmo", "o1", "B")
	if err != nil || !c.Correct || c.Explanation == "" {
		t.Fatalf("check = %+v, %v", c, err)
	}
	c, _ = s.Check(context.Background(), "osmo", "o1", "A")
	if c.Correct || c.CorrectAnswer != "B" {
		t.Fatalf("wrong option = %+v", c)
	}
	if _, err := s.Check(context.Background(), "osmo", "nope", "A"); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.Check(context.Background(), "osmo", "o1", " "); !errors.Is(err, cbt.ErrInvalidOption) {
		t.Fatalf("err = %v", err)
	}
}
