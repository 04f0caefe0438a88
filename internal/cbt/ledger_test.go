package cbt

import (
	"errors"
	"fmt"
	"testing"
)

func sampleQuestions(n int, d Difficulty) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			ID:     fmt.Sprintf("q%d", i+1),
			Prompt: fmt.Sprintf("Question %d", i+1),
			Options: []Option{
				{Label: "A", Text: "first"},
				{Label: "B", Text: "second"},
				{Label: "C", Text: "third"},
				{Label: "D", Text: "fourth"},
			},
			CorrectAnswer: "A",
			Difficulty:    d,
			Subject:       "biology",
			Points:        1,
			TimeSeconds:   60,
		}
	}
	return qs
}

func TestLedgerReselectKeepsAnsweredCount(t *testing.T) {
	l := NewLedger(sampleQuestions(3, DifficultyEasy))

	if err := l.SelectAnswer("q1", "B"); err != nil {
		t.Fatal(err)
	}
	if err := l.SelectAnswer("q1", "B"); err != nil {
		t.Fatal(err)
	}
	if l.AnsweredCount() != 1 {
		t.Fatalf("answered = %d, want 1", l.AnsweredCount())
	}
	if err := l.SelectAnswer("q1", "C"); err != nil {
		t.Fatal(err)
	}
	if l.AnsweredCount() != 1 {
		t.Fatalf("answered after change = %d, want 1", l.AnsweredCount())
	}
	e, _ := l.Entry("q1")
	if e.SelectedAnswer != "C" || !e.Answered {
		t.Fatalf("entry = %+v", e)
	}
}

func TestLedgerUnknownQuestion(t *testing.T) {
	l := NewLedger(sampleQuestions(1, DifficultyEasy))

	if err := l.SelectAnswer("nope", "A"); !errors.Is(err, ErrUnknownQuestionID) {
		t.Fatalf("select err = %v", err)
	}
	if _, err := l.ToggleFlag("nope"); !errors.Is(err, ErrUnknownQuestionID) {
		t.Fatalf("flag err = %v", err)
	}
	if err := l.AddTime("nope", 1); !errors.Is(err, ErrUnknownQuestionID) {
		t.Fatalf("time err = %v", err)
	}
	if err := l.SelectAnswer("q1", ""); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("empty option err = %v", err)
	}
	if l.AnsweredCount() != 0 {
		t.Fatal("failed operations changed the ledger")
	}
}

func TestLedgerFlagTwiceRestores(t *testing.T) {
	l := NewLedger(sampleQuestions(2, DifficultyEasy))

	on, _ := l.ToggleFlag("q2")
	if !on || l.FlaggedCount() != 1 {
		t.Fatalf("first toggle: flagged=%v count=%d", on, l.FlaggedCount())
	}
	off, _ := l.ToggleFlag("q2")
	if off || l.FlaggedCount() != 0 {
		t.Fatalf("second toggle: flagged=%v count=%d", off, l.FlaggedCount())
	}
	if e, _ := l.Entry("q2"); e.Flagged || e.Answered {
		t.Fatalf("entry = %+v", e)
	}
}

func TestLedgerAddTime(t *testing.T) {
	l := NewLedger(sampleQuestions(1, DifficultyEasy))
	_ = l.AddTime("q1", 2)
	_ = l.AddTime("q1", -5)
	_ = l.AddTime("q1", 1)
	if e, _ := l.Entry("q1"); e.TimeSpentSeconds != 3 {
		t.Fatalf("time = %d, want 3", e.TimeSpentSeconds)
	}
}

func TestRestoreLedger(t *testing.T) {
	qs := sampleQuestions(3, DifficultyEasy)
	saved := Entries{
		"q1":    {QuestionID: "q1", SelectedAnswer: "A", Answered: true, TimeSpentSeconds: 12},
		"q2":    {QuestionID: "q2", Flagged: true},
		"q3":    {QuestionID: "q3", Answered: true}, // answered with nothing selected is not an answer
		"stale": {QuestionID: "stale", SelectedAnswer: "B", Answered: true},
	}
	l := restoreLedger(qs, saved)

	if l.AnsweredCount() != 1 || l.FlaggedCount() != 1 {
		t.Fatalf("answered=%d flagged=%d", l.AnsweredCount(), l.FlaggedCount())
	}
	if _, ok := l.Entry("stale"); ok {
		t.Fatal("entry outside the session was restored")
	}
	if e, _ := l.Entry("q1"); e.TimeSpentSeconds != 12 {
		t.Fatalf("time = %d", e.TimeSpentSeconds)
	}
	if len(l.Entries()) != 3 {
		t.Fatalf("entries = %d, want 3", len(l.Entries()))
	}
}
