package cbt

import (
	"reflect"
	"testing"
	"time"
)

var completed = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func sessionOf(qs []Question, minutes int) Session {
	return Session{
		ID:               "s1",
		Title:            "Biology",
		Questions:        qs,
		Difficulty:       DifficultyMixed,
		TimeLimitMinutes: minutes,
		TotalQuestions:   len(qs),
		Status:           StatusInProgress,
	}
}

func TestScoreAllCorrect(t *testing.T) {
	s := sessionOf(sampleQuestions(5, DifficultyEasy), 10)
	answers := Entries{}
	for _, q := range s.Questions {
		answers[q.ID] = AnswerEntry{QuestionID: q.ID, SelectedAnswer: "A", Answered: true}
	}

	r := Score(s, answers, 120, false, completed)

	if r.CorrectAnswers != 5 || r.IncorrectAnswers != 0 || r.Unanswered != 0 || r.Percentage != 100 {
		t.Fatalf("result = %+v", r)
	}
	if r.Breakdown.Easy != (Bucket{Correct: 5, Total: 5}) {
		t.Fatalf("easy bucket = %+v", r.Breakdown.Easy)
	}
	if r.TimeSpentSeconds != 480 {
		t.Fatalf("time spent = %d, want 480", r.TimeSpentSeconds)
	}
	if r.EarnedPoints != 5 || r.TotalPoints != 5 {
		t.Fatalf("points = %d/%d", r.EarnedPoints, r.TotalPoints)
	}
}

func TestScorePartialAfterExpiry(t *testing.T) {
	s := sessionOf(sampleQuestions(10, DifficultyMedium), 5)
	answers := Entries{}
	for i, q := range s.Questions[:6] {
		sel := "A"
		if i >= 4 {
			sel = "C"
		}
		answers[q.ID] = AnswerEntry{QuestionID: q.ID, SelectedAnswer: sel, Answered: true}
	}

	r := Score(s, answers, 0, true, completed)

	// wrong answers and blanks are counted separately
	if r.CorrectAnswers != 4 || r.IncorrectAnswers != 2 || r.Unanswered != 4 {
		t.Fatalf("correct=%d incorrect=%d unanswered=%d", r.CorrectAnswers, r.IncorrectAnswers, r.Unanswered)
	}
	if r.Percentage != 40 || !r.AutoSubmitted || r.Status() != StatusAutoSubmitted {
		t.Fatalf("percentage=%d auto=%v", r.Percentage, r.AutoSubmitted)
	}
	if r.TimeSpentSeconds != 300 {
		t.Fatalf("time spent = %d, want 300", r.TimeSpentSeconds)
	}
}

func TestScoreCountsSumToTotal(t *testing.T) {
	for total := 0; total <= 7; total++ {
		for answered := 0; answered <= total; answered++ {
			for correct := 0; correct <= answered; correct++ {
				qs := sampleQuestions(total, DifficultyHard)
				answers := Entries{}
				for i := 0; i < answered; i++ {
					sel := "B"
					if i < correct {
						sel = "A"
					}
					answers[qs[i].ID] = AnswerEntry{QuestionID: qs[i].ID, SelectedAnswer: sel, Answered: true}
				}
				r := Score(sessionOf(qs, 1), answers, 0, false, completed)

				if r.CorrectAnswers+r.IncorrectAnswers+r.Unanswered != r.TotalQuestions {
					t.Fatalf("total=%d answered=%d correct=%d: sums to %d", total, answered, correct,
						r.CorrectAnswers+r.IncorrectAnswers+r.Unanswered)
				}
				if r.Percentage < 0 || r.Percentage > 100 {
					t.Fatalf("percentage %d out of range", r.Percentage)
				}
			}
		}
	}
}

func TestPercentageRoundsHalfUp(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5
		{3, 8, 38}, // 37.5
		{1, 200, 1},
		{1, 201, 0},
		{7, 7, 100},
	}
	for _, tc := range tests {
		if got := percentage(tc.correct, tc.total); got != tc.want {
			t.Errorf("percentage(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestScoreIgnoresFlags(t *testing.T) {
	qs := sampleQuestions(4, DifficultyEasy)
	plain := Entries{
		"q1": {QuestionID: "q1", SelectedAnswer: "A", Answered: true},
		"q2": {QuestionID: "q2", SelectedAnswer: "D", Answered: true},
	}
	flagged := Entries{
		"q1": {QuestionID: "q1", SelectedAnswer: "A", Answered: true, Flagged: true},
		"q2": {QuestionID: "q2", SelectedAnswer: "D", Answered: true},
		"q3": {QuestionID: "q3", Flagged: true},
	}
	a := Score(sessionOf(qs, 2), plain, 10, false, completed)
	b := Score(sessionOf(qs, 2), flagged, 10, false, completed)

	if a.CorrectAnswers != b.CorrectAnswers || a.IncorrectAnswers != b.IncorrectAnswers ||
		a.Unanswered != b.Unanswered || a.Percentage != b.Percentage {
		t.Fatalf("flags changed the score: %+v vs %+v", a, b)
	}
	if b.FlaggedCount != 2 {
		t.Fatalf("flagged = %d, want 2", b.FlaggedCount)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	qs := append(sampleQuestions(2, DifficultyEasy), sampleQuestions(2, DifficultyHard)...)
	qs[2].ID, qs[3].ID = "h1", "h2"
	qs[3].Subject = "chemistry"
	answers := Entries{
		"q1": {QuestionID: "q1", SelectedAnswer: "A", Answered: true},
		"h2": {QuestionID: "h2", SelectedAnswer: "A", Answered: true, TimeSpentSeconds: 9},
	}
	s := sessionOf(qs, 3)

	a := Score(s, answers, 42, false, completed)
	b := Score(s, answers, 42, false, completed)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different results")
	}
	if a.Breakdown.Hard != (Bucket{Correct: 1, Total: 2}) || a.Breakdown.Easy != (Bucket{Correct: 1, Total: 2}) {
		t.Fatalf("breakdown = %+v", a.Breakdown)
	}
	if a.Subjects["chemistry"] != (Bucket{Correct: 1, Total: 1}) || a.Subjects["biology"] != (Bucket{Correct: 1, Total: 3}) {
		t.Fatalf("subjects = %+v", a.Subjects)
	}
	if a.Questions[3].TimeSpentSeconds != 9 || !a.Questions[3].IsCorrect {
		t.Fatalf("review entry = %+v", a.Questions[3])
	}
}

func TestScoreTimeSpentNeverNegative(t *testing.T) {
	r := Score(sessionOf(sampleQuestions(1, DifficultyEasy), 1), Entries{}, 500, false, completed)
	if r.TimeSpentSeconds != 0 {
		t.Fatalf("time spent = %d", r.TimeSpentSeconds)
	}
	if r.Unanswered != 1 {
		t.Fatalf("unanswered = %d", r.Unanswered)
	}
}
