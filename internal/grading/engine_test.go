package grading

import (
	"context"
	"reflect"
	"testing"
)

func TestTheoryFullMarks(t *testing.T) {
	g := NewDefaultGrader(WithMinWords(5))
	q := Q{Type: "theory", Points: 5, AnswerKey: []string{"mitochondria", "energy", "respiration"}}

	res, err := g.Grade(context.Background(), q, "Mitochondria release energy through cellular respiration.")
	if err != nil {
		t.Fatal(err)
	}
	if res.AutoPoints != 5 || res.NeedsManual || len(res.Missing) != 0 || res.Percent() != 100 {
		t.Fatalf("res = %+v", res)
	}
}

func TestTheoryPartialAndTypos(t *testing.T) {
	g := NewDefaultGrader(WithMinWords(4))
	q := Q{Type: "theory", Points: 10, AnswerKey: []string{"chlorophyll", "sunlight", "glucose", "oxygen"}, Reference: "ref"}

	res, _ := g.Grade(context.Background(), q, "Chlorophyl traps sunlight, making sugar.")
	if !reflect.DeepEqual(res.Matched, []string{"chlorophyll", "sunlight"}) {
		t.Fatalf("matched = %v", res.Matched)
	}
	// coverage 8*0.5 + development 2*1
	if res.AutoPoints != 6 {
		t.Fatalf("points = %v", res.AutoPoints)
	}
	if res.NeedsManual {
		t.Fatal("half coverage flagged for review")
	}
	if res.Feedback[len(res.Feedback)-1] != "suggested answer: ref" {
		t.Fatalf("feedback = %v", res.Feedback)
	}
}

func TestTheoryEmptyAndShort(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: "theory", Points: 5, AnswerKey: []string{"osmosis", "membrane", "water"}}

	empty, _ := g.Grade(context.Background(), q, "   ...  ")
	if empty.AutoPoints != 0 || empty.Feedback[0] != "no answer given" {
		t.Fatalf("empty = %+v", empty)
	}
	short, _ := g.Grade(context.Background(), q, "no idea")
	if short.AutoPoints != 0 || !short.NeedsManual {
		t.Fatalf("short = %+v", short)
	}
}

func TestObjectiveAndUnknownType(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: "objective", Points: 2, AnswerKey: []string{"B"}}
	if res, _ := g.Grade(context.Background(), q, " b "); res.AutoPoints != 2 {
		t.Fatalf("res = %+v", res)
	}
	if res, _ := g.Grade(context.Background(), q, "C"); res.AutoPoints != 0 {
		t.Fatalf("res = %+v", res)
	}
	if _, err := g.Grade(context.Background(), q, ""); err == nil {
		t.Fatal("empty objective response accepted")
	}
	res, _ := g.Grade(context.Background(), Q{Type: "essay", Points: 3}, "text")
	if !res.NeedsManual || res.MaxPoints != 3 {
		t.Fatalf("res = %+v", res)
	}
}

func TestKeywords(t *testing.T) {
	got := Keywords("The nucleus stores genetic information; the NUCLEUS is 2024 years old with DNA.", 3)
	want := []string{"information", "nucleus", "genetic"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"glucose", "glucose", 0},
		{"chlorophyl", "chlorophyll", 1},
	}
	for _, tc := range tests {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestRubricApplyClamps(t *testing.T) {
	r := Rubric{{Key: "a", Weight: 0.4}, {Key: "b", Weight: 0.6}}
	total, marks := r.Apply(10, map[string]float64{"a": 1.5, "b": -1})
	if total != 4 || len(marks) != 2 || marks[0].Points != 4 || marks[1].Points != 0 || marks[1].Max != 6 {
		t.Fatalf("total=%v marks=%+v", total, marks)
	}
	if total, _ := r.Apply(10, map[string]float64{"a": 1, "b": 1}); total != 10 {
		t.Fatalf("full total = %v", total)
	}
	if got := marks[0].String(); got != "a: 4.0/4.0" {
		t.Fatalf("mark = %q", got)
	}
}

func TestTheoryMarks(t *testing.T) {
	g := NewDefaultGrader(WithMinWords(4))
	res, err := g.Grade(context.Background(), Q{Type: "theory", Points: 10, AnswerKey: []string{"osmosis", "membrane"}},
		"osmosis moves water across")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Marks) != 2 || res.Marks[0].Key != "coverage" || res.Marks[0].Points != 4 || res.Marks[1].Points != 2 {
		t.Fatalf("marks = %+v", res.Marks)
	}
	if res.AutoPoints != 6 {
		t.Fatalf("points = %v", res.AutoPoints)
	}
}
