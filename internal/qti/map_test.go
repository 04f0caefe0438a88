package qti

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/qti/export"
	"github.com/mind-engage/mindengage-cbt/internal/qti/parser"
)

func TestExportThenImport(t *testing.T) {
	in := []cbt.Question{
		{
			ID:     "cell-1",
			Prompt: "Which organelle makes ATP?",
			Options: []cbt.Option{
				{Label: "A", Text: "Nucleus"},
				{Label: "B", Text: "Mitochondria"},
				{Label: "C", Text: "Ribosome"},
				{Label: "D", Text: "Golgi & ER"},
			},
			CorrectAnswer: "B",
			Difficulty:    cbt.DifficultyHard,
			Subject:       "biology",
			Topic:         "cells",
			Explanation:   "Mitochondria run oxidative phosphorylation.",
			Points:        2,
			TimeSeconds:   60,
			DocumentID:    "doc-9",
		},
		{
			ID:            "cell-2",
			Prompt:        "Plants store starch in <plastids>?",
			Options:       []cbt.Option{{Label: "A", Text: "yes"}, {Label: "B", Text: "no"}},
			CorrectAnswer: "A",
			Difficulty:    cbt.DifficultyEasy,
			Points:        1,
			TimeSeconds:   60,
			DocumentID:    "doc-9",
		},
	}

	pkg, err := export.BuildPackage(in)
	if err != nil {
		t.Fatal(err)
	}
	mf, items, err := parser.ReadPackage(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		t.Fatal(err)
	}
	if len(mf.Resources) != 2 {
		t.Fatalf("resources = %d", len(mf.Resources))
	}
	out, skipped := ToQuestions(items, "doc-9")
	if len(skipped) != 0 {
		t.Fatalf("skipped %v", skipped)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
	if TitleFromManifest(mf) != "cell-1" {
		t.Fatalf("title = %q", TitleFromManifest(mf))
	}
}

func TestToQuestionsSkipsUnsupported(t *testing.T) {
	items := []parser.ParsedItem{
		{ID: "essay", Kind: parser.InteractionExtendedText},
		{ID: "multi", Kind: parser.InteractionChoiceMulti},
		{ID: "bad-key", Kind: parser.InteractionChoiceSingle, AnswerKey: []string{"X"},
			Choices: []parser.Choice{{ID: "a", Label: "1"}, {ID: "b", Label: "2"}}},
		{ID: "ok", Kind: parser.InteractionChoiceSingle, AnswerKey: []string{"b"}, PromptHTML: "<p>Pick</p>",
			Choices: []parser.Choice{{ID: "a", Label: "1"}, {ID: "b", Label: "2"}}, Points: 1},
	}
	qs, skipped := ToQuestions(items, "d")
	if len(qs) != 1 || len(skipped) != 3 {
		t.Fatalf("kept %d skipped %v", len(qs), skipped)
	}
	q := qs[0]
	if q.CorrectAnswer != "B" || q.Prompt != "Pick" || q.Difficulty != cbt.DifficultyMedium {
		t.Fatalf("question = %+v", q)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>Water &amp; <b>salt</b></p>\n  mix")
	if got != "Water & salt mix" {
		t.Fatalf("got %q", got)
	}
}
