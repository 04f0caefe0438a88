package qti

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/qti/parser"
)

var labels = []string{"A", "B", "C", "D"}

// ToQuestions maps single-choice items with two to four choices to CBT
// questions tagged with documentID. Everything else is returned as skipped ids.
func ToQuestions(items []parser.ParsedItem, documentID string) ([]cbt.Question, []string) {
	out := make([]cbt.Question, 0, len(items))
	var skipped []string
	for _, it := range items {
		q, err := toQuestion(it, documentID)
		if err != nil {
			skipped = append(skipped, it.ID)
			continue
		}
		out = append(out, q)
	}
	return out, skipped
}

func toQuestion(it parser.ParsedItem, documentID string) (cbt.Question, error) {
	if it.Kind != parser.InteractionChoiceSingle {
		return cbt.Question{}, fmt.Errorf("item %s: unsupported interaction %s", it.ID, it.Kind)
	}
	if len(it.Choices) < 2 || len(it.Choices) > len(labels) {
		return cbt.Question{}, fmt.Errorf("item %s: %d choices", it.ID, len(it.Choices))
	}
	if len(it.AnswerKey) != 1 {
		return cbt.Question{}, fmt.Errorf("item %s: no single correct response", it.ID)
	}

	q := cbt.Question{
		ID:          it.ID,
		Prompt:      PlainText(it.PromptHTML),
		Difficulty:  difficulty(it.Difficulty),
		Subject:     it.Subject,
		Topic:       it.Topic,
		Explanation: PlainText(it.Explanation),
		Points:      it.Points,
		TimeSeconds: 60,
		DocumentID:  documentID,
	}
	if q.Prompt == "" {
		q.Prompt = it.Title
	}
	for i, c := range it.Choices {
		q.Options = append(q.Options, cbt.Option{Label: labels[i], Text: PlainText(c.Label)})
		if c.ID == it.AnswerKey[0] {
			q.CorrectAnswer = labels[i]
		}
	}
	if q.CorrectAnswer == "" {
		return cbt.Question{}, fmt.Errorf("item %s: correct response %q is not a choice", it.ID, it.AnswerKey[0])
	}
	return q, nil
}

func difficulty(s string) cbt.Difficulty {
	switch d := cbt.Difficulty(s); d {
	case cbt.DifficultyEasy, cbt.DifficultyMedium, cbt.DifficultyHard:
		return d
	}
	return cbt.DifficultyMedium
}

// PlainText strips markup and unescapes entities.
func PlainText(in string) string {
	var b strings.Builder
	depth := 0
	for _, r := range in {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
			b.WriteByte(' ')
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

// TitleFromManifest names an imported package after its first resource.
func TitleFromManifest(m parser.Manifest) string {
	for _, r := range m.Resources {
		base := filepath.Base(r.Href)
		if base != "" && base != "." {
			return strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return "Imported questions"
}
