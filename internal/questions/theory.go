package questions

import (
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
)

const DefaultTheoryCount = 5

var genericPrompts = []string{
	"Summarise the main ideas of %s in your own words.",
	"Explain the most important concept introduced in %s and why it matters.",
	"Describe how two of the key ideas in %s relate to each other.",
	"Give a real-world example that illustrates a concept from %s.",
	"What questions would you ask to test someone's understanding of %s? Answer one of them.",
}

// GenerateTheoryQuestions turns document sentences into open-ended prompts.
// It never fails: with no usable text it falls back to generic prompts about
// the material. Only documents listed in documentIDs are used, unless the
// list is empty.
func GenerateTheoryQuestions(documentIDs []string, docs []documents.Document, count int) []cbt.TheoryQuestion {
	if count <= 0 {
		count = DefaultTheoryCount
	}
	want := map[string]bool{}
	for _, id := range documentIDs {
		want[id] = true
	}

	type source struct {
		doc       documents.Document
		sentences []string
	}
	var srcs []source
	var used []documents.Document
	for _, d := range docs {
		if len(want) > 0 && !want[d.ID] {
			continue
		}
		used = append(used, d)
		if ss := sentences(d.Text, 8); len(ss) > 0 {
			srcs = append(srcs, source{doc: d, sentences: ss})
		}
	}

	out := make([]cbt.TheoryQuestion, 0, count)
	// round-robin over documents so each one contributes
	for round := 0; len(out) < count && len(srcs) > 0; round++ {
		added := false
		for _, s := range srcs {
			if len(out) == count {
				break
			}
			if round >= len(s.sentences) {
				continue
			}
			out = append(out, theoryFromSentence(len(out)+1, s.doc, s.sentences, round))
			added = true
		}
		if !added {
			break
		}
	}

	for i := 0; len(out) < count; i++ {
		subject := "the selected material"
		var docID, topic string
		if len(used) > 0 {
			d := used[i%len(used)]
			subject, docID, topic = fmt.Sprintf("%q", d.Title), d.ID, d.Title
		}
		out = append(out, cbt.TheoryQuestion{
			ID:               fmt.Sprintf("theory-%d", len(out)+1),
			Prompt:           fmt.Sprintf(genericPrompts[i%len(genericPrompts)], subject),
			SuggestedAnswer:  "A strong answer names the key terms, explains each in full sentences and connects them with an example.",
			Points:           5,
			Topic:            topic,
			SourceDocumentID: docID,
		})
	}
	return out
}

func theoryFromSentence(n int, d documents.Document, ss []string, i int) cbt.TheoryQuestion {
	s := ss[i]
	prompt := fmt.Sprintf("Explain in your own words: %q", s)
	if terms := keyTerms(s); len(terms) > 0 {
		prompt = fmt.Sprintf("Explain what %q means in the context of %q, using your own words.", terms[0], d.Title)
	}
	answer := s
	if i+1 < len(ss) {
		answer += " " + ss[i+1]
	}
	return cbt.TheoryQuestion{
		ID:               fmt.Sprintf("theory-%d", n),
		Prompt:           prompt,
		SuggestedAnswer:  strings.TrimSpace(answer),
		Points:           5,
		Topic:            d.Title,
		SourceDocumentID: d.ID,
	}
}
