// Package questions supplies questions to sessions: a YAML/JSON/QTI bank,
// a placeholder generator over document text, and theory prompt extraction.
package questions

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/documents"
)

var fillerTerms = []string{"equilibrium", "catalyst", "frequency", "hypothesis", "structure", "variable", "function", "process"}

// Generator builds fill-in-the-blank questions from document sentences.
// Output is a pure function of the request, so the same request always yields
// the same questions.
type Generator struct {
	docs documents.Library
}

func NewGenerator(docs documents.Library) *Generator { return &Generator{docs: docs} }

type fact struct {
	doc      documents.Document
	sentence string
	terms    []string
}

// GetQuestionsForSession returns exactly count questions when at least one of
// documentIDs is known, and none otherwise.
func (g *Generator) GetQuestionsForSession(ctx context.Context, documentIDs []string, difficulty cbt.Difficulty, count int) ([]cbt.Question, error) {
	levels := difficulty.Levels()
	if count <= 0 || len(documentIDs) == 0 || len(levels) == 0 {
		return nil, nil
	}
	docs, err := documents.GetMany(ctx, g.docs, documentIDs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := append([]string(nil), documentIDs...)
	sort.Strings(ids)
	seed := seedOf(append(ids, string(difficulty), strconv.Itoa(count))...)
	rng := rand.New(rand.NewSource(seed))
	prefix := fmt.Sprintf("gen-%08x", uint32(seed))

	var facts []fact
	vocab := map[string]bool{}
	for _, d := range docs {
		for _, s := range sentences(d.Text, 5) {
			terms := keyTerms(s)
			if len(terms) == 0 {
				continue
			}
			facts = append(facts, fact{doc: d, sentence: s, terms: terms})
			for _, t := range terms {
				vocab[strings.ToLower(t)] = true
			}
		}
	}
	pool := make([]string, 0, len(vocab))
	for w := range vocab {
		pool = append(pool, w)
	}
	sort.Strings(pool)

	out := make([]cbt.Question, 0, count)
	for i := 0; i < count; i++ {
		level := levels[0]
		if len(levels) > 1 {
			level = levels[rng.Intn(len(levels))]
		}
		id := fmt.Sprintf("%s-%d", prefix, i+1)
		if len(facts) == 0 {
			out = append(out, titleQuestion(id, docs[i%len(docs)], level, rng))
			continue
		}
		f := facts[i%len(facts)]
		term := f.terms[(i/len(facts))%len(f.terms)]
		out = append(out, cloze(id, f, term, pool, level, rng))
	}
	return out, nil
}

func cloze(id string, f fact, term string, pool []string, level cbt.Difficulty, rng *rand.Rand) cbt.Question {
	answer := strings.ToLower(term)
	distractors := pickDistractors(answer, pool, level, rng)
	q := cbt.Question{
		ID:          id,
		Prompt:      "Fill in the blank: " + blank(f.sentence, term),
		Difficulty:  level,
		Subject:     f.doc.Subject,
		Topic:       f.doc.Title,
		Explanation: fmt.Sprintf("From %q: %s", f.doc.Title, f.sentence),
		DocumentID:  f.doc.ID,
	}
	setOptions(&q, answer, distractors, rng)
	pointsFor(&q)
	return q
}

func titleQuestion(id string, d documents.Document, level cbt.Difficulty, rng *rand.Rand) cbt.Question {
	q := cbt.Question{
		ID:          id,
		Prompt:      "Which of these is the title of the material you are studying?",
		Difficulty:  level,
		Subject:     d.Subject,
		Topic:       d.Title,
		Explanation: fmt.Sprintf("This question was drawn from %q.", d.Title),
		DocumentID:  d.ID,
	}
	setOptions(&q, d.Title, []string{"General knowledge review", "Unrelated sample notes", "None of the above"}, rng)
	pointsFor(&q)
	return q
}

// pickDistractors picks three wrong options. Harder questions prefer terms
// whose length is close to the answer's.
func pickDistractors(answer string, pool []string, level cbt.Difficulty, rng *rand.Rand) []string {
	cands := make([]string, 0, len(pool))
	for _, w := range pool {
		if w != answer {
			cands = append(cands, w)
		}
	}
	rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	if level == cbt.DifficultyHard {
		sort.SliceStable(cands, func(i, j int) bool {
			return abs(len(cands[i])-len(answer)) < abs(len(cands[j])-len(answer))
		})
	}
	out := make([]string, 0, 3)
	for _, w := range cands {
		if len(out) == 3 {
			break
		}
		out = append(out, w)
	}
	for _, w := range fillerTerms {
		if len(out) == 3 {
			break
		}
		if w != answer && !contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}

func setOptions(q *cbt.Question, answer string, distractors []string, rng *rand.Rand) {
	texts := append([]string{answer}, distractors...)
	rng.Shuffle(len(texts), func(i, j int) { texts[i], texts[j] = texts[j], texts[i] })
	for i, t := range texts {
		label := string(rune('A' + i))
		q.Options = append(q.Options, cbt.Option{Label: label, Text: t})
		if t == answer {
			q.CorrectAnswer = label
		}
	}
}

func pointsFor(q *cbt.Question) {
	switch q.Difficulty {
	case cbt.DifficultyEasy:
		q.Points, q.TimeSeconds = 1, 45
	case cbt.DifficultyHard:
		q.Points, q.TimeSeconds = 3, 90
	default:
		q.Points, q.TimeSeconds = 2, 60
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
