package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Q is the view of a question that grading needs.
type Q struct {
	Type      string   // "objective" | "theory"
	Points    float64  // max points
	AnswerKey []string // objective: correct label; theory: key terms
	Reference string   // theory: suggested answer shown back to the learner
}

// Result is the outcome of grading one response.
type Result struct {
	AutoPoints  float64  `json:"points"`
	MaxPoints   float64  `json:"max_points"`
	NeedsManual bool     `json:"needs_review"`
	Matched     []string `json:"matched,omitempty"`
	Missing     []string `json:"missing,omitempty"`
	Marks       []Mark   `json:"marks,omitempty"`
	Feedback    []string `json:"feedback,omitempty"`
}

// Percent is AutoPoints as a whole percentage of MaxPoints, rounded half up.
func (r Result) Percent() int {
	if r.MaxPoints <= 0 {
		return 0
	}
	return int(math.Floor(100*r.AutoPoints/r.MaxPoints + 0.5))
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response string) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, NeedsManual: true, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, q, response)
}

// Engine options

type Option func(*config)

type config struct {
	MaxEditDistance int     // typo tolerance per key term
	MinWords        int     // answers shorter than this lose development credit
	ReviewBelow     float64 // coverage under this flags the answer for review
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }
func WithMinWords(n int) Option        { return func(c *config) { c.MinWords = n } }
func WithReviewBelow(f float64) Option { return func(c *config) { c.ReviewBelow = f } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{
		MaxEditDistance: 1,
		MinWords:        25,
		ReviewBelow:     0.34,
	}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			"objective": objectiveStrategy{},
			"theory":    theoryStrategy{cfg: *cfg},
		},
	}
}

// --- Strategies ---

type objectiveStrategy struct{}

func (objectiveStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	res := Result{MaxPoints: q.Points}
	if response == "" {
		return res, errors.New("response must name an option")
	}
	for _, k := range q.AnswerKey {
		if strings.EqualFold(strings.TrimSpace(response), k) {
			res.AutoPoints = q.Points
			return res, nil
		}
	}
	return res, nil
}

// theoryStrategy scores free text against key terms with theoryRubric.
type theoryStrategy struct{ cfg config }

func (s theoryStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	res := Result{MaxPoints: q.Points}
	text := normalize(response)
	if text == "" {
		res.Feedback = []string{"no answer given"}
		if q.Reference != "" {
			res.Feedback = append(res.Feedback, "suggested answer: "+q.Reference)
		}
		return res, nil
	}
	tokens := strings.Fields(text)

	for _, k := range q.AnswerKey {
		if containsTerm(tokens, normalize(k), s.cfg.MaxEditDistance) {
			res.Matched = append(res.Matched, k)
		} else {
			res.Missing = append(res.Missing, k)
		}
	}
	coverage := 1.0
	if len(q.AnswerKey) > 0 {
		coverage = float64(len(res.Matched)) / float64(len(q.AnswerKey))
	}
	development := 1.0
	if s.cfg.MinWords > 0 && len(tokens) < s.cfg.MinWords {
		development = float64(len(tokens)) / float64(s.cfg.MinWords)
	}

	total, marks := theoryRubric.Apply(q.Points, map[string]float64{
		"coverage":    coverage,
		"development": development,
	})
	res.AutoPoints = math.Round(total*2) / 2
	res.NeedsManual = coverage < s.cfg.ReviewBelow
	res.Feedback = append(res.Feedback, fmt.Sprintf("key terms: %d/%d", len(res.Matched), len(q.AnswerKey)))
	res.Marks = marks
	for _, m := range marks {
		res.Feedback = append(res.Feedback, m.String())
	}
	if len(res.Missing) > 0 {
		res.Feedback = append(res.Feedback, "consider mentioning: "+strings.Join(res.Missing, ", "))
	}
	if q.Reference != "" {
		res.Feedback = append(res.Feedback, "suggested answer: "+q.Reference)
	}
	return res, nil
}

// containsTerm reports whether the token stream holds term. Single-word terms of
// five or more letters tolerate maxEdit typos.
func containsTerm(tokens []string, term string, maxEdit int) bool {
	if term == "" {
		return false
	}
	parts := strings.Fields(term)
	if len(parts) > 1 {
		return strings.Contains(" "+strings.Join(tokens, " ")+" ", " "+term+" ")
	}
	for _, t := range tokens {
		if t == term {
			return true
		}
		if maxEdit > 0 && len([]rune(term)) >= 5 && levenshtein(t, term) <= maxEdit {
			return true
		}
	}
	return false
}
