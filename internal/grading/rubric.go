package grading

import (
	"fmt"
	"math"
)

// Criterion is one weighted part of a theory answer's score.
type Criterion struct {
	Key    string  `json:"key"`
	Desc   string  `json:"desc"`
	Weight float64 `json:"weight"` // share of the question's points
}

// Mark is what one criterion earned on an answer.
type Mark struct {
	Key    string  `json:"key"`
	Points float64 `json:"points"`
	Max    float64 `json:"max_points"`
}

func (m Mark) String() string { return fmt.Sprintf("%s: %.1f/%.1f", m.Key, m.Points, m.Max) }

// Rubric lists the criteria of a theory answer. Weights sum to 1.
type Rubric []Criterion

// theoryRubric rewards naming the key terms over writing at length.
var theoryRubric = Rubric{
	{Key: "coverage", Desc: "mentions the key terms", Weight: 0.8},
	{Key: "development", Desc: "explains in full sentences", Weight: 0.2},
}

// Apply turns per-criterion fractions, clamped to [0,1], into a share of the
// question's points and returns the total with one Mark per criterion.
func (r Rubric) Apply(points float64, fractions map[string]float64) (float64, []Mark) {
	total := 0.0
	marks := make([]Mark, 0, len(r))
	for _, c := range r {
		f := math.Min(math.Max(fractions[c.Key], 0), 1)
		m := Mark{Key: c.Key, Points: points * c.Weight * f, Max: points * c.Weight}
		total += m.Points
		marks = append(marks, m)
	}
	return math.Min(total, points), marks
}
