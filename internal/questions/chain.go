package questions

import (
	"context"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
)

// Chain asks each source in turn; the first non-empty answer wins. If every
// source comes back empty the first error seen, if any, is returned.
type Chain []cbt.QuestionSource

func (c Chain) GetQuestionsForSession(ctx context.Context, documentIDs []string, difficulty cbt.Difficulty, count int) ([]cbt.Question, error) {
	var firstErr error
	for _, src := range c {
		qs, err := src.GetQuestionsForSession(ctx, documentIDs, difficulty, count)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(qs) > 0 {
			return qs, nil
		}
	}
	return nil, firstErr
}
