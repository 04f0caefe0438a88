package cbt

import "time"

// Score grades a session against the ledger view. It is a pure function:
// completedAt is copied into the Result and never used in a computed field.
func Score(s Session, answers LedgerView, remainingSeconds int, autoSubmitted bool, completedAt time.Time) Result {
	total := len(s.Questions)
	r := Result{
		SessionID:        s.ID,
		Title:            s.Title,
		OwnerID:          s.OwnerID,
		TotalQuestions:   total,
		TimeLimitSeconds: s.TimeLimitSeconds(),
		Subjects:         map[string]Bucket{},
		AutoSubmitted:    autoSubmitted,
		CompletedAt:      completedAt,
		Questions:        make([]QuestionResult, 0, total),
	}

	answered := 0
	for _, q := range s.Questions {
		e, _ := answers.Entry(q.ID)
		correct := e.Answered && e.SelectedAnswer == q.CorrectAnswer

		if e.Answered {
			answered++
		}
		if e.Flagged {
			r.FlaggedCount++
		}
		r.TotalPoints += q.Points
		if correct {
			r.CorrectAnswers++
			r.EarnedPoints += q.Points
		}

		if b := r.Breakdown.bucket(q.Difficulty); b != nil {
			b.Total++
			if correct {
				b.Correct++
			}
		}
		if q.Subject != "" {
			sb := r.Subjects[q.Subject]
			sb.Total++
			if correct {
				sb.Correct++
			}
			r.Subjects[q.Subject] = sb
		}

		r.Questions = append(r.Questions, QuestionResult{
			Question:         q,
			SelectedAnswer:   e.SelectedAnswer,
			Answered:         e.Answered,
			Flagged:          e.Flagged,
			IsCorrect:        correct,
			Explanation:      q.Explanation,
			TimeSpentSeconds: e.TimeSpentSeconds,
		})
	}

	r.Unanswered = total - answered
	r.IncorrectAnswers = total - r.CorrectAnswers - r.Unanswered
	r.Percentage = percentage(r.CorrectAnswers, total)

	spent := r.TimeLimitSeconds - remainingSeconds
	if spent < 0 {
		spent = 0
	}
	r.TimeSpentSeconds = spent
	return r
}

// percentage is round(100*correct/total) with halves rounded up, in integers.
func percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
