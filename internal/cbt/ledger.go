package cbt

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// LedgerView is the read side of a ledger that scoring needs.
type LedgerView interface {
	Entry(questionID string) (AnswerEntry, bool)
}

// Entries is a detached copy of a ledger, keyed by question id.
type Entries map[string]AnswerEntry

func (e Entries) Entry(questionID string) (AnswerEntry, bool) {
	a, ok := e[questionID]
	return a, ok
}

// Ledger records the user's answers and flags for one session.
//
// Only the controller writes to it. Reads take a short read lock, and
// AnsweredCount is served from an atomic counter so a live "N answered"
// display never waits on a writer.
type Ledger struct {
	mu       sync.RWMutex
	entries  map[string]*AnswerEntry
	answered atomic.Int64
	flagged  atomic.Int64
}

// NewLedger creates one unanswered, unflagged entry per question.
func NewLedger(questions []Question) *Ledger {
	l := &Ledger{entries: make(map[string]*AnswerEntry, len(questions))}
	for _, q := range questions {
		l.entries[q.ID] = &AnswerEntry{QuestionID: q.ID}
	}
	return l
}

// restoreLedger rebuilds a ledger from persisted entries. Questions without an
// entry get a fresh one so every question keeps exactly one entry.
func restoreLedger(questions []Question, saved Entries) *Ledger {
	l := NewLedger(questions)
	for id, e := range l.entries {
		s, ok := saved[id]
		if !ok {
			continue
		}
		e.SelectedAnswer = s.SelectedAnswer
		e.Answered = s.Answered && s.SelectedAnswer != ""
		e.Flagged = s.Flagged
		if s.TimeSpentSeconds > 0 {
			e.TimeSpentSeconds = s.TimeSpentSeconds
		}
		if e.Answered {
			l.answered.Add(1)
		}
		if e.Flagged {
			l.flagged.Add(1)
		}
	}
	return l
}

// SelectAnswer records option for the question. Selecting the option that is
// already selected changes nothing.
func (l *Ledger) SelectAnswer(questionID, option string) error {
	if option == "" {
		return fmt.Errorf("select %q: %w", questionID, ErrInvalidOption)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[questionID]
	if !ok {
		return fmt.Errorf("select %q: %w", questionID, ErrUnknownQuestionID)
	}
	if !e.Answered {
		l.answered.Add(1)
	}
	e.SelectedAnswer = option
	e.Answered = true
	return nil
}

// ToggleFlag flips the flag and returns the new value.
func (l *Ledger) ToggleFlag(questionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[questionID]
	if !ok {
		return false, fmt.Errorf("flag %q: %w", questionID, ErrUnknownQuestionID)
	}
	e.Flagged = !e.Flagged
	if e.Flagged {
		l.flagged.Add(1)
	} else {
		l.flagged.Add(-1)
	}
	return e.Flagged, nil
}

// AddTime accrues seconds to a question's time spent. Negative values are ignored.
func (l *Ledger) AddTime(questionID string, seconds int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[questionID]
	if !ok {
		return fmt.Errorf("time %q: %w", questionID, ErrUnknownQuestionID)
	}
	if seconds > 0 {
		e.TimeSpentSeconds += seconds
	}
	return nil
}

func (l *Ledger) Entry(questionID string) (AnswerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[questionID]
	if !ok {
		return AnswerEntry{}, false
	}
	return *e, true
}

// Entries returns a copy of every entry.
func (l *Ledger) Entries() Entries {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(Entries, len(l.entries))
	for id, e := range l.entries {
		out[id] = *e
	}
	return out
}

func (l *Ledger) AnsweredCount() int { return int(l.answered.Load()) }

func (l *Ledger) FlaggedCount() int { return int(l.flagged.Load()) }
