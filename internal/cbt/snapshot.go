package cbt

import "fmt"

// Snapshot is the persisted form of an in-progress session.
type Snapshot struct {
	Session          Session `json:"session"`
	Ledger           Entries `json:"ledger"`
	RemainingSeconds int     `json:"remaining_seconds"`
	Focus            string  `json:"focus,omitempty"`
}

// Snapshot captures the running session so it can be resumed after a restart.
func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress {
		return Snapshot{}, fmt.Errorf("snapshot in %s: %w", c.status, ErrInvalidStateTransition)
	}
	return Snapshot{
		Session:          c.session.clone(),
		Ledger:           c.ledger.Load().Entries(),
		RemainingSeconds: c.remaining,
		Focus:            c.focus,
	}, nil
}

// Resume reinstalls a snapshot into a NOT_STARTED controller and restarts the
// countdown from the saved remaining time. A snapshot with no time left is
// auto-submitted at once.
func (c *Controller) Resume(snap Snapshot) (Session, error) {
	if len(snap.Session.Questions) == 0 {
		return Session{}, ErrEmptyQuestionSet
	}
	if snap.Session.Status != StatusInProgress {
		return Session{}, fmt.Errorf("resume %s session: %w", snap.Session.Status, ErrInvalidStateTransition)
	}

	c.mu.Lock()
	if c.status != StatusNotStarted {
		st := c.status
		c.mu.Unlock()
		return Session{}, fmt.Errorf("resume in %s: %w", st, ErrInvalidStateTransition)
	}

	s := snap.Session.clone()
	s.TotalQuestions = len(s.Questions)
	l := restoreLedger(s.Questions, snap.Ledger)
	focus := snap.Focus
	if _, ok := l.Entry(focus); !ok {
		focus = s.Questions[0].ID
	}

	if snap.RemainingSeconds <= 0 {
		c.epoch++
		c.session = &s
		c.ledger.Store(l)
		c.status = StatusInProgress
		c.remaining = 0
		c.focus = focus
		res, fresh, err := c.submitLocked(true)
		out := c.session.clone()
		c.mu.Unlock()
		if fresh {
			c.notifySubmit(res)
		}
		return out, err
	}

	c.begin(&s, l, snap.RemainingSeconds, focus)
	out := s.clone()
	c.mu.Unlock()
	c.logger.Printf("cbt: session %s resumed with %ds left", s.ID, snap.RemainingSeconds)
	return out, nil
}
