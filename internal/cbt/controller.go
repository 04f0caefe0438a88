package cbt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-cbt/internal/timer"
)

// QuestionSource supplies the questions for a new session. It may return fewer
// than count items; the controller tolerates that.
type QuestionSource interface {
	GetQuestionsForSession(ctx context.Context, documentIDs []string, difficulty Difficulty, count int) ([]Question, error)
}

// Countdown is the timer the controller drives. *timer.Timer satisfies it.
type Countdown interface {
	Start(seconds int, onTick func(remaining int), onExpire func())
	Stop()
}

type ControllerOption func(*Controller)

func WithCountdown(cd Countdown) ControllerOption     { return func(c *Controller) { c.timer = cd } }
func WithLogger(l *log.Logger) ControllerOption       { return func(c *Controller) { c.logger = l } }
func WithClock(now func() time.Time) ControllerOption { return func(c *Controller) { c.now = now } }
func WithIDFunc(f func() string) ControllerOption     { return func(c *Controller) { c.newID = f } }

// WithTickHook is called after every accepted tick with the remaining seconds.
func WithTickHook(f func(sessionID string, remaining int)) ControllerOption {
	return func(c *Controller) { c.onTick = f }
}

// WithSubmitHook is called exactly once per produced Result.
func WithSubmitHook(f func(Result)) ControllerOption {
	return func(c *Controller) { c.onSubmit = f }
}

// Controller owns one session lifecycle:
//
//	NOT_STARTED -configure-> IN_PROGRESS -submit/expire-> COMPLETED | AUTO_SUBMITTED
//	any -reset-> NOT_STARTED
//
// Every transition runs under mu. Timer callbacks carry the epoch they were
// started with and are dropped unless it is still current and the session is
// in progress, so a late tick or expiry cannot touch a submitted or reset session.
type Controller struct {
	source   QuestionSource
	timer    Countdown
	logger   *log.Logger
	now      func() time.Time
	newID    func() string
	onTick   func(string, int)
	onSubmit func(Result)

	mu        sync.Mutex
	status    Status
	session   *Session
	result    *Result
	epoch     uint64
	remaining int
	focus     string

	ledger atomic.Pointer[Ledger]
}

func NewController(src QuestionSource, opts ...ControllerOption) *Controller {
	c := &Controller{
		source: src,
		logger: log.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
		status: StatusNotStarted,
	}
	for _, o := range opts {
		o(c)
	}
	if c.timer == nil {
		c.timer = timer.New()
	}
	return c
}

// Configure fetches questions and starts a session.
func (c *Controller) Configure(ctx context.Context, cfg Config) (Session, error) {
	if err := validateConfig(cfg); err != nil {
		return Session{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusNotStarted {
		return Session{}, fmt.Errorf("configure in %s: %w", c.status, ErrInvalidStateTransition)
	}

	qs, err := c.source.GetQuestionsForSession(ctx, cfg.DocumentIDs, cfg.Difficulty, cfg.QuestionCount)
	if err != nil {
		return Session{}, fmt.Errorf("get questions: %w", err)
	}
	qs = usableQuestions(qs, cfg.Difficulty, cfg.QuestionCount)
	if len(qs) == 0 {
		return Session{}, ErrEmptyQuestionSet
	}

	title := cfg.Title
	if title == "" {
		title = fmt.Sprintf("Practice test: %d questions", len(qs))
	}
	qt := cfg.QuestionType
	if qt == "" {
		qt = QuestionTypeObjective
	}
	s := &Session{
		ID:               c.newID(),
		Title:            title,
		OwnerID:          cfg.OwnerID,
		Questions:        qs,
		DocumentIDs:      append([]string(nil), cfg.DocumentIDs...),
		Difficulty:       cfg.Difficulty,
		TimeLimitMinutes: cfg.TimeLimitMinutes,
		TotalQuestions:   len(qs),
		QuestionType:     qt,
		Status:           StatusInProgress,
		CreatedAt:        c.now().UTC(),
	}
	c.begin(s, NewLedger(qs), s.TimeLimitSeconds(), qs[0].ID)
	c.logger.Printf("cbt: session %s started (%d questions, %d min)", s.ID, len(qs), s.TimeLimitMinutes)
	return s.clone(), nil
}

// begin installs a session and arms the countdown. Caller holds mu and
// guarantees remaining > 0, so the timer cannot call back synchronously.
func (c *Controller) begin(s *Session, l *Ledger, remaining int, focus string) {
	c.epoch++
	epoch := c.epoch
	c.session = s
	c.ledger.Store(l)
	c.result = nil
	c.status = StatusInProgress
	c.remaining = remaining
	c.focus = focus
	c.timer.Start(remaining,
		func(rem int) { c.tick(epoch, rem) },
		func() { c.expire(epoch) })
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.QuestionCount <= 0:
		return fmt.Errorf("question count %d: %w", cfg.QuestionCount, ErrInvalidConfig)
	case cfg.TimeLimitMinutes <= 0:
		return fmt.Errorf("time limit %d: %w", cfg.TimeLimitMinutes, ErrInvalidConfig)
	case cfg.Difficulty.Levels() == nil:
		return fmt.Errorf("difficulty %q: %w", cfg.Difficulty, ErrInvalidConfig)
	case cfg.QuestionType != "" && cfg.QuestionType != QuestionTypeObjective:
		return fmt.Errorf("question type %q: %w", cfg.QuestionType, ErrInvalidConfig)
	}
	return nil
}

// usableQuestions drops questions a session cannot score and caps the set at count.
func usableQuestions(in []Question, d Difficulty, count int) []Question {
	seen := make(map[string]bool, len(in))
	out := make([]Question, 0, count)
	for _, q := range in {
		if len(out) == count {
			break
		}
		if q.ID == "" || seen[q.ID] || !d.Allows(q.Difficulty) || !q.HasOption(q.CorrectAnswer) {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}

func (c *Controller) Answer(questionID, option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress {
		return fmt.Errorf("answer in %s: %w", c.status, ErrInvalidStateTransition)
	}
	if q, ok := c.question(questionID); ok && option != "" && !q.HasOption(option) {
		return fmt.Errorf("answer %q with %q: %w", questionID, option, ErrInvalidOption)
	}
	return c.ledger.Load().SelectAnswer(questionID, option)
}

// question finds a question of the running session by id. Caller holds mu.
func (c *Controller) question(id string) (Question, bool) {
	for _, q := range c.session.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Flag toggles the review flag and returns the new value.
func (c *Controller) Flag(questionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress {
		return false, fmt.Errorf("flag in %s: %w", c.status, ErrInvalidStateTransition)
	}
	return c.ledger.Load().ToggleFlag(questionID)
}

// Focus marks the question on screen; it accrues one second per tick.
func (c *Controller) Focus(questionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress {
		return fmt.Errorf("focus in %s: %w", c.status, ErrInvalidStateTransition)
	}
	if _, ok := c.ledger.Load().Entry(questionID); !ok {
		return fmt.Errorf("focus %q: %w", questionID, ErrUnknownQuestionID)
	}
	c.focus = questionID
	return nil
}

// Submit ends the session and returns its Result. Submitting a finished
// session returns the stored Result and has no other effect.
func (c *Controller) Submit(manual bool) (Result, error) {
	c.mu.Lock()
	res, fresh, err := c.submitLocked(!manual)
	c.mu.Unlock()
	if fresh {
		c.notifySubmit(res)
	}
	return res, err
}

func (c *Controller) submitLocked(auto bool) (Result, bool, error) {
	if c.status.Terminal() {
		return *c.result, false, nil
	}
	if c.status != StatusInProgress {
		return Result{}, false, fmt.Errorf("submit in %s: %w", c.status, ErrInvalidStateTransition)
	}
	c.timer.Stop()
	c.epoch++

	done := c.now().UTC()
	res := Score(*c.session, c.ledger.Load().Entries(), c.remaining, auto, done)
	c.status = res.Status()
	c.session.Status = c.status
	c.session.CompletedAt = &done
	c.result = &res
	c.logger.Printf("cbt: session %s %s (%d/%d, %d%%)", res.SessionID, c.status, res.CorrectAnswers, res.TotalQuestions, res.Percentage)
	return res, true, nil
}

func (c *Controller) tick(epoch uint64, remaining int) {
	c.mu.Lock()
	if epoch != c.epoch || c.status != StatusInProgress {
		c.mu.Unlock()
		return
	}
	c.remaining = remaining
	if c.focus != "" {
		_ = c.ledger.Load().AddTime(c.focus, 1)
	}
	id := c.session.ID
	hook := c.onTick
	c.mu.Unlock()
	if hook != nil {
		hook(id, remaining)
	}
}

func (c *Controller) expire(epoch uint64) {
	c.mu.Lock()
	if epoch != c.epoch || c.status != StatusInProgress {
		c.mu.Unlock()
		return
	}
	c.remaining = 0
	res, fresh, err := c.submitLocked(true)
	c.mu.Unlock()
	if err != nil {
		c.logger.Printf("cbt: auto-submit: %v", err)
		return
	}
	if fresh {
		c.notifySubmit(res)
	}
}

func (c *Controller) notifySubmit(res Result) {
	if c.onSubmit != nil {
		c.onSubmit(res)
	}
}

// Reset discards everything and returns to NOT_STARTED. The countdown is
// stopped before Reset returns.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer.Stop()
	c.epoch++
	c.status = StatusNotStarted
	c.session = nil
	c.result = nil
	c.remaining = 0
	c.focus = ""
	c.ledger.Store(nil)
}

// Suspend halts the countdown and leaves the session in progress with its
// remaining time frozen. Late callbacks of the halted countdown are dropped.
func (c *Controller) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusInProgress {
		return
	}
	c.timer.Stop()
	c.epoch++
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return c.session.clone(), true
}

// Question returns the question at index with its current ledger entry.
func (c *Controller) Question(index int) (Question, AnswerEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Question{}, AnswerEntry{}, fmt.Errorf("question in %s: %w", c.status, ErrInvalidStateTransition)
	}
	if index < 0 || index >= len(c.session.Questions) {
		return Question{}, AnswerEntry{}, fmt.Errorf("question index %d: %w", index, ErrUnknownQuestionID)
	}
	q := c.session.Questions[index]
	e, _ := c.ledger.Load().Entry(q.ID)
	return q, e, nil
}

func (c *Controller) Entries() Entries {
	if l := c.ledger.Load(); l != nil {
		return l.Entries()
	}
	return Entries{}
}

// AnsweredCount never waits on the controller lock.
func (c *Controller) AnsweredCount() int {
	if l := c.ledger.Load(); l != nil {
		return l.AnsweredCount()
	}
	return 0
}

func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}
