// Package sessions hosts many concurrent CBT sessions, one cbt.Controller each,
// and keeps their snapshots, results, events and metrics in step with them.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-cbt/internal/cbt"
	"github.com/mind-engage/mindengage-cbt/internal/events"
	"github.com/mind-engage/mindengage-cbt/internal/metrics"
	"github.com/mind-engage/mindengage-cbt/internal/store"
	"github.com/mind-engage/mindengage-cbt/internal/timer"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("session belongs to another user")
)

const (
	defaultSnapshotEvery = 15 // seconds between timer-driven snapshots
	hookTimeout          = 5 * time.Second
)

type Option func(*Manager)

func WithLogger(l *log.Logger) Option              { return func(m *Manager) { m.logger = l } }
func WithPublisher(p events.Publisher) Option      { return func(m *Manager) { m.pub = p } }
func WithSnapshotEvery(seconds int) Option         { return func(m *Manager) { m.snapshotEvery = seconds } }
func WithCountdowns(f func() cbt.Countdown) Option { return func(m *Manager) { m.newCountdown = f } }

// WithControllerOptions is appended to every controller the manager builds.
func WithControllerOptions(opts ...cbt.ControllerOption) Option {
	return func(m *Manager) { m.ctrlOpts = append(m.ctrlOpts, opts...) }
}

type entry struct {
	ctrl  *cbt.Controller
	owner string
}

// Manager maps session ids to live controllers. Finished sessions leave the map
// and are served from the store.
//
// Methods taking an owner reject sessions of other owners with ErrForbidden.
// An empty owner skips that check.
type Manager struct {
	source        cbt.QuestionSource
	store         store.Store
	pub           events.Publisher
	logger        *log.Logger
	snapshotEvery int
	newCountdown  func() cbt.Countdown
	ctrlOpts      []cbt.ControllerOption

	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewManager(src cbt.QuestionSource, st store.Store, opts ...Option) *Manager {
	m := &Manager{
		source:        src,
		store:         st,
		pub:           events.Nop{},
		logger:        log.Default(),
		snapshotEvery: defaultSnapshotEvery,
		newCountdown:  func() cbt.Countdown { return timer.New() },
		sessions:      map[string]*entry{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) newController() *cbt.Controller {
	opts := []cbt.ControllerOption{
		cbt.WithCountdown(m.newCountdown()),
		cbt.WithLogger(m.logger),
		cbt.WithTickHook(m.onTick),
		cbt.WithSubmitHook(m.onSubmit),
	}
	return cbt.NewController(m.source, append(opts, m.ctrlOpts...)...)
}

// Start configures a new session for owner and begins its countdown.
func (m *Manager) Start(ctx context.Context, owner string, cfg cbt.Config) (cbt.Session, error) {
	cfg.OwnerID = owner
	ctrl := m.newController()
	s, err := ctrl.Configure(ctx, cfg)
	if err != nil {
		return cbt.Session{}, err
	}
	m.register(s.ID, owner, ctrl)
	metrics.SessionsStarted.WithLabelValues(string(s.Difficulty)).Inc()
	m.persist(ctx, ctrl)
	m.publish(ctx, events.Event{
		Type:    events.TypeSessionStarted,
		Key:     s.ID,
		OwnerID: owner,
		Data: map[string]any{
			"document_ids":       s.DocumentIDs,
			"difficulty":         s.Difficulty,
			"total_questions":    s.TotalQuestions,
			"time_limit_minutes": s.TimeLimitMinutes,
		},
	})
	return redact(s), nil
}

func (m *Manager) register(id, owner string, ctrl *cbt.Controller) {
	m.mu.Lock()
	m.sessions[id] = &entry{ctrl: ctrl, owner: owner}
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()
}

func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		metrics.ActiveSessions.Dec()
	}
	return ok
}

// lookup returns the live controller of id. A finished session yields
// ErrInvalidStateTransition, an unknown one ErrSessionNotFound.
func (m *Manager) lookup(ctx context.Context, owner, id string) (*cbt.Controller, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		if owner != "" && e.owner != owner {
			return nil, ErrForbidden
		}
		return e.ctrl, nil
	}
	res, err := m.store.GetResult(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if owner != "" && res.OwnerID != owner {
		return nil, ErrForbidden
	}
	return nil, fmt.Errorf("session %s is %s: %w", id, res.Status(), cbt.ErrInvalidStateTransition)
}

func (m *Manager) Answer(ctx context.Context, owner, id, questionID, option string) error {
	ctrl, err := m.lookup(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := ctrl.Answer(questionID, option); err != nil {
		return err
	}
	m.persist(ctx, ctrl)
	return nil
}

// Flag toggles the review flag of a question and returns its new value.
func (m *Manager) Flag(ctx context.Context, owner, id, questionID string) (bool, error) {
	ctrl, err := m.lookup(ctx, owner, id)
	if err != nil {
		return false, err
	}
	flagged, err := ctrl.Flag(questionID)
	if err != nil {
		return false, err
	}
	m.persist(ctx, ctrl)
	return flagged, nil
}

func (m *Manager) Focus(ctx context.Context, owner, id, questionID string) error {
	ctrl, err := m.lookup(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := ctrl.Focus(questionID); err != nil {
		return err
	}
	m.persist(ctx, ctrl)
	return nil
}

// Submit ends the session. Submitting again returns the stored result.
func (m *Manager) Submit(ctx context.Context, owner, id string) (cbt.Result, error) {
	ctrl, err := m.lookup(ctx, owner, id)
	if errors.Is(err, cbt.ErrInvalidStateTransition) {
		return m.store.GetResult(ctx, id)
	}
	if err != nil {
		return cbt.Result{}, err
	}
	return ctrl.Submit(true)
}

// Discard abandons an in-progress session without scoring it.
func (m *Manager) Discard(ctx context.Context, owner, id string) error {
	ctrl, err := m.lookup(ctx, owner, id)
	if err != nil {
		return err
	}
	ctrl.Reset()
	m.remove(id)
	m.dropSnapshot(ctx, id)
	m.publish(ctx, events.Event{Type: events.TypeSessionDiscarded, Key: id, OwnerID: owner})
	return nil
}

// View is what the client sees of a session. Correct answers and
// explanations stay hidden until the session is finished.
type View struct {
	Session          cbt.Session `json:"session"`
	Answers          cbt.Entries `json:"answers"`
	RemainingSeconds int         `json:"remaining_seconds"`
	AnsweredCount    int         `json:"answered_count"`
	Result           *cbt.Result `json:"result,omitempty"`
}

func (m *Manager) View(ctx context.Context, owner, id string) (View, error) {
	ctrl, err := m.lookup(ctx, owner, id)
	if errors.Is(err, cbt.ErrInvalidStateTransition) {
		res, err := m.store.GetResult(ctx, id)
		if err != nil {
			return View{}, err
		}
		return View{AnsweredCount: res.TotalQuestions - res.Unanswered, Result: &res}, nil
	}
	if err != nil {
		return View{}, err
	}
	s, ok := ctrl.Session()
	if !ok {
		return View{}, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	v := View{
		Session:          s,
		Answers:          ctrl.Entries(),
		RemainingSeconds: ctrl.Remaining(),
		AnsweredCount:    ctrl.AnsweredCount(),
	}
	if res, ok := ctrl.Result(); ok {
		v.Result = &res
	} else {
		v.Session = redact(s)
	}
	return v, nil
}

// Question returns the question at index, without its key, and its answer entry.
func (m *Manager) Question(ctx context.Context, owner, id string, index int) (cbt.Question, cbt.AnswerEntry, error) {
	ctrl, err := m.lookup(ctx, owner, id)
	if err != nil {
		return cbt.Question{}, cbt.AnswerEntry{}, err
	}
	q, e, err := ctrl.Question(index)
	if err != nil {
		return cbt.Question{}, cbt.AnswerEntry{}, err
	}
	if !ctrl.Status().Terminal() {
		q = hideKey(q)
	}
	return q, e, nil
}

func (m *Manager) Result(ctx context.Context, owner, id string) (cbt.Result, error) {
	res, err := m.store.GetResult(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if _, lerr := m.lookup(ctx, owner, id); lerr != nil {
			return cbt.Result{}, lerr
		}
		return cbt.Result{}, fmt.Errorf("result of running session %s: %w", id, cbt.ErrInvalidStateTransition)
	}
	if err != nil {
		return cbt.Result{}, err
	}
	if owner != "" && res.OwnerID != owner {
		return cbt.Result{}, ErrForbidden
	}
	return res, nil
}

// ListResults lists finished sessions; opts.OwnerID narrows to one user.
func (m *Manager) ListResults(ctx context.Context, opts store.ResultListOpts) ([]cbt.Result, error) {
	return m.store.ListResults(ctx, opts)
}

// Active returns the number of sessions in progress.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Restore resumes every persisted snapshot. Snapshots whose time ran out
// while the process was down are auto-submitted. A snapshot of a session that
// already has a result is deleted, never resumed.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	snaps, err := m.store.ListSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}
	n := 0
	for _, snap := range snaps {
		id := snap.Session.ID
		m.mu.RLock()
		_, live := m.sessions[id]
		m.mu.RUnlock()
		if live {
			continue
		}
		_, err := m.store.GetResult(ctx, id)
		if err == nil {
			m.logger.Printf("sessions: dropping snapshot of finished session %s", id)
			m.dropSnapshot(ctx, id)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Printf("sessions: result of %s: %v", id, err)
			continue
		}
		ctrl := m.newController()
		s, err := ctrl.Resume(snap)
		if err != nil {
			m.logger.Printf("sessions: resume %s: %v", id, err)
			continue
		}
		n++
		if s.Status.Terminal() {
			continue
		}
		m.register(id, s.OwnerID, ctrl)
		m.publish(ctx, events.Event{
			Type:    events.TypeSessionResumed,
			Key:     id,
			OwnerID: s.OwnerID,
			Data:    map[string]any{"remaining_seconds": snap.RemainingSeconds},
		})
	}
	return n, nil
}

// Close stops every countdown and writes a final snapshot of each running
// session so Restore can pick them up.
func (m *Manager) Close(ctx context.Context) {
	m.mu.RLock()
	ctrls := make([]*cbt.Controller, 0, len(m.sessions))
	for _, e := range m.sessions {
		ctrls = append(ctrls, e.ctrl)
	}
	m.mu.RUnlock()
	for _, c := range ctrls {
		c.Suspend()
		m.persist(ctx, c)
	}
}

// persist saves a snapshot of a running session. A submit or discard that
// lands while the save is in flight has already deleted the snapshot, so the
// session is checked again afterwards and a late write is removed.
func (m *Manager) persist(ctx context.Context, ctrl *cbt.Controller) {
	snap, err := ctrl.Snapshot()
	if err != nil {
		return // finished in the meantime; onSubmit owns the cleanup
	}
	id := snap.Session.ID
	if err := m.store.SaveSnapshot(ctx, snap); err != nil {
		m.logger.Printf("sessions: save snapshot %s: %v", id, err)
		return
	}
	if ctrl.Status() != cbt.StatusInProgress {
		m.dropSnapshot(ctx, id)
	}
}

func (m *Manager) dropSnapshot(ctx context.Context, id string) {
	if err := m.store.DeleteSnapshot(ctx, id); err != nil {
		m.logger.Printf("sessions: delete snapshot %s: %v", id, err)
	}
}

func (m *Manager) onTick(id string, remaining int) {
	if m.snapshotEvery <= 0 || remaining%m.snapshotEvery != 0 {
		return
	}
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	m.persist(ctx, e.ctrl)
}

func (m *Manager) onSubmit(res cbt.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	if err := m.store.SaveResult(ctx, res); err != nil {
		m.logger.Printf("sessions: save result %s: %v", res.SessionID, err)
	}
	m.dropSnapshot(ctx, res.SessionID)
	m.remove(res.SessionID)

	status := res.Status()
	metrics.SessionsSubmitted.WithLabelValues(string(status)).Inc()
	metrics.ScorePercent.Observe(float64(res.Percentage))

	typ := events.TypeSessionSubmitted
	if res.AutoSubmitted {
		typ = events.TypeSessionExpired
	}
	m.publish(ctx, events.Event{
		Type:    typ,
		Key:     res.SessionID,
		OwnerID: res.OwnerID,
		Data: map[string]any{
			"percentage":      res.Percentage,
			"correct":         res.CorrectAnswers,
			"total_questions": res.TotalQuestions,
			"time_spent":      res.TimeSpentSeconds,
		},
	})
}

func (m *Manager) publish(ctx context.Context, e events.Event) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := m.pub.Publish(ctx, e); err != nil {
		m.logger.Printf("sessions: publish %s %s: %v", e.Type, e.Key, err)
	}
}

func redact(s cbt.Session) cbt.Session {
	qs := make([]cbt.Question, len(s.Questions))
	for i, q := range s.Questions {
		qs[i] = hideKey(q)
	}
	s.Questions = qs
	return s
}

func hideKey(q cbt.Question) cbt.Question {
	q.CorrectAnswer = ""
	q.Explanation = ""
	q.AudioExplanationURL = ""
	return q
}
