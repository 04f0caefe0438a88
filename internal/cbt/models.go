package cbt

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is only valid as a session setting; it requests all three levels.
	DifficultyMixed Difficulty = "mixed"
)

// Levels returns the question difficulties a session setting allows.
func (d Difficulty) Levels() []Difficulty {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return []Difficulty{d}
	case DifficultyMixed:
		return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
	default:
		return nil
	}
}

// Allows reports whether a question of difficulty q fits setting d.
func (d Difficulty) Allows(q Difficulty) bool {
	for _, l := range d.Levels() {
		if l == q {
			return true
		}
	}
	return false
}

type QuestionType string

const (
	QuestionTypeObjective QuestionType = "objective"
	QuestionTypeTheory    QuestionType = "theory"
)

type Status string

const (
	StatusNotStarted    Status = "not_started"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusAutoSubmitted Status = "auto_submitted"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAutoSubmitted
}

type Option struct {
	Label string `json:"label"` // A-D, or 1-4 in the simple quiz variant
	Text  string `json:"text"`
}

type Question struct {
	ID                  string     `json:"id" yaml:"id"`
	Prompt              string     `json:"prompt" yaml:"prompt"`
	Options             []Option   `json:"options" yaml:"options"`
	CorrectAnswer       string     `json:"correct_answer" yaml:"correct_answer"`
	Difficulty          Difficulty `json:"difficulty" yaml:"difficulty"`
	Subject             string     `json:"subject,omitempty" yaml:"subject"`
	Topic               string     `json:"topic,omitempty" yaml:"topic"`
	Explanation         string     `json:"explanation,omitempty" yaml:"explanation"`
	AudioExplanationURL string     `json:"audio_explanation_url,omitempty" yaml:"audio_explanation_url"`
	Points              int        `json:"points" yaml:"points"`
	TimeSeconds         int        `json:"time_seconds" yaml:"time_seconds"`
	DocumentID          string     `json:"document_id,omitempty" yaml:"document_id"`
}

// HasOption reports whether label is one of the question's option labels.
func (q Question) HasOption(label string) bool {
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

type TheoryQuestion struct {
	ID               string `json:"id"`
	Prompt           string `json:"prompt"`
	SuggestedAnswer  string `json:"suggested_answer"`
	Points           int    `json:"points"`
	Topic            string `json:"topic,omitempty"`
	SourceDocumentID string `json:"source_document_id,omitempty"`
}

// Config is what the UI submits to start a session.
type Config struct {
	Title            string       `json:"title,omitempty"`
	OwnerID          string       `json:"owner_id,omitempty"`
	DocumentIDs      []string     `json:"document_ids"`
	Difficulty       Difficulty   `json:"difficulty"`
	QuestionCount    int          `json:"question_count"`
	TimeLimitMinutes int          `json:"time_limit_minutes"`
	QuestionType     QuestionType `json:"question_type"`
}

// Session is fixed at creation. Only the Controller changes Status and CompletedAt.
type Session struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	OwnerID          string       `json:"owner_id,omitempty"`
	Questions        []Question   `json:"questions"`
	DocumentIDs      []string     `json:"document_ids"`
	Difficulty       Difficulty   `json:"difficulty"`
	TimeLimitMinutes int          `json:"time_limit_minutes"`
	TotalQuestions   int          `json:"total_questions"`
	QuestionType     QuestionType `json:"question_type"`
	Status           Status       `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

func (s Session) TimeLimitSeconds() int { return s.TimeLimitMinutes * 60 }

// clone copies the slices so callers cannot reach the controller's copy.
func (s Session) clone() Session {
	out := s
	out.Questions = append([]Question(nil), s.Questions...)
	out.DocumentIDs = append([]string(nil), s.DocumentIDs...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

type AnswerEntry struct {
	QuestionID       string `json:"question_id"`
	SelectedAnswer   string `json:"selected_answer,omitempty"` // empty until answered
	Flagged          bool   `json:"flagged"`
	Answered         bool   `json:"answered"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type Bucket struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type DifficultyBreakdown struct {
	Easy   Bucket `json:"easy"`
	Medium Bucket `json:"medium"`
	Hard   Bucket `json:"hard"`
}

func (b *DifficultyBreakdown) bucket(d Difficulty) *Bucket {
	switch d {
	case DifficultyEasy:
		return &b.Easy
	case DifficultyMedium:
		return &b.Medium
	case DifficultyHard:
		return &b.Hard
	}
	return nil
}

// QuestionResult pairs a question with what the user did on it, for the review screen.
type QuestionResult struct {
	Question         Question `json:"question"`
	SelectedAnswer   string   `json:"selected_answer,omitempty"`
	Answered         bool     `json:"answered"`
	Flagged          bool     `json:"flagged"`
	IsCorrect        bool     `json:"is_correct"`
	Explanation      string   `json:"explanation,omitempty"`
	TimeSpentSeconds int      `json:"time_spent_seconds"`
}

// Result is an immutable scoring snapshot. Retaking produces a new Session and Result.
type Result struct {
	SessionID        string              `json:"session_id"`
	Title            string              `json:"title"`
	OwnerID          string              `json:"owner_id,omitempty"`
	TotalQuestions   int                 `json:"total_questions"`
	CorrectAnswers   int                 `json:"correct_answers"`
	IncorrectAnswers int                 `json:"incorrect_answers"`
	Unanswered       int                 `json:"unanswered"`
	FlaggedCount     int                 `json:"flagged_count"`
	Percentage       int                 `json:"percentage"`
	EarnedPoints     int                 `json:"earned_points"`
	TotalPoints      int                 `json:"total_points"`
	TimeLimitSeconds int                 `json:"time_limit_seconds"`
	TimeSpentSeconds int                 `json:"time_spent_seconds"`
	Breakdown        DifficultyBreakdown `json:"breakdown"`
	Subjects         map[string]Bucket   `json:"subjects"`
	AutoSubmitted    bool                `json:"auto_submitted"`
	CompletedAt      time.Time           `json:"completed_at"`
	Questions        []QuestionResult    `json:"questions"`
}

// Status is the terminal status this result was produced by.
func (r Result) Status() Status {
	if r.AutoSubmitted {
		return StatusAutoSubmitted
	}
	return StatusCompleted
}
